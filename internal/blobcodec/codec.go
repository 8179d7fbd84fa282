// Package blobcodec converts raw binary payloads to and from the text-safe
// embedded representation stored inside JSON records, and implements the
// media reference scheme that points a day at its off-loaded media record.
package blobcodec

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"adventkeeper/internal/common"
)

const (
	embeddedPrefix = "data:"
	// RefPrefix starts every content reference written into a persisted
	// metadata record in place of embedded media bytes.
	RefPrefix = "media_ref:"
)

// Encode wraps raw bytes into the embedded text form "data:<mime>;base64,…".
func Encode(mime string, data []byte) string {
	return embeddedPrefix + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode extracts the mime type and raw bytes from an embedded payload.
func Decode(s string) (string, []byte, error) {
	if !IsEmbedded(s) {
		return "", nil, fmt.Errorf("%w: not an embedded payload", common.ErrMalformedRecord)
	}

	rest := strings.TrimPrefix(s, embeddedPrefix)
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: embedded payload has no body", common.ErrMalformedRecord)
	}

	mime := strings.TrimSuffix(meta, ";base64")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", common.ErrMalformedRecord, err)
	}

	return mime, data, nil
}

// IsEmbedded reports whether s is the in-transit embedded binary form.
func IsEmbedded(s string) bool {
	return strings.HasPrefix(s, embeddedPrefix)
}

// IsRemoteURL reports whether s already is a renderable remote locator.
func IsRemoteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// IsMediaRef reports whether s is a content reference to a media record.
func IsMediaRef(s string) bool {
	return strings.HasPrefix(s, RefPrefix)
}

// MediaRef builds the content reference for one day of a calendar.
// Format: media_ref:<calendarID>_<day>.
func MediaRef(calendarID string, day int) string {
	return fmt.Sprintf("%s%s_%d", RefPrefix, calendarID, day)
}

// ParseMediaRef extracts the calendar ID and day number from a reference.
func ParseMediaRef(ref string) (string, int, error) {
	if !IsMediaRef(ref) {
		return "", 0, fmt.Errorf("%w: not a media reference: %q", common.ErrMalformedRecord, ref)
	}

	body := strings.TrimPrefix(ref, RefPrefix)
	idx := strings.LastIndex(body, "_")
	if idx <= 0 || idx == len(body)-1 {
		return "", 0, fmt.Errorf("%w: bad media reference: %q", common.ErrMalformedRecord, ref)
	}

	day, err := strconv.Atoi(body[idx+1:])
	if err != nil || day < 1 {
		return "", 0, fmt.Errorf("%w: bad day in media reference: %q", common.ErrMalformedRecord, ref)
	}

	return body[:idx], day, nil
}
