// Package fileproc turns user-supplied files and URLs into day content ready
// for the store: images above the compression threshold go through the
// compression pipeline, everything ends up in the embedded text form.
package fileproc

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"adventkeeper/internal/blobcodec"
	"adventkeeper/internal/calendar"
	"adventkeeper/internal/compress"
	"adventkeeper/internal/logging"
)

// Processor prepares media uploads.
type Processor struct {
	thresholdKB int64
	log         logging.Logger
}

func NewProcessor(thresholdKB int64, log logging.Logger) *Processor {
	if thresholdKB <= 0 {
		thresholdKB = compress.DefaultThresholdKB
	}
	return &Processor{thresholdKB: thresholdKB, log: log.With("component", "fileproc")}
}

var supportedVideoExtensions = map[string]struct{}{
	".mp4": {}, ".webm": {}, ".ogg": {}, ".avi": {}, ".mov": {},
}

// ProcessMediaFile converts an uploaded file into a Day with embedded
// content. Images larger than the threshold are compressed; a compression
// failure falls back to the original bytes rather than aborting. The day
// number is left at zero for the caller to assign.
func (p *Processor) ProcessMediaFile(ctx context.Context, name string, data []byte, typ calendar.ContentType) (*calendar.Day, error) {
	if typ == calendar.ContentTypeVideo {
		ext := strings.ToLower(filepath.Ext(name))
		if _, ok := supportedVideoExtensions[ext]; !ok {
			return nil, fmt.Errorf("video format %q is not supported; recommended formats: MP4, WebM", ext)
		}
	}

	payload := data
	mime := http.DetectContentType(data)
	compressed := false

	if typ == calendar.ContentTypeImage && compress.ShouldCompress(int64(len(data)), p.thresholdKB) {
		preset := compress.PresetFor(int64(len(data)) / 1024)
		res, err := compress.Compress(data, preset)
		if err != nil {
			p.log.Warn(ctx, "image compression failed, keeping original",
				"file", name, "error", err)
		} else {
			payload = res.Payload
			mime = compress.OutputMime
			compressed = true
			p.log.Info(ctx, "image compressed", "file", name,
				"original_kb", res.OriginalSize/1024, "compressed_kb", res.CompressedSize/1024,
				"ratio_pct", res.CompressionRatio)
		}
	}

	return &calendar.Day{
		Type:             typ,
		Source:           calendar.SourceUpload,
		Content:          blobcodec.Encode(mime, payload),
		FileSize:         int64(len(payload)),
		OriginalFileName: name,
		Compressed:       compressed,
	}, nil
}

var urlPatterns = map[calendar.ContentType][]*regexp.Regexp{
	calendar.ContentTypeImage: {
		regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`),
		regexp.MustCompile(`(?i)imgur\.com`),
		regexp.MustCompile(`(?i)drive\.google\.com`),
		regexp.MustCompile(`(?i)cloudinary\.com`),
	},
	calendar.ContentTypeVideo: {
		regexp.MustCompile(`(?i)youtube\.com|youtu\.be`),
		regexp.MustCompile(`(?i)vimeo\.com`),
		regexp.MustCompile(`(?i)\.(mp4|webm|mov)$`),
	},
}

// ValidateURL reports whether url looks like a usable remote locator for the
// given content type. Text days never take URLs.
func ValidateURL(url string, typ calendar.ContentType) bool {
	patterns, ok := urlPatterns[typ]
	if !ok {
		return false
	}
	for _, p := range patterns {
		if p.MatchString(url) {
			return true
		}
	}
	return false
}
