package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"adventkeeper/internal/blobcodec"
	"adventkeeper/internal/calendar"
	"adventkeeper/internal/common"
	"adventkeeper/internal/filex"
	"adventkeeper/internal/logging"
)

// Engine owns the private file area and implements durable persistence of
// one calendar record plus its media records. It is designed to run inside
// the background worker; foreground code talks to it through the worker
// client, never directly.
//
// Layout inside the root directory:
//
//	calendar.json                   {id, calendar, lastSavedAt}
//	media/day_<n>_calendar.json     {day, content, type, ...}
//
// The engine assumes at most one in-flight mutating call at a time; the
// facade serializes save/clear.
type Engine struct {
	root      string
	mediaDir  string
	writers   []writeStrategy
	maxSizeMB int
	log       logging.Logger
}

// Option customizes engine construction. Used by tests to force write
// primitive failures.
type Option func(*Engine)

// WithWriters replaces the default write strategy chain.
func WithWriters(ws ...writeStrategy) Option {
	return func(e *Engine) { e.writers = ws }
}

// WithMaxSizeMB overrides the storage cap.
func WithMaxSizeMB(mb int) Option {
	return func(e *Engine) { e.maxSizeMB = mb }
}

// New prepares the private file area under rootDir.
func New(rootDir string, log logging.Logger, opts ...Option) (*Engine, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("%w: no storage root configured", common.ErrUnsupportedEnvironment)
	}

	root, err := filex.EnsureDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnsupportedEnvironment, err)
	}

	mediaDir, err := filex.EnsureSubDir(root, common.MediaDirName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnsupportedEnvironment, err)
	}

	e := &Engine{
		root:      root,
		mediaDir:  mediaDir,
		writers:   []writeStrategy{streamWriter{}, syncWriter{}},
		maxSizeMB: common.MaxCalendarSizeMB,
		log:       log.With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

func (e *Engine) metadataPath() string {
	return filepath.Join(e.root, common.CalendarFileName)
}

func mediaFileName(day int) string {
	base := strings.TrimSuffix(common.CalendarFileName, ".json")
	return fmt.Sprintf("day_%d_%s.json", day, base)
}

// MediaPath returns the engine-relative path of a day's media record, the
// form stored in resolver caches ("media/day_2_calendar.json").
func MediaPath(day int) string {
	return common.MediaDirName + "/" + mediaFileName(day)
}

// writeFile runs the strategy chain: first success wins. Failure of the
// preferred primitive at call time (not just absence) also triggers fallback.
func (e *Engine) writeFile(ctx context.Context, path string, data []byte) error {
	if len(e.writers) == 0 {
		return fmt.Errorf("%w: no write primitive available", common.ErrUnsupportedEnvironment)
	}

	var lastErr error
	for _, w := range e.writers {
		if err := w.Write(path, data); err != nil {
			e.log.Warn(ctx, "write primitive failed, trying next", "primitive", w.Name(), "error", err)
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("%w: %v", common.ErrWriteFailure, lastErr)
}

// CanSave is the pure size pre-check: no side effects, usable before a save
// to pre-empt a doomed write.
func (e *Engine) CanSave(ctx context.Context, cal *calendar.Calendar) (*SizeCheck, error) {
	size, err := projectedSize(cal)
	if err != nil {
		return nil, err
	}

	sizeMB := math.Round(float64(size)/1024/1024*100) / 100

	return &SizeCheck{
		CanSave:         size <= int64(e.maxSizeMB)*1024*1024,
		CurrentSizeMB:   sizeMB,
		EstimatedSizeMB: sizeMB,
		MaxSizeMB:       e.maxSizeMB,
	}, nil
}

func projectedSize(cal *calendar.Calendar) (int64, error) {
	rec := Record{ID: common.CalendarStoreID, Calendar: cal, LastSavedAt: time.Now().UnixMilli()}
	data, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("marshal calendar: %w", err)
	}
	return int64(len(data)), nil
}

// Save persists the calendar with an all-or-nothing intent: quota check,
// full erase of the previous state, metadata with media references, then one
// media record per embedded upload day. A crash between erase and the final
// media write can lose the previous save; see DESIGN.md for why this is kept.
func (e *Engine) Save(ctx context.Context, cal *calendar.Calendar) error {
	if err := cal.Validate(); err != nil {
		return err
	}

	check, err := e.CanSave(ctx, cal)
	if err != nil {
		return err
	}
	if !check.CanSave {
		return fmt.Errorf("%w: calendar size (%.2fMB) exceeds storage limit of %dMB",
			common.ErrQuotaExceeded, check.EstimatedSizeMB, check.MaxSizeMB)
	}

	if err := e.Clear(ctx); err != nil {
		return err
	}
	if _, err := filex.EnsureSubDir(e.root, common.MediaDirName); err != nil {
		return fmt.Errorf("%w: %v", common.ErrWriteFailure, err)
	}

	// Metadata goes first so a reader that only sees metadata still gets a
	// consistent, if media-less, view.
	meta := cal.Clone()
	for i := range meta.Days {
		d := &meta.Days[i]
		if d.Source == calendar.SourceUpload && blobcodec.IsEmbedded(d.Content) {
			d.Content = blobcodec.MediaRef(common.CalendarStoreID, d.Day)
		}
	}

	rec := Record{ID: common.CalendarStoreID, Calendar: meta, LastSavedAt: time.Now().UnixMilli()}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal calendar: %w", err)
	}
	if err := e.writeFile(ctx, e.metadataPath(), data); err != nil {
		return err
	}

	for _, d := range cal.Days {
		if d.Source != calendar.SourceUpload || !blobcodec.IsEmbedded(d.Content) {
			continue
		}

		m := MediaRecord{
			Day:              d.Day,
			Content:          d.Content,
			Type:             d.Type,
			FileSize:         d.FileSize,
			OriginalFileName: d.OriginalFileName,
			Compressed:       d.Compressed,
		}
		if err := e.StoreMedia(ctx, &m); err != nil {
			return err
		}
	}

	e.log.Info(ctx, "calendar saved", "days", len(cal.Days), "size_mb", check.EstimatedSizeMB)
	return nil
}

// StoreMedia writes a single media record.
func (e *Engine) StoreMedia(ctx context.Context, m *MediaRecord) error {
	if m == nil || m.Day < 1 {
		return fmt.Errorf("%w: invalid media record", common.ErrMalformedRecord)
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal media record: %w", err)
	}

	return e.writeFile(ctx, filepath.Join(e.mediaDir, mediaFileName(m.Day)), data)
}

// Load reads the metadata record and substitutes media content back into the
// referenced days. A missing metadata record returns (nil, nil). A missing
// media record for a referenced day is a recoverable warning: the day keeps
// its reference string.
func (e *Engine) Load(ctx context.Context) (*calendar.Calendar, error) {
	data, err := os.ReadFile(e.metadataPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read calendar: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedRecord, err)
	}
	if rec.Calendar == nil || len(rec.Calendar.Days) == 0 {
		return nil, fmt.Errorf("%w: record has no days", common.ErrMalformedRecord)
	}

	cal := rec.Calendar
	for i := range cal.Days {
		d := &cal.Days[i]
		if !blobcodec.IsMediaRef(d.Content) {
			continue
		}

		// The reference itself names the day; trust it over the slice position.
		_, day, err := blobcodec.ParseMediaRef(d.Content)
		if err != nil {
			e.log.Warn(ctx, "malformed media reference, keeping as-is", "day", d.Day, "error", err)
			continue
		}

		m, err := e.readMediaRecord(day)
		if err != nil {
			e.log.Warn(ctx, "failed to load media for day, keeping reference",
				"day", d.Day, "error", err)
			continue
		}

		d.Content = m.Content
		d.FileSize = m.FileSize
		d.OriginalFileName = m.OriginalFileName
		d.Compressed = m.Compressed
	}

	return cal, nil
}

func (e *Engine) readMediaRecord(day int) (*MediaRecord, error) {
	data, err := os.ReadFile(filepath.Join(e.mediaDir, mediaFileName(day)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: media record for day %d", common.ErrorNotFound, day)
		}
		return nil, fmt.Errorf("read media record: %w", err)
	}

	var m MediaRecord
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedRecord, err)
	}

	return &m, nil
}

// GetMediaFile fetches the raw bytes of a stored media record by its
// engine-relative path ("media/day_<n>_calendar.json").
func (e *Engine) GetMediaFile(ctx context.Context, path string) (*MediaFile, error) {
	rel := strings.TrimPrefix(path, common.MediaDirName+"/")
	if rel == path || strings.Contains(rel, "/") || strings.Contains(rel, "..") {
		return nil, fmt.Errorf("%w: invalid media path %q", common.ErrorNotFound, path)
	}

	data, err := os.ReadFile(filepath.Join(e.mediaDir, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrorNotFound, path)
		}
		return nil, fmt.Errorf("read media file: %w", err)
	}

	var m MediaRecord
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedRecord, err)
	}

	mime, raw, err := blobcodec.Decode(m.Content)
	if err != nil {
		return nil, err
	}

	return &MediaFile{Data: raw, Mime: mime, Type: m.Type, OriginalFileName: m.OriginalFileName}, nil
}

// Clear deletes the metadata record and every media record, recursively.
// Clearing an already-empty store succeeds.
func (e *Engine) Clear(ctx context.Context) error {
	if err := filex.RemoveContents(e.root); err != nil {
		return fmt.Errorf("%w: %v", common.ErrWriteFailure, err)
	}
	return nil
}

// HasData reports whether a stored calendar exists with at least one
// non-empty day.
func (e *Engine) HasData(ctx context.Context) (bool, error) {
	cal, err := e.Load(ctx)
	if err != nil || cal == nil {
		return false, nil
	}

	for _, d := range cal.Days {
		if strings.TrimSpace(d.Content) != "" {
			return true, nil
		}
	}
	return false, nil
}

// Quota reports current byte usage of the private file area against the cap.
func (e *Engine) Quota(ctx context.Context) (*QuotaInfo, error) {
	usage, err := filex.DirSize(e.root)
	if err != nil {
		return nil, err
	}
	return &QuotaInfo{Usage: usage, Quota: int64(e.maxSizeMB) * 1024 * 1024}, nil
}
