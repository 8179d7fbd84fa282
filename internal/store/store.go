// Package store is the foreground-facing API over the worker transport.
// Callers use it without knowing whether operations happen synchronously or
// through message passing; every result is an independent copy that can be
// mutated freely.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"adventkeeper/internal/blobcodec"
	"adventkeeper/internal/calendar"
	"adventkeeper/internal/engine"
	"adventkeeper/internal/logging"
	"adventkeeper/internal/session"
	"adventkeeper/internal/worker"
)

// Store wraps the worker client. Mutating operations (save/clear) are
// serialized: the engine's erase-then-write sequence is not transactionally
// isolated, so overlapping mutations must never interleave. Loads may run in
// parallel.
type Store struct {
	rpc  *worker.Client
	sess *session.Service
	log  logging.Logger

	saveMu sync.Mutex
}

// New builds the facade. sess may be nil when session tracking is not wired.
func New(rpc *worker.Client, sess *session.Service, log logging.Logger) *Store {
	return &Store{rpc: rpc, sess: sess, log: log.With("component", "store")}
}

// SaveCalendar persists the calendar as a full replace of any prior state.
func (s *Store) SaveCalendar(ctx context.Context, cal *calendar.Calendar) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if _, err := s.rpc.Call(ctx, worker.MsgSave, cal, ""); err != nil {
		return err
	}

	if s.sess != nil {
		if err := s.sess.RecordSave(ctx, time.Now()); err != nil {
			s.log.Warn(ctx, "failed to record last save time", "error", err)
		}
	}

	return nil
}

// LoadCalendar returns the stored calendar, or (nil, nil) when none exists.
// The transport marshals records across the worker boundary, so the result
// shares no memory with engine state.
func (s *Store) LoadCalendar(ctx context.Context) (*calendar.Calendar, error) {
	data, err := s.rpc.Call(ctx, worker.MsgLoad, nil, "")
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var cal calendar.Calendar
	if err := json.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("decode load response: %w", err)
	}
	return &cal, nil
}

// ClearCalendar deletes everything, including session bookkeeping.
// Clearing an empty store succeeds.
func (s *Store) ClearCalendar(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if _, err := s.rpc.Call(ctx, worker.MsgClear, nil, ""); err != nil {
		return err
	}

	if s.sess != nil {
		if err := s.sess.Reset(ctx); err != nil {
			s.log.Warn(ctx, "failed to reset session metadata", "error", err)
		}
	}

	return nil
}

// HasData reports whether a calendar with at least one filled day is stored.
func (s *Store) HasData(ctx context.Context) (bool, error) {
	data, err := s.rpc.Call(ctx, worker.MsgHasData, nil, "")
	if err != nil {
		return false, err
	}

	var has bool
	if err := json.Unmarshal(data, &has); err != nil {
		return false, fmt.Errorf("decode hasData response: %w", err)
	}
	return has, nil
}

// CanSave runs the pure size pre-check without touching storage.
func (s *Store) CanSave(ctx context.Context, cal *calendar.Calendar) (*engine.SizeCheck, error) {
	data, err := s.rpc.Call(ctx, worker.MsgCanSave, cal, "")
	if err != nil {
		return nil, err
	}

	var check engine.SizeCheck
	if err := json.Unmarshal(data, &check); err != nil {
		return nil, fmt.Errorf("decode canSave response: %w", err)
	}
	return &check, nil
}

// StorageQuota reports current usage against the storage cap.
func (s *Store) StorageQuota(ctx context.Context) (*engine.QuotaInfo, error) {
	data, err := s.rpc.Call(ctx, worker.MsgGetQuota, nil, "")
	if err != nil {
		return nil, err
	}

	var q engine.QuotaInfo
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("decode quota response: %w", err)
	}
	return &q, nil
}

// GetMediaFile fetches raw media bytes by engine-relative path.
func (s *Store) GetMediaFile(ctx context.Context, path string) (*engine.MediaFile, error) {
	data, err := s.rpc.Call(ctx, worker.MsgGetMediaFile, nil, path)
	if err != nil {
		return nil, err
	}

	var f engine.MediaFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode media response: %w", err)
	}
	return &f, nil
}

// LastSavedAt returns the recorded time of the last successful save, or the
// zero time when unknown.
func (s *Store) LastSavedAt(ctx context.Context) (time.Time, error) {
	if s.sess == nil {
		return time.Time{}, nil
	}
	return s.sess.LastSavedAt(ctx)
}

// ImportCalendar validates and persists an externally shared document.
func (s *Store) ImportCalendar(ctx context.Context, cal *calendar.Calendar) error {
	if err := cal.Validate(); err != nil {
		return err
	}
	return s.SaveCalendar(ctx, cal)
}

// ExportCalendar loads the stored calendar ready for out-of-band sharing:
// every day fully inlined. The reference scheme is an internal storage
// optimization and must never leak into an exported document, so a day whose
// media record is missing fails the export.
func (s *Store) ExportCalendar(ctx context.Context) (*calendar.Calendar, error) {
	cal, err := s.LoadCalendar(ctx)
	if err != nil {
		return nil, err
	}
	if cal == nil {
		return nil, nil
	}

	for _, d := range cal.Days {
		if blobcodec.IsMediaRef(d.Content) {
			return nil, fmt.Errorf("cannot export: media for day %d is missing", d.Day)
		}
	}

	return cal, nil
}

// Close shuts down the worker.
func (s *Store) Close() error {
	return s.rpc.Close()
}
