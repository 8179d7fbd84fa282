package session

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"adventkeeper/internal/common"
	"adventkeeper/internal/dbx"
)

// Service exposes typed accessors over the metadata repository.
type Service struct {
	db   *sql.DB
	repo Repository
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, repo: NewSQLiteRepository(db)}
}

// LastSavedAt returns when the calendar was last saved, or the zero time if
// never.
func (s *Service) LastSavedAt(ctx context.Context) (time.Time, error) {
	raw, err := s.repo.Get(ctx, KeyLastSavedAt)
	if err != nil {
		return time.Time{}, err
	}
	if raw == nil {
		return time.Time{}, nil
	}

	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, common.ErrMalformedRecord
	}

	return time.UnixMilli(ms), nil
}

// TouchLastSavedAt records now as the last save time.
func (s *Service) TouchLastSavedAt(ctx context.Context, now time.Time) error {
	return s.repo.Set(ctx, KeyLastSavedAt, []byte(strconv.FormatInt(now.UnixMilli(), 10)))
}

// RecordSave stores the save timestamp and the metadata file name in one
// transaction, so the two keys never end up out of step.
func (s *Service) RecordSave(ctx context.Context, now time.Time) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		if err := repo.Set(ctx, KeyLastSavedAt, []byte(strconv.FormatInt(now.UnixMilli(), 10))); err != nil {
			return err
		}
		return repo.Set(ctx, KeyCalendarFileName, []byte(common.CalendarFileName))
	})
}

// CalendarFileName returns the configured metadata file name, defaulting to
// the engine's fixed name.
func (s *Service) CalendarFileName(ctx context.Context) (string, error) {
	raw, err := s.repo.Get(ctx, KeyCalendarFileName)
	if err != nil {
		return "", err
	}
	if raw == nil {
		return common.CalendarFileName, nil
	}
	return string(raw), nil
}

// Reset drops every session key. Called when the calendar is cleared.
func (s *Service) Reset(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
