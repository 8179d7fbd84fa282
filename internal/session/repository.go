// Package session persists small cross-session metadata (last save time,
// metadata file name) in a local sqlite database. It replaces nothing in the
// storage engine: the engine owns calendar data, this package only remembers
// facts about the session.
package session

import "context"

// Repository is a key/value store for session metadata.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

// Well-known keys.
const (
	KeyLastSavedAt      = "last_saved_at"
	KeyCalendarFileName = "calendar_file_name"
)
