package engine

import (
	"adventkeeper/internal/calendar"
)

// Record is the metadata document persisted as calendar.json. Upload-type
// days inside Calendar carry media references instead of embedded bytes.
type Record struct {
	ID          string             `json:"id"`
	Calendar    *calendar.Calendar `json:"calendar"`
	LastSavedAt int64              `json:"lastSavedAt"`
}

// MediaRecord is the off-loaded payload for one day's media, persisted as
// media/day_<n>_calendar.json.
type MediaRecord struct {
	Day              int                  `json:"day"`
	Content          string               `json:"content"`
	Type             calendar.ContentType `json:"type"`
	FileSize         int64                `json:"fileSize,omitempty"`
	OriginalFileName string               `json:"originalFileName,omitempty"`
	Compressed       bool                 `json:"compressed,omitempty"`
}

// SizeCheck is the result of the pure pre-save quota check.
type SizeCheck struct {
	CanSave         bool    `json:"canSave"`
	CurrentSizeMB   float64 `json:"currentSizeMB"`
	EstimatedSizeMB float64 `json:"estimatedSizeMB"`
	MaxSizeMB       int     `json:"maxSizeMB"`
}

// QuotaInfo reports byte usage of the private file area against its cap.
type QuotaInfo struct {
	Usage int64 `json:"usage"`
	Quota int64 `json:"quota"`
}

// MediaFile is raw media fetched for rendering.
type MediaFile struct {
	Data             []byte               `json:"data"`
	Mime             string               `json:"mime"`
	Type             calendar.ContentType `json:"type"`
	OriginalFileName string               `json:"originalFileName,omitempty"`
}
