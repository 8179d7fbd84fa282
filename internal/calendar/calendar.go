// Package calendar defines the calendar and per-day content model persisted
// by the storage engine.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"adventkeeper/internal/common"
)

// ContentType classifies what a day holds.
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
	ContentTypeVideo ContentType = "video"
)

// MediaSource says where the day's content came from.
type MediaSource string

const (
	SourceUpload MediaSource = "upload"
	SourceURL    MediaSource = "url"
)

// AllowedDayCounts are the day counts the UI offers.
var AllowedDayCounts = []int{7, 15, 25}

// Day is one calendar cell.
//
// Content is either literal text, a remote URL, an embedded data URL
// (in-transit, before a save completes) or a media reference of the form
// media_ref:<calendarID>_<day> once persisted.
type Day struct {
	Day              int         `json:"day"`
	Type             ContentType `json:"type"`
	Source           MediaSource `json:"source"`
	Content          string      `json:"content"`
	Title            string      `json:"title,omitempty"`
	Description      string      `json:"description,omitempty"`
	FileSize         int64       `json:"fileSize,omitempty"`
	OriginalFileName string      `json:"originalFileName,omitempty"`
	Compressed       bool        `json:"compressed,omitempty"`
}

// Calendar is the singleton persisted entity.
type Calendar struct {
	CreatedBy string `json:"createdBy"`
	To        string `json:"to"`
	CreatedAt string `json:"createdAt"`
	Days      []Day  `json:"days"`
}

// New returns an empty calendar scaffolded with dayCount contiguous days.
func New(dayCount int) *Calendar {
	return &Calendar{
		CreatedAt: time.Now().Format(time.RFC3339),
		Days:      scaffoldDays(dayCount),
	}
}

func scaffoldDays(count int) []Day {
	days := make([]Day, 0, count)
	for i := 1; i <= count; i++ {
		days = append(days, Day{
			Day:    i,
			Type:   ContentTypeText,
			Source: SourceUpload,
			Title:  fmt.Sprintf("Day %d", i),
		})
	}
	return days
}

// SetDayCount resizes the calendar, preserving content of overlapping days.
func (c *Calendar) SetDayCount(count int) {
	days := make([]Day, 0, count)
	for i := 1; i <= count; i++ {
		if existing := c.GetDay(i); existing != nil {
			days = append(days, *existing)
			continue
		}
		days = append(days, Day{
			Day:    i,
			Type:   ContentTypeText,
			Source: SourceUpload,
			Title:  fmt.Sprintf("Day %d", i),
		})
	}
	c.Days = days
}

// GetDay returns a pointer to the day with the given number, or nil.
func (c *Calendar) GetDay(day int) *Day {
	for i := range c.Days {
		if c.Days[i].Day == day {
			return &c.Days[i]
		}
	}
	return nil
}

// SetDay replaces the content of day d.Day. Unknown day numbers are ignored.
func (c *Calendar) SetDay(d Day) {
	for i := range c.Days {
		if c.Days[i].Day == d.Day {
			c.Days[i] = d
			return
		}
	}
}

// CompletedDays counts days with non-empty content.
func (c *Calendar) CompletedDays() int {
	n := 0
	for _, d := range c.Days {
		if strings.TrimSpace(d.Content) != "" {
			n++
		}
	}
	return n
}

// IsValid reports whether the calendar can be saved at all: sender,
// recipient and at least one filled day.
func (c *Calendar) IsValid() bool {
	return strings.TrimSpace(c.CreatedBy) != "" &&
		strings.TrimSpace(c.To) != "" &&
		c.CompletedDays() > 0
}

// IsFullyCompleted reports whether every day has content.
func (c *Calendar) IsFullyCompleted() bool {
	return strings.TrimSpace(c.CreatedBy) != "" &&
		strings.TrimSpace(c.To) != "" &&
		c.CompletedDays() == len(c.Days)
}

// Clone returns a deep copy. Load results are cloned before they cross the
// facade boundary so callers can mutate them freely.
func (c *Calendar) Clone() *Calendar {
	if c == nil {
		return nil
	}
	out := *c
	out.Days = make([]Day, len(c.Days))
	copy(out.Days, c.Days)
	return &out
}

// Validate checks the structural invariants: days are present, contiguous
// starting at 1 and carry known type/source values. Violations are reported
// as common.ErrMalformedRecord wraps.
func (c *Calendar) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: calendar is nil", common.ErrMalformedRecord)
	}
	if len(c.Days) == 0 {
		return fmt.Errorf("%w: missing days", common.ErrMalformedRecord)
	}

	lengthOK := false
	for _, n := range AllowedDayCounts {
		if len(c.Days) == n {
			lengthOK = true
		}
	}
	if !lengthOK {
		return fmt.Errorf("%w: unsupported day count %d", common.ErrMalformedRecord, len(c.Days))
	}

	for i, d := range c.Days {
		if d.Day != i+1 {
			return fmt.Errorf("%w: day %d out of order (want %d)", common.ErrMalformedRecord, d.Day, i+1)
		}
		switch d.Type {
		case ContentTypeText, ContentTypeImage, ContentTypeVideo:
		default:
			return fmt.Errorf("%w: day %d has unknown type %q", common.ErrMalformedRecord, d.Day, d.Type)
		}
		switch d.Source {
		case SourceUpload, SourceURL:
		default:
			return fmt.Errorf("%w: day %d has unknown source %q", common.ErrMalformedRecord, d.Day, d.Source)
		}
	}
	return nil
}
