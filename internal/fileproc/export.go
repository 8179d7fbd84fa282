package fileproc

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"adventkeeper/internal/calendar"
)

var unsafeFileNameChars = regexp.MustCompile(`[^a-z0-9\s\-_]`)

// ExportFileName builds a shareable file name for a calendar document.
func ExportFileName(cal *calendar.Calendar) string {
	base := strings.TrimSpace(cal.To)
	if base == "" {
		base = "advent-calendar"
	}
	base = unsafeFileNameChars.ReplaceAllString(strings.ToLower(base), "")
	base = strings.ReplaceAll(strings.TrimSpace(base), " ", "_")
	return base + "_advent_calendar.json"
}

// WriteExport writes the fully inlined calendar document to path.
func WriteExport(path string, cal *calendar.Calendar) error {
	data, err := json.MarshalIndent(cal, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o660); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// ReadExport parses a shared calendar document and validates its structure.
func ReadExport(path string) (*calendar.Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}

	var cal calendar.Calendar
	if err := json.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	if err := cal.Validate(); err != nil {
		return nil, err
	}

	return &cal, nil
}
