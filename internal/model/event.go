package model

import "slices"

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth   = "auth"
	EventCategoryTerm   = "term"
	EventCategoryUpload = "upload"
	EventCategoryCache  = "cache"
	EventCategorySystem = "system"
)

// EventCategories lists the categories in display order.
var EventCategories = []string{
	EventCategoryAuth,
	EventCategoryTerm,
	EventCategoryUpload,
	EventCategoryCache,
	EventCategorySystem,
}

// EventLevels lists the levels from least to most severe.
var EventLevels = []string{
	EventLevelInfo,
	EventLevelWarning,
	EventLevelError,
}

// EventFilter narrows an event listing. Empty fields match everything.
type EventFilter struct {
	Level    string
	Category string
}

// ParseEventFilter keeps only known level and category values, so a
// tampered query string falls back to the unfiltered list.
func ParseEventFilter(level, category string) EventFilter {
	var f EventFilter
	if slices.Contains(EventLevels, level) {
		f.Level = level
	}
	if slices.Contains(EventCategories, category) {
		f.Category = category
	}
	return f
}

// IsZero reports whether the filter matches every event.
func (f EventFilter) IsZero() bool {
	return f.Level == "" && f.Category == ""
}
