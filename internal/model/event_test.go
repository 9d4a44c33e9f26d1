package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEventFilter(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		category string
		want     EventFilter
	}{
		{"empty", "", "", EventFilter{}},
		{"both known", EventLevelWarning, EventCategoryUpload, EventFilter{Level: "warning", Category: "upload"}},
		{"unknown level dropped", "debug", EventCategoryAuth, EventFilter{Category: "auth"}},
		{"unknown category dropped", EventLevelError, "billing", EventFilter{Level: "error"}},
		{"case sensitive", "INFO", "Auth", EventFilter{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseEventFilter(tt.level, tt.category)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == EventFilter{}, got.IsZero())
		})
	}
}

func TestEventLevelsBySeverity(t *testing.T) {
	assert.Equal(t, []string{"info", "warning", "error"}, EventLevels)
	assert.Len(t, EventCategories, 5)
}
