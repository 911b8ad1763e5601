package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimplifyModelName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"dated sonnet", "claude-sonnet-4-20250514", "Sonnet-4"},
		{"dated opus", "claude-opus-4-20250514", "Opus-4"},
		{"undated name passes through", "claude-3-5-haiku", "claude-3-5-haiku"},
		{"non-claude name passes through", "gpt-100", "gpt-100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SimplifyModelName(tt.input))
		})
	}
}

func TestSortModels(t *testing.T) {
	sorted := SortModels([]string{
		"claude-3-5-haiku",
		"claude-opus-4-20250514",
		"claude-sonnet-4-20250514",
	})
	assert.Equal(t, []string{
		"claude-opus-4-20250514",
		"claude-sonnet-4-20250514",
		"claude-3-5-haiku",
	}, sorted)
}
