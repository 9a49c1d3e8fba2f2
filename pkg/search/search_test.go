package search_test

import (
	"testing"

	"github.com/matt-steen/takma/pkg/search"
	"github.com/stretchr/testify/assert"
)

func TestPerformSearchInText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		text  string
		want  bool
	}{
		{"empty query", "", "anything", true},
		{"whitespace query", "   ", "anything", true},
		{"empty quotes", `""`, "anything", true},
		{"quoted phrase present", `"exact phrase"`, "an exact phrase here", true},
		{"quoted phrase needs the space", `"exact phrase"`, "exactphrase", false},
		{"quoted phrase is case insensitive", `"Exact Phrase"`, "an exact phrase here", true},
		{"fuzzy and literal words", "reort launch", "the report for launch", true},
		{"literal substring", "port", "the report", true},
		{"every word must match", "report banana", "the report for launch", false},
		{"too far for fuzzy", "rxxxrt", "the report", false},
		{"lone quote is an empty phrase", `"`, "anything", true},
		{"lone quote with spaces", `  "  `, "anything", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, search.PerformSearchInText(tt.query, tt.text, search.DefaultFuzzyDistance))
		})
	}
}

func TestPerformSearchInTextDistance(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	assert.False(search.PerformSearchInText("reort", "the report", 0))
	assert.True(search.PerformSearchInText("reort", "the report", 1))
}
