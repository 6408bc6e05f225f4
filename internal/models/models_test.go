package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"single character", "a", false},
		{"normal sentence", "The council approved the budget on Tuesday.", false},
		{"exactly max length", strings.Repeat("x", MaxContentLength), false},
		{"max length in multibyte runes", strings.Repeat("é", MaxContentLength), false},
		{"empty", "", true},
		{"whitespace only", "  \n\t ", true},
		{"one over max length", strings.Repeat("x", MaxContentLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AnalysisRequest{Content: tt.content}.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "expected *ValidationError, got %T", err)
			assert.Equal(t, "content", vErr.Field)
		})
	}
}

func TestCredibilityLevelBoundaries(t *testing.T) {
	tests := []struct {
		score    float64
		level    string
		severity string
	}{
		{1.0, LevelHigh, SeveritySuccess},
		{0.8, LevelHigh, SeveritySuccess},
		{0.79999, LevelMedium, SeverityWarning},
		{0.6, LevelMedium, SeverityWarning},
		{0.59, LevelLow, SeverityDanger},
		{0.4, LevelLow, SeverityDanger},
		{0.39, LevelVeryLow, SeverityDark},
		{0.0, LevelVeryLow, SeverityDark},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, CredibilityLevel(tt.score), "level for %v", tt.score)
		assert.Equal(t, tt.severity, Severity(tt.score), "severity for %v", tt.score)
	}
}

func TestNewAnalysisResultCopiesRequest(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	req := AnalysisRequest{Content: "Some claim", Source: "forum post"}

	result := NewAnalysisResult(req, now)

	assert.Equal(t, "Some claim", result.OriginalContent)
	assert.Equal(t, "forum post", result.Source)
	assert.Equal(t, now, result.AnalysisTimestamp)
}

func TestResponseIncludesDerivedFields(t *testing.T) {
	result := &AnalysisResult{
		OriginalContent:    "text",
		CredibilityScore:   0.65,
		RedFlags:           []string{"a"},
		PositiveIndicators: []string{"b"},
		AIModel:            "model",
	}

	data, err := json.Marshal(result.Response())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "MEDIUM", decoded["credibilityLevel"])
	assert.Equal(t, "warning", decoded["credibilityColor"])
	assert.Equal(t, 0.65, decoded["credibilityScore"])
	assert.Equal(t, "model", decoded["aiModel"])
	assert.NotContains(t, decoded, "source", "empty source should be omitted")
}
