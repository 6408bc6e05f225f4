package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxContentLength is the longest content accepted for analysis, in characters
const MaxContentLength = 1000

// AnalysisRequest is a single piece of content submitted for credibility analysis
type AnalysisRequest struct {
	Content string `json:"content"`
	Source  string `json:"source,omitempty"` // Optional label, e.g. where the user saw it
}

// ValidationError describes why an AnalysisRequest was rejected
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the request before it enters the analysis pipeline
func (r AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return &ValidationError{Field: "content", Message: "Content cannot be empty"}
	}
	if utf8.RuneCountInString(r.Content) > MaxContentLength {
		return &ValidationError{
			Field:   "content",
			Message: fmt.Sprintf("Content must be at most %d characters", MaxContentLength),
		}
	}
	return nil
}

// AnalysisResult is the structured outcome of a credibility analysis
type AnalysisResult struct {
	OriginalContent    string    `json:"originalContent"`
	Source             string    `json:"source,omitempty"`
	CredibilityScore   float64   `json:"credibilityScore"` // 0.0 to 1.0
	OverallAssessment  string    `json:"overallAssessment"`
	RedFlags           []string  `json:"redFlags"`
	PositiveIndicators []string  `json:"positiveIndicators"`
	BiasAnalysis       string    `json:"biasAnalysis"`
	FactCheckSummary   string    `json:"factCheckSummary"`
	AIModel            string    `json:"aiModel"` // Remote model id, or the fallback label
	AnalysisTimestamp  time.Time `json:"analysisTimestamp"`
}

// NewAnalysisResult starts a result for req, stamped with the given time
func NewAnalysisResult(req AnalysisRequest, now time.Time) *AnalysisResult {
	return &AnalysisResult{
		OriginalContent:   req.Content,
		Source:            req.Source,
		AnalysisTimestamp: now,
	}
}

// Credibility levels
const (
	LevelHigh    = "HIGH"
	LevelMedium  = "MEDIUM"
	LevelLow     = "LOW"
	LevelVeryLow = "VERY LOW"
)

// Display severities, one per credibility level
const (
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityDanger  = "danger"
	SeverityDark    = "dark"
)

// CredibilityLevel classifies a score into HIGH, MEDIUM, LOW or VERY LOW
func CredibilityLevel(score float64) string {
	switch {
	case score >= 0.8:
		return LevelHigh
	case score >= 0.6:
		return LevelMedium
	case score >= 0.4:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

// Severity maps a score to the display tag used by presentation layers
func Severity(score float64) string {
	switch {
	case score >= 0.8:
		return SeveritySuccess
	case score >= 0.6:
		return SeverityWarning
	case score >= 0.4:
		return SeverityDanger
	default:
		return SeverityDark
	}
}

// CredibilityLevel returns the level for the result's score
func (r *AnalysisResult) CredibilityLevel() string {
	return CredibilityLevel(r.CredibilityScore)
}

// CredibilityColor returns the display severity for the result's score
func (r *AnalysisResult) CredibilityColor() string {
	return Severity(r.CredibilityScore)
}

// AnalysisResponse is the wire form of a result, with derived fields included
type AnalysisResponse struct {
	*AnalysisResult
	CredibilityLevel string `json:"credibilityLevel"`
	CredibilityColor string `json:"credibilityColor"`
}

// Response wraps the result with its derived classification for serialization
func (r *AnalysisResult) Response() AnalysisResponse {
	return AnalysisResponse{
		AnalysisResult:   r,
		CredibilityLevel: r.CredibilityLevel(),
		CredibilityColor: r.CredibilityColor(),
	}
}
