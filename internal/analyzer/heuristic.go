package analyzer

import (
	"strings"
	"unicode/utf8"
)

const (
	baseScoreTenths    = 7
	shortContentTenths = -2
	shortContentLength = 20

	// NoRedFlags is reported when none of the red-flag phrases appear
	NoRedFlags = "No obvious red flags detected"
)

// HeuristicScore estimates credibility from surface features of content.
// content is expected lowercased. The result is in [0, 1], in steps of 0.1.
func HeuristicScore(content string) float64 {
	tenths := baseScoreTenths

	for _, m := range scoreMarkers() {
		if containsAny(content, m.phrases) {
			tenths += m.tenths
		}
	}

	if utf8.RuneCountInString(content) < shortContentLength {
		tenths += shortContentTenths
	}

	if tenths < 0 {
		tenths = 0
	}
	if tenths > 10 {
		tenths = 10
	}
	return float64(tenths) / 10
}

// DetectRedFlags lists a flag for each red-flag phrase in content, in a fixed
// order. content is expected lowercased. The result is never empty.
func DetectRedFlags(content string) []string {
	var flags []string
	for _, rf := range getRedFlags() {
		if strings.Contains(content, rf.phrase) {
			flags = append(flags, rf.flag)
		}
	}
	if len(flags) == 0 {
		return []string{NoRedFlags}
	}
	return flags
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
