package openrouter

import (
	"fmt"
	"strings"
	"unicode"
)

// BuildPrompt returns the credibility analysis prompt for content
func BuildPrompt(content string) string {
	return fmt.Sprintf(`Please analyze the following content for misinformation, bias, and credibility:

Content: "%s"

Provide your analysis in the following JSON format:
{
    "credibilityScore": 0.0-1.0,
    "overallAssessment": "brief assessment",
    "redFlags": ["flag1", "flag2"],
    "positiveIndicators": ["indicator1", "indicator2"],
    "biasAnalysis": "analysis of potential bias",
    "factCheckSummary": "summary of fact-checking findings"
}

Consider:
- Emotional language and sensationalism
- Lack of credible sources
- Logical fallacies
- Confirmation bias indicators
- Factual accuracy
- Context and nuance

Return ONLY the JSON object, nothing else.`, content)
}

const fence = "```"

// StripCodeFence removes a markdown code fence, with or without a language
// tag, from around text. Text that does not open with a fence is returned as is.
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, fence) {
		return text
	}

	inner := trimmed[len(fence):]

	// Language tag: a short run of identifier characters right after the fence
	tagEnd := strings.IndexFunc(inner, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '+' || r == '_')
	})
	if tagEnd == -1 {
		tagEnd = len(inner)
	}
	tag := inner[:tagEnd]
	rest := inner[tagEnd:]
	switch {
	case tag == "":
	case strings.EqualFold(tag, "json"):
		inner = rest
	case strings.HasPrefix(rest, "\n") || strings.HasPrefix(rest, "\r\n"):
		inner = rest
	}

	inner = strings.TrimSpace(inner)
	inner = strings.TrimSuffix(inner, fence)
	return strings.TrimSpace(inner)
}
