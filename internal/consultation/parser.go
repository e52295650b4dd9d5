package consultation

import (
	"regexp"
	"strings"
)

// Parsing is keyword heuristics over free model text, not NLP. The rules
// below are the contract; the prompt templates promise the model will use
// these words. Changing a keyword here without changing the prompt (or the
// other way round) silently breaks classification.

const maxRecommendations = 5

var (
	medicinePattern = regexp.MustCompile(`(?i)(\w+)\s*(\d+\s*mg)`)
	segmentPattern  = regexp.MustCompile(`[^.\n]+\.?`)
)

// ParseMedicalResponse extracts severity, the follow-up flag and up to five
// recommendation lines from a medical reply. It never fails: text with no
// keyword matches, blank text included, yields low severity, no follow-up
// and no recommendations.
func ParseMedicalResponse(text string) ParsedResponse {
	lower := strings.ToLower(text)

	// First match wins: emergency/urgent outranks concerning.
	severity := SeverityLow
	switch {
	case strings.Contains(lower, "emergency") || strings.Contains(lower, "urgent"):
		severity = SeverityHigh
	case strings.Contains(lower, "concerning"):
		severity = SeverityMedium
	}

	followUp := severity == SeverityHigh ||
		strings.Contains(lower, "see a doctor") ||
		strings.Contains(lower, "medical attention")

	return ParsedResponse{
		Severity:         severity,
		FollowUpRequired: followUp,
		Recommendations:  extractLines(text, []string{"recommend", "should", "try"}),
	}
}

// DegradedDefault is the safe result recorded when inference fails.
func DegradedDefault() ParsedResponse {
	return ParsedResponse{
		Severity:         SeverityUnknown,
		FollowUpRequired: true,
		Recommendations:  []string{},
	}
}

// ExtractMedicines scans prescription-analysis text for "name <digits> mg"
// pairs, in scan order, without de-duplication.
func ExtractMedicines(text string) []Medicine {
	medicines := []Medicine{}
	for _, m := range medicinePattern.FindAllStringSubmatch(text, -1) {
		medicines = append(medicines, Medicine{Name: m[1], Dosage: m[2]})
	}
	return medicines
}

// ExtractWarnings returns the segments of prescription-analysis text that
// carry a caution marker. No upper bound: a ten-drug prescription can
// legitimately produce ten warnings.
func ExtractWarnings(text string) []string {
	warnings := []string{}
	for _, seg := range splitSegments(text) {
		lower := strings.ToLower(seg)
		if strings.Contains(lower, "warning") || strings.Contains(lower, "caution") || strings.Contains(lower, "avoid") {
			warnings = append(warnings, seg)
		}
	}
	return warnings
}

func extractLines(text string, keywords []string) []string {
	out := []string{}
	for _, seg := range splitSegments(text) {
		lower := strings.ToLower(seg)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				out = append(out, seg)
				break
			}
		}
		if len(out) == maxRecommendations {
			break
		}
	}
	return out
}

// splitSegments breaks model prose into candidate lines. Models answer in a
// mix of bullet lines and running sentences, so both newlines and sentence
// ends delimit a segment.
func splitSegments(text string) []string {
	segments := []string{}
	for _, seg := range segmentPattern.FindAllString(text, -1) {
		seg = strings.TrimSpace(seg)
		if seg != "" && seg != "." {
			segments = append(segments, seg)
		}
	}
	return segments
}
