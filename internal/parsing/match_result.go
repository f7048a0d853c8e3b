package parsing

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/jobflow/internal/types"
)

// MaxSuggestions caps the suggestions returned to callers.
const MaxSuggestions = 5

// MaxScore is the upper bound of a match score. Larger captures are clamped.
const MaxScore = 100

// minSectionLineLength is the length a line under a "Suggestions" label must exceed to be kept.
const minSectionLineLength = 10

// Score patterns, most specific first.
var (
	labeledScorePattern  = regexp.MustCompile(`(?i)match\s+score\s*:\s*\**\s*(\d+)\s*%`)
	percentScorePattern  = regexp.MustCompile(`(\d+)%`)
	scoreLabelPattern    = regexp.MustCompile(`(?i)score\s*:\s*(\d+)`)
	outOfHundredPattern  = regexp.MustCompile(`(?i)(\d+)\s+out\s+of\s+100\b`)
	slashHundredPattern  = regexp.MustCompile(`(\d+)\s*/\s*100\b`)
	suggestionsLabel     = regexp.MustCompile(`(?i)suggestions`)
	numberedItemPattern  = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]*(.+)$`)
	bulletedItemPattern  = regexp.MustCompile(`(?m)^[ \t]*[-*][ \t]*(.+)$`)
	justificationLabels  = []string{"explanation", "justification", "how the score was calculated", "brief explanation"}
	justificationRegexes = compileJustificationPatterns(justificationLabels)
)

// compileJustificationPatterns builds one pattern per label. Each captures the rest of
// the label's line up to a list or heading marker. Emphasis markers around the label
// and colon are skipped.
func compileJustificationPatterns(labels []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(labels))
	for _, label := range labels {
		label = strings.ReplaceAll(regexp.QuoteMeta(label), " ", `\s+`)
		patterns = append(patterns, regexp.MustCompile(`(?i)`+label+`[*_]*[ \t]*:[*_ \t]*([^\n#-]*)`))
	}
	return patterns
}

// ScoreExtractors returns the score cascade in priority order:
// "Match Score: NN%", "NN%", "score: NN", "NN out of 100", "NN/100".
func ScoreExtractors() []Extractor {
	return []Extractor{
		scoreExtractor(labeledScorePattern),
		scoreExtractor(percentScorePattern),
		scoreExtractor(scoreLabelPattern),
		scoreExtractor(outOfHundredPattern),
		scoreExtractor(slashHundredPattern),
	}
}

// JustificationExtractors returns the justification cascade in priority order.
func JustificationExtractors() []Extractor {
	extractors := make([]Extractor, 0, len(justificationRegexes))
	for _, re := range justificationRegexes {
		extractors = append(extractors, justificationExtractor(re))
	}
	return extractors
}

// SuggestionTiers returns the suggestion cascade: numbered items, bulleted items,
// then lines following a "Suggestions" label.
func SuggestionTiers() []ListExtractor {
	return []ListExtractor{
		LineCaptureExtractor(numberedItemPattern),
		LineCaptureExtractor(bulletedItemPattern),
		suggestionsSection,
	}
}

// ParseMatchResult converts a completion response into a MatchResult.
// It accepts any string, including the empty string, and never fails.
func ParseMatchResult(text string) types.MatchResult {
	text = normalizeNewlines(text)

	result := types.MatchResult{
		Score:         ExtractScore(text),
		Justification: ExtractJustification(text),
		Suggestions:   ExtractSuggestions(text),
	}
	if result.Suggestions == nil {
		result.Suggestions = []string{}
	}
	return result
}

// ExtractScore returns the first score found by the cascade, or 0.
func ExtractScore(text string) int {
	value, ok := FirstMatch(text, ScoreExtractors()...)
	if !ok {
		return 0
	}
	score, _ := strconv.Atoi(value)
	return score
}

// ExtractJustification returns the first labeled explanation, or "".
func ExtractJustification(text string) string {
	value, _ := FirstMatch(text, JustificationExtractors()...)
	return value
}

// ExtractSuggestions returns at most MaxSuggestions suggestions from the first tier
// that yields any.
func ExtractSuggestions(text string) []string {
	return truncate(FirstNonEmpty(text, SuggestionTiers()...), MaxSuggestions)
}

// justificationExtractor trims stray emphasis markers from the capture.
func justificationExtractor(re *regexp.Regexp) Extractor {
	capture := RegexExtractor(re)
	return func(text string) (string, bool) {
		value, ok := capture(text)
		if !ok {
			return "", false
		}
		value = strings.Trim(value, "*_ \t")
		return value, value != ""
	}
}

// scoreExtractor wraps a pattern whose capture is an integer. Values above MaxScore,
// including ones too large for an int, are clamped.
func scoreExtractor(re *regexp.Regexp) Extractor {
	capture := RegexExtractor(re)
	return func(text string) (string, bool) {
		value, ok := capture(text)
		if !ok {
			return "", false
		}
		n, err := strconv.Atoi(value)
		if errors.Is(err, strconv.ErrRange) {
			n = MaxScore
		} else if err != nil {
			return "", false
		}
		if n > MaxScore {
			n = MaxScore
		}
		return strconv.Itoa(n), true
	}
}

// suggestionsSection keeps the lines after the first "Suggestions" label that are
// longer than minSectionLineLength once trimmed.
func suggestionsSection(text string) []string {
	parts := suggestionsLabel.Split(text, 2)
	if len(parts) < 2 {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(parts[1], "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) > minSectionLineLength {
			lines = append(lines, line)
		}
	}
	return lines
}
