// Package parsing turns free-text completion responses into structured results.
//
// Every extraction is expressed as an ordered cascade of pure extractors. The first
// extractor that succeeds wins and the rest are skipped, so the order of each list is
// part of the package contract. No function in this package returns an error: an
// unmatched cascade resolves to a documented default.
package parsing

import (
	"regexp"
	"strings"
)

// Extractor attempts to pull a single value out of text.
// It returns false when the text does not contain a usable value.
type Extractor func(text string) (string, bool)

// ListExtractor pulls an ordered list of values out of text.
// An empty result means the tier did not apply.
type ListExtractor func(text string) []string

// FirstMatch runs extractors in order and returns the first successful value.
func FirstMatch(text string, extractors ...Extractor) (string, bool) {
	for _, extract := range extractors {
		if value, ok := extract(text); ok {
			return value, true
		}
	}
	return "", false
}

// FirstNonEmpty runs list tiers in order and returns the first non-empty result.
func FirstNonEmpty(text string, tiers ...ListExtractor) []string {
	for _, tier := range tiers {
		if values := tier(text); len(values) > 0 {
			return values
		}
	}
	return nil
}

// RegexExtractor returns the trimmed first capture group of the leftmost match.
// A match whose capture is blank counts as no match.
func RegexExtractor(re *regexp.Regexp) Extractor {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			return "", false
		}
		value := strings.TrimSpace(m[1])
		if value == "" {
			return "", false
		}
		return value, true
	}
}

// LineCaptureExtractor returns the trimmed first capture group of every match, in
// document order, skipping blank captures.
func LineCaptureExtractor(re *regexp.Regexp) ListExtractor {
	return func(text string) []string {
		var values []string
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 {
				continue
			}
			if value := strings.TrimSpace(m[1]); value != "" {
				values = append(values, value)
			}
		}
		return values
	}
}

// normalizeNewlines converts CRLF and lone CR line endings to LF so that line-based
// patterns behave the same for every producer.
func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// truncate caps values at n entries.
func truncate(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
