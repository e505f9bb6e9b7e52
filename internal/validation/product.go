// Package validation judges whether an extraction can be trusted: it checks that
// the scraped page is about the target product, measures how close the claimed
// version sits to the product name, flags suspicious version transitions and
// folds those signals into a 0..100 confidence score.
package validation

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// minSignificantWordLen is the rune length a name word must exceed to count.
const minSignificantWordLen = 2

// fold lower-cases s after NFKC normalization, so non-breaking spaces and
// full-width characters compare equal to their plain forms.
func fold(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

// significantWords returns the lower-cased words of name longer than two runes.
func significantWords(name string) []string {
	var words []string
	for _, word := range strings.Fields(fold(name)) {
		if utf8.RuneCountInString(word) > minSignificantWordLen {
			words = append(words, word)
		}
	}
	return words
}

// ValidateProductName reports whether content is about the product called name.
// A verbatim case-insensitive match wins; otherwise more than half of the
// significant words of name must each appear in content.
func ValidateProductName(name, content string) bool {
	name = strings.TrimSpace(name)
	if name == "" || content == "" {
		return false
	}

	lowerContent := fold(content)
	if strings.Contains(lowerContent, fold(name)) {
		return true
	}

	words := significantWords(name)
	if len(words) == 0 {
		return false
	}

	found := 0
	for _, word := range words {
		if strings.Contains(lowerContent, word) {
			found++
		}
	}
	return found*2 > len(words)
}

// CalculateProximity returns the character distance between the first occurrence
// of name and the first occurrence of version in content, case-insensitive.
// It returns -1 when version does not occur. When name does not occur verbatim,
// the first significant word of name that does occur stands in for it; if none
// does, the result is -1.
func CalculateProximity(name, version, content string) int {
	version = strings.TrimSpace(version)
	if version == "" || content == "" {
		return -1
	}

	lowerContent := fold(content)
	versionIdx := strings.Index(lowerContent, fold(version))
	if versionIdx < 0 {
		return -1
	}

	nameIdx := -1
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		nameIdx = strings.Index(lowerContent, fold(trimmed))
	}
	if nameIdx < 0 {
		for _, word := range significantWords(name) {
			if idx := strings.Index(lowerContent, word); idx >= 0 {
				nameIdx = idx
				break
			}
		}
	}
	if nameIdx < 0 {
		return -1
	}

	// Byte offsets converted to character offsets
	versionPos := utf8.RuneCountInString(lowerContent[:versionIdx])
	namePos := utf8.RuneCountInString(lowerContent[:nameIdx])
	if versionPos > namePos {
		return versionPos - namePos
	}
	return namePos - versionPos
}
