package versionutil

import "strings"

// Year bounds for rendering a 4-digit first segment as YYYY.
const (
	MinCalendarYear = 1990
	MaxCalendarYear = 2099
)

// Shape tokens used by Classify.
const (
	shapeYear    = "YYYY"
	shapeNumber  = "X"
	shapeLiteral = "S"
)

// Classify derives the structural shape of a version:
//
//	"1.2.3"     -> "X.X.X"
//	"2024.10.1" -> "YYYY.X.X"
//	"v5.4"      -> "X.X"
//
// Prefixes and prerelease tags are ignored. Non-numeric segments render as "S".
func Classify(version string) string {
	main, _ := splitPrerelease(StripPrefix(version))
	if main == "" {
		return ""
	}

	parts := strings.Split(main, ".")
	shape := make([]string, len(parts))
	for i, part := range parts {
		switch {
		case i == 0 && isCalendarYear(part):
			shape[i] = shapeYear
		case isNumeric(part):
			shape[i] = shapeNumber
		default:
			shape[i] = shapeLiteral
		}
	}
	return strings.Join(shape, ".")
}

// IsCalendarVersion reports whether version's first segment looks like a year.
func IsCalendarVersion(version string) bool {
	return strings.HasPrefix(Classify(version), shapeYear)
}

// FormatChanged reports whether two versions have different shapes.
func FormatChanged(a, b string) bool {
	return Classify(a) != Classify(b)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isCalendarYear(s string) bool {
	if len(s) != 4 || !isNumeric(s) {
		return false
	}
	year := parseSegment(s)
	return year >= MinCalendarYear && year <= MaxCalendarYear
}
