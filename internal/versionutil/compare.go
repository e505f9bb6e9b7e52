// Package versionutil compares and classifies version strings of mixed styles:
// semantic ("1.2.3"), calendar ("2024.10.1"), prefixed ("v5.4", "r12",
// "Version 3") and prerelease-tagged ("1.0.0-beta", "2.1_rc1").
//
// All functions are pure and safe for concurrent use.
package versionutil

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
)

// prefixPattern matches one leading prefix token. "version" must be tried before "v".
var prefixPattern = regexp.MustCompile(`(?i)^(version|v|r)\s*`)

// parsed is a version split into numeric main segments and an optional prerelease tag.
type parsed struct {
	segments   []int
	prerelease string
}

// StripPrefix removes a single leading "v", "r" or "version" token (case-insensitive)
// and surrounding whitespace.
func StripPrefix(version string) string {
	version = strings.TrimSpace(version)
	return strings.TrimSpace(prefixPattern.ReplaceAllString(version, ""))
}

// splitPrerelease splits on the first "-" or "_".
func splitPrerelease(version string) (main, prerelease string) {
	if idx := strings.IndexAny(version, "-_"); idx >= 0 {
		return version[:idx], version[idx+1:]
	}
	return version, ""
}

// parseSegment reads the leading digits of s; no leading digits yields 0.
func parseSegment(s string) int {
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if r < '0' || r > '9' {
			break
		}
		d := int(r - '0')
		if n > (maxSegment-d)/10 {
			return maxSegment
		}
		n = n*10 + d
	}
	return n
}

const maxSegment = int(^uint(0) >> 1)

func parse(version string) parsed {
	main, prerelease := splitPrerelease(StripPrefix(version))
	parts := strings.Split(main, ".")
	segments := make([]int, len(parts))
	for i, part := range parts {
		segments[i] = parseSegment(part)
	}
	return parsed{segments: segments, prerelease: prerelease}
}

// Compare returns -1, 0 or 1 as v1 is older than, equal to, or newer than v2.
//
// Empty (or whitespace-only) input is older than any non-empty input. Numeric
// segments are compared left to right with missing segments treated as 0. When
// the main versions tie, a release outranks any prerelease and two prerelease
// tags compare lexicographically.
func Compare(v1, v2 string) int {
	v1, v2 = strings.TrimSpace(v1), strings.TrimSpace(v2)
	switch {
	case v1 == "" && v2 == "":
		return 0
	case v1 == "":
		return -1
	case v2 == "":
		return 1
	}

	p1, p2 := parse(v1), parse(v2)

	n := max(len(p1.segments), len(p2.segments))
	for i := range n {
		if c := cmp.Compare(segmentAt(p1.segments, i), segmentAt(p2.segments, i)); c != 0 {
			return c
		}
	}

	switch {
	case p1.prerelease == p2.prerelease:
		return 0
	case p1.prerelease == "":
		return 1
	case p2.prerelease == "":
		return -1
	default:
		return strings.Compare(p1.prerelease, p2.prerelease)
	}
}

func segmentAt(segments []int, i int) int {
	if i < len(segments) {
		return segments[i]
	}
	return 0
}

// IsNewer reports whether a is strictly newer than b.
func IsNewer(a, b string) bool {
	return Compare(a, b) > 0
}

// SortDescending returns a copy of versions ordered newest first.
// Equal versions keep their input order.
func SortDescending(versions []string) []string {
	sorted := slices.Clone(versions)
	slices.SortStableFunc(sorted, func(a, b string) int {
		return Compare(b, a)
	})
	return sorted
}

// LeadingSegment returns the first numeric segment of version (the major number).
func LeadingSegment(version string) int {
	return segmentAt(parse(version).segments, 0)
}
