// Package model holds the value types that flow through one check: the
// tracked target, the extraction result, validation and anomaly outcomes,
// and the per-run results.
package model

import (
	"strings"
	"time"
)

// Target is a tracked software product with a version-check URL.
type Target struct {
	ID                 string
	Name               string
	Website            string
	VersionCheckURL    string
	CurrentVersion     string // empty when never observed
	CurrentVersionDate *time.Time
	LastCheckedAt      *time.Time
}

// HasCurrentVersion reports whether a version has been recorded for the target.
func (t Target) HasCurrentVersion() bool {
	return strings.TrimSpace(t.CurrentVersion) != ""
}

// VersionType classifies a release.
type VersionType string

const (
	VersionTypeMajor VersionType = "major"
	VersionTypeMinor VersionType = "minor"
	VersionTypePatch VersionType = "patch"
)

// ParseVersionType accepts major, minor or patch in any case.
func ParseVersionType(s string) (VersionType, bool) {
	switch VersionType(strings.ToLower(strings.TrimSpace(s))) {
	case VersionTypeMajor:
		return VersionTypeMajor, true
	case VersionTypeMinor:
		return VersionTypeMinor, true
	case VersionTypePatch:
		return VersionTypePatch, true
	default:
		return "", false
	}
}

// VersionCandidate is one release listed on a release-notes page.
type VersionCandidate struct {
	Version     string      `json:"version"`
	ReleaseDate *time.Time  `json:"releaseDate,omitempty"`
	Notes       []string    `json:"notes"`
	Type        VersionType `json:"type"`
	BuildNumber string      `json:"buildNumber,omitempty"`
}

// ExtractionResult is the validated output of the extraction collaborator.
type ExtractionResult struct {
	CurrentVersion   string // empty when the page named no current version
	ReleaseDate      *time.Time
	Versions         []VersionCandidate
	AIConfidence     int
	ProductNameFound bool
}

// HasCurrentVersion reports whether the extraction claimed a current version.
func (r *ExtractionResult) HasCurrentVersion() bool {
	return r != nil && strings.TrimSpace(r.CurrentVersion) != ""
}

// ValidationOutcome is the verdict on whether an extraction describes the target.
// A name mismatch is an outcome with Valid=false and Confidence=0, not an error.
type ValidationOutcome struct {
	Valid      bool
	Confidence int
	Reason     string

	// Signals computed along the way, reused by the final score
	ProductNameFound bool
	Proximity        int
}

// AnomalyOutcome flags a suspicious version transition.
type AnomalyOutcome struct {
	HasAnomaly bool
	Reason     string
}

// CheckResult is the outcome of one target's check within a run.
type CheckResult struct {
	SoftwareID    string `json:"softwareId"`
	Name          string `json:"name"`
	Success       bool   `json:"success"`
	VersionsFound int    `json:"versionsFound"`
	VersionsAdded int    `json:"versionsAdded"`
	Error         string `json:"error,omitempty"`

	// Diagnostic fields, not part of the aggregate counts
	Score                int    `json:"confidenceScore"`
	RequiresManualReview bool   `json:"requiresManualReview"`
	FinalState           string `json:"finalState"`
}

// CheckSummary aggregates the results of one orchestration run.
type CheckSummary struct {
	RunID              string        `json:"runId"`
	StartedAt          time.Time     `json:"startedAt"`
	Duration           time.Duration `json:"-"`
	TotalChecked       int           `json:"totalChecked"`
	Successful         int           `json:"successful"`
	Failed             int           `json:"failed"`
	TotalVersionsAdded int           `json:"totalVersionsAdded"`
	Results            []CheckResult `json:"results"`
}

// NewCheckSummary aggregates results in the order given.
func NewCheckSummary(runID string, startedAt time.Time, results []CheckResult) CheckSummary {
	summary := CheckSummary{
		RunID:        runID,
		StartedAt:    startedAt,
		TotalChecked: len(results),
		Results:      results,
	}
	for i := range results {
		if results[i].Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
		summary.TotalVersionsAdded += results[i].VersionsAdded
	}
	if summary.Results == nil {
		summary.Results = []CheckResult{}
	}
	return summary
}
