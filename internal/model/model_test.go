package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewCheckSummary(t *testing.T) {
	t.Parallel()

	results := []CheckResult{
		{SoftwareID: "a", Success: true, VersionsFound: 3, VersionsAdded: 2},
		{SoftwareID: "b", Success: false, Error: "timeout"},
		{SoftwareID: "c", Success: true, VersionsFound: 1, VersionsAdded: 0},
	}

	summary := NewCheckSummary("run-1", time.Unix(0, 0), results)

	assert.Equal(t, 3, summary.TotalChecked)
	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.TotalVersionsAdded)
	assert.Len(t, summary.Results, 3)
}

func TestNewCheckSummaryEmpty(t *testing.T) {
	t.Parallel()

	summary := NewCheckSummary("run-2", time.Now(), nil)
	assert.Zero(t, summary.TotalChecked)
	assert.NotNil(t, summary.Results)
}

func TestParseVersionType(t *testing.T) {
	t.Parallel()

	vt, ok := ParseVersionType(" Minor ")
	assert.True(t, ok)
	assert.Equal(t, VersionTypeMinor, vt)

	_, ok = ParseVersionType("hotfix")
	assert.False(t, ok)
}
