package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/releasewatch/internal/model"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	detector := NewDetector(0)
	target := model.Target{ID: "resolve", Name: "DaVinci Resolve"}

	tests := []struct {
		name        string
		oldVersion  string
		newVersion  string
		wantAnomaly bool
		wantReason  []string
	}{
		{"downgrade", "19.1.3", "18.5.0", true, []string{"DOWNGRADE"}},
		{"normal patch", "19.1.2", "19.1.3", false, nil},
		{"same version", "19.1.3", "19.1.3", false, nil},
		{"normal major", "19.1.3", "20.0.0", false, nil},
		{"jump of two is tolerated", "19.1.3", "21.0.0", false, nil},
		{"implausible jump", "19.1.3", "25.0.0", true, []string{"implausible major jump"}},
		{"format change", "19.1.3", "2024.1.0", true, []string{"format changed"}},
		{"downgrade and format change", "2024.1.0", "19.1", true, []string{"DOWNGRADE", "format changed"}},
		{"prefix does not change format", "v5.4", "5.5", false, nil},
		{"calendar years exempt from jump", "2019.1", "2025.1", false, nil},
		{"first observation", "", "19.1.3", false, nil},
		{"no new version", "19.1.3", "", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			outcome := detector.Detect(tt.oldVersion, tt.newVersion, target)
			assert.Equal(t, tt.wantAnomaly, outcome.HasAnomaly, "reason: %s", outcome.Reason)
			for _, fragment := range tt.wantReason {
				assert.Contains(t, outcome.Reason, fragment)
			}
			if !tt.wantAnomaly {
				assert.Empty(t, outcome.Reason)
			}
		})
	}
}

func TestDetectCustomJump(t *testing.T) {
	t.Parallel()

	outcome := NewDetector(1).Detect("3.0", "5.0", model.Target{Name: "Tool"})
	assert.True(t, outcome.HasAnomaly)
}
