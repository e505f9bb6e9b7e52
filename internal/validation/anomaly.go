package validation

import (
	"fmt"
	"strings"

	"github.com/tphakala/releasewatch/internal/model"
	"github.com/tphakala/releasewatch/internal/versionutil"
)

// DefaultMaxMajorJump is the largest leading-segment increase considered normal.
const DefaultMaxMajorJump = 2

// Detector flags suspicious transitions between a stored and a newly extracted version.
type Detector struct {
	maxMajorJump int
}

// NewDetector creates a detector. A non-positive maxMajorJump uses the default.
func NewDetector(maxMajorJump int) Detector {
	if maxMajorJump <= 0 {
		maxMajorJump = DefaultMaxMajorJump
	}
	return Detector{maxMajorJump: maxMajorJump}
}

// Detect compares newVersion against oldVersion, the target's stored current version.
// Causes are checked in order downgrade, format change, major jump; the reason lists
// every cause that fired. Without both versions there is nothing to compare.
func (d Detector) Detect(oldVersion, newVersion string, target model.Target) model.AnomalyOutcome {
	oldVersion, newVersion = strings.TrimSpace(oldVersion), strings.TrimSpace(newVersion)
	if oldVersion == "" || newVersion == "" {
		return model.AnomalyOutcome{}
	}

	var causes []string

	if versionutil.Compare(newVersion, oldVersion) < 0 {
		causes = append(causes, fmt.Sprintf("DOWNGRADE: %s reported %s after %s", target.Name, newVersion, oldVersion))
	}

	oldShape, newShape := versionutil.Classify(oldVersion), versionutil.Classify(newVersion)
	if oldShape != newShape {
		causes = append(causes, fmt.Sprintf("format changed from %s to %s", oldShape, newShape))
	} else if !versionutil.IsCalendarVersion(newVersion) {
		jump := versionutil.LeadingSegment(newVersion) - versionutil.LeadingSegment(oldVersion)
		if jump > d.maxMajorJump {
			causes = append(causes, fmt.Sprintf("implausible major jump of %d (from %s to %s)", jump, oldVersion, newVersion))
		}
	}

	if len(causes) == 0 {
		return model.AnomalyOutcome{}
	}
	return model.AnomalyOutcome{
		HasAnomaly: true,
		Reason:     strings.Join(causes, "; "),
	}
}
