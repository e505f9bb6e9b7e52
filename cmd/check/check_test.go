package check

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/releasewatch/internal/model"
)

func TestRenderSummary(t *testing.T) {
	t.Parallel()

	summary := model.NewCheckSummary("run-1", time.Now(), []model.CheckResult{
		{SoftwareID: "blender", Success: true, VersionsFound: 3, VersionsAdded: 2, Score: 88, FinalState: "DONE"},
		{SoftwareID: "krita", Score: 0, RequiresManualReview: true, FinalState: "FAILED", Error: "empty content from https://krita.org"},
	})
	summary.Duration = 1500 * time.Millisecond

	var buf bytes.Buffer
	RenderSummary(&buf, summary)
	out := buf.String()

	assert.Contains(t, out, "blender")
	assert.Contains(t, out, "DONE")
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "empty content from")
	assert.Contains(t, out, "Run run-1: 2 checked, 1 successful, 1 failed, 2 new versions (1.5s)")
}
