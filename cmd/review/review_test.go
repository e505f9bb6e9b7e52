package review

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/releasewatch/internal/datastore"
)

func TestParseID(t *testing.T) {
	t.Parallel()

	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, raw := range []string{"0", "-1", "abc", ""} {
		_, err := parseID(raw)
		assert.Error(t, err, raw)
	}
}

func TestRenderRecords(t *testing.T) {
	t.Parallel()

	released := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	RenderRecords(&buf, []datastore.VersionRecord{
		{
			ID: 7, SoftwareID: "blender", Version: "5.0.0", Type: "major", ReleaseDate: &released,
			ConfidenceScore: 45, Notes: []string{"New renderer", "Dropped Python 3.10"},
			Software: &datastore.Software{ID: "blender", Name: "Blender"},
		},
		{ID: 8, SoftwareID: "gimp", Version: "3.0.2", Type: "patch", ConfidenceScore: 0},
	})
	out := buf.String()

	assert.Contains(t, out, "Blender")
	assert.Contains(t, out, "5.0.0")
	assert.Contains(t, out, "2026-02-01")
	assert.Contains(t, out, "New renderer; Dropped Python 3.10")
	assert.Contains(t, out, "gimp")
}
