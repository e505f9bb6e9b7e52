package extraction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/model"
)

const validResponse = `{
  "currentVersion": "19.1.3",
  "releaseDate": "2024-12-10",
  "versions": [
    {"version": "19.1.3", "releaseDate": "2024-12-10", "notes": ["Improved stability", " "], "type": "patch", "buildNumber": 7},
    {"version": "19.1", "releaseDate": null, "notes": "- New color tools\n- Faster renders", "type": "Minor"}
  ],
  "confidence": 92,
  "productNameFound": true
}`

func TestParseResponseValid(t *testing.T) {
	t.Parallel()

	result, err := ParseResponse(validResponse)
	require.NoError(t, err)

	assert.Equal(t, "19.1.3", result.CurrentVersion)
	require.NotNil(t, result.ReleaseDate)
	assert.Equal(t, time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC), *result.ReleaseDate)
	assert.Equal(t, 92, result.AIConfidence)
	assert.True(t, result.ProductNameFound)

	require.Len(t, result.Versions, 2)
	assert.Equal(t, model.VersionCandidate{
		Version:     "19.1.3",
		ReleaseDate: result.ReleaseDate,
		Notes:       []string{"Improved stability"},
		Type:        model.VersionTypePatch,
		BuildNumber: "7",
	}, result.Versions[0])
	assert.Nil(t, result.Versions[1].ReleaseDate)
	assert.Equal(t, model.VersionTypeMinor, result.Versions[1].Type)
	assert.Equal(t, []string{"- New color tools\n- Faster renders"}, result.Versions[1].Notes)
}

func TestParseResponseToleratesFencesAndNulls(t *testing.T) {
	t.Parallel()

	result, err := ParseResponse("```json\n" +
		`{"currentVersion": null, "releaseDate": null, "versions": [], "confidence": 10.6, "productNameFound": false}` +
		"\n```")
	require.NoError(t, err)

	assert.False(t, result.HasCurrentVersion())
	assert.Nil(t, result.ReleaseDate)
	assert.Empty(t, result.Versions)
	assert.Equal(t, 11, result.AIConfidence)
	assert.False(t, result.ProductNameFound)
}

func TestParseResponseLooseDates(t *testing.T) {
	t.Parallel()

	result, err := ParseResponse(`{"currentVersion": "4.3", "releaseDate": "November 19, 2024",
		"versions": [{"version": "4.3", "type": "minor", "releaseDate": "2024-11-19T10:00:00Z"}],
		"confidence": 80, "productNameFound": true}`)
	require.NoError(t, err)

	require.NotNil(t, result.ReleaseDate)
	assert.Equal(t, "2024-11-19", result.ReleaseDate.Format(time.DateOnly))
	require.NotNil(t, result.Versions[0].ReleaseDate)
	assert.Equal(t, 10, result.Versions[0].ReleaseDate.Hour())
	assert.Empty(t, result.Versions[0].Notes)
}

func TestParseResponseRejectsMalformedPayloads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
	}{
		{"prose", "The current version is 19.1.3."},
		{"array", `[{"version": "1.0"}]`},
		{"truncated", `{"currentVersion": "1.0", "versions": [`},
		{"missing currentVersion", `{"versions": [], "confidence": 50, "productNameFound": true}`},
		{"missing versions", `{"currentVersion": "1.0", "confidence": 50, "productNameFound": true}`},
		{"missing confidence", `{"currentVersion": "1.0", "versions": [], "productNameFound": true}`},
		{"missing productNameFound", `{"currentVersion": "1.0", "versions": [], "confidence": 50}`},
		{"confidence as string", `{"currentVersion": "1.0", "versions": [], "confidence": "high", "productNameFound": true}`},
		{"confidence out of range", `{"currentVersion": "1.0", "versions": [], "confidence": 140, "productNameFound": true}`},
		{"currentVersion as number", `{"currentVersion": 1.0, "versions": [], "confidence": 50, "productNameFound": true}`},
		{"candidate without version", `{"currentVersion": "1.0", "versions": [{"type": "major"}], "confidence": 50, "productNameFound": true}`},
		{"candidate with bad type", `{"currentVersion": "1.0", "versions": [{"version": "1.0", "type": "hotfix"}], "confidence": 50, "productNameFound": true}`},
		{"candidate with bad date", `{"currentVersion": "1.0", "versions": [{"version": "1.0", "type": "major", "releaseDate": "soon"}], "confidence": 50, "productNameFound": true}`},
		{"candidate notes with numbers", `{"currentVersion": "1.0", "versions": [{"version": "1.0", "type": "major", "notes": [1, 2]}], "confidence": 50, "productNameFound": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := ParseResponse(tt.response)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.IsExtractionError(err))
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1}  "))
}

func TestBuildUserPromptTruncates(t *testing.T) {
	t.Parallel()

	prompt := buildUserPrompt("Blender", "äöü-release", 3)
	assert.Contains(t, prompt, "Product name: Blender")
	assert.Contains(t, prompt, "<content>\näöü\n</content>")
	assert.Contains(t, prompt, "truncated")

	prompt = buildUserPrompt("Blender", "short", 100)
	assert.NotContains(t, prompt, "truncated")
}

func TestUnconfiguredExtractorFails(t *testing.T) {
	t.Parallel()

	res, err := Unconfigured{Key: "extraction.apikey"}.Extract(t.Context(), "Product", "content")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.IsConfigError(err))
	assert.Contains(t, err.Error(), "extraction.apikey")
}
