package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateProductName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		product string
		content string
		want    bool
	}{
		{"unrelated product", "DaVinci Resolve", "ATEM Mini 9.6.1 is now available", false},
		{"case-insensitive verbatim", "DaVinci Resolve", "davinci resolve 19.1.3 is now available", true},
		{"reordered words", "Adobe Premiere Pro", "Premiere Pro by Adobe 25.1", true},
		{"minority of words", "Final Cut Pro X", "Cut the cord", false},
		{"more than half", "Logic Pro Studio", "logic studio update", true},
		{"short words ignored", "Go", "rust release notes", false},
		{"short name verbatim", "Go", "Go 1.23 released", true},
		{"empty content", "Blender", "", false},
		{"empty name", "", "anything", false},
		{"non-breaking space", "DaVinci Resolve", "DaVinci\u00a0Resolve 19.1 is out", true},
		{"full-width letters", "Blender", "\uff22\uff4c\uff45\uff4e\uff44\uff45\uff52 4.2", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ValidateProductName(tt.product, tt.content))
		})
	}
}

func TestCalculateProximity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		product string
		version string
		content string
		want    int
	}{
		{"version absent", "DaVinci Resolve", "19.1.3", "DaVinci Resolve is great", -1},
		{"version after name", "DaVinci Resolve", "19.1.3", "DaVinci Resolve 19.1.3", 16},
		{"version before name", "Blender", "4.2", "4.2 of Blender", 7},
		{"case-insensitive", "blender", "V4.2", "BLENDER v4.2", 8},
		{"falls back to word", "Adobe Premiere Pro", "25.1", "Premiere 25.1", 9},
		{"no name words", "Blender", "4.2", "release 4.2", -1},
		{"empty version", "Blender", "", "Blender", -1},
		{"full-width digits", "Blender", "4.2", "Blender \uff14.\uff12", 8},
		{"multibyte characters counted once", "Über App", "2.0", "über app ünd 2.0", 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CalculateProximity(tt.product, tt.version, tt.content))
		})
	}
}
