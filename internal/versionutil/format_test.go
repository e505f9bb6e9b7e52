package versionutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version string
		want    string
	}{
		{"1.2.3", "X.X.X"},
		{"2024.10.1", "YYYY.X.X"},
		{"v5.4", "X.X"},
		{"Version 2025.1", "YYYY.X"},
		{"1.0.0-beta", "X.X.X"},
		{"3000.1", "X.X"},
		{"1234.5.6", "X.X.X"},
		{"10.2.x", "X.X.S"},
		{"12", "X"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.version))
		})
	}
}

func TestFormatChanged(t *testing.T) {
	t.Parallel()

	assert.False(t, FormatChanged("19.1.2", "19.1.3"))
	assert.False(t, FormatChanged("1.0.0-rc1", "1.0.0"))
	assert.True(t, FormatChanged("19.1.3", "2024.1.0"))
	assert.True(t, FormatChanged("5.4", "5.4.1"))
}

func TestIsCalendarVersion(t *testing.T) {
	t.Parallel()

	assert.True(t, IsCalendarVersion("2024.10.1"))
	assert.False(t, IsCalendarVersion("19.1.3"))
}
