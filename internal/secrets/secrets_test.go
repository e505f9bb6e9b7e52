package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/releasewatch/internal/errors"
)

func writeSecret(t *testing.T, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
	require.NoError(t, os.Chmod(path, mode))
	return path
}

func TestExpand(t *testing.T) {
	t.Setenv("RW_TEST_TOKEN", "s3cr3t")
	t.Setenv("RW_TEST_EMPTY", "")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{"empty", "", "", ""},
		{"literal", "plain-value", "plain-value", ""},
		{"reference", "${RW_TEST_TOKEN}", "s3cr3t", ""},
		{"embedded", "Bearer ${RW_TEST_TOKEN}!", "Bearer s3cr3t!", ""},
		{"fallback", "${RW_TEST_UNSET:-dev}", "dev", ""},
		{"empty fallback", "${RW_TEST_UNSET:-}", "", ""},
		{"empty variable uses fallback", "${RW_TEST_EMPTY:-x}", "x", ""},
		{"missing", "${RW_TEST_UNSET}-${RW_TEST_OTHER}", "", "RW_TEST_UNSET, RW_TEST_OTHER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, errors.IsConfigError(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	t.Run("trims trailing newlines only", func(t *testing.T) {
		t.Parallel()
		got, err := ReadFile(writeSecret(t, " token \r\n\n", 0o600))
		require.NoError(t, err)
		assert.Equal(t, " token ", got)
	})

	t.Run("permissive mode is accepted", func(t *testing.T) {
		t.Parallel()
		got, err := ReadFile(writeSecret(t, "token", 0o644))
		require.NoError(t, err)
		assert.Equal(t, "token", got)
	})

	t.Run("failures", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		tests := []struct {
			name string
			path string
			want string
		}{
			{"empty path", "", "path is empty"},
			{"missing", filepath.Join(dir, "absent"), "not found"},
			{"directory", dir, "not a regular file"},
			{"empty file", writeSecret(t, "\n", 0o600), "is empty"},
			{"too large", writeSecret(t, strings.Repeat("x", maxSecretFileSize+1), 0o600), "too large"},
		}
		for _, tt := range tests {
			_, err := ReadFile(tt.path)
			require.Error(t, err, tt.name)
			assert.Contains(t, err.Error(), tt.want, tt.name)
			assert.True(t, errors.IsConfigError(err), tt.name)
		}
	})

	t.Run("content never appears in errors", func(t *testing.T) {
		t.Parallel()
		path := writeSecret(t, strings.Repeat("leak", maxSecretFileSize), 0o600)
		_, err := ReadFile(path)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "leak")
	})
}

func TestResolvePrefersFile(t *testing.T) {
	t.Setenv("RW_TEST_TOKEN", "from-env")
	path := writeSecret(t, "from-file\n", 0o600)

	got, err := Resolve(path, "${RW_TEST_TOKEN}")
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)

	got, err = Resolve("", "${RW_TEST_TOKEN}")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	got, err = Resolve("", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}
