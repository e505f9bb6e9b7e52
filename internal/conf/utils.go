// utils.go: configuration path helpers
package conf

import (
	"os"
	"path/filepath"
)

// AppName names the configuration directories.
const AppName = "releasewatch"

// GetDefaultConfigPaths returns the directories searched for config.yaml, in order:
// the working directory, the user config directory and the system directory.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", AppName))
	}

	return append(paths, filepath.Join("/etc", AppName))
}
