// Package secrets resolves credentials from config values, environment
// references and mounted secret files (Docker or Kubernetes secrets).
// Secret values are never logged or included in errors.
package secrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/logger"
)

const (
	// maxSecretFileSize bounds reads; secrets are tokens, not documents
	maxSecretFileSize = 64 * 1024

	// group and other permission bits
	permissiveBits = 0o077
)

// Expand replaces ${VAR} and ${VAR:-default} references with environment
// values. A referenced variable that is unset and has no default is an error.
func Expand(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	expanded := os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", errors.Newf("missing environment variable(s): %s", strings.Join(missing, ", ")).
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return expanded, nil
}

// ReadFile reads a secret file, dropping trailing newlines. Files readable by
// group or other are accepted with a warning.
func ReadFile(path string) (string, error) {
	if path == "" {
		return "", configError("secret file path is empty", "")
	}
	clean := filepath.Clean(path)

	info, err := os.Stat(clean)
	switch {
	case os.IsNotExist(err):
		return "", configError("secret file not found", clean)
	case err != nil:
		return "", errors.New(err).
			Component("secrets").
			Category(errors.CategoryFileIO).
			Context("path", clean).
			Build()
	case !info.Mode().IsRegular():
		return "", configError("secret path is not a regular file", clean)
	case info.Size() > maxSecretFileSize:
		return "", configError("secret file is too large", clean)
	}

	if perm := info.Mode().Perm(); perm&permissiveBits != 0 {
		logger.Global().Module("secrets").Warn("secret file is readable by group or other",
			logger.String("path", clean),
			logger.String("mode", perm.String()))
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return "", errors.New(err).
			Component("secrets").
			Category(errors.CategoryFileIO).
			Context("path", clean).
			Build()
	}

	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", configError("secret file is empty", clean)
	}
	return secret, nil
}

// Resolve returns the secret from filePath when set, otherwise value with
// environment references expanded. Both empty resolves to "".
func Resolve(filePath, value string) (string, error) {
	if filePath != "" {
		return ReadFile(filePath)
	}
	return Expand(value)
}

func configError(msg, path string) error {
	if path != "" {
		msg += ": " + path
	}
	return errors.Newf("%s", msg).
		Component("secrets").
		Category(errors.CategoryConfiguration).
		Build()
}
