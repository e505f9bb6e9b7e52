// env.go: environment variable configuration and validation
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every automatically bound environment variable.
const EnvPrefix = "RELEASEWATCH"

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns explicit bindings, mostly for secrets whose
// conventional variable names do not follow the prefix scheme.
func getEnvBindings() []envBinding {
	return []envBinding{
		// Secrets
		{"security.triggersecret", "RELEASEWATCH_TRIGGER_SECRET", nil},
		{"extraction.apikey", "ANTHROPIC_API_KEY", nil},
		{"database.mysql.password", "RELEASEWATCH_DB_PASSWORD", nil},
		{"sentry.dsn", "SENTRY_DSN", validateEnvURL},
		{"security.triggersecretfile", "RELEASEWATCH_TRIGGER_SECRET_FILE", nil},
		{"extraction.apikeyfile", "ANTHROPIC_API_KEY_FILE", nil},
		{"database.mysql.passwordfile", "RELEASEWATCH_DB_PASSWORD_FILE", nil},

		// Frequently overridden in containers
		{"database.type", "RELEASEWATCH_DB_TYPE", validateEnvDatabaseType},
		{"database.sqlite.path", "RELEASEWATCH_DB_PATH", nil},
		{"database.mysql.host", "RELEASEWATCH_DB_HOST", nil},
		{"database.mysql.port", "RELEASEWATCH_DB_PORT", validateEnvPort},
		{"server.port", "RELEASEWATCH_PORT", validateEnvPort},
		{"checker.workers", "RELEASEWATCH_WORKERS", validateEnvPositiveInt},
		{"checker.targettimeout", "RELEASEWATCH_TARGET_TIMEOUT", validateEnvDuration},
		{"main.debug", "RELEASEWATCH_DEBUG", validateEnvBool},
	}
}

// configureEnvironmentVariables enables prefixed automatic env lookup
// (checker.workers reads RELEASEWATCH_CHECKER_WORKERS) and the explicit bindings.
func configureEnvironmentVariables(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return bindEnvVars(v)
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					// Secrets are never echoed back
					warnings = append(warnings, fmt.Sprintf("Invalid %s value: %v", binding.EnvVar, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid boolean value: %s", value)
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid port: %s", value)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid integer: %s", value)
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid duration: %s", value)
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %s", d)
	}
	return nil
}

func validateEnvDatabaseType(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sqlite", "mysql":
		return nil
	default:
		return fmt.Errorf("unsupported database type: %s", value)
	}
}

// validateEnvURL checks the shape only; the value itself is not included in errors.
func validateEnvURL(value string) error {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("not an absolute URL")
	}
	return nil
}
