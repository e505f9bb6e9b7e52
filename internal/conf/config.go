// config.go: settings structure and loading for releasewatch
package conf

import (
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/logger"
	"github.com/tphakala/releasewatch/internal/secrets"
	"github.com/tphakala/releasewatch/internal/validation"
)

// Settings contains all configuration options for releasewatch.
type Settings struct {
	// Runtime values, not stored in config file
	Version   string `yaml:"-" mapstructure:"-"`
	BuildDate string `yaml:"-" mapstructure:"-"`

	Main struct {
		Name  string // instance name, reported in logs and telemetry
		Debug bool   // true to enable debug logging everywhere
	}

	Logging logger.LoggingConfig // central logger configuration

	Server ServerSettings // HTTP trigger and review API

	Security SecuritySettings

	Database DatabaseSettings

	Scraper ScraperSettings

	Extraction ExtractionSettings

	Checker CheckerSettings

	Scheduler SchedulerSettings

	Sentry SentrySettings
}

// ServerSettings configures the echo server started by `serve`.
type ServerSettings struct {
	Host            string        // listen host, empty for all interfaces
	Port            int           // listen port
	ReadTimeout     time.Duration // per-request read timeout
	WriteTimeout    time.Duration // must exceed checker.runtimeout for synchronous triggers
	ShutdownTimeout time.Duration // graceful shutdown window
}

// Address returns the host:port listen address.
func (s ServerSettings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SecuritySettings holds the shared secret guarding the trigger and review endpoints.
type SecuritySettings struct {
	TriggerSecret     string // RELEASEWATCH_TRIGGER_SECRET
	TriggerSecretFile string // mounted secret, wins over TriggerSecret
}

// DatabaseSettings selects and configures the relational store.
type DatabaseSettings struct {
	Type string // sqlite or mysql

	SQLite struct {
		Path string // database file, ":memory:" for an ephemeral store
	}

	MySQL struct {
		Host     string
		Port     int
		Username string
		Password     string // RELEASEWATCH_DB_PASSWORD
		PasswordFile string // mounted secret, wins over Password
		Database     string
		Timeout      time.Duration
	}

	SlowQueryThreshold time.Duration // queries slower than this are logged at warn
}

// ScraperSettings configures page fetching.
type ScraperSettings struct {
	Timeout      time.Duration
	UserAgent    string
	CacheTTL     time.Duration // zero disables the page cache
	MaxBodyBytes int64
}

// ExtractionSettings configures the language-model extraction collaborator.
type ExtractionSettings struct {
	Provider          string // only "anthropic" is supported
	APIKey            string // ANTHROPIC_API_KEY
	APIKeyFile        string // mounted secret, wins over APIKey
	BaseURL           string // optional API endpoint override
	Model             string
	MaxTokens         int64
	Timeout           time.Duration
	RequestsPerSecond float64 // process-wide request rate toward the provider
	Burst             int
	MaxContentChars   int // scraped text is truncated to this many characters
}

// CheckerSettings configures the orchestrator and its scoring.
type CheckerSettings struct {
	Workers           int           // bounded pool size
	RunTimeout        time.Duration // wall-clock bound for one run
	TargetTimeout     time.Duration // bound for one target's pipeline
	TargetMinInterval time.Duration // minimum spacing between checks of one target, zero for unlimited
	ReviewThreshold   int           // scores below this require manual review
	MinValidScore     int           // scores below this invalidate the extraction
	MaxMajorJump      int           // largest plausible major version increase

	Scoring validation.ScorerConfig
}

// SchedulerSettings configures periodic runs inside `serve`.
type SchedulerSettings struct {
	Enabled    bool
	Schedule   string // 5-field cron spec
	Timezone   string // IANA name, empty for local time
	RunOnStart bool
}

// SentrySettings configures optional error telemetry.
type SentrySettings struct {
	Enabled     bool
	DSN         string // SENTRY_DSN
	Environment string
}

// Load reads the configuration into a new Settings. An empty configFile searches
// the default config paths; a missing default config file is not an error.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if err := initViper(v, configFile); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal").
			Build()
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}

	if settings.Main.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("operation", "validate").
			Build()
	}

	return settings, nil
}

// initViper sets defaults, binds environment variables and reads the config file.
func initViper(v *viper.Viper, configFile string) error {
	setDefaultConfig(v)

	if err := configureEnvironmentVariables(v); err != nil {
		// Bad env values are reported but fall back to file or default values
		logger.Global().Module("conf").Warn("environment variable issues",
			logger.Error(err))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range GetDefaultConfigPaths() {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryFileParsing).
			Context("config_file", configFile).
			Build()
	}

	return nil
}

// resolveSecrets replaces each secret with the content of its *File setting
// when one is given, and expands ${VAR} references otherwise.
func resolveSecrets(settings *Settings) error {
	fields := []struct {
		key   string
		file  string
		value *string
	}{
		{"security.triggersecret", settings.Security.TriggerSecretFile, &settings.Security.TriggerSecret},
		{"extraction.apikey", settings.Extraction.APIKeyFile, &settings.Extraction.APIKey},
		{"database.mysql.password", settings.Database.MySQL.PasswordFile, &settings.Database.MySQL.Password},
	}

	for _, f := range fields {
		resolved, err := secrets.Resolve(f.file, *f.value)
		if err != nil {
			return errors.New(err).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Context("config_key", f.key).
				Build()
		}
		*f.value = resolved
	}
	return nil
}
