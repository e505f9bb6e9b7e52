// Package app wires configuration into the running components shared by the
// serve and check commands.
package app

import (
	"strconv"
	"strings"

	"github.com/tphakala/releasewatch/internal/checker"
	"github.com/tphakala/releasewatch/internal/conf"
	"github.com/tphakala/releasewatch/internal/datastore"
	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/extraction"
	"github.com/tphakala/releasewatch/internal/httpclient"
	"github.com/tphakala/releasewatch/internal/logger"
	"github.com/tphakala/releasewatch/internal/observability"
	"github.com/tphakala/releasewatch/internal/ratelimit"
	"github.com/tphakala/releasewatch/internal/scraper"
	"github.com/tphakala/releasewatch/internal/validation"
)

// Config keys reported by the checker preflight.
const (
	KeyTriggerSecret = "security.triggersecret"
	KeyExtractionKey = "extraction.apikey"
)

// App holds the long-lived components built from Settings.
type App struct {
	Settings *conf.Settings
	Store    *datastore.GormStore
	Metrics  *observability.Metrics
	Checker  *checker.Checker

	client        *httpclient.Client // page fetches
	extractClient *httpclient.Client // model calls, headers arrive only once the answer is complete
	log           logger.Logger
}

// RequireExtraction reports the extraction API key as a preflight requirement.
func RequireExtraction(settings *conf.Settings) checker.Requirement {
	return checker.Requirement{Key: KeyExtractionKey, Value: settings.Extraction.APIKey}
}

// RequireTriggerSecret reports the trigger secret as a preflight requirement.
func RequireTriggerSecret(settings *conf.Settings) checker.Requirement {
	return checker.Requirement{Key: KeyTriggerSecret, Value: settings.Security.TriggerSecret}
}

// OpenStore connects to the configured database.
func OpenStore(settings *conf.Settings, log logger.Logger) (*datastore.GormStore, error) {
	db := settings.Database
	cfg := datastore.Config{
		Type:               db.Type,
		SQLitePath:         db.SQLite.Path,
		SlowQueryThreshold: db.SlowQueryThreshold,
		MySQL: datastore.MySQLConfig{
			Host:     db.MySQL.Host,
			Port:     strconv.Itoa(db.MySQL.Port),
			Username: db.MySQL.Username,
			Password: db.MySQL.Password,
			Database: db.MySQL.Database,
			Timeout:  db.MySQL.Timeout,
		},
	}
	return datastore.Open(cfg, log)
}

// New opens the store and builds the checker with its collaborators. required
// lists the settings the checker refuses to run without.
func New(settings *conf.Settings, log logger.Logger, required ...checker.Requirement) (*App, error) {
	if settings == nil {
		return nil, errors.Newf("settings are required").
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if log == nil {
		log = logger.Global().Module("app")
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(settings, log)
	if err != nil {
		return nil, err
	}

	a := &App{
		Settings: settings,
		Store:    store,
		Metrics:  m,
		log:      log,
	}

	a.client = httpclient.New(&httpclient.Config{
		DefaultTimeout:        settings.Scraper.Timeout,
		ResponseHeaderTimeout: settings.Scraper.Timeout,
		UserAgent:             settings.Scraper.UserAgent,
		MaxBodyBytes:          settings.Scraper.MaxBodyBytes,
	})
	a.client.SetAfterResponseHook(m.OutboundHook())

	a.extractClient = httpclient.New(&httpclient.Config{
		DefaultTimeout:        settings.Extraction.Timeout,
		ResponseHeaderTimeout: settings.Extraction.Timeout,
		UserAgent:             settings.Scraper.UserAgent,
	})
	a.extractClient.SetAfterResponseHook(m.OutboundHook())

	extractor, err := a.newExtractor()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	scoring := validation.NewScorer(settings.Checker.Scoring)
	var targetLimiter ratelimit.Limiter
	if settings.Checker.TargetMinInterval > 0 {
		targetLimiter = ratelimit.NewKeyed(settings.Checker.TargetMinInterval, 1)
	}

	a.Checker, err = checker.New(checker.Config{
		Workers:         settings.Checker.Workers,
		RunTimeout:      settings.Checker.RunTimeout,
		TargetTimeout:   settings.Checker.TargetTimeout,
		ReviewThreshold: settings.Checker.ReviewThreshold,
		Required:        required,
	}, checker.Deps{
		Store: store,
		Scraper: scraper.New(a.client, scraper.Config{
			Timeout:  settings.Scraper.Timeout,
			CacheTTL: settings.Scraper.CacheTTL,
		}, log),
		Extractor: extractor,
		Validator: validation.NewValidator(scoring, settings.Checker.MinValidScore),
		Detector:  validation.NewDetector(settings.Checker.MaxMajorJump),
		Limiter:   targetLimiter,
		Metrics:   m.Checker,
		Logger:    log.Module("checker"),
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	log.Info("components initialized",
		logger.String("database", settings.Database.Type),
		logger.String("extraction_provider", settings.Extraction.Provider),
		logger.String("extraction_model", settings.Extraction.Model),
		logger.Int("workers", settings.Checker.Workers),
		logger.Duration("target_timeout", settings.Checker.TargetTimeout))

	return a, nil
}

// newExtractor builds the configured provider. Missing credentials yield an
// Unconfigured extractor so the preflight can report them per run.
func (a *App) newExtractor() (extraction.Extractor, error) {
	s := a.Settings.Extraction
	if strings.TrimSpace(s.APIKey) == "" {
		a.log.Warn("extraction API key is not set, check runs will be refused",
			logger.String("key", KeyExtractionKey))
		return extraction.Unconfigured{Key: KeyExtractionKey}, nil
	}

	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if s.RequestsPerSecond > 0 {
		limiter = ratelimit.NewSingle(s.RequestsPerSecond, s.Burst)
	}

	return extraction.NewAnthropicExtractor(extraction.Config{
		APIKey:          s.APIKey,
		BaseURL:         s.BaseURL,
		Model:           s.Model,
		MaxTokens:       s.MaxTokens,
		Timeout:         s.Timeout,
		MaxContentChars: s.MaxContentChars,
	}, a.extractClient.HTTPClient(), limiter, a.log)
}

// Close releases the outbound clients and the database.
func (a *App) Close() error {
	if a.client != nil {
		a.client.Close()
	}
	if a.extractClient != nil {
		a.extractClient.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
