// defaults.go: default configuration values
package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/releasewatch/internal/validation"
)

// Default values shared with callers that build components without a config file.
const (
	DefaultServerPort        = 8080
	DefaultWorkers           = 4
	DefaultRunTimeout        = 10 * time.Minute
	DefaultTargetTimeout     = 90 * time.Second
	DefaultReviewThreshold   = 70
	DefaultSchedule          = "0 */6 * * *"
	DefaultExtractionRPS     = 1.0
	DefaultExtractionBurst   = 2
	DefaultSQLitePath        = "releasewatch.db"
	DefaultScraperUserAgent  = "releasewatch/1.0 (+https://github.com/tphakala/releasewatch)"
	DefaultExtractionModel   = "claude-sonnet-4-5"
	DefaultExtractionTimeout = 60 * time.Second
)

// setDefaultConfig sets default values for every configuration key.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("main.name", "releasewatch")
	v.SetDefault("main.debug", false)

	// Logging
	v.SetDefault("logging.defaultlevel", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.fileoutput.enabled", false)
	v.SetDefault("logging.fileoutput.path", "logs/releasewatch.log")
	v.SetDefault("logging.fileoutput.level", "info")

	// HTTP server
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.readtimeout", 30*time.Second)
	v.SetDefault("server.writetimeout", DefaultRunTimeout+time.Minute)
	v.SetDefault("server.shutdowntimeout", 15*time.Second)

	v.SetDefault("security.triggersecret", "")
	v.SetDefault("security.triggersecretfile", "")

	// Database
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.sqlite.path", DefaultSQLitePath)
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.username", "releasewatch")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.passwordfile", "")
	v.SetDefault("database.mysql.database", "releasewatch")
	v.SetDefault("database.mysql.timeout", 10*time.Second)
	v.SetDefault("database.slowquerythreshold", 500*time.Millisecond)

	// Scraper
	v.SetDefault("scraper.timeout", 20*time.Second)
	v.SetDefault("scraper.useragent", DefaultScraperUserAgent)
	v.SetDefault("scraper.cachettl", 5*time.Minute)
	v.SetDefault("scraper.maxbodybytes", 5<<20)

	// Extraction
	v.SetDefault("extraction.provider", "anthropic")
	v.SetDefault("extraction.apikey", "")
	v.SetDefault("extraction.apikeyfile", "")
	v.SetDefault("extraction.baseurl", "")
	v.SetDefault("extraction.model", DefaultExtractionModel)
	v.SetDefault("extraction.maxtokens", 4096)
	v.SetDefault("extraction.timeout", DefaultExtractionTimeout)
	v.SetDefault("extraction.requestspersecond", DefaultExtractionRPS)
	v.SetDefault("extraction.burst", DefaultExtractionBurst)
	v.SetDefault("extraction.maxcontentchars", 60000)

	// Checker
	v.SetDefault("checker.workers", DefaultWorkers)
	v.SetDefault("checker.runtimeout", DefaultRunTimeout)
	v.SetDefault("checker.targettimeout", DefaultTargetTimeout)
	v.SetDefault("checker.targetmininterval", time.Duration(0))
	v.SetDefault("checker.reviewthreshold", DefaultReviewThreshold)
	v.SetDefault("checker.minvalidscore", validation.DefaultMinValidScore)
	v.SetDefault("checker.maxmajorjump", validation.DefaultMaxMajorJump)

	scoring := validation.DefaultScorerConfig()
	v.SetDefault("checker.scoring.neardistance", scoring.NearDistance)
	v.SetDefault("checker.scoring.fardistance", scoring.FarDistance)
	v.SetDefault("checker.scoring.nearpenalty", scoring.NearPenalty)
	v.SetDefault("checker.scoring.farpenalty", scoring.FarPenalty)
	v.SetDefault("checker.scoring.notfoundpenalty", scoring.NotFoundPenalty)
	v.SetDefault("checker.scoring.anomalyceiling", scoring.AnomalyCeiling)

	// Scheduler
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.schedule", DefaultSchedule)
	v.SetDefault("scheduler.timezone", "")
	v.SetDefault("scheduler.runonstart", false)

	// Sentry
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
}
