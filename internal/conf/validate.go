// validate.go: settings validation

package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/tphakala/releasewatch/internal/scheduler"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct. Missing secrets are
// not reported here; the checker refuses to run without them instead.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		validateServerSettings,
		validateDatabaseSettings,
		validateScraperSettings,
		validateExtractionSettings,
		validateCheckerSettings,
		validateSchedulerSettings,
	}
	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}

	return nil
}

func validateServerSettings(s *Settings) error {
	if s.Server.Port < 1 || s.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Server.Port)
	}
	if s.Server.WriteTimeout > 0 && s.Checker.RunTimeout > 0 && s.Server.WriteTimeout < s.Checker.RunTimeout {
		return fmt.Errorf("server.writetimeout (%s) must not be shorter than checker.runtimeout (%s)",
			s.Server.WriteTimeout, s.Checker.RunTimeout)
	}
	return nil
}

func validateDatabaseSettings(s *Settings) error {
	db := &s.Database
	db.Type = strings.ToLower(strings.TrimSpace(db.Type))

	switch db.Type {
	case "sqlite":
		if db.SQLite.Path == "" {
			return fmt.Errorf("database.sqlite.path is required for sqlite")
		}
	case "mysql":
		var missing []string
		if db.MySQL.Host == "" {
			missing = append(missing, "host")
		}
		if db.MySQL.Username == "" {
			missing = append(missing, "username")
		}
		if db.MySQL.Database == "" {
			missing = append(missing, "database")
		}
		if len(missing) > 0 {
			return fmt.Errorf("database.mysql is missing %s", strings.Join(missing, ", "))
		}
		if db.MySQL.Port < 1 || db.MySQL.Port > 65535 {
			return fmt.Errorf("database.mysql.port must be between 1 and 65535, got %d", db.MySQL.Port)
		}
	default:
		return fmt.Errorf("database.type must be sqlite or mysql, got %q", db.Type)
	}
	return nil
}

func validateScraperSettings(s *Settings) error {
	if s.Scraper.Timeout <= 0 {
		return fmt.Errorf("scraper.timeout must be positive")
	}
	if s.Scraper.CacheTTL < 0 {
		return fmt.Errorf("scraper.cachettl must not be negative")
	}
	if s.Scraper.MaxBodyBytes < 0 {
		return fmt.Errorf("scraper.maxbodybytes must not be negative")
	}
	return nil
}

func validateExtractionSettings(s *Settings) error {
	e := &s.Extraction
	if !strings.EqualFold(e.Provider, "anthropic") {
		return fmt.Errorf("extraction.provider %q is not supported", e.Provider)
	}
	if e.Timeout <= 0 {
		return fmt.Errorf("extraction.timeout must be positive")
	}
	if e.MaxTokens <= 0 {
		return fmt.Errorf("extraction.maxtokens must be positive")
	}
	if e.RequestsPerSecond < 0 {
		return fmt.Errorf("extraction.requestspersecond must not be negative")
	}
	if e.RequestsPerSecond > 0 && e.Burst < 1 {
		return fmt.Errorf("extraction.burst must be at least 1 when a rate is set")
	}
	if e.MaxContentChars < 1000 {
		return fmt.Errorf("extraction.maxcontentchars must be at least 1000, got %d", e.MaxContentChars)
	}
	return nil
}

func validateCheckerSettings(s *Settings) error {
	c := &s.Checker
	var problems []string

	if c.Workers < 1 {
		problems = append(problems, fmt.Sprintf("workers must be at least 1, got %d", c.Workers))
	}
	if c.RunTimeout <= 0 || c.TargetTimeout <= 0 {
		problems = append(problems, "runtimeout and targettimeout must be positive")
	} else if c.TargetTimeout > c.RunTimeout {
		problems = append(problems, "targettimeout must not exceed runtimeout")
	}
	if c.TargetMinInterval < 0 {
		problems = append(problems, "targetmininterval must not be negative")
	}
	if !inPercentRange(c.ReviewThreshold) || !inPercentRange(c.MinValidScore) {
		problems = append(problems, "reviewthreshold and minvalidscore must be within 0..100")
	}
	if c.MaxMajorJump < 1 {
		problems = append(problems, "maxmajorjump must be at least 1")
	}

	sc := c.Scoring
	if sc.NearDistance < 0 || sc.FarDistance < sc.NearDistance {
		problems = append(problems, "scoring distances must satisfy 0 <= neardistance <= fardistance")
	}
	if sc.NearPenalty < 0 || sc.FarPenalty < 0 || sc.NotFoundPenalty < 0 {
		problems = append(problems, "scoring penalties must not be negative")
	}
	if !inPercentRange(sc.AnomalyCeiling) {
		problems = append(problems, "scoring.anomalyceiling must be within 0..100")
	}

	if len(problems) > 0 {
		return fmt.Errorf("checker: %s", strings.Join(problems, "; "))
	}
	return nil
}

func validateSchedulerSettings(s *Settings) error {
	if !s.Scheduler.Enabled {
		return nil
	}

	if _, err := scheduler.ParseSchedule(s.Scheduler.Schedule); err != nil {
		return fmt.Errorf("scheduler.schedule %q is invalid: %w", s.Scheduler.Schedule, err)
	}
	if s.Scheduler.Timezone != "" {
		if _, err := time.LoadLocation(s.Scheduler.Timezone); err != nil {
			return fmt.Errorf("scheduler.timezone %q is invalid: %w", s.Scheduler.Timezone, err)
		}
	}
	return nil
}

func inPercentRange(v int) bool {
	return v >= 0 && v <= 100
}
