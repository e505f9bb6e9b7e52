// Package checker runs version checks: one pipeline per target through
// scrape, extract, validate and persist, fanned out over a bounded worker pool.
package checker

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/releasewatch/internal/datastore"
	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/extraction"
	"github.com/tphakala/releasewatch/internal/logger"
	"github.com/tphakala/releasewatch/internal/model"
	"github.com/tphakala/releasewatch/internal/observability/metrics"
	"github.com/tphakala/releasewatch/internal/ratelimit"
	"github.com/tphakala/releasewatch/internal/scraper"
	"github.com/tphakala/releasewatch/internal/validation"
)

// ErrRunInProgress is returned when a run is requested while another is active.
var ErrRunInProgress = errors.NewStd("a check run is already in progress")

// Store is the persistence the checker needs. *datastore.GormStore satisfies it.
type Store interface {
	GetTarget(ctx context.Context, id string) (*model.Target, error)
	ListTargetsWithVersionURL(ctx context.Context) ([]model.Target, error)
	FindVersionRecord(ctx context.Context, softwareID, version string) (*datastore.VersionRecord, error)
	InsertVersionRecord(ctx context.Context, rec *datastore.VersionRecord) (bool, error)
	UpdateVersionRecord(ctx context.Context, id uint, fields datastore.VersionRecordUpdate) error
	UpdateTargetCurrentVersion(ctx context.Context, id, version string, releaseDate *time.Time, checkedAt time.Time) error
}

// Requirement is a configuration value that must be present before any target is checked.
type Requirement struct {
	Key   string // config key reported when missing
	Value string
}

// Config controls concurrency, timeouts and the review decision.
type Config struct {
	Workers         int
	RunTimeout      time.Duration
	TargetTimeout   time.Duration
	ReviewThreshold int
	Required        []Requirement
}

const (
	DefaultWorkers         = 4
	DefaultRunTimeout      = 10 * time.Minute
	DefaultTargetTimeout   = 90 * time.Second
	DefaultReviewThreshold = 70
)

// Deps are the collaborators of a Checker. Limiter, Metrics and Logger are optional.
type Deps struct {
	Store     Store
	Scraper   scraper.Scraper
	Extractor extraction.Extractor
	Validator *validation.Validator
	Detector  validation.Detector

	// Limiter is waited on with the target id before each check.
	Limiter ratelimit.Limiter
	Metrics *metrics.CheckerMetrics
	Logger  logger.Logger
}

// Checker orchestrates check runs. It is safe for concurrent use; at most one
// full run executes at a time.
type Checker struct {
	config    Config
	store     Store
	scraper   scraper.Scraper
	extractor extraction.Extractor
	validator *validation.Validator
	detector  validation.Detector
	limiter   ratelimit.Limiter
	metrics   *metrics.CheckerMetrics
	log       logger.Logger

	running atomic.Bool
	now     func() time.Time
}

// New creates a Checker. Zero config values take the package defaults.
func New(cfg Config, deps Deps) (*Checker, error) {
	var missing []string
	if deps.Store == nil {
		missing = append(missing, "store")
	}
	if deps.Scraper == nil {
		missing = append(missing, "scraper")
	}
	if deps.Extractor == nil {
		missing = append(missing, "extractor")
	}
	if deps.Validator == nil {
		missing = append(missing, "validator")
	}
	if len(missing) > 0 {
		return nil, errors.Newf("checker: missing dependencies: %s", strings.Join(missing, ", ")).
			Component("checker").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	if cfg.TargetTimeout <= 0 {
		cfg.TargetTimeout = DefaultTargetTimeout
	}
	if cfg.ReviewThreshold <= 0 {
		cfg.ReviewThreshold = DefaultReviewThreshold
	}

	c := &Checker{
		config:    cfg,
		store:     deps.Store,
		scraper:   deps.Scraper,
		extractor: deps.Extractor,
		validator: deps.Validator,
		detector:  deps.Detector,
		limiter:   deps.Limiter,
		metrics:   deps.Metrics,
		log:       deps.Logger,
		now:       time.Now,
	}

	if c.detector == (validation.Detector{}) {
		c.detector = validation.NewDetector(validation.DefaultMaxMajorJump)
	}
	if c.limiter == nil {
		c.limiter = ratelimit.Unlimited{}
	}
	if c.log == nil {
		c.log = logger.Global().Module("checker")
	}
	if c.metrics == nil {
		// Unregistered collectors keep call sites free of nil checks
		m, err := metrics.NewCheckerMetrics(prometheus.NewRegistry())
		if err != nil {
			return nil, err
		}
		c.metrics = m
	}

	return c, nil
}

// Running reports whether a full run is in progress.
func (c *Checker) Running() bool {
	return c.running.Load()
}

// Preflight verifies required configuration. A failure is a configuration
// error and means no target may be checked.
func (c *Checker) Preflight() error {
	var missing []string
	for _, req := range c.config.Required {
		if strings.TrimSpace(req.Value) == "" {
			missing = append(missing, req.Key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return errors.Newf("missing required configuration: %s", strings.Join(missing, ", ")).
		Component("checker").
		Category(errors.CategoryConfiguration).
		Context("missing_keys", missing).
		Build()
}

// Run checks every target that has a version-check URL and aggregates the results.
// Only a configuration problem, a concurrent run or a failure to load the target
// list returns an error; per-target failures are reported in the summary.
func (c *Checker) Run(ctx context.Context) (model.CheckSummary, error) {
	if !c.running.CompareAndSwap(false, true) {
		return model.CheckSummary{}, errors.New(ErrRunInProgress).
			Component("checker").
			Category(errors.CategoryConflict).
			Build()
	}
	defer c.running.Store(false)

	if err := c.Preflight(); err != nil {
		c.log.Error("check run aborted", logger.Error(err))
		c.metrics.RunAborted()
		return model.CheckSummary{}, err
	}

	runID := uuid.NewString()
	log := c.log.With(logger.String("run_id", runID))
	started := c.now()

	c.metrics.RunStarted()

	runCtx, cancel := context.WithTimeout(ctx, c.config.RunTimeout)
	defer cancel()

	targets, err := c.store.ListTargetsWithVersionURL(runCtx)
	if err != nil {
		c.metrics.RunFinished(metrics.StatusFailure, time.Since(started))
		log.Error("failed to load targets", logger.Error(err))
		return model.CheckSummary{}, err
	}

	log.Info("check run started",
		logger.Int("targets", len(targets)),
		logger.Int("workers", c.config.Workers))

	results := c.checkAll(runCtx, runID, targets)

	summary := model.NewCheckSummary(runID, started, results)
	summary.Duration = time.Since(started)

	status := metrics.StatusSuccess
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		status = metrics.StatusTimeout
		log.Warn("check run hit its timeout", logger.Duration("run_timeout", c.config.RunTimeout))
	}
	c.metrics.RunFinished(status, summary.Duration)

	log.Info("check run completed",
		logger.Int("total_checked", summary.TotalChecked),
		logger.Int("successful", summary.Successful),
		logger.Int("failed", summary.Failed),
		logger.Int("versions_added", summary.TotalVersionsAdded),
		logger.Duration("duration", summary.Duration))

	return summary, nil
}

// CheckOne runs the pipeline for a single target outside of a full run.
func (c *Checker) CheckOne(ctx context.Context, targetID string) (model.CheckResult, error) {
	if err := c.Preflight(); err != nil {
		return model.CheckResult{}, err
	}

	target, err := c.store.GetTarget(ctx, targetID)
	if err != nil {
		return model.CheckResult{}, err
	}
	if strings.TrimSpace(target.VersionCheckURL) == "" {
		return model.CheckResult{}, errors.Newf("target %s has no version-check URL", target.ID).
			Component("checker").
			Category(errors.CategoryValidation).
			Context("target_id", target.ID).
			Build()
	}

	return c.checkTarget(ctx, uuid.NewString(), *target), nil
}

// checkAll runs one pipeline per target with at most config.Workers in flight.
// Results keep the order of targets.
func (c *Checker) checkAll(ctx context.Context, runID string, targets []model.Target) []model.CheckResult {
	results := make([]model.CheckResult, len(targets))

	// A plain group: a failed target must never cancel its siblings
	var g errgroup.Group
	g.SetLimit(c.config.Workers)

	for i := range targets {
		g.Go(func() error {
			results[i] = c.checkTarget(ctx, runID, targets[i])
			return nil
		})
	}
	_ = g.Wait()

	return results
}
