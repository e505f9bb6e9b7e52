package checker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/logger"
	"github.com/tphakala/releasewatch/internal/model"
	"github.com/tphakala/releasewatch/internal/observability/metrics"
	"github.com/tphakala/releasewatch/internal/validation"
)

// targetRun tracks one target through the pipeline.
type targetRun struct {
	target model.Target
	state  State
	log    logger.Logger
}

func (r *targetRun) transition(next State) {
	if !r.state.CanTransition(next) {
		r.log.Error("invalid state transition",
			logger.String("from", r.state.String()),
			logger.String("to", next.String()))
	}
	r.log.Debug("state transition",
		logger.String("from", r.state.String()),
		logger.String("state", next.String()))
	r.state = next
}

// checkTarget runs the full pipeline for target under its own timeout and never
// returns an error: every failure, including a panic in a collaborator, becomes
// an unsuccessful CheckResult.
func (c *Checker) checkTarget(ctx context.Context, runID string, target model.Target) (result model.CheckResult) {
	started := time.Now()
	run := &targetRun{
		target: target,
		state:  StatePending,
		log: c.log.With(
			logger.String("run_id", runID),
			logger.String("target_id", target.ID),
			logger.String("target_name", target.Name)),
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.TargetTimeout)
	defer cancel()

	result = model.CheckResult{SoftwareID: target.ID, Name: target.Name}

	defer func() {
		if r := recover(); r != nil {
			err := errors.Newf("panic while %s: %v", strings.ToLower(run.state.String()), r).
				Component("checker").
				Category(errors.CategoryGeneric).
				Context("target_id", target.ID).
				Build()
			result = c.fail(ctx, run, result, err)
		}
		result.FinalState = run.state.String()

		status := metrics.StatusSuccess
		switch {
		case result.Success:
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			status = metrics.StatusTimeout
		default:
			status = metrics.StatusFailure
		}
		c.metrics.RecordTarget(status, result.FinalState, result.VersionsAdded)
		run.log.Info("target check finished",
			logger.String("state", result.FinalState),
			logger.Bool("success", result.Success),
			logger.Int("versions_found", result.VersionsFound),
			logger.Int("versions_added", result.VersionsAdded),
			logger.Duration("duration", time.Since(started)))
	}()

	if err := c.limiter.Wait(ctx, target.ID); err != nil {
		return c.fail(ctx, run, result, err)
	}

	// SCRAPING
	run.transition(StateScraping)
	stageStart := time.Now()
	content, err := c.scraper.Scrape(ctx, target.VersionCheckURL)
	if err == nil && strings.TrimSpace(content) == "" {
		err = errors.Newf("empty content from %s", target.VersionCheckURL).
			Component("checker").
			Category(errors.CategoryNetwork).
			Context("target_id", target.ID).
			Build()
	}
	c.recordStage(ctx, metrics.StageScrape, err, stageStart)
	if err != nil {
		return c.fail(ctx, run, result, err)
	}

	// EXTRACTING
	run.transition(StateExtracting)
	stageStart = time.Now()
	extracted, err := c.extractor.Extract(ctx, target.Name, content)
	if err == nil && extracted == nil {
		err = errors.Newf("extraction returned no result").
			Component("checker").
			Category(errors.CategoryExtraction).
			Build()
	}
	c.recordStage(ctx, metrics.StageExtract, err, stageStart)
	if err != nil {
		return c.fail(ctx, run, result, err)
	}

	// VALIDATING
	run.transition(StateValidating)
	stageStart = time.Now()
	verdict := c.evaluate(target, extracted, content)
	c.recordStage(ctx, metrics.StageValidate, nil, stageStart)
	c.metrics.RecordScore(verdict.score, verdict.anomaly.HasAnomaly, verdict.requiresReview)

	result.Score = verdict.score
	result.RequiresManualReview = verdict.requiresReview
	result.VersionsFound = len(extracted.Versions)

	run.log.Info("extraction validated",
		logger.String("current_version", extracted.CurrentVersion),
		logger.String("previous_version", target.CurrentVersion),
		logger.Int("ai_confidence", extracted.AIConfidence),
		logger.Int("score", verdict.score),
		logger.Bool("valid", verdict.outcome.Valid),
		logger.String("reason", verdict.outcome.Reason),
		logger.Bool("anomaly", verdict.anomaly.HasAnomaly),
		logger.Bool("requires_manual_review", verdict.requiresReview))
	if verdict.anomaly.HasAnomaly {
		run.log.Warn("suspicious version transition",
			logger.String("reason", verdict.anomaly.Reason))
	}

	// PERSISTING
	run.transition(StatePersisting)
	stageStart = time.Now()
	added, err := c.persist(ctx, target, extracted, verdict)
	c.recordStage(ctx, metrics.StagePersist, err, stageStart)
	result.VersionsAdded = added
	if err != nil {
		return c.fail(ctx, run, result, err)
	}

	run.transition(StateDone)
	result.Success = true
	return result
}

// verdict is the outcome of the VALIDATING stage.
type verdict struct {
	outcome        model.ValidationOutcome
	anomaly        model.AnomalyOutcome
	score          int
	requiresReview bool
}

// evaluate validates the extraction, detects anomalies against the stored
// current version and computes the final score and review decision.
func (c *Checker) evaluate(target model.Target, extracted *model.ExtractionResult, content string) verdict {
	v := verdict{
		outcome: c.validator.ValidateExtraction(target, extracted, content),
		anomaly: c.detector.Detect(target.CurrentVersion, extracted.CurrentVersion, target),
	}

	v.score = v.outcome.Confidence
	if extracted.HasCurrentVersion() && v.outcome.ProductNameFound {
		v.score = c.validator.Score(validation.ScoreInput{
			AIConfidence:     extracted.AIConfidence,
			ProductNameFound: true,
			Proximity:        v.outcome.Proximity,
			HasAnomaly:       v.anomaly.HasAnomaly,
		})
	}

	v.requiresReview = !v.outcome.Valid || v.anomaly.HasAnomaly || v.score < c.config.ReviewThreshold
	return v
}

// fail moves run to FAILED and records err on result. A deadline hit inside the
// target's own timeout is reported as a timeout naming the stage it interrupted.
func (c *Checker) fail(ctx context.Context, run *targetRun, result model.CheckResult, err error) model.CheckResult {
	failedIn := run.state
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.IsCategory(err, errors.CategoryTimeout) {
		err = errors.New(fmt.Errorf("timed out while %s: %w", strings.ToLower(failedIn.String()), err)).
			Component("checker").
			Category(errors.CategoryTimeout).
			Context("target_id", run.target.ID).
			Context("target_timeout", c.config.TargetTimeout.String()).
			Build()
	}

	run.transition(StateFailed)
	run.log.Warn("target check failed",
		logger.String("failed_in", failedIn.String()),
		logger.Error(err))

	result.Success = false
	result.Error = err.Error()
	return result
}

func (c *Checker) recordStage(ctx context.Context, stage string, err error, started time.Time) {
	status := metrics.StatusSuccess
	switch {
	case err == nil:
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		status = metrics.StatusTimeout
	default:
		status = metrics.StatusFailure
	}
	c.metrics.RecordStage(stage, status, time.Since(started))
}
