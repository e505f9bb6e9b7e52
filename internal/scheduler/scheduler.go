// Package scheduler triggers check runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/logger"
	"github.com/tphakala/releasewatch/internal/model"
)

// DefaultSchedule runs every six hours on the hour.
const DefaultSchedule = "0 */6 * * *"

// Runner is the part of the checker the scheduler drives.
type Runner interface {
	Run(ctx context.Context) (model.CheckSummary, error)
	Running() bool
}

// Config controls when runs are triggered.
type Config struct {
	Schedule   string // 5-field cron spec: minute hour day month weekday
	Timezone   string // IANA name; empty or "Local" uses the host zone
	RunOnStart bool
}

// Scheduler starts a check run on every cron tick unless one is already active.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	location *time.Location
	runner   Runner
	config   Config
	log      logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseSchedule parses a 5-field cron spec.
func ParseSchedule(spec string) (cron.Schedule, error) {
	return parser.Parse(spec)
}

// New validates cfg and prepares a scheduler. Nothing runs until Start.
func New(cfg Config, runner Runner, log logger.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.Newf("scheduler requires a runner").
			Component("scheduler").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if log == nil {
		log = logger.Global().Module("scheduler")
	}

	loc, err := loadLocation(cfg.Timezone)
	if err != nil {
		return nil, errors.New(err).
			Component("scheduler").
			Category(errors.CategoryConfiguration).
			Context("timezone", cfg.Timezone).
			Build()
	}

	schedule, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return nil, errors.New(fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)).
			Component("scheduler").
			Category(errors.CategoryConfiguration).
			Build()
	}

	cronLog := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
			cron.WithLogger(cronLog),
		),
		schedule: schedule,
		location: loc,
		runner:   runner,
		config:   cfg,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.cron.Schedule(schedule, cron.FuncJob(s.tick))

	return s, nil
}

func loadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	default:
		loc, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
		}
		return loc, nil
	}
}

// Start begins firing ticks. With RunOnStart one run is started immediately.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	s.cron.Start()
	s.log.Info("scheduler started",
		logger.String("schedule", s.config.Schedule),
		logger.String("timezone", s.location.String()),
		logger.Time("next_run", s.Next()))

	if s.config.RunOnStart {
		s.wg.Go(s.tick)
	}
}

// Stop cancels any run the scheduler started and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	if s.started {
		<-s.cron.Stop().Done()
		s.started = false
	}
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// Next returns the next tick after now in the scheduler's timezone.
func (s *Scheduler) Next() time.Time {
	return s.schedule.Next(time.Now().In(s.location))
}

func (s *Scheduler) tick() {
	if s.ctx.Err() != nil {
		return
	}
	if s.runner.Running() {
		s.log.Info("skipping scheduled run, a run is already in progress")
		return
	}

	s.log.Info("scheduled run starting")
	summary, err := s.runner.Run(s.ctx)
	switch {
	case errors.IsCategory(err, errors.CategoryConflict):
		s.log.Info("skipping scheduled run, a run is already in progress")
	case err != nil:
		s.log.Error("scheduled run failed", logger.Error(err))
	default:
		s.log.Info("scheduled run finished",
			logger.String("run_id", summary.RunID),
			logger.Int("total_checked", summary.TotalChecked),
			logger.Int("successful", summary.Successful),
			logger.Int("failed", summary.Failed),
			logger.Duration("duration", summary.Duration),
			logger.Int("versions_added", summary.TotalVersionsAdded),
			logger.Time("next_run", s.Next()))
	}
}

// cronLogger routes robfig/cron's logr-style output to the module logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []any) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, logger.Any(key, kv[i+1]))
	}
	return fields
}
