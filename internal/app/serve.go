package app

import (
	"context"

	"github.com/tphakala/releasewatch/internal/api"
	"github.com/tphakala/releasewatch/internal/logger"
	"github.com/tphakala/releasewatch/internal/scheduler"
)

// Serve runs the HTTP API, and the scheduler when enabled, until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	s := a.Settings

	server, err := api.New(api.Config{
		Host:            s.Server.Host,
		Port:            s.Server.Port,
		ReadTimeout:     s.Server.ReadTimeout,
		WriteTimeout:    s.Server.WriteTimeout,
		ShutdownTimeout: s.Server.ShutdownTimeout,
		TriggerSecret:   s.Security.TriggerSecret,
		Version:         s.Version,
	}, a.Checker, a.Store,
		api.WithLogger(a.log.Module("api")),
		api.WithMetrics(a.Metrics))
	if err != nil {
		return err
	}

	var sched *scheduler.Scheduler
	if s.Scheduler.Enabled {
		sched, err = scheduler.New(scheduler.Config{
			Schedule:   s.Scheduler.Schedule,
			Timezone:   s.Scheduler.Timezone,
			RunOnStart: s.Scheduler.RunOnStart,
		}, a.Checker, a.log.Module("scheduler"))
		if err != nil {
			return err
		}
	}

	server.Start()
	if sched != nil {
		sched.Start()
	}

	<-ctx.Done()
	a.log.Info("shutdown requested")

	if sched != nil {
		sched.Stop()
	}
	if err := server.Shutdown(); err != nil {
		return err
	}

	a.log.Info("releasewatch stopped", logger.String("version", s.Version))
	return nil
}
