// Package serve implements the long-running HTTP and scheduler mode.
package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/releasewatch/internal/app"
	"github.com/tphakala/releasewatch/internal/conf"
	"github.com/tphakala/releasewatch/internal/logger"
)

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the check trigger API, review API and scheduler",
		Long: "Serve the authenticated check trigger and review endpoints and, when " +
			"scheduler.enabled is set, run checks on the configured cron schedule.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Global().Module("app")

			a, err := app.New(settings, log,
				app.RequireTriggerSecret(settings),
				app.RequireExtraction(settings))
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Warn("failed to close resources", logger.Error(err))
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.Serve(ctx)
		},
	}

	if err := setupFlags(cmd); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("host", "", "Listen host, empty for all interfaces")
	cmd.Flags().Int("port", conf.DefaultServerPort, "Listen port")
	cmd.Flags().Bool("scheduler", false, "Run checks on the configured cron schedule")

	bindings := map[string]string{
		"server.host":       "host",
		"server.port":       "port",
		"scheduler.enabled": "scheduler",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flags: %v", err)
		}
	}
	return nil
}
