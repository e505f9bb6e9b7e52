package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/releasewatch/cmd/check"
	"github.com/tphakala/releasewatch/cmd/review"
	"github.com/tphakala/releasewatch/cmd/serve"
	"github.com/tphakala/releasewatch/cmd/targets"
	"github.com/tphakala/releasewatch/internal/buildinfo"
	"github.com/tphakala/releasewatch/internal/conf"
	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/logger"
)

const sentryFlushTimeout = 2 * time.Second

// RootCommand creates and returns the root command
func RootCommand(build *buildinfo.Context) *cobra.Command {
	// Filled in by PersistentPreRunE before any subcommand runs
	settings := &conf.Settings{}
	var (
		configFile    string
		centralLogger *logger.CentralLogger
	)

	rootCmd := &cobra.Command{
		Use:           "releasewatch",
		Short:         "Track software releases from their release-notes pages",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")
	if err := viper.BindPFlag("main.debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		panic(fmt.Sprintf("error binding flags: %v", err))
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), build.String())
		},
	}

	rootCmd.AddCommand(
		serve.Command(settings),
		check.Command(settings),
		targets.Command(settings),
		review.Command(settings),
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}

		loaded, err := conf.Load(viper.GetViper(), configFile)
		if err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}
		loaded.Version = build.Version()
		loaded.BuildDate = build.BuildDate()
		*settings = *loaded

		centralLogger, err = initLogging(settings)
		if err != nil {
			return err
		}
		initTelemetry(settings)
		return nil
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		errors.FlushSentry(sentryFlushTimeout)
		if centralLogger != nil {
			return centralLogger.Close()
		}
		return nil
	}

	return rootCmd
}

// initLogging installs the central logger built from settings as the global logger.
func initLogging(settings *conf.Settings) (*logger.CentralLogger, error) {
	cl, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(cl)

	cl.Module("main").Info("releasewatch starting",
		logger.String("version", settings.Version),
		logger.String("build_date", settings.BuildDate),
		logger.String("instance", settings.Main.Name),
		logger.Bool("debug", settings.Main.Debug))
	return cl, nil
}

// initTelemetry enables Sentry error reporting when configured. A failure is
// logged and the process continues without telemetry.
func initTelemetry(settings *conf.Settings) {
	log := logger.Global().Module("telemetry")
	if !settings.Sentry.Enabled || settings.Sentry.DSN == "" {
		log.Debug("error telemetry disabled")
		return
	}
	if err := errors.InitSentry(settings.Sentry.DSN, settings.Version, settings.Sentry.Environment); err != nil {
		log.Warn("failed to initialize error telemetry", logger.Error(err))
		return
	}
	log.Info("error telemetry enabled", logger.String("environment", settings.Sentry.Environment))
}
