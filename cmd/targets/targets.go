// Package targets manages the tracked software catalog.
package targets

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tphakala/releasewatch/internal/app"
	"github.com/tphakala/releasewatch/internal/catalog"
	"github.com/tphakala/releasewatch/internal/conf"
	"github.com/tphakala/releasewatch/internal/logger"
	"github.com/tphakala/releasewatch/internal/model"
)

// Command creates the targets command and its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Import and list tracked software",
	}

	cmd.AddCommand(importCommand(settings), listCommand(settings))
	return cmd
}

func importCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create or update targets from a YAML catalog",
		Long: "Upsert every entry of the catalog by id. Observed versions are kept; " +
			"only name, website and version_check_url are replaced.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open catalog: %w", err)
			}
			defer f.Close()

			entries, err := catalog.Parse(f)
			if err != nil {
				return err
			}

			log := logger.Global().Module("catalog")
			store, err := app.OpenStore(settings, log)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := catalog.Import(cmd.Context(), store, entries)
			if err != nil {
				return fmt.Errorf("imported %d of %d targets: %w", n, len(entries), err)
			}

			log.Info("catalog imported", logger.String("file", args[0]), logger.Int("targets", n))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d targets\n", n)
			return nil
		},
	}
}

func listCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked software with the last observed version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.OpenStore(settings, logger.Global().Module("catalog"))
			if err != nil {
				return err
			}
			defer store.Close()

			all, err := store.ListTargets(cmd.Context())
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No targets configured")
				return nil
			}

			RenderTargets(cmd.OutOrStdout(), all)
			return nil
		},
	}
}

// RenderTargets prints the catalog as a table.
func RenderTargets(w io.Writer, targets []model.Target) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Current Version", "Released", "Last Checked", "Version Check URL"})

	for _, target := range targets {
		t.AppendRow(table.Row{
			target.ID,
			target.Name,
			orDash(target.CurrentVersion),
			formatTime(target.CurrentVersionDate, time.DateOnly),
			formatTime(target.LastCheckedAt, time.DateTime),
			orDash(target.VersionCheckURL),
		})
	}

	t.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTime(t *time.Time, layout string) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(layout)
}
