// Package check runs one check from the command line and prints the results.
package check

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/tphakala/releasewatch/internal/app"
	"github.com/tphakala/releasewatch/internal/conf"
	"github.com/tphakala/releasewatch/internal/logger"
	"github.com/tphakala/releasewatch/internal/model"
)

// maxErrorWidth keeps long collaborator errors from breaking the table layout.
const maxErrorWidth = 60

// Command creates the check command.
func Command(settings *conf.Settings) *cobra.Command {
	var targetID string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check all targets, or one with --target, and print the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Global().Module("app")

			// The trigger secret only guards the HTTP surface
			a, err := app.New(settings, log, app.RequireExtraction(settings))
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

			if targetID != "" {
				result, err := a.Checker.CheckOne(ctx, targetID)
				if err != nil {
					return err
				}
				RenderResults(cmd.OutOrStdout(), []model.CheckResult{result})
				return nil
			}

			summary, err := a.Checker.Run(ctx)
			if err != nil {
				return err
			}
			RenderSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetID, "target", "t", "", "Check only the target with this id")

	return cmd
}

// RenderSummary prints per-target results followed by the run totals.
func RenderSummary(w io.Writer, summary model.CheckSummary) {
	RenderResults(w, summary.Results)

	fmt.Fprintf(w, "\nRun %s: %d checked, %d successful, %d failed, %d new versions (%s)\n",
		summary.RunID,
		summary.TotalChecked,
		summary.Successful,
		summary.Failed,
		summary.TotalVersionsAdded,
		summary.Duration.Round(time.Millisecond))
}

// RenderResults prints one table row per target.
func RenderResults(w io.Writer, results []model.CheckResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Target", "State", "Found", "Added", "Score", "Review", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Found", Align: text.AlignRight},
		{Name: "Added", Align: text.AlignRight},
		{Name: "Score", Align: text.AlignRight},
		{Name: "Error", WidthMax: maxErrorWidth},
	})

	for _, r := range results {
		review := ""
		if r.RequiresManualReview {
			review = "yes"
		}
		t.AppendRow(table.Row{
			r.SoftwareID,
			r.FinalState,
			r.VersionsFound,
			r.VersionsAdded,
			r.Score,
			review,
			r.Error,
		})
	}

	t.Render()
}
