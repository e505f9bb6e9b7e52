// Package review works the manual-review queue from the command line.
package review

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/tphakala/releasewatch/internal/app"
	"github.com/tphakala/releasewatch/internal/conf"
	"github.com/tphakala/releasewatch/internal/datastore"
	"github.com/tphakala/releasewatch/internal/logger"
)

// Command creates the review command and its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "List, approve, edit or reject versions awaiting manual review",
	}

	cmd.AddCommand(
		listCommand(settings),
		approveCommand(settings),
		editCommand(settings),
		rejectCommand(settings),
	)
	return cmd
}

// withStore opens the configured database for the duration of fn.
func withStore(settings *conf.Settings, fn func(store *datastore.GormStore) error) error {
	store, err := app.OpenStore(settings, logger.Global().Module("review"))
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func listCommand(settings *conf.Settings) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records flagged for manual review, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(settings, func(store *datastore.GormStore) error {
				records, err := store.ListPendingReview(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to review")
					return nil
				}
				RenderRecords(cmd.OutOrStdout(), records)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", datastore.DefaultReviewPageSize, "Maximum number of records to list")
	return cmd
}

func approveCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Accept a record as extracted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(settings, func(store *datastore.GormStore) error {
				rec, err := store.ApproveVersionRecord(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Approved %s %s\n", rec.SoftwareID, rec.Version)
				return nil
			})
		},
	}
}

func editCommand(settings *conf.Settings) *cobra.Command {
	var (
		version    string
		confidence int
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Correct the version and confidence score, then approve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(settings, func(store *datastore.GormStore) error {
				rec, err := store.EditAndApproveVersionRecord(cmd.Context(), id, version, confidence)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Approved %s %s with confidence %d\n",
					rec.SoftwareID, rec.Version, rec.ConfidenceScore)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Corrected version string")
	cmd.Flags().IntVar(&confidence, "confidence", 100, "Confidence score 0..100")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

func rejectCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(settings, func(store *datastore.GormStore) error {
				if err := store.RejectVersionRecord(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rejected record %d\n", id)
				return nil
			})
		},
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid record id %q", raw)
	}
	return uint(id), nil
}

// RenderRecords prints the review queue as a table.
func RenderRecords(w io.Writer, records []datastore.VersionRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Software", "Version", "Type", "Released", "Score", "Found", "Notes"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "ID", Align: text.AlignRight},
		{Name: "Score", Align: text.AlignRight},
		{Name: "Notes", WidthMax: 50},
	})

	for _, rec := range records {
		name := rec.SoftwareID
		if rec.Software != nil && rec.Software.Name != "" {
			name = rec.Software.Name
		}
		released := "-"
		if rec.ReleaseDate != nil {
			released = rec.ReleaseDate.Format(time.DateOnly)
		}
		t.AppendRow(table.Row{
			rec.ID,
			name,
			rec.Version,
			rec.Type,
			released,
			rec.ConfidenceScore,
			rec.CreatedAt.Format(time.DateTime),
			strings.Join(rec.Notes, "; "),
		})
	}

	t.Render()
}
