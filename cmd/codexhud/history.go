package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/j-veylop/codexhud/internal/db"
	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/ui/components"
)

const (
	historyChartWidth  = 60
	historyChartHeight = 10
)

func (c *cli) newHistoryCmd() *cobra.Command {
	var (
		email string
		limit int
		runs  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded snapshots or automation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := db.New(c.cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			out := cmd.OutOrStdout()
			if runs {
				records, err := database.RecentAutomationRuns(limit)
				if err != nil {
					return err
				}
				return writeRuns(out, records)
			}

			if email == "" {
				state, err := c.loadState()
				if err != nil {
					return err
				}
				email = state.Active()
			}
			if email == "" {
				return fmt.Errorf("no active account, pass --email")
			}

			records, err := database.RecentSnapshots(email, limit)
			if err != nil {
				return err
			}
			return writeSnapshots(out, email, records)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account to show (default: the active account)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of rows")
	cmd.Flags().BoolVar(&runs, "runs", false, "show automation runs instead of snapshots")
	return cmd
}

func writeSnapshots(out io.Writer, email string, records []models.SnapshotRecord) error {
	if len(records) == 0 {
		fmt.Fprintf(out, "No snapshots recorded for %s\n", email)
		return nil
	}

	fiveHour, weekly := components.RemainingSeries(records)
	caption := fmt.Sprintf("remaining %% of %s, oldest to newest", email)
	fmt.Fprintln(out, components.RenderWindowChart(fiveHour, weekly, historyChartWidth, historyChartHeight, caption))
	fmt.Fprintln(out, components.RenderLegend(components.WindowLegend()))
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CAPTURED\tSOURCE\t5-HOUR USED\tWEEKLY USED\tNOTE")
	for _, rec := range records {
		note := ""
		if rec.AssumedReset {
			note = "assumed reset"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.0f%%\t%.0f%%\t%s\n",
			rec.CapturedAt.Local().Format(time.DateTime), rec.Source, rec.FiveHourUsed, rec.WeeklyUsed, note)
	}
	return tw.Flush()
}

func writeRuns(out io.Writer, runs []models.AutomationRun) error {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No automation runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tKIND\tEMAIL\tOUTCOME\tDETAIL")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			run.Timestamp.Local().Format(time.DateTime), run.Kind, run.Email, run.Outcome, run.Detail)
	}
	return tw.Flush()
}
