package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/recommend"
	"github.com/j-veylop/codexhud/internal/services"
	"github.com/j-veylop/codexhud/internal/ui/components"
	"github.com/j-veylop/codexhud/internal/usage"
)

func (c *cli) newStatusCmd() *cobra.Command {
	var asJSON, scan bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Refresh once and print quota for every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := services.NewManager(c.cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			defer mgr.Close()
			mgr.FullScan = scan

			res, err := mgr.Refresh(cmd.Context())
			if err != nil {
				return err
			}

			report := newStatusReport(res, mgr.Engine())
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return writeStatus(cmd.OutOrStdout(), report, res.At)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")
	cmd.Flags().BoolVar(&scan, "scan", false, "scan the whole session log when no new event is found")
	return cmd
}

type windowReport struct {
	ResetsAt     time.Time `json:"resetsAt"`
	Remaining    float64   `json:"remaining"`
	AssumedReset bool      `json:"assumedReset,omitempty"`
}

type accountReport struct {
	FiveHour    *windowReport `json:"fiveHour,omitempty"`
	Weekly      *windowReport `json:"weekly,omitempty"`
	LastUpdated *time.Time    `json:"lastUpdated,omitempty"`
	Email       string        `json:"email"`
	Label       string        `json:"label"`
	Status      string        `json:"status"`
	Ordinal     int           `json:"codexNumber"`
	Active      bool          `json:"active"`
	Recommended bool          `json:"recommended"`
}

type recommendationReport struct {
	Email   string `json:"email,omitempty"`
	Reason  string `json:"reason"`
	Summary string `json:"summary"`
}

type statusReport struct {
	At             time.Time            `json:"at"`
	ActiveEmail    string               `json:"activeEmail,omitempty"`
	Recommendation recommendationReport `json:"recommendation"`
	Accounts       []accountReport      `json:"accounts"`
	Warnings       []string             `json:"warnings,omitempty"`
	SignedIn       bool                 `json:"signedIn"`
}

func newStatusReport(res services.Result, engine recommend.Engine) statusReport {
	rec := res.Recommendation
	report := statusReport{
		At:          res.At,
		ActiveEmail: res.ActiveEmail,
		SignedIn:    res.HasAuth,
		Recommendation: recommendationReport{
			Reason:  string(rec.Reason),
			Summary: rec.Summary(),
		},
		Accounts: []accountReport{},
		Warnings: lo.Map(res.Warnings, func(err error, _ int) string { return err.Error() }),
	}
	if rec.Recommended != nil {
		report.Recommendation.Email = rec.Recommended.Email
	}
	if res.State == nil {
		return report
	}

	for i := range res.State.Accounts {
		acc := &res.State.Accounts[i]
		report.Accounts = append(report.Accounts, accountReport{
			Email:       acc.Email,
			Label:       acc.Label(),
			Ordinal:     acc.Ordinal,
			Status:      engine.Thresholds.Evaluate(acc).Kind.String(),
			Active:      acc.Email == res.ActiveEmail,
			Recommended: acc.Email == report.Recommendation.Email,
			LastUpdated: acc.LastUpdated,
			Weekly:      window(acc, models.WindowWeekly),
			FiveHour:    window(acc, models.WindowFiveHour),
		})
	}
	return report
}

func window(acc *models.Account, kind models.WindowKind) *windowReport {
	remaining, ok := usage.Remaining(acc, kind)
	if !ok {
		return nil
	}
	w := acc.LastSnapshot.Window(kind)
	return &windowReport{Remaining: remaining.Value(), ResetsAt: w.ResetsAt, AssumedReset: w.AssumedReset}
}

func writeStatus(out io.Writer, report statusReport, now time.Time) error {
	if report.SignedIn && report.ActiveEmail != "" {
		fmt.Fprintf(out, "Signed in as %s\n", report.ActiveEmail)
	} else {
		fmt.Fprintln(out, "Not signed in")
	}
	fmt.Fprintf(out, "➜ %s\n", report.Recommendation.Summary)
	for _, w := range report.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	fmt.Fprintln(out)

	if len(report.Accounts) == 0 {
		fmt.Fprintln(out, "No accounts configured. Add some with: codexhud accounts import accounts.yaml")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tEMAIL\tWEEKLY\tRESETS\t5-HOUR\tRESETS\tSTATUS")
	for _, a := range report.Accounts {
		weekly, weeklyReset := windowCells(a.Weekly, now)
		five, fiveReset := windowCells(a.FiveHour, now)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.Label, a.Email, weekly, weeklyReset, five, fiveReset, statusCell(a))
	}
	return tw.Flush()
}

func windowCells(w *windowReport, now time.Time) (remaining, reset string) {
	if w == nil {
		return "--", "--"
	}
	remaining = fmt.Sprintf("%.0f%%", w.Remaining)
	if until := w.ResetsAt.Sub(now); until > 0 {
		reset = "in " + components.FormatUntil(until)
	} else {
		reset = "now"
	}
	if w.AssumedReset {
		reset += "*"
	}
	return remaining, reset
}

func statusCell(a accountReport) string {
	parts := []string{a.Status}
	if a.Active {
		parts = append(parts, "active")
	}
	if a.Recommended && !a.Active {
		parts = append(parts, "next")
	}
	return strings.Join(parts, ", ")
}
