package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/j-veylop/codexhud/internal/automation"
	"github.com/j-veylop/codexhud/internal/services"
)

func (c *cli) newAutomationCmd() *cobra.Command {
	var dailyHello, forcedRefresh bool

	cmd := &cobra.Command{
		Use:   "automation",
		Short: "Run one automated action, for use from cron or launchd",
		Long: "Runs the daily hello or the forced refresh for the signed-in account.\n" +
			"The action is skipped when its policy blocks it; a failed attempt exits non-zero.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := services.NewManager(c.cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			defer mgr.Close()

			run := mgr.ForcedRefresh
			if dailyHello {
				run = mgr.DailyHello
			}
			res, err := runAutomation(cmd.Context(), run)
			fmt.Fprintln(cmd.OutOrStdout(), describeRun(res))
			return err
		},
	}

	cmd.Flags().BoolVar(&dailyHello, "daily-hello", false, "send the keep-alive prompt")
	cmd.Flags().BoolVar(&forcedRefresh, "forced-refresh", false, "start the weekly window of an idle account")
	cmd.MarkFlagsMutuallyExclusive("daily-hello", "forced-refresh")
	cmd.MarkFlagsOneRequired("daily-hello", "forced-refresh")
	return cmd
}

func runAutomation(ctx context.Context, run func(context.Context) (automation.Result, error)) (automation.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := run(ctx)
	if err != nil {
		return res, fmt.Errorf("%s failed: %w", kindOr(res.Kind), err)
	}
	return res, nil
}

func describeRun(res automation.Result) string {
	who := res.Email
	if who == "" {
		who = "no account"
	}
	switch {
	case res.Sent:
		return fmt.Sprintf("%s %s: sent", kindOr(res.Kind), who)
	case res.Reason != "":
		return fmt.Sprintf("%s %s: skipped (%s)", kindOr(res.Kind), who, res.Reason)
	default:
		return fmt.Sprintf("%s %s: not sent", kindOr(res.Kind), who)
	}
}

func kindOr(k automation.Kind) string {
	if k == "" {
		return "automation"
	}
	return string(k)
}
