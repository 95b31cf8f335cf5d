// Package main is the entry point for codexhud. Without a subcommand it runs
// the terminal dashboard; the subcommands expose the same core to scripts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/codexhud/internal/app"
	"github.com/j-veylop/codexhud/internal/config"
	"github.com/j-veylop/codexhud/internal/logger"
	"github.com/j-veylop/codexhud/internal/services"
	"github.com/j-veylop/codexhud/internal/ui/tabs/dashboard"
	"github.com/j-veylop/codexhud/internal/ui/tabs/history"
	"github.com/j-veylop/codexhud/internal/ui/tabs/info"
	"github.com/j-veylop/codexhud/internal/version"
)

const logFileName = "codexhud.log"

func main() {
	if err := newRootCmd(config.Load).Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries the configuration shared by all subcommands.
type cli struct {
	load func() (*config.Config, error)
	cfg  *config.Config
}

func newRootCmd(load func() (*config.Config, error)) *cobra.Command {
	c := &cli{load: load}

	root := &cobra.Command{
		Use:          "codexhud",
		Short:        "Quota HUD for multiple Codex accounts",
		Long:         "codexhud tracks the 5-hour and weekly quota of every configured Codex account\nand recommends which one to use next.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runTUI(cmd.Context())
		},
	}

	root.AddCommand(
		c.newWatchCmd(),
		c.newStatusCmd(),
		c.newAutomationCmd(),
		c.newAccountsCmd(),
		c.newHistoryCmd(),
		newVersionCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := c.load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	c.cfg = cfg
	logger.Configure(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	return nil
}

func (c *cli) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the terminal dashboard (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runTUI(cmd.Context())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Printing the version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}

// runTUI starts the background refresh loop and the Bubble Tea program.
func (c *cli) runTUI(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// The alternate screen owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(filepath.Join(filepath.Dir(c.cfg.StatePath), logFileName),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger.Configure(c.cfg.LogLevel, c.cfg.LogFormat, logFile)

	mgr, err := services.NewManager(c.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := mgr.Close(); closeErr != nil {
			logger.Warn("error closing services", "error", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	model := app.NewModel(mgr)
	state := model.GetState()
	model.SetTabs([]app.Tab{
		dashboard.New(state, mgr.Engine()),
		history.New(state, mgr),
		info.New(state, c.cfg),
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		if err := mgr.Run(ctx); err != nil {
			logger.Error("refresh loop stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
