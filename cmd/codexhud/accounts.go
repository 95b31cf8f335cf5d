package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/j-veylop/codexhud/internal/accounts"
	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/store"
)

func (c *cli) newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage the configured accounts",
	}
	cmd.AddCommand(
		c.newAccountsListCmd(),
		c.newAccountsImportCmd(),
		c.newAccountsExportCmd(),
		c.newAccountsAddCmd(),
		c.newAccountsRemoveCmd(),
	)
	return cmd
}

func (c *cli) openStore() (*store.Store, error) {
	return store.New(c.cfg.StatePath, store.DefaultOptions())
}

func (c *cli) loadState() (*models.AppState, error) {
	st, err := c.openStore()
	if err != nil {
		return nil, err
	}
	state, err := st.Load()
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = models.NewAppState()
	}
	return state, nil
}

// updateAccounts applies edit to the current account configs and stores the result.
func (c *cli) updateAccounts(edit func([]accounts.Config) ([]accounts.Config, error)) (*models.AppState, error) {
	st, err := c.openStore()
	if err != nil {
		return nil, err
	}
	return st.Update(func(state *models.AppState) error {
		next, err := edit(accounts.FromState(state))
		if err != nil {
			return err
		}
		return accounts.Apply(state, next)
	})
}

func (c *cli) newAccountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := c.loadState()
			if err != nil {
				return err
			}
			return writeAccounts(cmd.OutOrStdout(), state)
		},
	}
}

func writeAccounts(out io.Writer, state *models.AppState) error {
	if len(state.Accounts) == 0 {
		fmt.Fprintln(out, "No accounts configured")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tNAME\tEMAIL\tACTIVE")
	for i := range state.Accounts {
		acc := &state.Accounts[i]
		active := ""
		if acc.Email == state.Active() {
			active = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", acc.Ordinal, acc.Label(), acc.Email, active)
	}
	return tw.Flush()
}

func (c *cli) newAccountsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the account list with a YAML file",
		Long: "Replaces the configured accounts with the ones in the file. Accounts that keep\n" +
			"their email keep their last snapshot.\n\n" +
			"  accounts:\n    - email: me@example.com\n      codexNumber: 1\n      displayName: Work",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			configs, err := accounts.Decode(in)
			if err != nil {
				return err
			}
			state, err := c.updateAccounts(func([]accounts.Config) ([]accounts.Config, error) {
				return configs, nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts\n", len(state.Accounts))
			return nil
		},
	}
}

func (c *cli) newAccountsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the account list as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := c.loadState()
			if err != nil {
				return err
			}
			if len(args) == 0 || args[0] == "-" {
				return accounts.Encode(cmd.OutOrStdout(), accounts.FromState(state))
			}

			f, err := os.OpenFile(args[0], os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
			if err != nil {
				return err
			}
			if err := accounts.Encode(f, accounts.FromState(state)); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func (c *cli) newAccountsAddCmd() *cobra.Command {
	var entry accounts.Config

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update one account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry = accounts.Normalize([]accounts.Config{entry})[0]
			_, err := c.updateAccounts(func(current []accounts.Config) ([]accounts.Config, error) {
				rest := lo.Reject(current, func(cfg accounts.Config, _ int) bool { return cfg.Email == entry.Email })
				if entry.Ordinal == 0 {
					entry.Ordinal = lo.Max(lo.Map(rest, func(cfg accounts.Config, _ int) int { return cfg.Ordinal })) + 1
				}
				return append(rest, entry), nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s as number %d\n", entry.Email, entry.Ordinal)
			return nil
		},
	}

	cmd.Flags().StringVar(&entry.Email, "email", "", "account email")
	cmd.Flags().IntVar(&entry.Ordinal, "number", 0, "account number (default: next free)")
	cmd.Flags().StringVar(&entry.DisplayName, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) newAccountsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <email>",
		Short: "Remove one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := accounts.Normalize([]accounts.Config{{Email: args[0]}})[0].Email
			_, err := c.updateAccounts(func(current []accounts.Config) ([]accounts.Config, error) {
				rest := lo.Reject(current, func(cfg accounts.Config, _ int) bool { return cfg.Email == target })
				if len(rest) == len(current) {
					return nil, fmt.Errorf("%s is not configured", target)
				}
				return rest, nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", target)
			return nil
		},
	}
}
