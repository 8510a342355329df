package cli

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/minerledger/internal/server/auth"
	"github.com/spf13/cobra"
)

func NewBalanceCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <uid>",
		Short: "Show a user's balance and rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withLedger(func(l Ledger) error {
				rec, err := l.Balance(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printRecord(cmd, opts, rec)
			})
		},
	}
}

func NewAddSpeedCommand(opts *RootOptions) *cobra.Command {
	var amount float64

	cmd := &cobra.Command{
		Use:   "addspeed <uid>",
		Short: "Increase a user's accrual rate",
		Long: `Increase a user's accrual rate by --amount, or by the server's default
step when --amount is not given. Requires the shared secret.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireSecret(cmd); err != nil {
				return err
			}
			var amountPtr *float64
			if cmd.Flags().Changed("amount") {
				amountPtr = &amount
			}
			return opts.withLedger(func(l Ledger) error {
				rec, err := l.IncreaseRate(cmd.Context(), args[0], amountPtr)
				if err != nil {
					return err
				}
				return printRecord(cmd, opts, rec)
			})
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "rate increment (default: server step)")
	return cmd
}

func NewSyncCommand(opts *RootOptions) *cobra.Command {
	var balance, rate float64

	cmd := &cobra.Command{
		Use:   "sync <uid>",
		Short: "Apply a client-reported balance and rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withLedger(func(l Ledger) error {
				rec, err := l.Sync(cmd.Context(), args[0], balance, rate)
				if err != nil {
					return err
				}
				return printRecord(cmd, opts, rec)
			})
		},
	}

	cmd.Flags().Float64Var(&balance, "balance", 0, "client balance")
	cmd.Flags().Float64Var(&rate, "rate", 0, "client rate")
	_ = cmd.MarkFlagRequired("balance")
	_ = cmd.MarkFlagRequired("rate")
	return cmd
}

func NewResetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Run a reset sweep now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireSecret(cmd); err != nil {
				return err
			}
			return opts.withLedger(func(l Ledger) error {
				report, err := l.TriggerReset(cmd.Context())
				if err != nil {
					return err
				}
				return printReport(cmd, opts, report)
			})
		},
	}
}

func NewTokenCommand(opts *RootOptions) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a fresh admin token",
		Long: `Mint an admin token from the shared secret. The token goes in the
admin_token metadata of privileged gRPC calls.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireSecret(cmd); err != nil {
				return err
			}
			if !cmd.Flags().Changed("ttl") {
				ttl = opts.cfg.TokenTTL
			}
			token, err := auth.GenerateAdminToken([]byte(opts.cfg.SecretKey), ttl)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd, map[string]any{"token": token, "expires_in": ttl.String()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default from config)")
	return cmd
}
