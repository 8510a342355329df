package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/minerledger/internal/client/client"
	"github.com/dmitrijs2005/minerledger/internal/client/config"
	"github.com/dmitrijs2005/minerledger/internal/ledgerapi"
	"github.com/spf13/cobra"
)

// Ledger is the client surface the commands use.
type Ledger interface {
	Balance(ctx context.Context, uid string) (*ledgerapi.Record, error)
	IncreaseRate(ctx context.Context, uid string, amount *float64) (*ledgerapi.Record, error)
	Sync(ctx context.Context, uid string, balance, rate float64) (*ledgerapi.Record, error)
	TriggerReset(ctx context.Context) (*ledgerapi.SweepReport, error)
	Close() error
}

// dialLedger is a seam for tests.
var dialLedger = func(cfg *config.Config) (Ledger, error) {
	return client.NewGRPCClient(cfg.ServerEndpointAddr, cfg.SecretKey, cfg.TokenTTL, cfg.RequestTimeout)
}

// RootOptions holds global flags and the resolved configuration.
type RootOptions struct {
	ConfigPath string
	Addr       string
	Secret     string
	Format     string // "json" | "text"

	cfg *config.Config
}

var validFormats = []string{"text", "json"}

// NewRootCommand creates the root command of minerledger-cli.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "minerledger-cli",
		Short:         "Admin command line for the miner ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a JSON or YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Addr, "addr", "", "ledger gRPC address (host:port)")
	cmd.PersistentFlags().StringVar(&opts.Secret, "secret", "", "shared secret for privileged commands")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewBalanceCommand(opts))
	cmd.AddCommand(NewAddSpeedCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// load resolves configuration: file and environment first, then flags that
// were set explicitly.
func (o *RootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.ServerEndpointAddr = o.Addr
	}
	if flags.Changed("secret") {
		cfg.SecretKey = o.Secret
	}
	o.cfg = cfg
	return nil
}

// requireSecret prompts for the shared secret when none is configured.
func (o *RootOptions) requireSecret(cmd *cobra.Command) error {
	if o.cfg.SecretKey != "" {
		return nil
	}
	secret, err := GetSecret(cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("read secret: %w", err)
	}
	o.cfg.SecretKey = secret
	return nil
}

// withLedger dials the service, runs fn and closes the connection.
func (o *RootOptions) withLedger(fn func(Ledger) error) error {
	l, err := dialLedger(o.cfg)
	if err != nil {
		return fmt.Errorf("connect %s: %w", o.cfg.ServerEndpointAddr, err)
	}
	defer l.Close()
	return fn(l)
}
