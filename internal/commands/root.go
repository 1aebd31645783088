// Package commands defines the fintrack command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/persistence"
	"fintrack/internal/recurrence"
)

// Version is set via ldflags during build.
var Version = "dev"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "fintrack",
		Short:   "Personal finance ledger and dashboard",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newSummaryCommand(),
		newExportCommand(),
		newResetCommand(),
	)

	return rootCmd
}

// env is what the one-shot commands need: config, logs on stderr and the
// primary gateway.
type env struct {
	cfg     *config.Config
	logger  *log.Logger
	calc    recurrence.Calculator
	primary *backend.Result
}

func openEnv(ctx context.Context, stderr io.Writer) (*env, error) {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp, stderr)
	calc, err := cli.Calculator(cfg)
	if err != nil {
		return nil, err
	}
	primary, err := backend.NewFactory(cfg, logger).Primary(ctx)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, calc: calc, primary: primary}, nil
}

func (e *env) Close() error {
	return e.primary.Close()
}

// load returns the user's stored snapshot, or the fresh-ledger state when
// nothing has been saved yet.
func (e *env) load(ctx context.Context, userID string) (core.Snapshot, error) {
	snap, err := e.primary.Gateway.LoadSnapshot(ctx, userID)
	if errors.Is(err, persistence.ErrNotFound) {
		return ledger.DefaultSnapshot(), nil
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load snapshot for %s: %w", userID, err)
	}
	return snap, nil
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("--user is required")
	}
	return nil
}
