package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/banksync"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/entry"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/workspace"
)

const (
	shutdownTimeout    = 30 * time.Second
	cacheSweepInterval = time.Minute
)

func newServeCommand() *cobra.Command {
	var linkedAccounts, maxTransactions int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), linkedAccounts, maxTransactions)
		},
	}

	cmd.Flags().IntVar(&linkedAccounts, "mock-bank-accounts", 2, "accounts returned by the mock bank connector")
	cmd.Flags().IntVar(&maxTransactions, "mock-bank-transactions", 5, "maximum transactions per mock bank account")

	return cmd
}

func runServe(ctx context.Context, linkedAccounts, maxTransactions int) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp, nil)
	calc, err := cli.Calculator(cfg)
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(ctx)
	defer stop()

	primary, err := backend.NewFactory(cfg, logger).Primary(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := primary.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err.Error())
		}
	}()

	wsCfg := workspace.Config{
		Calculator: calc,
		Debounce:   cfg.SyncDebounce,
		CacheSize:  cfg.CacheSize,
		CacheTTL:   cfg.CacheTTL,
	}
	publisher, err := cli.OpenAMQP(cfg, logger)
	if err != nil {
		return err
	}
	if publisher != nil {
		defer publisher.Close()
		wsCfg.Publisher = publisher
	}

	caches := cache.NewManager(logger)
	caches.Start(cacheSweepInterval)
	defer func() {
		caches.Stop()
		caches.Wait()
	}()
	wsCfg.Caches = caches

	registry := workspace.NewRegistry(primary.Gateway, wsCfg, logger)
	bank := banksync.NewImporter(
		banksync.NewMockConnector(uint64(time.Now().UnixNano()), linkedAccounts, maxTransactions),
		banksync.WithLogger(logger))

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	}, registry, entry.NewParser(), bank)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting fintrack server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			"amqp_enabled", publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("Server error", log.FieldError, serveErr.Error(), "port", cfg.Port)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err.Error())
	}
	if err := registry.Close(shutdownCtx); err != nil {
		logger.Error("Failed to flush workspaces", log.FieldError, err.Error())
		serveErr = errors.Join(serveErr, fmt.Errorf("flush workspaces: %w", err))
	}
	logger.Info("Server stopped gracefully")
	return serveErr
}
