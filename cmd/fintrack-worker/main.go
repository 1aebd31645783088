package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

const (
	mirrorTimeout   = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := cli.LoadConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker, nil)
	logger.Info("Starting fintrack-worker")

	if len(cfg.MirrorBackends) == 0 {
		logger.Error("No MIRROR_BACKENDS configured, nothing to do")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	factory := backend.NewFactory(cfg, logger)
	primary, err := factory.Primary(ctx)
	if err != nil {
		logger.Error("Failed to initialize primary backend", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer primary.Close()

	results, err := factory.Mirrors(ctx)
	if err != nil {
		logger.Error("Failed to initialize mirror backends", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer backend.CloseAll(results)

	mirrors := make([]worker.Mirror, len(results))
	for i, r := range results {
		mirrors[i] = worker.Mirror{Name: r.Kind, Gateway: r.Gateway}
	}
	mw := worker.NewMirrorWorker(primary.Gateway, mirrors, mirrorTimeout, logger)

	amqpClient, err := cli.OpenAMQP(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	if amqpClient == nil {
		logger.Error("AMQP_URL is required for the mirror worker")
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Catch up on events missed while the worker was down.
	logger.Info("Performing startup resync...")
	if _, err := mw.Resync(ctx); err != nil {
		logger.Error("Startup resync failed", log.FieldError, err.Error())
	}

	done := make(chan error, 1)
	go func() {
		done <- amqpClient.ConsumeSnapshotSaved(ctx, mw.HandleSnapshotSaved)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
		select {
		case <-done:
			logger.Info("Worker shutdown complete")
		case <-time.After(shutdownTimeout):
			logger.Warn("Shutdown timeout reached")
		}
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err.Error())
		}
	}
}
