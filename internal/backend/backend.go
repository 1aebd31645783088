// Package backend builds snapshot gateways from application configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/objectstore"
	"fintrack/internal/persistence"
	"fintrack/internal/persistence/memory"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/storage"
)

// CleanupFunc releases resources held by a gateway.
type CleanupFunc func() error

// Result is a gateway together with its optional cleanup function.
type Result struct {
	Kind    string
	Gateway persistence.Gateway
	Cleanup CleanupFunc
}

// Close runs the cleanup function if there is one.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates gateways by backend name.
type Factory struct {
	cfg    *config.Config
	logger *log.Logger
}

// NewFactory returns a factory reading connection settings from cfg.
func NewFactory(cfg *config.Config, logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &Factory{cfg: cfg, logger: logger.WithComponent(log.ComponentBackend)}
}

// Primary builds the gateway named by DATA_BACKEND.
func (f *Factory) Primary(ctx context.Context) (*Result, error) {
	return f.Create(ctx, f.cfg.DataBackend)
}

// Mirrors builds every gateway named by MIRROR_BACKENDS. On failure the
// gateways built so far are closed.
func (f *Factory) Mirrors(ctx context.Context) ([]*Result, error) {
	out := make([]*Result, 0, len(f.cfg.MirrorBackends))
	for _, kind := range f.cfg.MirrorBackends {
		r, err := f.Create(ctx, kind)
		if err != nil {
			_ = CloseAll(out)
			return nil, fmt.Errorf("mirror %s: %w", kind, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Create builds the gateway for one backend kind.
func (f *Factory) Create(ctx context.Context, kind string) (*Result, error) {
	switch kind {
	case config.BackendMemory:
		return f.createMemory()
	case config.BackendSQLite:
		return f.createSQLite()
	case config.BackendSheets:
		return f.createSheets(ctx)
	case config.BackendS3:
		return f.createS3(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %q", kind)
	}
}

func (f *Factory) createMemory() (*Result, error) {
	if f.cfg.MemorySeedFile == "" {
		f.logger.Info("Initialized memory backend")
		return &Result{Kind: config.BackendMemory, Gateway: memory.New()}, nil
	}
	store, err := memory.NewFromFile(f.cfg.MemorySeedFile)
	if err != nil {
		return nil, fmt.Errorf("load memory seed file: %w", err)
	}
	f.logger.Info("Initialized memory backend", "seed_file", f.cfg.MemorySeedFile)
	return &Result{Kind: config.BackendMemory, Gateway: store}, nil
}

func (f *Factory) createSQLite() (*Result, error) {
	repo, err := storage.NewSQLiteRepository(f.cfg.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", f.cfg.SQLiteDBPath)
	return &Result{Kind: config.BackendSQLite, Gateway: repo, Cleanup: repo.Close}, nil
}

func (f *Factory) createSheets(ctx context.Context) (*Result, error) {
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      f.cfg.GoogleSpreadsheetID,
		ServiceAccountJSON: f.cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: f.cfg.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", f.cfg.GoogleSpreadsheetID)
	return &Result{Kind: config.BackendSheets, Gateway: cli}, nil
}

func (f *Factory) createS3(ctx context.Context) (*Result, error) {
	store, err := objectstore.New(ctx, objectstore.Config{
		Bucket:   f.cfg.S3Bucket,
		Region:   f.cfg.S3Region,
		Endpoint: f.cfg.S3Endpoint,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	f.logger.Info("Initialized S3 backend", "bucket", f.cfg.S3Bucket, "region", f.cfg.S3Region)
	return &Result{Kind: config.BackendS3, Gateway: store}, nil
}

// CloseAll closes every result and joins the errors.
func CloseAll(results []*Result) error {
	var errs []error
	for _, r := range results {
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", r.Kind, err))
		}
	}
	return errors.Join(errs...)
}
