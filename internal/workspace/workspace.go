// Package workspace keeps one live ledger per user: the store, its
// dashboard and the syncer that persists it. A workspace is hydrated from
// the gateway the first time the user is seen.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/dashboard"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/persistence"
	"fintrack/internal/recurrence"
)

// Workspace is one user's live ledger.
type Workspace struct {
	UserID    string
	Store     *ledger.Store
	Dashboard *dashboard.Dashboard
	syncer    *persistence.Syncer
}

// Flush writes pending changes immediately.
func (w *Workspace) Flush(ctx context.Context) error {
	return w.syncer.Flush(ctx)
}

// Config tunes the workspaces a Registry creates.
type Config struct {
	Calculator recurrence.Calculator
	Debounce   time.Duration
	CacheSize  int
	CacheTTL   time.Duration
	Publisher  persistence.Publisher
	Caches     *cache.Manager
	Clock      func() time.Time
}

// Registry hands out workspaces by user id.
type Registry struct {
	gw     persistence.Gateway
	cfg    Config
	logger *log.Logger

	mu     sync.RWMutex
	spaces map[string]*Workspace
	closed bool
	group  singleflight.Group
}

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("workspace registry closed")

func NewRegistry(gw persistence.Gateway, cfg Config, logger *log.Logger) *Registry {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 64
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Registry{
		gw:     gw,
		cfg:    cfg,
		logger: logger.WithComponent(log.ComponentWorkspace),
		spaces: make(map[string]*Workspace),
	}
}

// Get returns the user's workspace, creating and hydrating it on first use.
// Concurrent first requests for the same user share one load.
func (r *Registry) Get(ctx context.Context, userID string) (*Workspace, error) {
	r.mu.RLock()
	ws, ok := r.spaces[userID]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if ok {
		return ws, nil
	}

	v, err, _ := r.group.Do(userID, func() (any, error) {
		r.mu.RLock()
		existing, ok := r.spaces[userID]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		ws, err := r.open(ctx, userID)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			return nil, ErrClosed
		}
		r.spaces[userID] = ws
		return ws, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Workspace), nil
}

func (r *Registry) open(ctx context.Context, userID string) (*Workspace, error) {
	store := ledger.New()

	opts := []persistence.SyncerOption{
		persistence.WithDebounce(r.cfg.Debounce),
		persistence.WithLogger(r.logger),
	}
	if r.cfg.Publisher != nil {
		opts = append(opts, persistence.WithPublisher(r.cfg.Publisher))
	}
	syncer := persistence.NewSyncer(userID, store, r.gw, opts...)

	found, err := syncer.Hydrate(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Workspace hydrate failed",
			log.NewFields().WithUser(userID).WithOperation(log.OpLoad).WithError(err).ToSlice()...)
		return nil, fmt.Errorf("open workspace: %w", err)
	}
	syncer.Start()

	views := cache.NewLRU[string, any](r.cfg.CacheSize, r.cfg.CacheTTL)
	if r.cfg.Caches != nil {
		r.cfg.Caches.Register(views)
	}
	dash := dashboard.New(store, r.cfg.Calculator,
		dashboard.WithCache(views),
		dashboard.WithClock(r.cfg.Clock))

	r.logger.InfoContext(ctx, "Workspace opened",
		log.FieldUserID, userID,
		"hydrated", found,
		log.FieldVersion, store.Version())

	return &Workspace{UserID: userID, Store: store, Dashboard: dash, syncer: syncer}, nil
}

// Users lists the user ids with an open workspace, sorted.
func (r *Registry) Users() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.spaces))
	for id := range r.spaces {
		users = append(users, id)
	}
	slices.Sort(users)
	return users
}

// Evict closes one user's workspace, flushing pending changes.
func (r *Registry) Evict(ctx context.Context, userID string) error {
	r.mu.Lock()
	ws, ok := r.spaces[userID]
	delete(r.spaces, userID)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return ws.syncer.Close(ctx)
}

// Close flushes and closes every workspace. Later calls to Get fail.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	spaces := r.spaces
	r.spaces = make(map[string]*Workspace)
	r.mu.Unlock()

	var errs []error
	for _, ws := range spaces {
		if err := ws.syncer.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		r.logger.ErrorContext(ctx, "Workspace flush on close failed",
			log.FieldOperation, log.OpShutdown, "failures", len(errs))
	}
	return errors.Join(errs...)
}
