package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// DefaultDebounce is the quiet period before a change is written.
const DefaultDebounce = time.Second

const saveTimeout = 30 * time.Second

// Syncer writes a store's snapshot through a Gateway after changes settle.
// Save failures are logged and never reach the code that mutated the store.
type Syncer struct {
	userID string
	store  *ledger.Store
	gw     Gateway
	pub    Publisher
	logger *log.Logger
	delay  time.Duration
	now    func() time.Time

	mu          sync.Mutex
	timer       *time.Timer
	unsubscribe func()
	closed      bool

	saveMu    sync.Mutex
	lastSaved uint64
}

// SyncerOption customises a Syncer.
type SyncerOption func(*Syncer)

// WithDebounce sets the quiet period; zero or negative keeps the default.
func WithDebounce(d time.Duration) SyncerOption {
	return func(s *Syncer) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithPublisher announces each successful save through p.
func WithPublisher(p Publisher) SyncerOption {
	return func(s *Syncer) { s.pub = p }
}

// WithLogger sets the logger used for save failures.
func WithLogger(l *log.Logger) SyncerOption {
	return func(s *Syncer) { s.logger = l }
}

// NewSyncer creates a syncer for one user's store. Call Start to begin
// listening for changes.
func NewSyncer(userID string, store *ledger.Store, gw Gateway, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		userID: userID,
		store:  store,
		gw:     gw,
		delay:  DefaultDebounce,
		now:    time.Now,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentSync).With(log.FieldUserID, userID)
	return s
}

// Hydrate replaces the store contents with the user's saved snapshot. It
// reports false when nothing was saved yet, leaving the store untouched.
// The loaded state counts as already saved.
func (s *Syncer) Hydrate(ctx context.Context) (bool, error) {
	snap, err := s.gw.LoadSnapshot(ctx, s.userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load snapshot for %s: %w", s.userID, err)
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.store.Restore(snap)
	s.lastSaved = s.store.Version()
	s.logger.InfoContext(ctx, "Ledger hydrated", log.NewFields().WithOperation(log.OpLoad).WithSnapshot(s.lastSaved, snap.Len()).ToSlice()...)
	return true, nil
}

// Start subscribes to store changes.
func (s *Syncer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil || s.closed {
		return
	}
	s.unsubscribe = s.store.Subscribe(func(uint64) { s.schedule() })
}

// schedule (re)arms the debounce timer.
func (s *Syncer) schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		_ = s.Flush(ctx)
	})
}

// Flush writes the current snapshot now if it changed since the last save.
// Errors are logged and also returned for callers that want them.
func (s *Syncer) Flush(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snap, version := s.store.SnapshotVersion()
	if version == s.lastSaved {
		return nil
	}

	fields := log.NewFields().WithOperation(log.OpSave).WithSnapshot(version, snap.Len())
	if err := s.gw.SaveSnapshot(ctx, s.userID, snap); err != nil {
		s.logger.ErrorContext(ctx, "Snapshot save failed", fields.WithError(err).ToSlice()...)
		return fmt.Errorf("save snapshot for %s: %w", s.userID, err)
	}
	s.lastSaved = version
	s.logger.DebugContext(ctx, "Snapshot saved", fields.ToSlice()...)

	if s.pub != nil {
		ev := SnapshotSaved{UserID: s.userID, Version: version, Items: snap.Len(), SavedAt: s.now().UTC()}
		if err := s.pub.PublishSnapshotSaved(ctx, ev); err != nil {
			s.logger.WarnContext(ctx, "Snapshot event publish failed", log.FieldError, err.Error())
		}
	}
	return nil
}

// Close stops listening, cancels any pending timer and writes outstanding changes.
func (s *Syncer) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	return s.Flush(ctx)
}
