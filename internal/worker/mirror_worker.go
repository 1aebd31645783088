// Package worker copies saved ledger snapshots from the primary gateway to
// mirror gateways.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/persistence"
)

// Mirror is a named secondary gateway.
type Mirror struct {
	Name    string
	Gateway persistence.Gateway
}

// MirrorWorker reacts to snapshot.saved events by re-reading the user's
// snapshot from the primary gateway and writing it to every mirror.
type MirrorWorker struct {
	primary persistence.Gateway
	mirrors []Mirror
	timeout time.Duration
	logger  *log.Logger
}

// NewMirrorWorker returns a worker. timeout bounds each mirror write; zero
// means no bound beyond the caller's context.
func NewMirrorWorker(primary persistence.Gateway, mirrors []Mirror, timeout time.Duration, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		primary: primary,
		mirrors: mirrors,
		timeout: timeout,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleSnapshotSaved processes a single snapshot event from AMQP. A user with
// no primary snapshot is skipped; a failed mirror write returns an error so
// the event is redelivered.
func (w *MirrorWorker) HandleSnapshotSaved(ctx context.Context, msg *amqp.SnapshotSavedMessage) error {
	w.logger.InfoContext(ctx, "Processing snapshot event",
		log.FieldUserID, msg.UserID,
		log.FieldVersion, msg.Version)
	return w.mirrorUser(ctx, msg.UserID)
}

func (w *MirrorWorker) mirrorUser(ctx context.Context, userID string) error {
	snap, err := w.primary.LoadSnapshot(ctx, userID)
	if errors.Is(err, persistence.ErrNotFound) {
		w.logger.WarnContext(ctx, "No primary snapshot, skipping", log.FieldUserID, userID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load primary snapshot: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, m := range w.mirrors {
		g.Go(func() error {
			mctx := gctx
			if w.timeout > 0 {
				var cancel context.CancelFunc
				mctx, cancel = context.WithTimeout(gctx, w.timeout)
				defer cancel()
			}
			start := time.Now()
			if err := m.Gateway.SaveSnapshot(mctx, userID, snap); err != nil {
				w.logger.ErrorContext(ctx, "Failed to mirror snapshot",
					log.FieldBackend, m.Name,
					log.FieldUserID, userID,
					log.FieldError, err.Error())
				return fmt.Errorf("mirror %s: %w", m.Name, err)
			}
			w.logger.InfoContext(ctx, "Mirrored snapshot",
				log.FieldBackend, m.Name,
				log.FieldUserID, userID,
				log.FieldItems, snap.Len(),
				log.FieldDuration, time.Since(start).Milliseconds())
			return nil
		})
	}
	return g.Wait()
}

// ResyncStats summarises a full resync.
type ResyncStats struct {
	Users  int
	Synced int
	Errors int
}

// Resync mirrors every user the primary gateway knows about. It is the
// startup check that recovers events missed while the worker was down.
// Primaries that cannot enumerate users are skipped.
func (w *MirrorWorker) Resync(ctx context.Context) (ResyncStats, error) {
	lister, ok := w.primary.(persistence.UserLister)
	if !ok {
		w.logger.InfoContext(ctx, "Primary gateway cannot list users, skipping resync")
		return ResyncStats{}, nil
	}
	users, err := lister.ListUsers(ctx)
	if err != nil {
		return ResyncStats{}, fmt.Errorf("list users for resync: %w", err)
	}

	stats := ResyncStats{Users: len(users)}
	for _, uid := range users {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := w.mirrorUser(ctx, uid); err != nil {
			stats.Errors++
			continue
		}
		stats.Synced++
	}

	w.logger.InfoContext(ctx, "Startup resync completed",
		"total", stats.Users,
		"synced", stats.Synced,
		"errors", stats.Errors)
	return stats, nil
}
