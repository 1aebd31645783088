// Package persistence defines the snapshot gateway port and the debounced
// syncer that writes a ledger store through it.
package persistence

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/core"
)

// ErrNotFound is returned by LoadSnapshot when nothing was saved for the user.
var ErrNotFound = errors.New("snapshot not found")

// Ports for outbound adapters.
type (
	// Gateway stores one snapshot per user. Saves overwrite (last write wins).
	Gateway interface {
		LoadSnapshot(ctx context.Context, userID string) (core.Snapshot, error)
		SaveSnapshot(ctx context.Context, userID string, snap core.Snapshot) error
	}

	// UserLister is implemented by gateways that can enumerate stored users.
	UserLister interface {
		ListUsers(ctx context.Context) ([]string, error)
	}

	// Publisher announces saved snapshots to interested parties.
	Publisher interface {
		PublishSnapshotSaved(ctx context.Context, ev SnapshotSaved) error
	}
)

// SnapshotSaved describes a completed save.
type SnapshotSaved struct {
	UserID  string    `json:"user_id"`
	Version uint64    `json:"version"`
	Items   int       `json:"items"`
	SavedAt time.Time `json:"saved_at"`
}
