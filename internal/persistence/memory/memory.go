// Package memory is an in-process snapshot gateway, used for local runs and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/persistence"
)

type Store struct {
	mu        sync.Mutex
	snapshots map[string]core.Snapshot
}

var (
	_ persistence.Gateway    = (*Store)(nil)
	_ persistence.UserLister = (*Store)(nil)
)

func New() *Store {
	return &Store{snapshots: make(map[string]core.Snapshot)}
}

// NewFromFile seeds the store from a JSON object mapping user ids to snapshots.
// A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed map[string]core.Snapshot
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	for uid, snap := range seed {
		s.snapshots[uid] = snap.Clone()
	}
	return s, nil
}

// LoadSnapshot returns a copy of the user's snapshot.
func (s *Store) LoadSnapshot(_ context.Context, userID string) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[userID]
	if !ok {
		return core.Snapshot{}, persistence.ErrNotFound
	}
	return snap.Clone(), nil
}

// SaveSnapshot stores a copy of snap.
func (s *Store) SaveSnapshot(_ context.Context, userID string, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[userID] = snap.Clone()
	return nil
}

// ListUsers returns the ids with a stored snapshot, sorted.
func (s *Store) ListUsers(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]string, 0, len(s.snapshots))
	for uid := range s.snapshots {
		users = append(users, uid)
	}
	slices.Sort(users)
	return users, nil
}
