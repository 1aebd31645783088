// Package ledger holds the in-memory ledger collections and their mutations.
//
// Every mutation runs under the store mutex, bumps the version counter when
// something changed and then notifies subscribers outside the lock. Callers
// always receive copies; the store never hands out its backing slices.
package ledger

import (
	"slices"
	"sync"

	"fintrack/internal/core"
)

// Listener is called after each mutation that changed the store.
type Listener func(version uint64)

type subscription struct {
	id int
	fn Listener
}

// Store is an observable container for the four ledger collections.
type Store struct {
	mu           sync.RWMutex
	incomes      []core.Income
	bills        []core.Bill
	transactions []core.Transaction
	accounts     []core.Account
	version      uint64

	subs   []subscription
	nextID int
}

// New returns a store holding the default seed state.
func New() *Store {
	return NewFromSnapshot(DefaultSnapshot())
}

// NewFromSnapshot returns a store holding a copy of snap.
func NewFromSnapshot(snap core.Snapshot) *Store {
	c := snap.Clone()
	return &Store{
		incomes:      c.Incomes,
		bills:        c.Bills,
		transactions: c.Transactions,
		accounts:     c.Accounts,
	}
}

// Version returns the mutation counter. It only moves forward.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe registers fn for change notifications and returns a function that
// removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscription) bool { return sub.id == id })
	}
}

// mutate applies fn under the write lock. When fn reports a change the version
// is bumped and subscribers are notified after the lock is released.
func (s *Store) mutate(fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	s.version++
	version := s.version
	listeners := make([]Listener, len(s.subs))
	for i, sub := range s.subs {
		listeners[i] = sub.fn
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(version)
	}
}

// Snapshot returns a consistent copy of all four collections.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// SnapshotVersion returns a snapshot together with the version it reflects.
func (s *Store) SnapshotVersion() (core.Snapshot, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), s.version
}

func (s *Store) snapshotLocked() core.Snapshot {
	return core.Snapshot{
		Incomes:      s.incomes,
		Bills:        s.bills,
		Transactions: s.transactions,
		Accounts:     s.accounts,
	}.Clone()
}

// Restore adopts snap wholesale, replacing every collection.
func (s *Store) Restore(snap core.Snapshot) {
	c := snap.Clone()
	s.mutate(func() bool {
		s.incomes, s.bills, s.transactions, s.accounts = c.Incomes, c.Bills, c.Transactions, c.Accounts
		return true
	})
}

// ResetAll restores the default seed state ("clear all data").
func (s *Store) ResetAll() {
	s.Restore(DefaultSnapshot())
}

// Incomes returns a copy of the income collection.
func (s *Store) Incomes() []core.Income {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.incomes)
}

// Bills returns a copy of the bill collection.
func (s *Store) Bills() []core.Bill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.bills)
}

// Transactions returns a copy of the transaction collection.
func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.transactions)
}

// Accounts returns a copy of the account collection.
func (s *Store) Accounts() []core.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.accounts)
}

// Account looks up an account by id.
func (s *Store) Account(id string) (core.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.accounts, func(a core.Account) bool { return a.ID == id })
	if i < 0 {
		return core.Account{}, false
	}
	return s.accounts[i], true
}

func replaceByID[T any](items []T, item T, id func(T) string) bool {
	i := slices.IndexFunc(items, func(x T) bool { return id(x) == id(item) })
	if i < 0 {
		return false
	}
	items[i] = item
	return true
}

func deleteByID[T any](items []T, target string, id func(T) string) ([]T, bool) {
	n := len(items)
	items = slices.DeleteFunc(items, func(x T) bool { return id(x) == target })
	return items, len(items) != n
}

func incomeID(i core.Income) string           { return i.ID }
func billID(b core.Bill) string               { return b.ID }
func transactionID(t core.Transaction) string { return t.ID }
func accountID(a core.Account) string         { return a.ID }
