// Package dashboard serves the aggregate views of a ledger store, memoized by
// store version so repeated reads between mutations cost nothing.
//
// Values returned by a Dashboard are shared between callers and must be
// treated as read-only.
package dashboard

import (
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/aggregate"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/recurrence"
)

const defaultCacheSize = 32

// Totals groups the four headline figures.
type Totals struct {
	Income    core.Money `json:"totalIncome"`
	Bills     core.Money `json:"totalBills"`
	Expenses  core.Money `json:"totalExpenses"`
	Remaining core.Money `json:"remainingBalance"`
}

// Dashboard computes views over a ledger.Store.
type Dashboard struct {
	store *ledger.Store
	calc  recurrence.Calculator
	now   func() time.Time
	views *cache.LRUCache[string, any]
	group singleflight.Group
}

// Option customises a Dashboard.
type Option func(*Dashboard)

// WithClock sets the source of "today" for date-relative views.
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

// WithCache uses c for memoized views, e.g. one registered with a cache.Manager.
func WithCache(c *cache.LRUCache[string, any]) Option {
	return func(d *Dashboard) { d.views = c }
}

// New returns a dashboard over store.
func New(store *ledger.Store, calc recurrence.Calculator, opts ...Option) *Dashboard {
	d := &Dashboard{store: store, calc: calc, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	if d.views == nil {
		d.views = cache.NewLRU[string, any](defaultCacheSize, 0)
	}
	return d
}

// memo returns the cached value of view for the current store version,
// computing it at most once per version even under concurrent callers.
// Date-relative views are additionally keyed by today's calendar date.
func memo[T any](d *Dashboard, view string, dated bool, compute func(core.Snapshot, time.Time) T) T {
	today := d.now()
	day := ""
	if dated {
		day = core.DateOf(today).String()
	}

	key := fmt.Sprintf("%s@%d/%s", view, d.store.Version(), day)
	if v, ok := d.views.Get(key); ok {
		return v.(T)
	}

	v, _, _ := d.group.Do(key, func() (any, error) {
		snap, version := d.store.SnapshotVersion()
		result := compute(snap, today)
		d.views.Set(fmt.Sprintf("%s@%d/%s", view, version, day), result)
		return result, nil
	})
	return v.(T)
}

// Totals returns income, bills, expenses and the remaining balance.
func (d *Dashboard) Totals() Totals {
	return memo(d, "totals", false, func(s core.Snapshot, _ time.Time) Totals {
		return Totals{
			Income:    aggregate.TotalIncome(s.Incomes),
			Bills:     aggregate.TotalBills(s.Bills),
			Expenses:  aggregate.TotalExpenses(s.Transactions),
			Remaining: aggregate.RemainingBalance(s.Incomes, s.Bills, s.Transactions),
		}
	})
}

// SpendingByCategory returns expense totals per category.
func (d *Dashboard) SpendingByCategory() []aggregate.Slice {
	return memo(d, "categories", false, func(s core.Snapshot, _ time.Time) []aggregate.Slice {
		return aggregate.SpendingByCategory(s.Transactions)
	})
}

// MonthlySpending returns expense totals per calendar month.
func (d *Dashboard) MonthlySpending() aggregate.Monthly {
	return memo(d, "monthly", false, func(s core.Snapshot, _ time.Time) aggregate.Monthly {
		return aggregate.MonthlySpending(s.Transactions)
	})
}

// IncomeVsBills returns one slice per bill plus the remaining income.
func (d *Dashboard) IncomeVsBills() []aggregate.Slice {
	return memo(d, "income-vs-bills", false, func(s core.Snapshot, _ time.Time) []aggregate.Slice {
		return aggregate.IncomeVsBills(aggregate.TotalIncome(s.Incomes), s.Bills)
	})
}

// UpcomingBills returns unpaid bills due within the next seven days.
func (d *Dashboard) UpcomingBills() []aggregate.Upcoming {
	return memo(d, "upcoming", true, func(s core.Snapshot, today time.Time) []aggregate.Upcoming {
		return aggregate.UpcomingBills(d.calc, s.Bills, today)
	})
}

// Summary returns every view in one value.
func (d *Dashboard) Summary() aggregate.Summary {
	return memo(d, "summary", true, func(s core.Snapshot, today time.Time) aggregate.Summary {
		return aggregate.Summarize(d.calc, s, today)
	})
}
