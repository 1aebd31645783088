package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/persistence"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "fintrack.db")
	repo, err := NewSQLiteRepository(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func sampleSnapshot() core.Snapshot {
	synced := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return core.Snapshot{
		Incomes: []core.Income{
			{ID: "i1", Title: "Salary", Amount: core.NewMoney(3000, 0), Frequency: core.FrequencyMonthly},
			{ID: "i2", Title: "Bonus", Amount: core.NewMoney(250, 50), Frequency: core.FrequencyOneTime},
		},
		Bills: []core.Bill{
			{ID: "b1", Title: "Rent", Amount: core.NewMoney(1200, 0), DueDate: core.DayOfMonth(1), Category: "Housing", Type: core.BillMonthly},
			{ID: "b2", Title: "Tax", Amount: core.NewMoney(99, 0), DueDate: core.CalendarDate(core.NewDate(2024, 4, 15)), Category: "General", IsPaid: true, Type: core.BillOneTime},
		},
		Transactions: []core.Transaction{
			{ID: "t1", Title: "Coffee", Amount: core.NewMoney(3, 50), Date: "2024-03-02", Category: "Food", Type: core.TransactionExpense, AccountID: "1"},
			{ID: "t2", Title: "Refund", Amount: core.NewMoney(20, 0), Date: "2024-03-03T10:00:00Z", Category: "Other", Type: core.TransactionIncome},
		},
		Accounts: []core.Account{
			{ID: "1", Name: "Main Checking", Type: core.AccountChecking, Balance: core.NewMoney(2450, 0), Currency: "USD", Source: core.SourceManual},
			{ID: "9", Name: "Bank", Type: core.AccountCredit, Balance: core.NewMoney(-450, 0), Currency: "USD", Source: core.SourceStripe, StripeAccountID: "acct_1", LastSynced: synced},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	want := sampleSnapshot()

	require.NoError(t, repo.SaveSnapshot(ctx, "alice", want))
	got, err := repo.LoadSnapshot(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestLoadMissingUser(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.LoadSnapshot(context.Background(), "nobody")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestLedgerVersionCountsSaves(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.LedgerVersion(ctx, "alice")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	require.NoError(t, repo.SaveSnapshot(ctx, "alice", sampleSnapshot()))
	require.NoError(t, repo.SaveSnapshot(ctx, "alice", sampleSnapshot()))
	require.NoError(t, repo.SaveSnapshot(ctx, "bob", sampleSnapshot()))

	v, err := repo.LedgerVersion(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	v, err = repo.LedgerVersion(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.SaveSnapshot(ctx, "alice", sampleSnapshot()))
	require.NoError(t, repo.SaveSnapshot(ctx, "bob", sampleSnapshot()))

	empty := core.Snapshot{Incomes: []core.Income{}, Bills: []core.Bill{}, Transactions: []core.Transaction{}, Accounts: []core.Account{}}
	require.NoError(t, repo.SaveSnapshot(ctx, "alice", empty))

	got, err := repo.LoadSnapshot(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, empty, got, "empty snapshot is still found")

	bob, err := repo.LoadSnapshot(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bob.Bills, 2, "other users are untouched")

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, users)
}

func TestInvalidDueDateSurvivesStorage(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	snap := core.Snapshot{Bills: []core.Bill{{ID: "b", Title: "Odd", Amount: core.NewMoney(1, 0), DueDate: core.ParseDueDate(core.BillMonthly, "someday"), Type: core.BillMonthly}}}

	require.NoError(t, repo.SaveSnapshot(ctx, "u", snap))
	got, err := repo.LoadSnapshot(ctx, "u")
	require.NoError(t, err)
	assert.False(t, got.Bills[0].DueDate.Valid())
	assert.Equal(t, "someday", got.Bills[0].DueDate.String())
}

func TestMigrationsAreIdempotent(t *testing.T) {
	_, path := newTestRepo(t)

	require.NoError(t, RunMigrations(path))
	v, dirty, err := SchemaVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)
}
