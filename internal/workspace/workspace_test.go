package workspace

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/persistence"
	"fintrack/internal/persistence/memory"
	"fintrack/internal/recurrence"
)

type countingGateway struct {
	*memory.Store
	loads   atomic.Int32
	loadErr error
}

func (g *countingGateway) LoadSnapshot(ctx context.Context, uid string) (core.Snapshot, error) {
	g.loads.Add(1)
	if g.loadErr != nil {
		return core.Snapshot{}, g.loadErr
	}
	return g.Store.LoadSnapshot(ctx, uid)
}

func newRegistry(gw persistence.Gateway) *Registry {
	return NewRegistry(gw, Config{
		Calculator: recurrence.NewCalculator(recurrence.OverflowRoll),
		Debounce:   time.Hour,
		Clock:      func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) },
	}, nil)
}

func TestGetSeedsNewUser(t *testing.T) {
	gw := &countingGateway{Store: memory.New()}
	reg := newRegistry(gw)

	ws, err := reg.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", ws.UserID)
	assert.Equal(t, ledger.DefaultAccounts(), ws.Store.Accounts())

	again, err := reg.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Same(t, ws, again)
	assert.Equal(t, int32(1), gw.loads.Load())
}

func TestGetHydratesSavedSnapshot(t *testing.T) {
	gw := &countingGateway{Store: memory.New()}
	saved := ledger.DefaultSnapshot()
	saved.Incomes = []core.Income{{ID: "i1", Title: "Salary", Amount: core.Money{Cents: 500000}, Frequency: core.FrequencyMonthly}}
	require.NoError(t, gw.Store.SaveSnapshot(context.Background(), "bob", saved))

	ws, err := newRegistry(gw).Get(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, saved.Incomes, ws.Store.Incomes())
	assert.Equal(t, core.Money{Cents: 500000}, ws.Dashboard.Totals().Income)
}

func TestGetSharesConcurrentLoads(t *testing.T) {
	gw := &countingGateway{Store: memory.New()}
	reg := newRegistry(gw)

	var wg sync.WaitGroup
	got := make([]*Workspace, 16)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ws, err := reg.Get(context.Background(), "carol")
			assert.NoError(t, err)
			got[i] = ws
		}()
	}
	wg.Wait()

	for _, ws := range got {
		assert.Same(t, got[0], ws)
	}
	assert.Equal(t, []string{"carol"}, reg.Users())
}

func TestGetLoadError(t *testing.T) {
	gw := &countingGateway{Store: memory.New(), loadErr: errors.New("backend down")}
	reg := newRegistry(gw)

	_, err := reg.Get(context.Background(), "dave")
	require.Error(t, err)
	assert.Empty(t, reg.Users())
}

func TestCloseFlushesPendingChanges(t *testing.T) {
	gw := &countingGateway{Store: memory.New()}
	reg := newRegistry(gw)

	ws, err := reg.Get(context.Background(), "erin")
	require.NoError(t, err)
	ws.Store.AddIncome(core.Income{ID: "i1", Title: "Salary", Amount: core.Money{Cents: 100}, Frequency: core.FrequencyMonthly})

	_, err = gw.Store.LoadSnapshot(context.Background(), "erin")
	require.ErrorIs(t, err, persistence.ErrNotFound, "debounce has not fired yet")

	require.NoError(t, reg.Close(context.Background()))

	snap, err := gw.Store.LoadSnapshot(context.Background(), "erin")
	require.NoError(t, err)
	assert.Len(t, snap.Incomes, 1)

	_, err = reg.Get(context.Background(), "erin")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEvict(t *testing.T) {
	gw := &countingGateway{Store: memory.New()}
	reg := newRegistry(gw)

	ws, err := reg.Get(context.Background(), "frank")
	require.NoError(t, err)
	ws.Store.ToggleBillPaid("missing")
	ws.Store.ResetAccounts()

	require.NoError(t, reg.Evict(context.Background(), "frank"))
	assert.Empty(t, reg.Users())
	require.NoError(t, reg.Evict(context.Background(), "nobody"))

	_, err = gw.Store.LoadSnapshot(context.Background(), "frank")
	require.NoError(t, err)

	_, err = reg.Get(context.Background(), "frank")
	require.NoError(t, err)
	assert.Equal(t, int32(2), gw.loads.Load())
}
