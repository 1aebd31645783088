package ledger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func testBill(id string, day int) core.Bill {
	return core.Bill{
		ID:       id,
		Title:    "Bill " + id,
		Amount:   core.NewMoney(10, 0),
		DueDate:  core.DayOfMonth(day),
		Category: "General",
		Type:     core.BillMonthly,
	}
}

func TestNewStoreSeedState(t *testing.T) {
	s := New()
	snap := s.Snapshot()

	assert.Empty(t, snap.Incomes)
	assert.Empty(t, snap.Bills)
	assert.Empty(t, snap.Transactions)
	require.Len(t, snap.Accounts, 3)
	assert.Equal(t, "Main Checking", snap.Accounts[0].Name)
	assert.Equal(t, core.NewMoney(-450, 0), snap.Accounts[2].Balance)
	assert.Equal(t, uint64(0), s.Version())
}

func TestResetAccountsRestoresSeed(t *testing.T) {
	s := New()
	s.AddAccount(core.Account{ID: "x", Name: "Extra", Type: core.AccountSavings, Currency: "USD", Source: core.SourceManual})
	s.DeleteAccount("1")
	s.DeleteAccount("2")

	got := s.ResetAccounts()

	require.Len(t, got, 3)
	assert.Equal(t, DefaultAccounts(), got)
	assert.Equal(t, []string{"1", "2", "3"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestIncomeLifecycle(t *testing.T) {
	s := New()
	a := core.Income{ID: "a", Title: "Salary", Amount: core.NewMoney(3000, 0), Frequency: core.FrequencyMonthly}
	b := core.Income{ID: "b", Title: "Gift", Amount: core.NewMoney(100, 0), Frequency: core.FrequencyOneTime}

	s.AddIncome(a)
	got := s.AddIncome(b)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].ID, "add appends at the end")

	a.Amount = core.NewMoney(3200, 0)
	got = s.UpdateIncome(a)
	assert.Equal(t, core.NewMoney(3200, 0), got[0].Amount)

	got, removed := s.DeleteIncome("a")
	assert.True(t, removed)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	got, removed = s.DeleteIncome("a")
	assert.False(t, removed, "second delete finds nothing")
	assert.Len(t, got, 1)

	assert.Empty(t, s.ResetIncomes())
}

func TestMissingIDIsNoOp(t *testing.T) {
	s := New()
	s.AddBill(testBill("1", 5))
	before := s.Version()

	tests := []struct {
		name string
		op   func()
	}{
		{"update bill", func() { s.UpdateBill(testBill("missing", 9)) }},
		{"delete bill", func() { s.DeleteBill("missing") }},
		{"edit bill", func() { s.EditBill(testBill("missing", 9)) }},
		{"toggle bill", func() { s.ToggleBillPaid("missing") }},
		{"set paid", func() { s.SetBillsPaid([]string{"missing"}, true) }},
		{"update income", func() { s.UpdateIncome(core.Income{ID: "missing"}) }},
		{"delete transaction", func() { s.DeleteTransaction("missing") }},
		{"update account", func() { s.UpdateAccount(core.Account{ID: "missing"}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.op()
			assert.Equal(t, before, s.Version())
			assert.Equal(t, []core.Bill{testBill("1", 5)}, s.Bills())
		})
	}
}

func TestBillPaidStatus(t *testing.T) {
	s := New()
	s.SetBills([]core.Bill{testBill("1", 5), testBill("2", 10), testBill("3", 15)})

	got := s.SetBillsPaid([]string{"1", "3", "nope"}, true)
	assert.True(t, got[0].IsPaid)
	assert.False(t, got[1].IsPaid)
	assert.True(t, got[2].IsPaid)

	got = s.ToggleBillPaid("1")
	assert.False(t, got[0].IsPaid)
	got = s.ToggleBillPaid("2")
	assert.True(t, got[1].IsPaid)
}

func TestEditBillKeepsPaidStatus(t *testing.T) {
	s := New()
	s.AddBill(testBill("1", 5))
	s.ToggleBillPaid("1")

	edited := testBill("1", 20)
	edited.Title = "Rent v2"
	got, found := s.EditBill(edited)
	require.True(t, found)
	assert.True(t, got.IsPaid)
	assert.Equal(t, "Rent v2", s.Bills()[0].Title)
	assert.True(t, s.Bills()[0].IsPaid)

	before := s.Version()
	_, found = s.EditBill(testBill("missing", 1))
	assert.False(t, found)
	assert.Equal(t, before, s.Version())
}

func TestReturnedCollectionsAreCopies(t *testing.T) {
	s := New()
	got := s.AddBill(testBill("1", 5))
	got[0].Title = "mutated"

	assert.Equal(t, "Bill 1", s.Bills()[0].Title)

	snap := s.Snapshot()
	snap.Accounts[0].Name = "mutated"
	assert.Equal(t, "Main Checking", s.Accounts()[0].Name)
}

func TestSubscribeNotifiesOnChange(t *testing.T) {
	s := New()
	var seen []uint64
	unsubscribe := s.Subscribe(func(v uint64) { seen = append(seen, v) })

	s.AddTransaction(core.Transaction{ID: "t1", Title: "Coffee", Amount: core.NewMoney(3, 50), Date: "2024-03-01", Category: "Food", Type: core.TransactionExpense})
	s.DeleteTransaction("missing")
	s.ResetAll()

	assert.Equal(t, []uint64{1, 2}, seen)

	unsubscribe()
	s.ResetAll()
	assert.Len(t, seen, 2)
	assert.Equal(t, uint64(3), s.Version())
}

func TestRestoreAndResetAll(t *testing.T) {
	s := New()
	snap := core.Snapshot{
		Incomes:  []core.Income{{ID: "i", Title: "Salary", Amount: core.NewMoney(1, 0), Frequency: core.FrequencyMonthly}},
		Accounts: []core.Account{},
	}

	s.Restore(snap)
	got := s.Snapshot()
	assert.Len(t, got.Incomes, 1)
	assert.NotNil(t, got.Bills)
	assert.Empty(t, got.Accounts)

	s.ResetAll()
	assert.Equal(t, DefaultSnapshot(), s.Snapshot())
}

func TestApplyBatch(t *testing.T) {
	s := New()
	s.ApplyBatch(
		[]core.Account{{ID: "bank", Name: "Bank", Type: core.AccountChecking, Currency: "USD", Source: core.SourceStripe}},
		[]core.Transaction{{ID: "t", AccountID: "bank"}},
	)
	assert.Len(t, s.Accounts(), 4)
	assert.Len(t, s.Transactions(), 1)
	assert.Equal(t, uint64(1), s.Version())

	s.ApplyBatch(nil, nil)
	assert.Equal(t, uint64(1), s.Version())
}

func TestConcurrentMutations(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddBill(testBill(string(rune('a'+i%26)), i%28+1))
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	assert.Len(t, s.Bills(), 50)
	assert.Equal(t, uint64(50), s.Version())
}
