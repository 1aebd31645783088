package entry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func newTestParser() *Parser {
	fixed := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)
	return NewParser(
		WithClock(func() time.Time { return fixed }),
		WithIDs(func() string { return "generated" }),
	)
}

func TestIncome(t *testing.T) {
	p := newTestParser()

	inc, err := p.Income(IncomeForm{Title: " Salary ", Amount: "3500,50"}, "")
	require.NoError(t, err)
	assert.Equal(t, core.Income{
		ID:        "generated",
		Title:     "Salary",
		Amount:    core.Money{Cents: 350050},
		Frequency: core.FrequencyMonthly,
	}, inc)

	inc, err = p.Income(IncomeForm{Title: "Bonus", Amount: "200", Frequency: "one-time"}, "keep")
	require.NoError(t, err)
	assert.Equal(t, "keep", inc.ID)
	assert.Equal(t, core.FrequencyOneTime, inc.Frequency)
}

func TestIncomeRejectsBadInput(t *testing.T) {
	p := newTestParser()
	tests := []struct {
		name string
		form IncomeForm
		want error
	}{
		{"blank title", IncomeForm{Title: "   ", Amount: "10"}, core.ErrEmptyTitle},
		{"text amount", IncomeForm{Title: "x", Amount: "ten"}, core.ErrInvalidAmount},
		{"zero amount", IncomeForm{Title: "x", Amount: "0"}, core.ErrInvalidAmount},
		{"negative amount", IncomeForm{Title: "x", Amount: "-5"}, core.ErrInvalidAmount},
		{"bad frequency", IncomeForm{Title: "x", Amount: "5", Frequency: "weekly"}, core.ErrInvalidFrequency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Income(tt.form, "")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBillDueDateFromPickedDate(t *testing.T) {
	p := newTestParser()

	monthly, err := p.Bill(BillForm{Title: "Rent", Amount: "1200", DueDate: "2024-03-05", Type: "monthly"}, "")
	require.NoError(t, err)
	assert.Equal(t, core.DayOfMonth(5), monthly.DueDate)
	assert.Equal(t, "5", monthly.DueDate.String())
	assert.Equal(t, DefaultBillCategory, monthly.Category)
	assert.False(t, monthly.IsPaid)

	oneTime, err := p.Bill(BillForm{Title: "Car repair", Amount: "340.10", DueDate: "2024-04-18", Type: "one-time", Category: "Auto"}, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-18", oneTime.DueDate.String())
	assert.Equal(t, "Auto", oneTime.Category)

	day, err := p.Bill(BillForm{Title: "Gym", Amount: "30", DueDate: "31"}, "")
	require.NoError(t, err)
	assert.Equal(t, core.BillMonthly, day.Type)
	assert.Equal(t, core.DayOfMonth(31), day.DueDate)
}

func TestBillRejectsBadDueDate(t *testing.T) {
	p := newTestParser()

	_, err := p.Bill(BillForm{Title: "Gym", Amount: "30", DueDate: "32"}, "")
	assert.ErrorIs(t, err, core.ErrInvalidDueDate)

	_, err = p.Bill(BillForm{Title: "Fee", Amount: "30", DueDate: "5", Type: "one-time"}, "")
	assert.ErrorIs(t, err, core.ErrInvalidDueDate)

	_, err = p.Bill(BillForm{Title: "Fee", Amount: "30", DueDate: ""}, "")
	assert.ErrorIs(t, err, core.ErrInvalidDueDate)

	_, err = p.Bill(BillForm{Title: "Fee", Amount: "30", DueDate: "2024-01-01", Type: "weekly"}, "")
	assert.ErrorIs(t, err, core.ErrInvalidBillType)
}

func TestTransactionDefaults(t *testing.T) {
	p := newTestParser()

	tx, err := p.Transaction(TransactionForm{Title: "Coffee", Amount: "3.5"}, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10T14:30:00Z", tx.Date)
	assert.Equal(t, core.TransactionExpense, tx.Type)
	assert.Equal(t, DefaultTransactionCategory, tx.Category)
	assert.Equal(t, int64(350), tx.Amount.Cents)

	tx, err = p.Transaction(TransactionForm{
		Title: "Refund", Amount: "12", Date: "2024-02-01", Type: "income", Category: "Shopping", AccountID: "1",
	}, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", tx.ID)
	assert.Equal(t, "2024-02-01", tx.Date)
	assert.Equal(t, "1", tx.AccountID)

	_, err = p.Transaction(TransactionForm{Title: "x", Amount: "1", Date: "yesterday"}, "")
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	_, err = p.Transaction(TransactionForm{Title: "x", Amount: "1", Type: "transfer"}, "")
	assert.ErrorIs(t, err, core.ErrInvalidTxType)
}

func TestAccount(t *testing.T) {
	p := newTestParser()

	acc, err := p.Account(AccountForm{Name: "Visa", Balance: "-450.00", Type: "credit", Currency: "eur"}, "")
	require.NoError(t, err)
	assert.Equal(t, core.Account{
		ID:       "generated",
		Name:     "Visa",
		Type:     core.AccountCredit,
		Balance:  core.Money{Cents: -45000},
		Currency: "EUR",
		Source:   core.SourceManual,
	}, acc)

	acc, err = p.Account(AccountForm{Name: "Wallet", Balance: "0"}, "")
	require.NoError(t, err)
	assert.Equal(t, core.AccountChecking, acc.Type)
	assert.Equal(t, DefaultCurrency, acc.Currency)

	_, err = p.Account(AccountForm{Name: "Wallet", Balance: "lots"}, "")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = p.Account(AccountForm{Name: "Wallet", Balance: "1", Type: "brokerage"}, "")
	assert.ErrorIs(t, err, core.ErrInvalidAccount)
}

func TestDefaultParserGeneratesIDs(t *testing.T) {
	p := NewParser()
	a, err := p.Income(IncomeForm{Title: "A", Amount: "1"}, "")
	require.NoError(t, err)
	b, err := p.Income(IncomeForm{Title: "B", Amount: "1"}, "")
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}
