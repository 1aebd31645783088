package aggregate

import (
	"time"

	"fintrack/internal/core"
	"fintrack/internal/recurrence"
)

// Summary bundles every dashboard view computed from one snapshot.
type Summary struct {
	AsOf               core.Date  `json:"asOf"`
	TotalIncome        core.Money `json:"totalIncome"`
	TotalBills         core.Money `json:"totalBills"`
	TotalExpenses      core.Money `json:"totalExpenses"`
	RemainingBalance   core.Money `json:"remainingBalance"`
	SpendingByCategory []Slice    `json:"spendingByCategory"`
	MonthlySpending    Monthly    `json:"monthlySpending"`
	IncomeVsBills      []Slice    `json:"incomeVsBills"`
	UpcomingBills      []Upcoming `json:"upcomingBills"`
}

// Summarize computes all dashboard views for snap as of today.
func Summarize(calc recurrence.Calculator, snap core.Snapshot, today time.Time) Summary {
	income := TotalIncome(snap.Incomes)
	bills := TotalBills(snap.Bills)
	expenses := TotalExpenses(snap.Transactions)
	return Summary{
		AsOf:               core.DateOf(today),
		TotalIncome:        income,
		TotalBills:         bills,
		TotalExpenses:      expenses,
		RemainingBalance:   income.Sub(bills).Sub(expenses),
		SpendingByCategory: SpendingByCategory(snap.Transactions),
		MonthlySpending:    MonthlySpending(snap.Transactions),
		IncomeVsBills:      IncomeVsBills(income, snap.Bills),
		UpcomingBills:      UpcomingBills(calc, snap.Bills, today),
	}
}
