// Package aggregate derives dashboard figures from ledger collections.
//
// All functions are pure: they never mutate their inputs and equal inputs
// produce equal outputs.
package aggregate

import "fintrack/internal/core"

// TotalIncome sums all incomes regardless of frequency.
func TotalIncome(incomes []core.Income) core.Money {
	var total core.Money
	for _, in := range incomes {
		total = total.Add(in.Amount)
	}
	return total
}

// TotalBills sums all bills, paid and unpaid.
func TotalBills(bills []core.Bill) core.Money {
	var total core.Money
	for _, b := range bills {
		total = total.Add(b.Amount)
	}
	return total
}

// TotalExpenses sums expense transactions. Income transactions are ignored.
func TotalExpenses(transactions []core.Transaction) core.Money {
	var total core.Money
	for _, t := range transactions {
		if t.Type == core.TransactionExpense {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// RemainingBalance is income minus bills minus expenses. It may be negative.
func RemainingBalance(incomes []core.Income, bills []core.Bill, transactions []core.Transaction) core.Money {
	return TotalIncome(incomes).Sub(TotalBills(bills)).Sub(TotalExpenses(transactions))
}
