package aggregate

import "fintrack/internal/core"

// SpendingByCategory groups expense transactions by their exact category
// string. Slices appear in the order each category is first seen.
func SpendingByCategory(transactions []core.Transaction) []Slice {
	index := make(map[string]int)
	out := []Slice{}
	for _, t := range transactions {
		if t.Type != core.TransactionExpense {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			ci, color := colorAt(CategoryPalette, i)
			out = append(out, Slice{Name: t.Category, ColorIndex: ci, Color: color})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}
	return out
}

// IncomeVsBills returns one slice per bill followed by a Remaining slice
// holding max(0, totalIncome - sum of bills).
func IncomeVsBills(totalIncome core.Money, bills []core.Bill) []Slice {
	out := make([]Slice, 0, len(bills)+1)
	for i, b := range bills {
		ci, color := colorAt(BillPalette, i)
		out = append(out, Slice{Name: b.Title, Amount: b.Amount, ColorIndex: ci, Color: color})
	}

	remaining := totalIncome.Sub(TotalBills(bills))
	if remaining.IsNegative() {
		remaining = core.Money{}
	}
	return append(out, Slice{
		Name:       RemainingLabel,
		Amount:     remaining,
		ColorIndex: RemainingColorIndex,
		Color:      RemainingColor,
	})
}
