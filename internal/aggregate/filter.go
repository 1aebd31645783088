package aggregate

import (
	"strings"

	"fintrack/internal/core"
)

// TypeFilter selects transactions by type; TypeAll matches both.
type TypeFilter string

const (
	TypeAll     TypeFilter = "all"
	TypeIncome  TypeFilter = "income"
	TypeExpense TypeFilter = "expense"
)

// ParseTypeFilter maps free text to a TypeFilter, defaulting to TypeAll.
func ParseTypeFilter(s string) TypeFilter {
	switch f := TypeFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case TypeIncome, TypeExpense:
		return f
	default:
		return TypeAll
	}
}

// FilterTransactions keeps transactions whose title or category contains query
// (case-insensitive) and whose type matches kind. An empty query matches all.
func FilterTransactions(transactions []core.Transaction, query string, kind TypeFilter) []core.Transaction {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []core.Transaction{}
	for _, t := range transactions {
		if kind != TypeAll && kind != "" && string(t.Type) != string(kind) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Category), q) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// AccountTransactions returns the transactions linked to accountID.
func AccountTransactions(transactions []core.Transaction, accountID string) []core.Transaction {
	out := []core.Transaction{}
	for _, t := range transactions {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out
}
