package aggregate

import (
	"time"

	"fintrack/internal/core"
)

// MonthLabels are the fixed labels of the monthly spending series.
var MonthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Monthly is a twelve-bucket series indexed January..December.
type Monthly struct {
	Labels [12]string     `json:"labels"`
	Data   [12]core.Money `json:"data"`
}

// MonthlySpending buckets expense amounts by the calendar month of their date.
// The year is ignored, so the same month of different years shares a bucket.
// Transactions whose date cannot be parsed are skipped.
func MonthlySpending(transactions []core.Transaction) Monthly {
	m := Monthly{Labels: MonthLabels}
	for _, t := range transactions {
		if t.Type != core.TransactionExpense {
			continue
		}
		ts, ok := t.Time()
		if !ok {
			continue
		}
		i := int(ts.Month() - time.January)
		m.Data[i] = m.Data[i].Add(t.Amount)
	}
	return m
}
