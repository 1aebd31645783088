package aggregate

import (
	"slices"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/recurrence"
)

// UpcomingWindow is how far ahead UpcomingBills looks, inclusive.
const UpcomingWindow = 7 * 24 * time.Hour

// Upcoming is a bill together with its resolved next occurrence.
type Upcoming struct {
	Bill    core.Bill `json:"bill"`
	DueOn   core.Date `json:"dueOn"`
	DueDays int       `json:"dueInDays"`
}

// UpcomingBills returns the unpaid bills whose next occurrence falls within
// [today, today+7 days], ordered by that occurrence. Ties keep input order.
// Bills with an uninterpretable due date are left out.
func UpcomingBills(calc recurrence.Calculator, bills []core.Bill, today time.Time) []Upcoming {
	start := core.DateOf(today)
	end := start.Add(UpcomingWindow)

	out := []Upcoming{}
	for _, b := range bills {
		if b.IsPaid {
			continue
		}
		next, ok := calc.NextOccurrence(b, today)
		if !ok || next.Before(start.Time) || next.After(end) {
			continue
		}
		out = append(out, Upcoming{
			Bill:    b,
			DueOn:   next,
			DueDays: int(next.Sub(start.Time) / (24 * time.Hour)),
		})
	}

	slices.SortStableFunc(out, func(a, b Upcoming) int {
		return a.DueOn.Compare(b.DueOn.Time)
	})
	return out
}

// UpcomingBillList is UpcomingBills reduced to the bills themselves.
func UpcomingBillList(calc recurrence.Calculator, bills []core.Bill, today time.Time) []core.Bill {
	upcoming := UpcomingBills(calc, bills, today)
	out := make([]core.Bill, len(upcoming))
	for i, u := range upcoming {
		out[i] = u.Bill
	}
	return out
}
