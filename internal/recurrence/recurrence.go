// Package recurrence resolves the next occurrence date of a bill.
//
// Each bill type has its own Resolver strategy. Dates are calendar dates:
// the time of day of "today" never pushes a bill due today into next month.
package recurrence

import (
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
)

// OverflowPolicy decides what happens when a monthly bill's day does not exist
// in the target month (e.g. day 31 in April).
type OverflowPolicy string

const (
	// OverflowRoll lets the date spill into the following month (April 31 -> May 1).
	OverflowRoll OverflowPolicy = "roll"
	// OverflowClamp pins the date to the month's last day (April 31 -> April 30).
	OverflowClamp OverflowPolicy = "clamp"
)

// ParseOverflowPolicy parses a policy name; empty means OverflowRoll.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch p := OverflowPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return OverflowRoll, nil
	case OverflowRoll, OverflowClamp:
		return p, nil
	default:
		return "", fmt.Errorf("unknown overflow policy: %q", s)
	}
}

// Resolver is the strategy interface for computing a bill's next occurrence.
type Resolver interface {
	// Next returns the next occurrence of due relative to today, or false when
	// the due date cannot be interpreted by this strategy.
	Next(due core.DueDate, today core.Date, policy OverflowPolicy) (core.Date, bool)
}

// OneTimeResolver implements Resolver for one-time bills.
type OneTimeResolver struct{}

// Next returns the fixed calendar date, even when it is in the past.
func (OneTimeResolver) Next(due core.DueDate, _ core.Date, _ OverflowPolicy) (core.Date, bool) {
	return due.Calendar()
}

// MonthlyResolver implements Resolver for bills repeating on a day of month.
type MonthlyResolver struct{}

// Next returns this month's occurrence, or next month's when this month's day
// is strictly before today.
func (MonthlyResolver) Next(due core.DueDate, today core.Date, policy OverflowPolicy) (core.Date, bool) {
	day, ok := due.Day()
	if !ok {
		return core.Date{}, false
	}

	year, month := today.Year(), int(today.Month())
	next := dayInMonth(year, month, day, policy)
	if next.Before(today.Time) {
		next = dayInMonth(year, month+1, day, policy)
	}
	return next, true
}

// dayInMonth builds (year, month, day). month may be 13, which time.Date
// normalises to January of the next year.
func dayInMonth(year, month, day int, policy OverflowPolicy) core.Date {
	if policy == OverflowClamp {
		if last := lastDayOfMonth(year, month); day > last {
			day = last
		}
	}
	return core.NewDate(year, month, day)
}

func lastDayOfMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// resolvers maps bill types to their strategies.
var resolvers = map[core.BillType]Resolver{
	core.BillOneTime: OneTimeResolver{},
	core.BillMonthly: MonthlyResolver{},
}

// GetResolver returns the strategy for a bill type.
func GetResolver(t core.BillType) (Resolver, error) {
	r, ok := resolvers[t]
	if !ok {
		return nil, fmt.Errorf("unknown bill type: %s", t)
	}
	return r, nil
}

// RegisterResolver adds or replaces the strategy for a bill type.
func RegisterResolver(t core.BillType, r Resolver) {
	resolvers[t] = r
}

// Calculator resolves next occurrences under a fixed overflow policy.
type Calculator struct {
	policy OverflowPolicy
}

// NewCalculator returns a Calculator; an empty policy means OverflowRoll.
func NewCalculator(policy OverflowPolicy) Calculator {
	if policy == "" {
		policy = OverflowRoll
	}
	return Calculator{policy: policy}
}

// Policy returns the calculator's overflow policy.
func (c Calculator) Policy() OverflowPolicy { return c.policy }

// NextOccurrence returns the bill's next occurrence on or after today's calendar
// date (one-time bills may be in the past). It returns false for unknown bill
// types and for due dates that do not match the bill's type.
func (c Calculator) NextOccurrence(b core.Bill, today time.Time) (core.Date, bool) {
	r, err := GetResolver(b.Type)
	if err != nil {
		return core.Date{}, false
	}
	return r.Next(b.DueDate, core.DateOf(today), c.policy)
}

// NextOccurrence resolves with the default roll-over policy.
func NextOccurrence(b core.Bill, today time.Time) (core.Date, bool) {
	return NewCalculator(OverflowRoll).NextOccurrence(b, today)
}
