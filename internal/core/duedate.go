package core

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type dueKind uint8

const (
	dueInvalid dueKind = iota
	dueDayOfMonth
	dueCalendar
)

// DueDate is either a day of month (monthly bills) or a calendar date
// (one-time bills). A value that could not be interpreted keeps its raw text
// and reports itself invalid.
type DueDate struct {
	kind dueKind
	day  int
	date Date
	raw  string
}

// DayOfMonth returns a day-of-month due date. Days outside 1..31 are invalid.
// The day is not checked against any particular month's length.
func DayOfMonth(day int) DueDate {
	if day < 1 || day > 31 {
		return DueDate{raw: strconv.Itoa(day)}
	}
	return DueDate{kind: dueDayOfMonth, day: day}
}

// CalendarDate returns a fixed calendar due date.
func CalendarDate(d Date) DueDate {
	if d.IsZero() {
		return DueDate{}
	}
	return DueDate{kind: dueCalendar, date: DateOf(d.Time)}
}

// ParseDueDate interprets raw according to the bill type: an integer day for
// monthly bills, a YYYY-MM-DD date (or RFC 3339 timestamp) for one-time bills.
func ParseDueDate(t BillType, raw string) DueDate {
	s := strings.TrimSpace(raw)
	switch t {
	case BillMonthly:
		day, err := strconv.Atoi(s)
		if err != nil {
			return DueDate{raw: raw}
		}
		dd := DayOfMonth(day)
		if !dd.Valid() {
			dd.raw = raw
		}
		return dd
	case BillOneTime:
		if d, err := time.Parse(time.DateOnly, s); err == nil {
			return CalendarDate(Date{Time: d})
		}
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return CalendarDate(DateOf(ts))
		}
	}
	return DueDate{raw: raw}
}

// Valid reports whether the due date holds an interpretable value.
func (d DueDate) Valid() bool { return d.kind != dueInvalid }

// Day returns the day of month for monthly due dates.
func (d DueDate) Day() (int, bool) {
	return d.day, d.kind == dueDayOfMonth
}

// Calendar returns the fixed date for one-time due dates.
func (d DueDate) Calendar() (Date, bool) {
	return d.date, d.kind == dueCalendar
}

// String renders the wire form: "5" or "2024-03-15". Invalid values render
// their original text.
func (d DueDate) String() string {
	switch d.kind {
	case dueDayOfMonth:
		return strconv.Itoa(d.day)
	case dueCalendar:
		return d.date.String()
	default:
		return d.raw
	}
}

type billWire struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Amount   Money    `json:"amount"`
	DueDate  string   `json:"dueDate"`
	Category string   `json:"category"`
	IsPaid   bool     `json:"isPaid"`
	Type     BillType `json:"type"`
}

// MarshalJSON keeps dueDate as a single string field.
func (b Bill) MarshalJSON() ([]byte, error) {
	return json.Marshal(billWire{
		ID:       b.ID,
		Title:    b.Title,
		Amount:   b.Amount,
		DueDate:  b.DueDate.String(),
		Category: b.Category,
		IsPaid:   b.IsPaid,
		Type:     b.Type,
	})
}

// UnmarshalJSON reads dueDate through the bill's type tag.
func (b *Bill) UnmarshalJSON(data []byte) error {
	var w billWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*b = Bill{
		ID:       w.ID,
		Title:    w.Title,
		Amount:   w.Amount,
		DueDate:  ParseDueDate(w.Type, w.DueDate),
		Category: w.Category,
		IsPaid:   w.IsPaid,
		Type:     w.Type,
	}
	return nil
}
