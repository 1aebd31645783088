package recurrence

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func monthly(day string) core.Bill {
	return core.Bill{Type: core.BillMonthly, DueDate: core.ParseDueDate(core.BillMonthly, day)}
}

func oneTime(date string) core.Bill {
	return core.Bill{Type: core.BillOneTime, DueDate: core.ParseDueDate(core.BillOneTime, date)}
}

func TestNextOccurrence_OneTime(t *testing.T) {
	bill := oneTime("2024-03-15")

	for _, today := range []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 4, 9, 30, 0, 0, time.UTC),
	} {
		got, ok := NextOccurrence(bill, today)
		if !ok {
			t.Fatalf("NextOccurrence() not ok for today=%v", today)
		}
		if got.String() != "2024-03-15" {
			t.Errorf("NextOccurrence(today=%v) = %s, want 2024-03-15", today, got)
		}
	}
}

func TestNextOccurrence_Monthly(t *testing.T) {
	tests := []struct {
		name  string
		day   string
		today time.Time
		want  string
	}{
		{
			name:  "day already passed - next month",
			day:   "5",
			today: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
			want:  "2024-04-05",
		},
		{
			name:  "day not yet passed - this month",
			day:   "20",
			today: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
			want:  "2024-03-20",
		},
		{
			name:  "due today stays today regardless of clock",
			day:   "10",
			today: time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC),
			want:  "2024-03-10",
		},
		{
			name:  "december rolls into january",
			day:   "3",
			today: time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC),
			want:  "2025-01-03",
		},
		{
			name:  "day 31 in april rolls into may",
			day:   "31",
			today: time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC),
			want:  "2024-05-01",
		},
		{
			name:  "day 30 after january 31 rolls past february",
			day:   "30",
			today: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			want:  "2024-03-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextOccurrence(monthly(tt.day), tt.today)
			if !ok {
				t.Fatal("NextOccurrence() not ok")
			}
			if got.String() != tt.want {
				t.Errorf("NextOccurrence() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNextOccurrence_MonthlyClamp(t *testing.T) {
	calc := NewCalculator(OverflowClamp)

	tests := []struct {
		name  string
		day   string
		today time.Time
		want  string
	}{
		{"day 31 in april clamps to 30", "31", time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), "2024-04-30"},
		{"day 31 in leap february", "31", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "2024-02-29"},
		{"day 30 after january 31 clamps in february", "30", time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), "2023-02-28"},
		{"regular day unaffected", "15", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "2024-06-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := calc.NextOccurrence(monthly(tt.day), tt.today)
			if !ok {
				t.Fatal("NextOccurrence() not ok")
			}
			if got.String() != tt.want {
				t.Errorf("NextOccurrence() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNextOccurrence_Invalid(t *testing.T) {
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		bill core.Bill
	}{
		{"monthly non-numeric", monthly("abc")},
		{"one-time unparsable", oneTime("2024-13-45")},
		{"type and value disagree", core.Bill{Type: core.BillMonthly, DueDate: core.CalendarDate(core.NewDate(2024, 3, 15))}},
		{"unknown type", core.Bill{Type: "weekly", DueDate: core.DayOfMonth(3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := NextOccurrence(tt.bill, today); ok {
				t.Error("NextOccurrence() ok, want false")
			}
		})
	}
}

func TestParseOverflowPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    OverflowPolicy
		wantErr bool
	}{
		{"", OverflowRoll, false},
		{"roll", OverflowRoll, false},
		{" Clamp ", OverflowClamp, false},
		{"reject", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOverflowPolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOverflowPolicy() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOverflowPolicy() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegisterResolver(t *testing.T) {
	custom := core.BillType("quarterly")
	RegisterResolver(custom, MonthlyResolver{})
	defer delete(resolvers, custom)

	r, err := GetResolver(custom)
	if err != nil {
		t.Fatalf("GetResolver() after register error = %v", err)
	}
	if r == nil {
		t.Fatal("GetResolver() returned nil after registration")
	}
}
