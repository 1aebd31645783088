package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyOneTime Frequency = "one-time"

	BillMonthly BillType = "monthly"
	BillOneTime BillType = "one-time"

	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"

	AccountChecking AccountType = "checking"
	AccountSavings  AccountType = "savings"
	AccountCredit   AccountType = "credit"

	SourceManual AccountSource = "manual"
	SourceStripe AccountSource = "stripe"
)

type (
	Frequency       string
	BillType        string
	TransactionType string
	AccountType     string
	AccountSource   string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Income struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Amount    Money     `json:"amount"`
		Frequency Frequency `json:"frequency"`
	}

	// Bill is a scheduled payment. DueDate is interpreted through Type:
	// a day of month for monthly bills, a calendar date for one-time bills.
	Bill struct {
		ID       string
		Title    string
		Amount   Money
		DueDate  DueDate
		Category string
		IsPaid   bool
		Type     BillType
	}

	Transaction struct {
		ID        string          `json:"id"`
		Title     string          `json:"title"`
		Amount    Money           `json:"amount"`
		Date      string          `json:"date"` // ISO date or datetime, as entered
		Category  string          `json:"category"`
		Type      TransactionType `json:"type"`
		AccountID string          `json:"accountId,omitempty"`
	}

	Account struct {
		ID              string        `json:"id"`
		Name            string        `json:"name"`
		Type            AccountType   `json:"type"`
		Balance         Money         `json:"balance"`
		Currency        string        `json:"currency"`
		Source          AccountSource `json:"source"`
		StripeAccountID string        `json:"stripeAccountId,omitempty"`
		LastSynced      time.Time     `json:"lastSynced,omitzero"`
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyTitle       = errors.New("empty title")
	ErrTitleTooLong     = errors.New("title too long (max 200 characters)")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidBillType  = errors.New("invalid bill type")
	ErrInvalidDueDate   = errors.New("invalid due date")
	ErrInvalidTxType    = errors.New("invalid transaction type")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAccount   = errors.New("invalid account type")
	ErrInvalidSource    = errors.New("invalid account source")
	ErrEmptyCurrency    = errors.New("empty currency")
)

const maxTitleLen = 200

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day at UTC midnight.
// Out of range values are normalised the way time.Date does.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf strips the clock from t, keeping the calendar day as seen in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// MarshalJSON writes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON reads "YYYY-MM-DD"; an empty string yields the zero Date.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("date %q: %w", s, ErrInvalidDate)
	}
	*d = Date{Time: t}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if len(title) > maxTitleLen {
		return ErrTitleTooLong
	}
	return nil
}

func (i Income) Validate() error {
	if err := validateTitle(i.Title); err != nil {
		return err
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	switch i.Frequency {
	case FrequencyMonthly, FrequencyOneTime:
	default:
		return ErrInvalidFrequency
	}
	return nil
}

func (b Bill) Validate() error {
	if err := validateTitle(b.Title); err != nil {
		return err
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	switch b.Type {
	case BillMonthly:
		if _, ok := b.DueDate.Day(); !ok {
			return ErrInvalidDueDate
		}
	case BillOneTime:
		if _, ok := b.DueDate.Calendar(); !ok {
			return ErrInvalidDueDate
		}
	default:
		return ErrInvalidBillType
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := validateTitle(t.Title); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	switch t.Type {
	case TransactionIncome, TransactionExpense:
	default:
		return ErrInvalidTxType
	}
	if _, ok := t.Time(); !ok {
		return ErrInvalidDate
	}
	return nil
}

// transactionLayouts are tried in order when reading Transaction.Date.
var transactionLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// Time parses the transaction date. The calendar fields are taken as written,
// so "2024-03-31T23:30:00-05:00" stays in March.
func (t Transaction) Time() (time.Time, bool) {
	s := strings.TrimSpace(t.Date)
	for _, layout := range transactionLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func (a Account) Validate() error {
	if err := validateTitle(a.Name); err != nil {
		return err
	}
	switch a.Type {
	case AccountChecking, AccountSavings, AccountCredit:
	default:
		return ErrInvalidAccount
	}
	switch a.Source {
	case SourceManual, SourceStripe:
	default:
		return ErrInvalidSource
	}
	if strings.TrimSpace(a.Currency) == "" {
		return ErrEmptyCurrency
	}
	return nil
}
