// Package entry turns user-entered forms into ledger entities.
//
// Forms carry amounts as text the way they are typed. Struct tags validated
// with go-playground/validator catch shape problems; the resulting entity is
// then checked again through core's own Validate.
package entry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"fintrack/internal/core"
	"fintrack/internal/id"
)

const (
	DefaultBillCategory        = "General"
	DefaultTransactionCategory = "General"
	DefaultCurrency            = "USD"
)

type IncomeForm struct {
	Title     string `json:"title" validate:"required,max=200"`
	Amount    string `json:"amount" validate:"required,amount"`
	Frequency string `json:"frequency" validate:"omitempty,frequency"`
}

// BillForm.DueDate is the picked date (YYYY-MM-DD). Monthly bills also accept
// a bare day of month. IsPaid is optional; when absent a new bill is unpaid
// and an edited bill keeps its stored status.
type BillForm struct {
	Title    string `json:"title" validate:"required,max=200"`
	Amount   string `json:"amount" validate:"required,amount"`
	DueDate  string `json:"dueDate" validate:"required"`
	Category string `json:"category" validate:"max=100"`
	Type     string `json:"type" validate:"omitempty,bill_type"`
	IsPaid   *bool  `json:"isPaid"`
}

type TransactionForm struct {
	Title     string `json:"title" validate:"required,max=200"`
	Amount    string `json:"amount" validate:"required,amount"`
	Date      string `json:"date"`
	Category  string `json:"category" validate:"max=100"`
	Type      string `json:"type" validate:"omitempty,transaction_type"`
	AccountID string `json:"accountId"`
}

type AccountForm struct {
	Name     string `json:"name" validate:"required,max=200"`
	Balance  string `json:"balance" validate:"required,signed_amount"`
	Type     string `json:"type" validate:"omitempty,account_type"`
	Currency string `json:"currency" validate:"omitempty,len=3,alpha"`
}

// Parser validates forms and builds entities. The zero value is not usable;
// call NewParser.
type Parser struct {
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

type Option func(*Parser)

// WithClock sets the clock used to date transactions entered without a date.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// WithIDs overrides id generation.
func WithIDs(newID func() string) Option {
	return func(p *Parser) { p.newID = newID }
}

func NewParser(opts ...Option) *Parser {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("amount", validateAmount)
	_ = v.RegisterValidation("signed_amount", validateSignedAmount)
	_ = v.RegisterValidation("frequency", validateFrequency)
	_ = v.RegisterValidation("bill_type", validateBillType)
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("account_type", validateAccountType)

	p := &Parser{validate: v, now: time.Now, newID: id.New}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Income builds an Income. An empty id gets a fresh one.
func (p *Parser) Income(f IncomeForm, existingID string) (core.Income, error) {
	f.Title = strings.TrimSpace(f.Title)
	if err := p.check(f); err != nil {
		return core.Income{}, err
	}
	cents, err := core.ParseDecimalToCents(f.Amount)
	if err != nil {
		return core.Income{}, fmt.Errorf("amount: %w", err)
	}
	freq := core.Frequency(f.Frequency)
	if freq == "" {
		freq = core.FrequencyMonthly
	}
	inc := core.Income{
		ID:        p.idOr(existingID),
		Title:     f.Title,
		Amount:    core.Money{Cents: cents},
		Frequency: freq,
	}
	return inc, inc.Validate()
}

// Bill builds a Bill. The due date is derived from the picked date: its day
// of month for monthly bills, the date itself for one-time bills.
func (p *Parser) Bill(f BillForm, existingID string) (core.Bill, error) {
	f.Title = strings.TrimSpace(f.Title)
	if err := p.check(f); err != nil {
		return core.Bill{}, err
	}
	cents, err := core.ParseDecimalToCents(f.Amount)
	if err != nil {
		return core.Bill{}, fmt.Errorf("amount: %w", err)
	}
	billType := core.BillType(f.Type)
	if billType == "" {
		billType = core.BillMonthly
	}
	due, err := DueDateFor(billType, f.DueDate)
	if err != nil {
		return core.Bill{}, err
	}
	category := strings.TrimSpace(f.Category)
	if category == "" {
		category = DefaultBillCategory
	}
	bill := core.Bill{
		ID:       p.idOr(existingID),
		Title:    f.Title,
		Amount:   core.Money{Cents: cents},
		DueDate:  due,
		Category: category,
		IsPaid:   f.IsPaid != nil && *f.IsPaid,
		Type:     billType,
	}
	return bill, bill.Validate()
}

// DueDateFor converts a picked date into the due date stored for a bill type.
func DueDateFor(t core.BillType, picked string) (core.DueDate, error) {
	s := strings.TrimSpace(picked)
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		switch t {
		case core.BillMonthly:
			return core.DayOfMonth(d.Day()), nil
		case core.BillOneTime:
			return core.CalendarDate(core.Date{Time: d}), nil
		}
		return core.DueDate{}, core.ErrInvalidBillType
	}
	due := core.ParseDueDate(t, s)
	if !due.Valid() {
		return due, fmt.Errorf("due date %q: %w", picked, core.ErrInvalidDueDate)
	}
	return due, nil
}

// Transaction builds a Transaction. Without a date it is stamped with the
// current time; without a type it is an expense.
func (p *Parser) Transaction(f TransactionForm, existingID string) (core.Transaction, error) {
	f.Title = strings.TrimSpace(f.Title)
	if err := p.check(f); err != nil {
		return core.Transaction{}, err
	}
	cents, err := core.ParseDecimalToCents(f.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}
	date := strings.TrimSpace(f.Date)
	if date == "" {
		date = p.now().UTC().Format(time.RFC3339)
	}
	txType := core.TransactionType(f.Type)
	if txType == "" {
		txType = core.TransactionExpense
	}
	category := strings.TrimSpace(f.Category)
	if category == "" {
		category = DefaultTransactionCategory
	}
	tx := core.Transaction{
		ID:        p.idOr(existingID),
		Title:     f.Title,
		Amount:    core.Money{Cents: cents},
		Date:      date,
		Category:  category,
		Type:      txType,
		AccountID: strings.TrimSpace(f.AccountID),
	}
	return tx, tx.Validate()
}

// Account builds a manually tracked Account. Balances may be negative.
func (p *Parser) Account(f AccountForm, existingID string) (core.Account, error) {
	f.Name = strings.TrimSpace(f.Name)
	if err := p.check(f); err != nil {
		return core.Account{}, err
	}
	cents, err := core.ParseSignedDecimalToCents(f.Balance)
	if err != nil {
		return core.Account{}, fmt.Errorf("balance: %w", err)
	}
	accType := core.AccountType(f.Type)
	if accType == "" {
		accType = core.AccountChecking
	}
	currency := strings.ToUpper(strings.TrimSpace(f.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	acc := core.Account{
		ID:       p.idOr(existingID),
		Name:     f.Name,
		Type:     accType,
		Balance:  core.Money{Cents: cents},
		Currency: currency,
		Source:   core.SourceManual,
	}
	return acc, acc.Validate()
}

func (p *Parser) idOr(existing string) string {
	if existing != "" {
		return existing
	}
	return p.newID()
}

// check runs struct validation and reports the first failure as a core sentinel.
func (p *Parser) check(form any) error {
	err := p.validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return fmt.Errorf("%s: %w", strings.ToLower(fe.Field()), sentinelFor(fe))
}

func sentinelFor(fe validator.FieldError) error {
	switch fe.Field() {
	case "Title", "Name":
		if fe.Tag() == "max" {
			return core.ErrTitleTooLong
		}
		return core.ErrEmptyTitle
	case "Amount", "Balance":
		return core.ErrInvalidAmount
	case "Frequency":
		return core.ErrInvalidFrequency
	case "DueDate":
		return core.ErrInvalidDueDate
	case "Currency":
		return core.ErrEmptyCurrency
	case "Type":
		switch fe.Tag() {
		case "bill_type":
			return core.ErrInvalidBillType
		case "transaction_type":
			return core.ErrInvalidTxType
		case "account_type":
			return core.ErrInvalidAccount
		}
	}
	return fmt.Errorf("%s failed %q", fe.Field(), fe.Tag())
}

func validateAmount(fl validator.FieldLevel) bool {
	_, err := core.ParseDecimalToCents(fl.Field().String())
	return err == nil
}

func validateSignedAmount(fl validator.FieldLevel) bool {
	_, err := core.ParseSignedDecimalToCents(fl.Field().String())
	return err == nil
}

func validateFrequency(fl validator.FieldLevel) bool {
	switch core.Frequency(fl.Field().String()) {
	case core.FrequencyMonthly, core.FrequencyOneTime:
		return true
	}
	return false
}

func validateBillType(fl validator.FieldLevel) bool {
	switch core.BillType(fl.Field().String()) {
	case core.BillMonthly, core.BillOneTime:
		return true
	}
	return false
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch core.TransactionType(fl.Field().String()) {
	case core.TransactionIncome, core.TransactionExpense:
		return true
	}
	return false
}

func validateAccountType(fl validator.FieldLevel) bool {
	switch core.AccountType(fl.Field().String()) {
	case core.AccountChecking, core.AccountSavings, core.AccountCredit:
		return true
	}
	return false
}
