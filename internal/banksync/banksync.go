// Package banksync imports linked bank accounts into a ledger.
//
// The bank side is an opaque Connector. Whatever it returns is converted
// into ordinary accounts and transactions and applied to the store in a
// single batch.
package banksync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/id"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// UncategorizedCategory is assigned to every imported transaction.
const UncategorizedCategory = "Uncategorized"

// LinkedAccount is an account as reported by the bank connection.
type LinkedAccount struct {
	ExternalID   string
	Institution  string
	Last4        string
	Type         core.AccountType
	Currency     string
	BalanceCents int64
	Transactions []LinkedTransaction
}

// LinkedTransaction carries a signed amount in cents: negative for money
// leaving the account.
type LinkedTransaction struct {
	ExternalID   string
	Description  string
	AmountCents  int64
	TransactedAt time.Time
}

// Connector opens a bank connection and lists the accounts it exposes.
type Connector interface {
	FetchAccounts(ctx context.Context) ([]LinkedAccount, error)
}

// Result is what an import added to the ledger.
type Result struct {
	Accounts     []core.Account     `json:"accounts"`
	Transactions []core.Transaction `json:"transactions"`
	Skipped      int                `json:"skipped"`
}

// Importer converts connector output and applies it to a store.
type Importer struct {
	conn   Connector
	logger *log.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*Importer)

func WithClock(now func() time.Time) Option {
	return func(i *Importer) { i.now = now }
}

func WithIDs(newID func() string) Option {
	return func(i *Importer) { i.newID = newID }
}

func WithLogger(l *log.Logger) Option {
	return func(i *Importer) { i.logger = l.WithComponent(log.ComponentBankSync) }
}

func NewImporter(conn Connector, opts ...Option) *Importer {
	i := &Importer{
		conn:   conn,
		logger: log.Discard(),
		now:    time.Now,
		newID:  id.New,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import fetches linked accounts and appends them, with their transactions,
// to store in one mutation. Zero-amount transactions are skipped.
func (i *Importer) Import(ctx context.Context, store *ledger.Store) (Result, error) {
	linked, err := i.conn.FetchAccounts(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch linked accounts: %w", err)
	}

	syncedAt := i.now().UTC()
	res := Result{Accounts: []core.Account{}, Transactions: []core.Transaction{}}
	for _, la := range linked {
		acc := i.account(la, syncedAt)
		res.Accounts = append(res.Accounts, acc)
		for _, lt := range la.Transactions {
			tx, ok := i.transaction(lt, acc.ID)
			if !ok {
				res.Skipped++
				continue
			}
			res.Transactions = append(res.Transactions, tx)
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	store.ApplyBatch(res.Accounts, res.Transactions)

	i.logger.InfoContext(ctx, "Bank accounts imported",
		"accounts", len(res.Accounts),
		"transactions", len(res.Transactions),
		"skipped", res.Skipped,
		log.FieldVersion, store.Version())
	return res, nil
}

func (i *Importer) account(la LinkedAccount, syncedAt time.Time) core.Account {
	name := strings.TrimSpace(strings.TrimSpace(la.Institution) + " " + la.Last4)
	if name == "" {
		name = "Linked account"
	}
	accType := la.Type
	if accType == "" {
		accType = core.AccountChecking
	}
	currency := strings.ToUpper(la.Currency)
	if currency == "" {
		currency = "USD"
	}
	return core.Account{
		ID:              i.newID(),
		Name:            name,
		Type:            accType,
		Balance:         core.Money{Cents: la.BalanceCents},
		Currency:        currency,
		Source:          core.SourceStripe,
		StripeAccountID: la.ExternalID,
		LastSynced:      syncedAt,
	}
}

func (i *Importer) transaction(lt LinkedTransaction, accountID string) (core.Transaction, bool) {
	if lt.AmountCents == 0 {
		return core.Transaction{}, false
	}
	txType := core.TransactionIncome
	amount := lt.AmountCents
	if amount < 0 {
		txType = core.TransactionExpense
		amount = -amount
	}
	txID := lt.ExternalID
	if txID == "" {
		txID = i.newID()
	}
	title := strings.TrimSpace(lt.Description)
	if title == "" {
		title = "Bank transaction"
	}
	return core.Transaction{
		ID:        txID,
		Title:     title,
		Amount:    core.Money{Cents: amount},
		Date:      core.DateOf(lt.TransactedAt.UTC()).String(),
		Category:  UncategorizedCategory,
		Type:      txType,
		AccountID: accountID,
	}, true
}
