// Package storage is the SQLite snapshot gateway. Each save rewrites the
// user's rows inside one transaction; row position preserves collection order.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/persistence"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

var (
	_ persistence.Gateway    = (*SQLiteRepository)(nil)
	_ persistence.UserLister = (*SQLiteRepository)(nil)
)

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveSnapshot implements persistence.Gateway.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, userID string, snap core.Snapshot) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	q := r.queries.WithTx(tx)

	version, err := q.UpsertLedger(ctx, userID, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert ledger: %w", err)
	}
	if err = q.ClearCollections(ctx, userID); err != nil {
		return fmt.Errorf("clear collections: %w", err)
	}
	for i, in := range snap.Incomes {
		if err = q.InsertIncome(ctx, userID, i, incomeRow(in)); err != nil {
			return fmt.Errorf("insert income %s: %w", in.ID, err)
		}
	}
	for i, b := range snap.Bills {
		if err = q.InsertBill(ctx, userID, i, billRow(b)); err != nil {
			return fmt.Errorf("insert bill %s: %w", b.ID, err)
		}
	}
	for i, t := range snap.Transactions {
		if err = q.InsertTransaction(ctx, userID, i, transactionRow(t)); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}
	for i, a := range snap.Accounts {
		if err = q.InsertAccount(ctx, userID, i, accountRow(a)); err != nil {
			return fmt.Errorf("insert account %s: %w", a.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.DebugContext(ctx, "Snapshot written",
		log.FieldUserID, userID,
		log.FieldOperation, log.OpSave,
		log.FieldVersion, version,
		log.FieldItems, snap.Len())
	return nil
}

// LoadSnapshot implements persistence.Gateway.
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context, userID string) (core.Snapshot, error) {
	if _, err := r.LedgerVersion(ctx, userID); err != nil {
		return core.Snapshot{}, err
	}

	incomes, err := r.queries.ListIncomes(ctx, userID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list incomes: %w", err)
	}
	bills, err := r.queries.ListBills(ctx, userID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list bills: %w", err)
	}
	txns, err := r.queries.ListTransactions(ctx, userID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list transactions: %w", err)
	}
	accounts, err := r.queries.ListAccounts(ctx, userID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list accounts: %w", err)
	}

	snap := core.Snapshot{
		Incomes:      make([]core.Income, len(incomes)),
		Bills:        make([]core.Bill, len(bills)),
		Transactions: make([]core.Transaction, len(txns)),
		Accounts:     make([]core.Account, len(accounts)),
	}
	for i, row := range incomes {
		snap.Incomes[i] = row.toIncome()
	}
	for i, row := range bills {
		snap.Bills[i] = row.toBill()
	}
	for i, row := range txns {
		snap.Transactions[i] = row.toTransaction()
	}
	for i, row := range accounts {
		snap.Accounts[i] = row.toAccount()
	}
	return snap, nil
}

// LedgerVersion returns how many snapshots have been saved for the user, or
// persistence.ErrNotFound when none has.
func (r *SQLiteRepository) LedgerVersion(ctx context.Context, userID string) (int64, error) {
	version, err := r.queries.GetLedgerVersion(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, persistence.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("check ledger: %w", err)
	}
	return version, nil
}

// ListUsers implements persistence.UserLister.
func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]string, error) {
	users, err := r.queries.ListLedgerUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func incomeRow(in core.Income) IncomeRow {
	return IncomeRow{ID: in.ID, Title: in.Title, AmountCents: in.Amount.Cents, Frequency: string(in.Frequency)}
}

func (r IncomeRow) toIncome() core.Income {
	return core.Income{ID: r.ID, Title: r.Title, Amount: core.Money{Cents: r.AmountCents}, Frequency: core.Frequency(r.Frequency)}
}

func billRow(b core.Bill) BillRow {
	return BillRow{
		ID:          b.ID,
		Title:       b.Title,
		AmountCents: b.Amount.Cents,
		DueDate:     b.DueDate.String(),
		Category:    b.Category,
		IsPaid:      b.IsPaid,
		Type:        string(b.Type),
	}
}

func (r BillRow) toBill() core.Bill {
	t := core.BillType(r.Type)
	return core.Bill{
		ID:       r.ID,
		Title:    r.Title,
		Amount:   core.Money{Cents: r.AmountCents},
		DueDate:  core.ParseDueDate(t, r.DueDate),
		Category: r.Category,
		IsPaid:   r.IsPaid,
		Type:     t,
	}
}

func transactionRow(t core.Transaction) TransactionRow {
	return TransactionRow{
		ID:          t.ID,
		Title:       t.Title,
		AmountCents: t.Amount.Cents,
		Date:        t.Date,
		Category:    t.Category,
		Type:        string(t.Type),
		AccountID:   t.AccountID,
	}
}

func (r TransactionRow) toTransaction() core.Transaction {
	return core.Transaction{
		ID:        r.ID,
		Title:     r.Title,
		Amount:    core.Money{Cents: r.AmountCents},
		Date:      r.Date,
		Category:  r.Category,
		Type:      core.TransactionType(r.Type),
		AccountID: r.AccountID,
	}
}

func accountRow(a core.Account) AccountRow {
	row := AccountRow{
		ID:              a.ID,
		Name:            a.Name,
		Type:            string(a.Type),
		BalanceCents:    a.Balance.Cents,
		Currency:        a.Currency,
		Source:          string(a.Source),
		StripeAccountID: a.StripeAccountID,
	}
	if !a.LastSynced.IsZero() {
		row.LastSynced = a.LastSynced.UTC().Format(time.RFC3339Nano)
	}
	return row
}

func (r AccountRow) toAccount() core.Account {
	a := core.Account{
		ID:              r.ID,
		Name:            r.Name,
		Type:            core.AccountType(r.Type),
		Balance:         core.Money{Cents: r.BalanceCents},
		Currency:        r.Currency,
		Source:          core.AccountSource(r.Source),
		StripeAccountID: r.StripeAccountID,
	}
	if ts, err := time.Parse(time.RFC3339Nano, r.LastSynced); err == nil {
		a.LastSynced = ts
	}
	return a
}
