package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the typed statements used by the repository.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type (
	IncomeRow struct {
		ID          string
		Title       string
		AmountCents int64
		Frequency   string
	}

	BillRow struct {
		ID          string
		Title       string
		AmountCents int64
		DueDate     string
		Category    string
		IsPaid      bool
		Type        string
	}

	TransactionRow struct {
		ID          string
		Title       string
		AmountCents int64
		Date        string
		Category    string
		Type        string
		AccountID   string
	}

	AccountRow struct {
		ID              string
		Name            string
		Type            string
		BalanceCents    int64
		Currency        string
		Source          string
		StripeAccountID string
		LastSynced      string
	}
)

const upsertLedger = `
INSERT INTO ledgers (user_id, version, updated_at) VALUES (?, 1, ?)
ON CONFLICT(user_id) DO UPDATE SET version = version + 1, updated_at = excluded.updated_at
RETURNING version
`

// UpsertLedger records a save of the user's ledger and returns its version,
// the number of snapshots written for the user so far.
func (q *Queries) UpsertLedger(ctx context.Context, userID, updatedAt string) (int64, error) {
	var version int64
	err := q.db.QueryRowContext(ctx, upsertLedger, userID, updatedAt).Scan(&version)
	return version, err
}

const getLedgerVersion = `SELECT version FROM ledgers WHERE user_id = ?`

// GetLedgerVersion returns sql.ErrNoRows when the user has no ledger.
func (q *Queries) GetLedgerVersion(ctx context.Context, userID string) (int64, error) {
	var version int64
	err := q.db.QueryRowContext(ctx, getLedgerVersion, userID).Scan(&version)
	return version, err
}

const listLedgerUsers = `SELECT user_id FROM ledgers ORDER BY user_id`

func (q *Queries) ListLedgerUsers(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listLedgerUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		out = append(out, uid)
	}
	return out, rows.Err()
}

// ClearCollections removes every entity row of the user.
func (q *Queries) ClearCollections(ctx context.Context, userID string) error {
	for _, stmt := range []string{
		`DELETE FROM incomes WHERE user_id = ?`,
		`DELETE FROM bills WHERE user_id = ?`,
		`DELETE FROM transactions WHERE user_id = ?`,
		`DELETE FROM accounts WHERE user_id = ?`,
	} {
		if _, err := q.db.ExecContext(ctx, stmt, userID); err != nil {
			return err
		}
	}
	return nil
}

const insertIncome = `
INSERT INTO incomes (user_id, position, id, title, amount_cents, frequency)
VALUES (?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertIncome(ctx context.Context, userID string, pos int, r IncomeRow) error {
	_, err := q.db.ExecContext(ctx, insertIncome, userID, pos, r.ID, r.Title, r.AmountCents, r.Frequency)
	return err
}

const listIncomes = `
SELECT id, title, amount_cents, frequency FROM incomes WHERE user_id = ? ORDER BY position
`

func (q *Queries) ListIncomes(ctx context.Context, userID string) ([]IncomeRow, error) {
	rows, err := q.db.QueryContext(ctx, listIncomes, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []IncomeRow
	for rows.Next() {
		var r IncomeRow
		if err := rows.Scan(&r.ID, &r.Title, &r.AmountCents, &r.Frequency); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const insertBill = `
INSERT INTO bills (user_id, position, id, title, amount_cents, due_date, category, is_paid, type)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertBill(ctx context.Context, userID string, pos int, r BillRow) error {
	_, err := q.db.ExecContext(ctx, insertBill, userID, pos, r.ID, r.Title, r.AmountCents, r.DueDate, r.Category, r.IsPaid, r.Type)
	return err
}

const listBills = `
SELECT id, title, amount_cents, due_date, category, is_paid, type FROM bills WHERE user_id = ? ORDER BY position
`

func (q *Queries) ListBills(ctx context.Context, userID string) ([]BillRow, error) {
	rows, err := q.db.QueryContext(ctx, listBills, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BillRow
	for rows.Next() {
		var r BillRow
		if err := rows.Scan(&r.ID, &r.Title, &r.AmountCents, &r.DueDate, &r.Category, &r.IsPaid, &r.Type); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const insertTransaction = `
INSERT INTO transactions (user_id, position, id, title, amount_cents, date, category, type, account_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertTransaction(ctx context.Context, userID string, pos int, r TransactionRow) error {
	_, err := q.db.ExecContext(ctx, insertTransaction, userID, pos, r.ID, r.Title, r.AmountCents, r.Date, r.Category, r.Type, r.AccountID)
	return err
}

const listTransactions = `
SELECT id, title, amount_cents, date, category, type, account_id FROM transactions WHERE user_id = ? ORDER BY position
`

func (q *Queries) ListTransactions(ctx context.Context, userID string) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TransactionRow
	for rows.Next() {
		var r TransactionRow
		if err := rows.Scan(&r.ID, &r.Title, &r.AmountCents, &r.Date, &r.Category, &r.Type, &r.AccountID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const insertAccount = `
INSERT INTO accounts (user_id, position, id, name, type, balance_cents, currency, source, stripe_account_id, last_synced)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertAccount(ctx context.Context, userID string, pos int, r AccountRow) error {
	_, err := q.db.ExecContext(ctx, insertAccount, userID, pos, r.ID, r.Name, r.Type, r.BalanceCents, r.Currency, r.Source, r.StripeAccountID, r.LastSynced)
	return err
}

const listAccounts = `
SELECT id, name, type, balance_cents, currency, source, stripe_account_id, last_synced FROM accounts WHERE user_id = ? ORDER BY position
`

func (q *Queries) ListAccounts(ctx context.Context, userID string) ([]AccountRow, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountRow
	for rows.Next() {
		var r AccountRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Type, &r.BalanceCents, &r.Currency, &r.Source, &r.StripeAccountID, &r.LastSynced); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
