package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

var headers = map[string][]any{
	LedgersTab:      {"user_id", "updated_at"},
	IncomesTab:      {"user_id", "id", "title", "amount", "frequency"},
	BillsTab:        {"user_id", "id", "title", "amount", "due_date", "category", "is_paid", "type"},
	TransactionsTab: {"user_id", "id", "title", "amount", "date", "category", "type", "account_id"},
	AccountsTab:     {"user_id", "id", "name", "type", "balance", "currency", "source", "stripe_account_id", "last_synced"},
}

func headerRow(tab string) []any {
	return headers[tab]
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseAmount(tab string, row []string, idx int) (core.Money, error) {
	cents, err := core.ParseSignedDecimalToCents(cell(row, idx))
	if err != nil {
		return core.Money{}, fmt.Errorf("%s row %s: amount %q: %w", tab, cell(row, 1), cell(row, idx), err)
	}
	return core.Money{Cents: cents}, nil
}

func encodeIncomes(userID string, items []core.Income) [][]any {
	rows := make([][]any, len(items))
	for i, in := range items {
		rows[i] = []any{userID, in.ID, in.Title, in.Amount.String(), string(in.Frequency)}
	}
	return rows
}

func decodeIncomes(rows [][]string) ([]core.Income, error) {
	out := make([]core.Income, 0, len(rows))
	for _, r := range rows {
		amount, err := parseAmount(IncomesTab, r, 3)
		if err != nil {
			return nil, err
		}
		out = append(out, core.Income{ID: cell(r, 1), Title: cell(r, 2), Amount: amount, Frequency: core.Frequency(cell(r, 4))})
	}
	return out, nil
}

func encodeBills(userID string, items []core.Bill) [][]any {
	rows := make([][]any, len(items))
	for i, b := range items {
		rows[i] = []any{userID, b.ID, b.Title, b.Amount.String(), b.DueDate.String(), b.Category, strconv.FormatBool(b.IsPaid), string(b.Type)}
	}
	return rows
}

func decodeBills(rows [][]string) ([]core.Bill, error) {
	out := make([]core.Bill, 0, len(rows))
	for _, r := range rows {
		amount, err := parseAmount(BillsTab, r, 3)
		if err != nil {
			return nil, err
		}
		t := core.BillType(cell(r, 7))
		paid, _ := strconv.ParseBool(cell(r, 6))
		out = append(out, core.Bill{
			ID:       cell(r, 1),
			Title:    cell(r, 2),
			Amount:   amount,
			DueDate:  core.ParseDueDate(t, cell(r, 4)),
			Category: cell(r, 5),
			IsPaid:   paid,
			Type:     t,
		})
	}
	return out, nil
}

func encodeTransactions(userID string, items []core.Transaction) [][]any {
	rows := make([][]any, len(items))
	for i, t := range items {
		rows[i] = []any{userID, t.ID, t.Title, t.Amount.String(), t.Date, t.Category, string(t.Type), t.AccountID}
	}
	return rows
}

func decodeTransactions(rows [][]string) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		amount, err := parseAmount(TransactionsTab, r, 3)
		if err != nil {
			return nil, err
		}
		out = append(out, core.Transaction{
			ID:        cell(r, 1),
			Title:     cell(r, 2),
			Amount:    amount,
			Date:      cell(r, 4),
			Category:  cell(r, 5),
			Type:      core.TransactionType(cell(r, 6)),
			AccountID: cell(r, 7),
		})
	}
	return out, nil
}

func encodeAccounts(userID string, items []core.Account) [][]any {
	rows := make([][]any, len(items))
	for i, a := range items {
		synced := ""
		if !a.LastSynced.IsZero() {
			synced = a.LastSynced.UTC().Format(time.RFC3339Nano)
		}
		rows[i] = []any{userID, a.ID, a.Name, string(a.Type), a.Balance.String(), a.Currency, string(a.Source), a.StripeAccountID, synced}
	}
	return rows
}

func decodeAccounts(rows [][]string) ([]core.Account, error) {
	out := make([]core.Account, 0, len(rows))
	for _, r := range rows {
		balance, err := parseAmount(AccountsTab, r, 4)
		if err != nil {
			return nil, err
		}
		a := core.Account{
			ID:              cell(r, 1),
			Name:            cell(r, 2),
			Type:            core.AccountType(cell(r, 3)),
			Balance:         balance,
			Currency:        cell(r, 5),
			Source:          core.AccountSource(cell(r, 6)),
			StripeAccountID: cell(r, 7),
		}
		if ts, err := time.Parse(time.RFC3339Nano, cell(r, 8)); err == nil {
			a.LastSynced = ts
		}
		out = append(out, a)
	}
	return out, nil
}
