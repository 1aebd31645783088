// Package export writes a ledger and its dashboard to an xlsx workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
)

// Sheet names, in workbook order.
const (
	SheetDashboard    = "Dashboard"
	SheetIncomes      = "Incomes"
	SheetBills        = "Bills"
	SheetTransactions = "Transactions"
	SheetAccounts     = "Accounts"
)

var (
	incomeHeaders      = []any{"ID", "Title", "Amount", "Frequency"}
	billHeaders        = []any{"ID", "Title", "Amount", "Due Date", "Category", "Paid", "Type"}
	transactionHeaders = []any{"ID", "Title", "Amount", "Date", "Category", "Type", "Account ID"}
	accountHeaders     = []any{"ID", "Name", "Type", "Balance", "Currency", "Source", "Stripe Account ID", "Last Synced"}
)

// Write renders snap and sum as a workbook onto w.
func Write(w io.Writer, snap core.Snapshot, sum aggregate.Summary) error {
	f, err := build(snap, sum)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile renders the workbook to path.
func WriteFile(path string, snap core.Snapshot, sum aggregate.Summary) error {
	f, err := build(snap, sum)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func build(snap core.Snapshot, sum aggregate.Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E0E0E0"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	sw := &sheetWriter{f: f, header: header}
	if err := f.SetSheetName("Sheet1", SheetDashboard); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename default sheet: %w", err)
	}
	sw.dashboard(sum)

	rows := make([][]any, 0, len(snap.Incomes))
	for _, i := range snap.Incomes {
		rows = append(rows, []any{i.ID, i.Title, i.Amount.Float64(), string(i.Frequency)})
	}
	sw.table(SheetIncomes, incomeHeaders, rows)

	rows = make([][]any, 0, len(snap.Bills))
	for _, b := range snap.Bills {
		rows = append(rows, []any{b.ID, b.Title, b.Amount.Float64(), b.DueDate.String(), b.Category, b.IsPaid, string(b.Type)})
	}
	sw.table(SheetBills, billHeaders, rows)

	rows = make([][]any, 0, len(snap.Transactions))
	for _, t := range snap.Transactions {
		rows = append(rows, []any{t.ID, t.Title, t.Amount.Float64(), t.Date, t.Category, string(t.Type), t.AccountID})
	}
	sw.table(SheetTransactions, transactionHeaders, rows)

	rows = make([][]any, 0, len(snap.Accounts))
	for _, a := range snap.Accounts {
		synced := ""
		if !a.LastSynced.IsZero() {
			synced = a.LastSynced.UTC().Format("2006-01-02T15:04:05Z")
		}
		rows = append(rows, []any{a.ID, a.Name, string(a.Type), a.Balance.Float64(), a.Currency, string(a.Source), a.StripeAccountID, synced})
	}
	sw.table(SheetAccounts, accountHeaders, rows)

	if sw.err != nil {
		f.Close()
		return nil, sw.err
	}
	f.SetActiveSheet(0)
	return f, nil
}

func (sw *sheetWriter) row(sheet string, n int, values []any) {
	if sw.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err == nil {
		err = sw.f.SetSheetRow(sheet, cell, &values)
	}
	if err != nil {
		sw.err = fmt.Errorf("sheet %s row %d: %w", sheet, n, err)
	}
}

func (sw *sheetWriter) headerRow(sheet string, n int, values []any) {
	sw.row(sheet, n, values)
	if sw.err != nil {
		return
	}
	if err := sw.f.SetRowStyle(sheet, n, n, sw.header); err != nil {
		sw.err = fmt.Errorf("style sheet %s row %d: %w", sheet, n, err)
	}
}

func (sw *sheetWriter) table(sheet string, headers []any, rows [][]any) {
	if sw.err != nil {
		return
	}
	if _, err := sw.f.NewSheet(sheet); err != nil {
		sw.err = fmt.Errorf("create sheet %s: %w", sheet, err)
		return
	}
	sw.headerRow(sheet, 1, headers)
	for i, r := range rows {
		sw.row(sheet, i+2, r)
	}
	if sw.err == nil {
		last, _ := excelize.ColumnNumberToName(len(headers))
		if err := sw.f.SetColWidth(sheet, "A", last, 18); err != nil {
			sw.err = fmt.Errorf("size sheet %s: %w", sheet, err)
		}
	}
}

// dashboard lays out the summary in stacked blocks: totals, category
// spending, monthly spending, income vs bills and upcoming bills.
func (sw *sheetWriter) dashboard(sum aggregate.Summary) {
	const sheet = SheetDashboard
	n := 1
	sw.row(sheet, n, []any{"As of", sum.AsOf.String()})
	n += 2

	sw.headerRow(sheet, n, []any{"Total", "Amount"})
	for _, r := range [][]any{
		{"Income", sum.TotalIncome.Float64()},
		{"Bills", sum.TotalBills.Float64()},
		{"Expenses", sum.TotalExpenses.Float64()},
		{"Remaining", sum.RemainingBalance.Float64()},
	} {
		n++
		sw.row(sheet, n, r)
	}
	n += 2

	sw.headerRow(sheet, n, []any{"Category", "Spent", "Color"})
	for _, s := range sum.SpendingByCategory {
		n++
		sw.row(sheet, n, []any{s.Name, s.Amount.Float64(), s.Color})
	}
	n += 2

	sw.headerRow(sheet, n, []any{"Month", "Spent"})
	for i, label := range sum.MonthlySpending.Labels {
		n++
		sw.row(sheet, n, []any{label, sum.MonthlySpending.Data[i].Float64()})
	}
	n += 2

	sw.headerRow(sheet, n, []any{"Income vs bills", "Amount", "Color"})
	for _, s := range sum.IncomeVsBills {
		n++
		sw.row(sheet, n, []any{s.Name, s.Amount.Float64(), s.Color})
	}
	n += 2

	sw.headerRow(sheet, n, []any{"Upcoming bill", "Amount", "Due on", "Days"})
	for _, u := range sum.UpcomingBills {
		n++
		sw.row(sheet, n, []any{u.Bill.Title, u.Bill.Amount.Float64(), u.DueOn.String(), u.DueDays})
	}

	if sw.err == nil {
		if err := sw.f.SetColWidth(sheet, "A", "D", 20); err != nil {
			sw.err = fmt.Errorf("size dashboard: %w", err)
		}
	}
}
