package http

import (
	"net/http"
	"strings"

	"fintrack/internal/aggregate"
	"fintrack/internal/apperr"
	"fintrack/internal/core"
	"fintrack/internal/entry"
	"fintrack/internal/log"
	"fintrack/internal/workspace"
)

const (
	entityIncome      = "income"
	entityBill        = "bill"
	entityTransaction = "transaction"
	entityAccount     = "account"
)

// pathID reads and sanitizes the {id} path value.
func pathID(r *http.Request) (string, error) {
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		return "", apperr.WithMessage(apperr.ErrInvalidInput, "Missing id")
	}
	return id, nil
}

func (s *Server) changed(r *http.Request, ws *workspace.Workspace, op, kind, id string, amount core.Money) {
	s.events.LogEntityChanged(r.Context(), ws.UserID, op, kind, id, amount.Cents)
}

func contains[T any](items []T, id string, idOf func(T) string) bool {
	for _, it := range items {
		if idOf(it) == id {
			return true
		}
	}
	return false
}

// Incomes

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	writeJSON(w, http.StatusOK, ws.Store.Incomes())
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	var form entry.IncomeForm
	if err := decodeJSON(r, &form); err != nil {
		respondWithError(w, r, err)
		return
	}
	inc, err := s.parser.Income(form, "")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	ws.Store.AddIncome(inc)
	s.changed(r, ws, log.OpCreate, entityIncome, inc.ID, inc.Amount)
	writeJSON(w, http.StatusCreated, inc)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var form entry.IncomeForm
	if err := decodeJSON(r, &form); err != nil {
		respondWithError(w, r, err)
		return
	}
	inc, err := s.parser.Income(form, id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if !contains(ws.Store.UpdateIncome(inc), id, func(i core.Income) string { return i.ID }) {
		respondWithError(w, r, apperr.ErrIncomeNotFound)
		return
	}
	s.changed(r, ws, log.OpUpdate, entityIncome, id, inc.Amount)
	writeJSON(w, http.StatusOK, inc)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if _, removed := ws.Store.DeleteIncome(id); !removed {
		respondWithError(w, r, apperr.ErrIncomeNotFound)
		return
	}
	s.changed(r, ws, log.OpDelete, entityIncome, id, core.Money{})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetIncomes(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	out := ws.Store.ResetIncomes()
	s.changed(r, ws, log.OpReset, entityIncome, "", core.Money{})
	writeJSON(w, http.StatusOK, out)
}

// Bills

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	writeJSON(w, http.StatusOK, ws.Store.Bills())
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	var form entry.BillForm
	if err := decodeJSON(r, &form); err != nil {
		respondWithError(w, r, err)
		return
	}
	bill, err := s.parser.Bill(form, "")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	ws.Store.AddBill(bill)
	s.changed(r, ws, log.OpCreate, entityBill, bill.ID, bill.Amount)
	writeJSON(w, http.StatusCreated, bill)
}

// handleUpdateBill edits a bill. Without isPaid in the body the stored paid
// status is kept.
func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var form entry.BillForm
	if err := decodeJSON(r, &form); err != nil {
		respondWithError(w, r, err)
		return
	}
	bill, err := s.parser.Bill(form, id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	found := false
	if form.IsPaid == nil {
		bill, found = ws.Store.EditBill(bill)
	} else {
		found = contains(ws.Store.UpdateBill(bill), id, func(b core.Bill) string { return b.ID })
	}
	if !found {
		respondWithError(w, r, apperr.ErrBillNotFound)
		return
	}
	s.changed(r, ws, log.OpUpdate, entityBill, id, bill.Amount)
	writeJSON(w, http.StatusOK, bill)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if _, removed := ws.Store.DeleteBill(id); !removed {
		respondWithError(w, r, apperr.ErrBillNotFound)
		return
	}
	s.changed(r, ws, log.OpDelete, entityBill, id, core.Money{})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetBills(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	out := ws.Store.ResetBills()
	s.changed(r, ws, log.OpReset, entityBill, "", core.Money{})
	writeJSON(w, http.StatusOK, out)
}

type setPaidRequest struct {
	IDs    []string `json:"ids"`
	IsPaid bool     `json:"isPaid"`
}

// handleSetBillsPaid marks every listed bill paid or unpaid. Unknown ids are ignored.
func (s *Server) handleSetBillsPaid(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	var req setPaidRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	if len(req.IDs) == 0 {
		respondWithError(w, r, apperr.WithMessage(apperr.ErrInvalidInput, "ids must not be empty"))
		return
	}
	out := ws.Store.SetBillsPaid(req.IDs, req.IsPaid)
	s.changed(r, ws, log.OpUpdate, entityBill, strings.Join(req.IDs, ","), core.Money{})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleToggleBill(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	for _, b := range ws.Store.ToggleBillPaid(id) {
		if b.ID == id {
			s.changed(r, ws, log.OpUpdate, entityBill, id, core.Money{})
			writeJSON(w, http.StatusOK, b)
			return
		}
	}
	respondWithError(w, r, apperr.ErrBillNotFound)
}

// Transactions

// handleListTransactions supports ?q= (title or category substring) and
// ?type=income|expense|all.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	q := r.URL.Query()
	txns := ws.Store.Transactions()
	if q.Has("q") || q.Has("type") {
		txns = aggregate.FilterTransactions(txns, sanitizeInput(q.Get("q")), aggregate.ParseTypeFilter(q.Get("type")))
	}
	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	var form entry.TransactionForm
	if err := decodeJSON(r, &form); err != nil {
		respondWithError(w, r, err)
		return
	}
	tx, err := s.parser.Transaction(form, "")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	ws.Store.AddTransaction(tx)
	s.changed(r, ws, log.OpCreate, entityTransaction, tx.ID, tx.Amount)
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var form entry.TransactionForm
	if err := decodeJSON(r, &form); err != nil {
		respondWithError(w, r, err)
		return
	}
	tx, err := s.parser.Transaction(form, id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if !contains(ws.Store.UpdateTransaction(tx), id, func(t core.Transaction) string { return t.ID }) {
		respondWithError(w, r, apperr.ErrTransactionNotFound)
		return
	}
	s.changed(r, ws, log.OpUpdate, entityTransaction, id, tx.Amount)
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if _, removed := ws.Store.DeleteTransaction(id); !removed {
		respondWithError(w, r, apperr.ErrTransactionNotFound)
		return
	}
	s.changed(r, ws, log.OpDelete, entityTransaction, id, core.Money{})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetTransactions(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	out := ws.Store.ResetTransactions()
	s.changed(r, ws, log.OpReset, entityTransaction, "", core.Money{})
	writeJSON(w, http.StatusOK, out)
}

// Accounts

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	writeJSON(w, http.StatusOK, ws.Store.Accounts())
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	acc, ok := ws.Store.Account(id)
	if !ok {
		respondWithError(w, r, apperr.ErrAccountNotFound)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	var form entry.AccountForm
	if err := decodeJSON(r, &form); err != nil {
		respondWithError(w, r, err)
		return
	}
	acc, err := s.parser.Account(form, "")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	ws.Store.AddAccount(acc)
	s.changed(r, ws, log.OpCreate, entityAccount, acc.ID, acc.Balance)
	writeJSON(w, http.StatusCreated, acc)
}

// handleUpdateAccount edits a manual account's fields. Bank-linked metadata
// (source, external id, last sync) is kept from the stored account.
func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	existing, ok := ws.Store.Account(id)
	if !ok {
		respondWithError(w, r, apperr.ErrAccountNotFound)
		return
	}
	var form entry.AccountForm
	if err := decodeJSON(r, &form); err != nil {
		respondWithError(w, r, err)
		return
	}
	acc, err := s.parser.Account(form, id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	acc.Source = existing.Source
	acc.StripeAccountID = existing.StripeAccountID
	acc.LastSynced = existing.LastSynced

	if !contains(ws.Store.UpdateAccount(acc), id, func(a core.Account) string { return a.ID }) {
		respondWithError(w, r, apperr.ErrAccountNotFound)
		return
	}
	s.changed(r, ws, log.OpUpdate, entityAccount, id, acc.Balance)
	writeJSON(w, http.StatusOK, acc)
}

// handleDeleteAccount removes the account only. Transactions keep their
// accountId since the reference is weak.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if _, removed := ws.Store.DeleteAccount(id); !removed {
		respondWithError(w, r, apperr.ErrAccountNotFound)
		return
	}
	s.changed(r, ws, log.OpDelete, entityAccount, id, core.Money{})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetAccounts(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	out := ws.Store.ResetAccounts()
	s.changed(r, ws, log.OpReset, entityAccount, "", core.Money{})
	writeJSON(w, http.StatusOK, out)
}

type accountTransactionsResponse struct {
	Account      core.Account       `json:"account"`
	Transactions []core.Transaction `json:"transactions"`
}

func (s *Server) handleAccountTransactions(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	acc, ok := ws.Store.Account(id)
	if !ok {
		respondWithError(w, r, apperr.ErrAccountNotFound)
		return
	}
	writeJSON(w, http.StatusOK, accountTransactionsResponse{
		Account:      acc,
		Transactions: aggregate.AccountTransactions(ws.Store.Transactions(), id),
	})
}

// Whole ledger

func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	ws.Store.ResetAll()
	s.changed(r, ws, log.OpReset, "ledger", "", core.Money{})
	writeJSON(w, http.StatusOK, ws.Store.Snapshot())
}

func (s *Server) handleBankConnect(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	if s.bank == nil {
		respondWithError(w, r, apperr.WithMessage(apperr.ErrUnavailable, "Bank connection is not configured"))
		return
	}
	res, err := s.bank.Import(r.Context(), ws.Store)
	if err != nil {
		respondWithError(w, r, apperr.Wrap(apperr.ErrBankSyncFailed, err))
		return
	}
	s.changed(r, ws, log.OpSync, entityAccount, "", core.Money{})
	writeJSON(w, http.StatusOK, res)
}
