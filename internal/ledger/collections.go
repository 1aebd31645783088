package ledger

import (
	"slices"

	"fintrack/internal/core"
)

// AddIncome appends in and returns the resulting collection.
func (s *Store) AddIncome(in core.Income) (out []core.Income) {
	s.mutate(func() bool {
		s.incomes = append(s.incomes, in)
		out = slices.Clone(s.incomes)
		return true
	})
	return out
}

// UpdateIncome replaces the income with the same id; absent ids are a no-op.
func (s *Store) UpdateIncome(in core.Income) (out []core.Income) {
	s.mutate(func() bool {
		changed := replaceByID(s.incomes, in, incomeID)
		out = slices.Clone(s.incomes)
		return changed
	})
	return out
}

// DeleteIncome removes the income with id; absent ids are a no-op and report
// removed == false.
func (s *Store) DeleteIncome(id string) (out []core.Income, removed bool) {
	s.mutate(func() bool {
		s.incomes, removed = deleteByID(s.incomes, id, incomeID)
		out = slices.Clone(s.incomes)
		return removed
	})
	return out, removed
}

// SetIncomes adopts items as the whole income collection.
func (s *Store) SetIncomes(items []core.Income) (out []core.Income) {
	s.mutate(func() bool {
		s.incomes = append([]core.Income{}, items...)
		out = slices.Clone(s.incomes)
		return true
	})
	return out
}

// ResetIncomes empties the income collection.
func (s *Store) ResetIncomes() []core.Income {
	return s.SetIncomes(nil)
}

// AddBill appends b and returns the resulting collection.
func (s *Store) AddBill(b core.Bill) (out []core.Bill) {
	s.mutate(func() bool {
		s.bills = append(s.bills, b)
		out = slices.Clone(s.bills)
		return true
	})
	return out
}

// UpdateBill replaces the bill with the same id; absent ids are a no-op.
func (s *Store) UpdateBill(b core.Bill) (out []core.Bill) {
	s.mutate(func() bool {
		changed := replaceByID(s.bills, b, billID)
		out = slices.Clone(s.bills)
		return changed
	})
	return out
}

// EditBill replaces the editable fields (title, amount, due date, category,
// type) of the bill with b's id and keeps its paid status. It returns the
// stored bill and whether it was found.
func (s *Store) EditBill(b core.Bill) (out core.Bill, found bool) {
	s.mutate(func() bool {
		i := slices.IndexFunc(s.bills, func(x core.Bill) bool { return x.ID == b.ID })
		if i < 0 {
			return false
		}
		b.IsPaid = s.bills[i].IsPaid
		s.bills[i] = b
		out, found = b, true
		return true
	})
	return out, found
}

// DeleteBill removes the bill with id; absent ids are a no-op.
func (s *Store) DeleteBill(id string) (out []core.Bill, removed bool) {
	s.mutate(func() bool {
		s.bills, removed = deleteByID(s.bills, id, billID)
		out = slices.Clone(s.bills)
		return removed
	})
	return out, removed
}

// SetBillsPaid sets isPaid on every bill whose id is in ids. Unknown ids are ignored.
func (s *Store) SetBillsPaid(ids []string, isPaid bool) (out []core.Bill) {
	s.mutate(func() bool {
		changed := false
		for i := range s.bills {
			if slices.Contains(ids, s.bills[i].ID) && s.bills[i].IsPaid != isPaid {
				s.bills[i].IsPaid = isPaid
				changed = true
			}
		}
		out = slices.Clone(s.bills)
		return changed
	})
	return out
}

// ToggleBillPaid flips isPaid on the bill with id; absent ids are a no-op.
func (s *Store) ToggleBillPaid(id string) (out []core.Bill) {
	s.mutate(func() bool {
		i := slices.IndexFunc(s.bills, func(b core.Bill) bool { return b.ID == id })
		if i >= 0 {
			s.bills[i].IsPaid = !s.bills[i].IsPaid
		}
		out = slices.Clone(s.bills)
		return i >= 0
	})
	return out
}

// SetBills adopts items as the whole bill collection.
func (s *Store) SetBills(items []core.Bill) (out []core.Bill) {
	s.mutate(func() bool {
		s.bills = append([]core.Bill{}, items...)
		out = slices.Clone(s.bills)
		return true
	})
	return out
}

// ResetBills empties the bill collection.
func (s *Store) ResetBills() []core.Bill {
	return s.SetBills(nil)
}

// AddTransaction appends t and returns the resulting collection.
func (s *Store) AddTransaction(t core.Transaction) (out []core.Transaction) {
	s.mutate(func() bool {
		s.transactions = append(s.transactions, t)
		out = slices.Clone(s.transactions)
		return true
	})
	return out
}

// UpdateTransaction replaces the transaction with the same id; absent ids are a no-op.
func (s *Store) UpdateTransaction(t core.Transaction) (out []core.Transaction) {
	s.mutate(func() bool {
		changed := replaceByID(s.transactions, t, transactionID)
		out = slices.Clone(s.transactions)
		return changed
	})
	return out
}

// DeleteTransaction removes the transaction with id; absent ids are a no-op.
func (s *Store) DeleteTransaction(id string) (out []core.Transaction, removed bool) {
	s.mutate(func() bool {
		s.transactions, removed = deleteByID(s.transactions, id, transactionID)
		out = slices.Clone(s.transactions)
		return removed
	})
	return out, removed
}

// SetTransactions adopts items as the whole transaction collection.
func (s *Store) SetTransactions(items []core.Transaction) (out []core.Transaction) {
	s.mutate(func() bool {
		s.transactions = append([]core.Transaction{}, items...)
		out = slices.Clone(s.transactions)
		return true
	})
	return out
}

// ResetTransactions empties the transaction collection.
func (s *Store) ResetTransactions() []core.Transaction {
	return s.SetTransactions(nil)
}

// AddAccount appends a and returns the resulting collection.
func (s *Store) AddAccount(a core.Account) (out []core.Account) {
	s.mutate(func() bool {
		s.accounts = append(s.accounts, a)
		out = slices.Clone(s.accounts)
		return true
	})
	return out
}

// UpdateAccount replaces the account with the same id; absent ids are a no-op.
func (s *Store) UpdateAccount(a core.Account) (out []core.Account) {
	s.mutate(func() bool {
		changed := replaceByID(s.accounts, a, accountID)
		out = slices.Clone(s.accounts)
		return changed
	})
	return out
}

// DeleteAccount removes the account with id. Transactions referencing it are kept.
func (s *Store) DeleteAccount(id string) (out []core.Account, removed bool) {
	s.mutate(func() bool {
		s.accounts, removed = deleteByID(s.accounts, id, accountID)
		out = slices.Clone(s.accounts)
		return removed
	})
	return out, removed
}

// SetAccounts adopts items as the whole account collection.
func (s *Store) SetAccounts(items []core.Account) (out []core.Account) {
	s.mutate(func() bool {
		s.accounts = append([]core.Account{}, items...)
		out = slices.Clone(s.accounts)
		return true
	})
	return out
}

// ResetAccounts restores the seed accounts.
func (s *Store) ResetAccounts() []core.Account {
	return s.SetAccounts(DefaultAccounts())
}

// ApplyBatch appends accounts and transactions in one mutation, e.g. the
// result of a bank connection.
func (s *Store) ApplyBatch(accounts []core.Account, transactions []core.Transaction) {
	if len(accounts) == 0 && len(transactions) == 0 {
		return
	}
	s.mutate(func() bool {
		s.accounts = append(s.accounts, accounts...)
		s.transactions = append(s.transactions, transactions...)
		return true
	})
}
