package ledger

import "fintrack/internal/core"

// DefaultAccounts returns the built-in seed accounts. Each call returns a fresh slice.
func DefaultAccounts() []core.Account {
	return []core.Account{
		{ID: "1", Name: "Main Checking", Type: core.AccountChecking, Balance: core.NewMoney(2450, 0), Currency: "USD", Source: core.SourceManual},
		{ID: "2", Name: "Savings", Type: core.AccountSavings, Balance: core.NewMoney(12000, 0), Currency: "USD", Source: core.SourceManual},
		{ID: "3", Name: "Credit Card", Type: core.AccountCredit, Balance: core.NewMoney(-450, 0), Currency: "USD", Source: core.SourceManual},
	}
}

// DefaultSnapshot is the state of a fresh ledger: seed accounts, nothing else.
func DefaultSnapshot() core.Snapshot {
	return core.Snapshot{
		Incomes:      []core.Income{},
		Bills:        []core.Bill{},
		Transactions: []core.Transaction{},
		Accounts:     DefaultAccounts(),
	}
}
