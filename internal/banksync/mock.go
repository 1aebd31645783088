package banksync

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"fintrack/internal/core"
)

var (
	mockInstitutions = []string{"Chase", "Bank of America", "Wells Fargo", "Citi", "Capital One"}
	mockMerchants    = []string{"Grocery Store", "Coffee Shop", "Gas Station", "Online Shopping", "Restaurant", "Payroll Deposit", "Refund"}
)

// MockConnector simulates a bank connection with randomized accounts.
type MockConnector struct {
	mu       sync.Mutex
	rng      *rand.Rand
	now      func() time.Time
	accounts int
	maxTxns  int
}

// NewMockConnector returns a connector producing between one and accounts
// accounts, each with up to maxTxns transactions over the last 30 days.
func NewMockConnector(seed uint64, accounts, maxTxns int) *MockConnector {
	if accounts < 1 {
		accounts = 1
	}
	if maxTxns < 0 {
		maxTxns = 0
	}
	return &MockConnector{
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:      time.Now,
		accounts: accounts,
		maxTxns:  maxTxns,
	}
}

func (m *MockConnector) FetchAccounts(ctx context.Context) ([]LinkedAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 1 + m.rng.IntN(m.accounts)
	out := make([]LinkedAccount, 0, n)
	for i := range n {
		la := LinkedAccount{
			ExternalID:   fmt.Sprintf("fca_%08x", m.rng.Uint32()),
			Institution:  mockInstitutions[m.rng.IntN(len(mockInstitutions))],
			Last4:        fmt.Sprintf("%04d", m.rng.IntN(10000)),
			Type:         core.AccountChecking,
			Currency:     "usd",
			BalanceCents: int64(m.rng.IntN(500000)),
		}
		if i%2 == 1 {
			la.Type = core.AccountSavings
		}
		txns := 0
		if m.maxTxns > 0 {
			txns = 1 + m.rng.IntN(m.maxTxns)
		}
		for range txns {
			cents := int64(100 + m.rng.IntN(20000))
			if m.rng.IntN(4) != 0 {
				cents = -cents
			}
			la.Transactions = append(la.Transactions, LinkedTransaction{
				ExternalID:   fmt.Sprintf("fctxn_%08x", m.rng.Uint32()),
				Description:  mockMerchants[m.rng.IntN(len(mockMerchants))],
				AmountCents:  cents,
				TransactedAt: m.now().AddDate(0, 0, -m.rng.IntN(30)),
			})
		}
		out = append(out, la)
	}
	return out, nil
}
