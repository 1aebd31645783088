package core

import "slices"

// Snapshot is a complete point-in-time copy of the four ledger collections.
type Snapshot struct {
	Incomes      []Income      `json:"incomes"`
	Bills        []Bill        `json:"bills"`
	Transactions []Transaction `json:"transactions"`
	Accounts     []Account     `json:"accounts"`
}

// Clone returns a deep copy; entities are plain values so slice copies suffice.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Incomes:      cloneOrEmpty(s.Incomes),
		Bills:        cloneOrEmpty(s.Bills),
		Transactions: cloneOrEmpty(s.Transactions),
		Accounts:     cloneOrEmpty(s.Accounts),
	}
}

// Len returns the number of entities across all collections.
func (s Snapshot) Len() int {
	return len(s.Incomes) + len(s.Bills) + len(s.Transactions) + len(s.Accounts)
}

func cloneOrEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}
