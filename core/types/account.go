package types

import "math/big"

// Account holds the ledger state for a single address. Balance is the
// spendable quantity; GasDeposit is the amount earmarked in ledger custody to
// pay for sponsored operations and is excluded from transfers.
type Account struct {
	Nonce      uint64
	Balance    *big.Int
	GasDeposit *big.Int
}

// Clone returns a deep copy so callers can mutate the result without aliasing
// the stored account.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{Balance: big.NewInt(0), GasDeposit: big.NewInt(0)}
	}
	clone := &Account{Nonce: a.Nonce, Balance: big.NewInt(0), GasDeposit: big.NewInt(0)}
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	}
	if a.GasDeposit != nil {
		clone.GasDeposit = new(big.Int).Set(a.GasDeposit)
	}
	return clone
}

// EnsureDefaults backfills nil big.Int fields so arithmetic never trips over a
// partially decoded account.
func (a *Account) EnsureDefaults() *Account {
	if a == nil {
		return &Account{Balance: big.NewInt(0), GasDeposit: big.NewInt(0)}
	}
	if a.Balance == nil {
		a.Balance = big.NewInt(0)
	}
	if a.GasDeposit == nil {
		a.GasDeposit = big.NewInt(0)
	}
	return a
}
