package state

import (
	"fmt"
	"math/big"
	"strings"
)

func collateralKey(symbol string, addr [20]byte) []byte {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	key := make([]byte, 0, len(collateralPrefix)+len(normalized)+1+20)
	key = append(key, collateralPrefix...)
	key = append(key, normalized...)
	key = append(key, '/')
	key = append(key, addr[:]...)
	return key
}

// CollateralBalance returns the holder's balance of the external collateral
// asset tracked under the symbol.
func (m *Manager) CollateralBalance(symbol string, addr [20]byte) (*big.Int, error) {
	if m == nil || m.db == nil {
		return nil, errNilManager
	}
	return m.getBig(collateralKey(symbol, addr))
}

// CollateralCredit increases the holder's collateral balance. Used when
// funding test accounts and when custodied collateral is released back at
// repayment.
func (m *Manager) CollateralCredit(symbol string, addr [20]byte, amount *big.Int) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("state: collateral credit must be positive")
	}
	balance, err := m.getBig(collateralKey(symbol, addr))
	if err != nil {
		return err
	}
	return m.putBig(collateralKey(symbol, addr), new(big.Int).Add(balance, amount))
}

// CollateralDebit decreases the holder's collateral balance, modelling the
// external asset transfer into ledger custody. The debit fails when the
// holder's balance cannot cover the amount, leaving state untouched.
func (m *Manager) CollateralDebit(symbol string, addr [20]byte, amount *big.Int) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("state: collateral debit must be positive")
	}
	balance, err := m.getBig(collateralKey(symbol, addr))
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("state: collateral balance below requested amount")
	}
	return m.putBig(collateralKey(symbol, addr), new(big.Int).Sub(balance, amount))
}

// CollateralApproved reports whether the asset is on the approved collateral
// list.
func (m *Manager) CollateralApproved(symbol string) (bool, error) {
	if m == nil || m.db == nil {
		return false, errNilManager
	}
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	return m.getFlag(prefixedStringKey(collateralApproved, normalized))
}

// SetCollateralApproved adds or removes the asset from the approved list.
// Existing loans keep their collateral regardless of later removals.
func (m *Manager) SetCollateralApproved(symbol string, approved bool) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return fmt.Errorf("state: collateral symbol required")
	}
	return m.putFlag(prefixedStringKey(collateralApproved, normalized), approved)
}
