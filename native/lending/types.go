package lending

import (
	"fmt"
	"math/big"
)

// LoanStatus represents the strictly linear loan lifecycle: a loan is Active
// from origination until the single full repayment, then Repaid. There is no
// partial repayment or liquidation path.
type LoanStatus uint8

const (
	LoanActive LoanStatus = iota + 1
	LoanRepaid
)

// Loan captures a collateralized position. The collateral is custodied by the
// ledger for the life of the loan; the principal is minted to the borrower at
// origination and burned together with accrued interest at repayment.
type Loan struct {
	ID               uint64
	Borrower         [20]byte
	CollateralAsset  string
	CollateralAmount *big.Int
	Principal        *big.Int
	InterestRateBps  uint64
	StartTime        int64
	Duration         uint64
	Status           LoanStatus
}

// Clone returns a deep copy of the loan so callers can safely mutate the copy
// without affecting the stored instance.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	clone := *l
	if l.CollateralAmount != nil {
		clone.CollateralAmount = new(big.Int).Set(l.CollateralAmount)
	} else {
		clone.CollateralAmount = big.NewInt(0)
	}
	if l.Principal != nil {
		clone.Principal = new(big.Int).Set(l.Principal)
	} else {
		clone.Principal = big.NewInt(0)
	}
	return &clone
}

// Valid reports whether the status value is within the supported range.
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanActive, LoanRepaid:
		return true
	default:
		return false
	}
}

// String renders the status for events and diagnostics.
func (s LoanStatus) String() string {
	switch s {
	case LoanActive:
		return "active"
	case LoanRepaid:
		return "repaid"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// SanitizeLoan validates the supplied loan and returns a clone with non-nil
// amount fields. The function does not mutate the original value.
func SanitizeLoan(l *Loan) (*Loan, error) {
	if l == nil {
		return nil, fmt.Errorf("nil loan")
	}
	clone := l.Clone()
	if clone.ID == 0 {
		return nil, fmt.Errorf("loan id must be non-zero")
	}
	if clone.CollateralAmount.Sign() <= 0 {
		return nil, fmt.Errorf("loan collateral must be positive")
	}
	if clone.Principal.Sign() <= 0 {
		return nil, fmt.Errorf("loan principal must be positive")
	}
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("invalid loan status: %d", clone.Status)
	}
	return clone, nil
}
