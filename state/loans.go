package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"hnxzledger/native/lending"
)

type storedLoan struct {
	ID               uint64
	Borrower         [20]byte
	CollateralAsset  string
	CollateralAmount *big.Int
	Principal        *big.Int
	InterestRateBps  uint64
	StartTime        uint64
	Duration         uint64
	Status           uint8
}

// LoanPut persists the loan record keyed by its monotonic id.
func (m *Manager) LoanPut(loan *lending.Loan) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	sanitized, err := lending.SanitizeLoan(loan)
	if err != nil {
		return err
	}
	if sanitized.StartTime < 0 {
		return fmt.Errorf("state: loan start time cannot be negative")
	}
	encoded, err := rlp.EncodeToBytes(&storedLoan{
		ID:               sanitized.ID,
		Borrower:         sanitized.Borrower,
		CollateralAsset:  sanitized.CollateralAsset,
		CollateralAmount: sanitized.CollateralAmount,
		Principal:        sanitized.Principal,
		InterestRateBps:  sanitized.InterestRateBps,
		StartTime:        uint64(sanitized.StartTime),
		Duration:         sanitized.Duration,
		Status:           uint8(sanitized.Status),
	})
	if err != nil {
		return err
	}
	return m.db.Put(idKey(loanPrefix, sanitized.ID), encoded)
}

// LoanGet loads the loan by id. The second return reports existence.
func (m *Manager) LoanGet(id uint64) (*lending.Loan, bool, error) {
	if m == nil || m.db == nil {
		return nil, false, errNilManager
	}
	data, ok, err := m.get(idKey(loanPrefix, id))
	if err != nil || !ok {
		return nil, false, err
	}
	stored := new(storedLoan)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, false, err
	}
	loan := &lending.Loan{
		ID:               stored.ID,
		Borrower:         stored.Borrower,
		CollateralAsset:  stored.CollateralAsset,
		CollateralAmount: stored.CollateralAmount,
		Principal:        stored.Principal,
		InterestRateBps:  stored.InterestRateBps,
		StartTime:        int64(stored.StartTime),
		Duration:         stored.Duration,
		Status:           lending.LoanStatus(stored.Status),
	}
	return loan, true, nil
}

// NextLoanID allocates the next monotonic loan id, starting at 1. Id 0 is
// never valid.
func (m *Manager) NextLoanID() (uint64, error) {
	if m == nil || m.db == nil {
		return 0, errNilManager
	}
	last, err := m.getUint64(loanNextIDKeyBytes)
	if err != nil {
		return 0, err
	}
	next := last + 1
	if err := m.putUint64(loanNextIDKeyBytes, next); err != nil {
		return 0, err
	}
	return next, nil
}

// LoanIDsAppend records the loan id in the borrower's secondary index.
func (m *Manager) LoanIDsAppend(addr [20]byte, id uint64) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	return m.appendID(prefixedKey(loanAccountPrefix, addr[:]), id)
}

// LoanIDsByBorrower returns the ordered loan ids originated by the address.
func (m *Manager) LoanIDsByBorrower(addr [20]byte) ([]uint64, error) {
	if m == nil || m.db == nil {
		return nil, errNilManager
	}
	return m.getIDList(prefixedKey(loanAccountPrefix, addr[:]))
}
