package events

import (
	"math/big"
	"strconv"

	"hnxzledger/core/types"
)

const (
	// TypeLoanOpened indicates collateral was custodied and principal minted.
	TypeLoanOpened = "lending.loan.opened"
	// TypeLoanRepaid indicates principal plus interest was burned and the
	// collateral released back to the borrower.
	TypeLoanRepaid = "lending.loan.repaid"
)

// LoanOpened captures a newly originated loan.
type LoanOpened struct {
	ID               uint64
	Borrower         [20]byte
	CollateralAsset  string
	CollateralAmount *big.Int
	Principal        *big.Int
	InterestRateBps  uint64
	StartTime        int64
	Duration         uint64
}

// EventType satisfies the events.Event interface.
func (LoanOpened) EventType() string { return TypeLoanOpened }

// Event renders the origination payload.
func (e LoanOpened) Event() *types.Event {
	attrs := map[string]string{
		"loanId":          strconv.FormatUint(e.ID, 10),
		"collateralAsset": e.CollateralAsset,
		"interestRateBps": strconv.FormatUint(e.InterestRateBps, 10),
		"startTime":       strconv.FormatInt(e.StartTime, 10),
		"duration":        strconv.FormatUint(e.Duration, 10),
	}
	addrAttr(attrs, "borrower", e.Borrower)
	amountAttr(attrs, "collateralAmount", e.CollateralAmount)
	amountAttr(attrs, "principal", e.Principal)
	return &types.Event{Type: TypeLoanOpened, Attributes: attrs}
}

// LoanRepaid captures a loan settling. Owed is the exact burned quantity,
// Interest the portion above principal.
type LoanRepaid struct {
	ID       uint64
	Borrower [20]byte
	Owed     *big.Int
	Interest *big.Int
}

// EventType satisfies the events.Event interface.
func (LoanRepaid) EventType() string { return TypeLoanRepaid }

// Event renders the repayment payload.
func (e LoanRepaid) Event() *types.Event {
	attrs := map[string]string{
		"loanId": strconv.FormatUint(e.ID, 10),
	}
	addrAttr(attrs, "borrower", e.Borrower)
	amountAttr(attrs, "owed", e.Owed)
	amountAttr(attrs, "interest", e.Interest)
	return &types.Event{Type: TypeLoanRepaid, Attributes: attrs}
}
