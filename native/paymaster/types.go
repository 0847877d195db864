package paymaster

import (
	"math/big"
)

// ValidationCode encodes the pre-check outcome for a sponsored operation.
// Zero means approved; every rejection carries a distinct non-zero code so the
// execution boundary can skip unaffordable operations without unwinding state.
type ValidationCode uint8

const (
	CodeApproved ValidationCode = iota
	CodeModulePaused
	CodeInvalidOperation
	CodeSponsorNotAuthorized
	CodeInsufficientDeposit
	CodeCostOverflow
)

// String renders the code for events and diagnostics.
func (c ValidationCode) String() string {
	switch c {
	case CodeApproved:
		return "approved"
	case CodeModulePaused:
		return "module_paused"
	case CodeInvalidOperation:
		return "invalid_operation"
	case CodeSponsorNotAuthorized:
		return "sponsor_not_authorized"
	case CodeInsufficientDeposit:
		return "insufficient_deposit"
	case CodeCostOverflow:
		return "cost_overflow"
	default:
		return "unknown"
	}
}

// ValidationResult summarises the pre-flight checks for a sponsored
// operation. Rejections are normal, expected outcomes communicated as values;
// Validate never fails a caller just because a user cannot pay.
type ValidationResult struct {
	Code   ValidationCode
	Reason string
}

// Approved reports whether the operation may proceed.
func (r ValidationResult) Approved() bool { return r.Code == CodeApproved }

// Context is the opaque token handed to the execution boundary at validation
// and returned at settlement. Each context is consumed at most once so retry
// logic at the boundary can never double-charge.
type Context struct {
	Nonce           string
	Account         [20]byte
	MaxCost         *big.Int
	EstimatedUnits  uint64
	EstimatedCharge *big.Int
}

// Clone returns a deep copy of the context.
func (c *Context) Clone() *Context {
	if c == nil {
		return nil
	}
	clone := *c
	if c.MaxCost != nil {
		clone.MaxCost = new(big.Int).Set(c.MaxCost)
	}
	if c.EstimatedCharge != nil {
		clone.EstimatedCharge = new(big.Int).Set(c.EstimatedCharge)
	}
	return &clone
}

// Settlement reports the reconciliation outcome for one sponsored operation.
// Shortfall marks the absorbed-loss branch: the user's deposit could no longer
// cover the actual cost, nothing was charged, and the sponsor ate the cost.
type Settlement struct {
	Account    [20]byte
	ActualCost *big.Int
	Charged    *big.Int
	Shortfall  bool
}
