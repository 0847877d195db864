package escrow

import (
	"fmt"
	"math/big"
)

// EscrowStatus represents the lifecycle states of a ledger escrow. The
// lifecycle is strictly linear: Pending transitions exactly once to either
// Released or Cancelled, both terminal.
type EscrowStatus uint8

const (
	EscrowPending EscrowStatus = iota + 1
	EscrowReleased
	EscrowCancelled
)

// Escrow captures the metadata and runtime status of a single escrow. The
// escrowed amount is held in ledger custody from creation until the sender
// triggers a terminal transition.
type Escrow struct {
	ID        uint64
	Sender    [20]byte
	Recipient [20]byte
	Amount    *big.Int
	CreatedAt int64
	Status    EscrowStatus
}

// Clone returns a deep copy of the escrow so callers can safely mutate the
// copy without affecting the stored instance.
func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Amount != nil {
		clone.Amount = new(big.Int).Set(e.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// Valid reports whether the status value is within the supported range.
func (s EscrowStatus) Valid() bool {
	switch s {
	case EscrowPending, EscrowReleased, EscrowCancelled:
		return true
	default:
		return false
	}
}

// String renders the status for events and diagnostics.
func (s EscrowStatus) String() string {
	switch s {
	case EscrowPending:
		return "pending"
	case EscrowReleased:
		return "released"
	case EscrowCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// SanitizeEscrow validates the supplied escrow definition and returns a clone
// with a non-nil amount. The function does not mutate the original value.
func SanitizeEscrow(e *Escrow) (*Escrow, error) {
	if e == nil {
		return nil, fmt.Errorf("nil escrow")
	}
	clone := e.Clone()
	if clone.ID == 0 {
		return nil, fmt.Errorf("escrow id must be non-zero")
	}
	if clone.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("escrow amount must be positive")
	}
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("invalid escrow status: %d", clone.Status)
	}
	return clone, nil
}
