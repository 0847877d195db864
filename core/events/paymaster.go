package events

import (
	"math/big"
	"strings"

	"hnxzledger/core/types"
)

const (
	// TypeSponsorshipSettled indicates a sponsored operation finished and the
	// paymaster reconciled actual cost against the user's gas deposit. A zero
	// charged amount with shortfall=true records an absorbed loss.
	TypeSponsorshipSettled = "paymaster.sponsorship.settled"
	// TypePoolDeposited indicates the paymaster topped up its prepaid pool.
	TypePoolDeposited = "paymaster.pool.deposited"
	// TypePoolWithdrawn indicates the paymaster drew down its prepaid pool.
	TypePoolWithdrawn = "paymaster.pool.withdrawn"
)

// SponsorshipSettled captures the post-execution settlement outcome for one
// sponsored operation.
type SponsorshipSettled struct {
	Context    string
	Account    [20]byte
	Sponsor    [20]byte
	ActualCost *big.Int
	Charged    *big.Int
	Shortfall  bool
}

// EventType satisfies the events.Event interface.
func (SponsorshipSettled) EventType() string { return TypeSponsorshipSettled }

// Event renders the settlement payload.
func (e SponsorshipSettled) Event() *types.Event {
	attrs := map[string]string{}
	if strings.TrimSpace(e.Context) != "" {
		attrs["context"] = strings.TrimSpace(e.Context)
	}
	addrAttr(attrs, "account", e.Account)
	addrAttr(attrs, "sponsor", e.Sponsor)
	amountAttr(attrs, "actualCost", e.ActualCost)
	amountAttr(attrs, "charged", e.Charged)
	if e.Shortfall {
		attrs["shortfall"] = "true"
	}
	return &types.Event{Type: TypeSponsorshipSettled, Attributes: attrs}
}

// PoolDeposited captures a paymaster pool top-up.
type PoolDeposited struct {
	Sponsor [20]byte
	Amount  *big.Int
	Pool    *big.Int
}

// EventType satisfies the events.Event interface.
func (PoolDeposited) EventType() string { return TypePoolDeposited }

// Event renders the pool deposit payload.
func (e PoolDeposited) Event() *types.Event {
	attrs := map[string]string{}
	addrAttr(attrs, "sponsor", e.Sponsor)
	amountAttr(attrs, "amount", e.Amount)
	amountAttr(attrs, "pool", e.Pool)
	return &types.Event{Type: TypePoolDeposited, Attributes: attrs}
}

// PoolWithdrawn captures a paymaster pool draw-down.
type PoolWithdrawn struct {
	Sponsor [20]byte
	Amount  *big.Int
	Pool    *big.Int
}

// EventType satisfies the events.Event interface.
func (PoolWithdrawn) EventType() string { return TypePoolWithdrawn }

// Event renders the pool withdrawal payload.
func (e PoolWithdrawn) Event() *types.Event {
	attrs := map[string]string{}
	addrAttr(attrs, "sponsor", e.Sponsor)
	amountAttr(attrs, "amount", e.Amount)
	amountAttr(attrs, "pool", e.Pool)
	return &types.Event{Type: TypePoolWithdrawn, Attributes: attrs}
}
