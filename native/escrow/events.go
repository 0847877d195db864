package escrow

import (
	"strconv"

	"hnxzledger/core/types"
	"hnxzledger/crypto"
)

const (
	EventTypeEscrowCreated   = "escrow.created"
	EventTypeEscrowReleased  = "escrow.released"
	EventTypeEscrowCancelled = "escrow.cancelled"
)

// NewCreatedEvent returns the canonical event payload for a newly created
// escrow.
func NewCreatedEvent(e *Escrow) *types.Event { return newEscrowEvent(EventTypeEscrowCreated, e) }

// NewReleasedEvent returns the canonical event payload for a release of the
// escrowed amount to the recipient.
func NewReleasedEvent(e *Escrow) *types.Event { return newEscrowEvent(EventTypeEscrowReleased, e) }

// NewCancelledEvent returns the canonical event payload for a cancellation
// returning the escrowed amount to the sender.
func NewCancelledEvent(e *Escrow) *types.Event { return newEscrowEvent(EventTypeEscrowCancelled, e) }

func newEscrowEvent(eventType string, e *Escrow) *types.Event {
	attrs := make(map[string]string)
	if e == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	sanitized, err := SanitizeEscrow(e)
	if err != nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["escrowId"] = strconv.FormatUint(sanitized.ID, 10)
	attrs["sender"] = crypto.MustNewAddress(crypto.HNXZPrefix, sanitized.Sender[:]).String()
	attrs["recipient"] = crypto.MustNewAddress(crypto.HNXZPrefix, sanitized.Recipient[:]).String()
	attrs["amount"] = sanitized.Amount.String()
	attrs["createdAt"] = strconv.FormatInt(sanitized.CreatedAt, 10)
	attrs["status"] = sanitized.Status.String()
	return &types.Event{Type: eventType, Attributes: attrs}
}
