package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"hnxzledger/native/escrow"
)

type storedEscrow struct {
	ID        uint64
	Sender    [20]byte
	Recipient [20]byte
	Amount    *big.Int
	CreatedAt uint64
	Status    uint8
}

// EscrowPut persists the escrow record keyed by its monotonic id.
func (m *Manager) EscrowPut(esc *escrow.Escrow) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	sanitized, err := escrow.SanitizeEscrow(esc)
	if err != nil {
		return err
	}
	if sanitized.CreatedAt < 0 {
		return fmt.Errorf("state: escrow creation time cannot be negative")
	}
	encoded, err := rlp.EncodeToBytes(&storedEscrow{
		ID:        sanitized.ID,
		Sender:    sanitized.Sender,
		Recipient: sanitized.Recipient,
		Amount:    sanitized.Amount,
		CreatedAt: uint64(sanitized.CreatedAt),
		Status:    uint8(sanitized.Status),
	})
	if err != nil {
		return err
	}
	return m.db.Put(idKey(escrowPrefix, sanitized.ID), encoded)
}

// EscrowGet loads the escrow by id. The second return reports existence.
func (m *Manager) EscrowGet(id uint64) (*escrow.Escrow, bool, error) {
	if m == nil || m.db == nil {
		return nil, false, errNilManager
	}
	data, ok, err := m.get(idKey(escrowPrefix, id))
	if err != nil || !ok {
		return nil, false, err
	}
	stored := new(storedEscrow)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, false, err
	}
	esc := &escrow.Escrow{
		ID:        stored.ID,
		Sender:    stored.Sender,
		Recipient: stored.Recipient,
		Amount:    stored.Amount,
		CreatedAt: int64(stored.CreatedAt),
		Status:    escrow.EscrowStatus(stored.Status),
	}
	return esc, true, nil
}

// NextEscrowID allocates the next monotonic escrow id, starting at 1.
func (m *Manager) NextEscrowID() (uint64, error) {
	if m == nil || m.db == nil {
		return 0, errNilManager
	}
	last, err := m.getUint64(escrowNextIDKeyBytes)
	if err != nil {
		return 0, err
	}
	next := last + 1
	if err := m.putUint64(escrowNextIDKeyBytes, next); err != nil {
		return 0, err
	}
	return next, nil
}

// EscrowIDsAppend records the escrow id in the sender's secondary index.
func (m *Manager) EscrowIDsAppend(addr [20]byte, id uint64) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	return m.appendID(prefixedKey(escrowAccountPrefix, addr[:]), id)
}

// EscrowIDsBySender returns the ordered escrow ids created by the address.
func (m *Manager) EscrowIDsBySender(addr [20]byte) ([]uint64, error) {
	if m == nil || m.db == nil {
		return nil, errNilManager
	}
	return m.getIDList(prefixedKey(escrowAccountPrefix, addr[:]))
}
