package events

import (
	"math/big"
	"strings"

	"hnxzledger/core/types"
	"hnxzledger/crypto"
)

const (
	// TypeTransfer indicates spendable balance moved between two accounts.
	TypeTransfer = "ledger.transfer"
	// TypeUserCredited indicates an authorised provider minted units against an
	// off-ledger settlement reference.
	TypeUserCredited = "ledger.user_credited"
	// TypeGasDeposited indicates spendable balance moved into gas custody.
	TypeGasDeposited = "ledger.gas.deposited"
	// TypeGasWithdrawn indicates gas custody moved back to spendable balance.
	TypeGasWithdrawn = "ledger.gas.withdrawn"
	// TypeGasSettled indicates a sponsor charged a gas deposit and the charged
	// quantity was retired from supply.
	TypeGasSettled = "ledger.gas.settled"
)

func addrAttr(attrs map[string]string, key string, addr [20]byte) {
	if addr == ([20]byte{}) {
		return
	}
	attrs[key] = crypto.MustNewAddress(crypto.HNXZPrefix, addr[:]).String()
}

func amountAttr(attrs map[string]string, key string, amount *big.Int) {
	if amount == nil {
		return
	}
	attrs[key] = new(big.Int).Set(amount).String()
}

// Transferred captures a spendable balance movement.
type Transferred struct {
	From   [20]byte
	To     [20]byte
	Amount *big.Int
}

// EventType satisfies the events.Event interface.
func (Transferred) EventType() string { return TypeTransfer }

// Event renders the transfer payload.
func (e Transferred) Event() *types.Event {
	attrs := map[string]string{}
	addrAttr(attrs, "from", e.From)
	addrAttr(attrs, "to", e.To)
	amountAttr(attrs, "amount", e.Amount)
	return &types.Event{Type: TypeTransfer, Attributes: attrs}
}

// UserCredited captures a provider-backed mint. Reference is the free-text
// pointer to the off-ledger settlement that already occurred.
type UserCredited struct {
	Provider  [20]byte
	Account   [20]byte
	Amount    *big.Int
	Reference string
}

// EventType satisfies the events.Event interface.
func (UserCredited) EventType() string { return TypeUserCredited }

// Event renders the credit payload.
func (e UserCredited) Event() *types.Event {
	attrs := map[string]string{}
	addrAttr(attrs, "provider", e.Provider)
	addrAttr(attrs, "account", e.Account)
	amountAttr(attrs, "amount", e.Amount)
	if strings.TrimSpace(e.Reference) != "" {
		attrs["reference"] = strings.TrimSpace(e.Reference)
	}
	return &types.Event{Type: TypeUserCredited, Attributes: attrs}
}

// GasDeposited captures a spendable-to-custody move for gas sponsorship.
type GasDeposited struct {
	Account [20]byte
	Amount  *big.Int
	Deposit *big.Int
}

// EventType satisfies the events.Event interface.
func (GasDeposited) EventType() string { return TypeGasDeposited }

// Event renders the deposit payload.
func (e GasDeposited) Event() *types.Event {
	attrs := map[string]string{}
	addrAttr(attrs, "account", e.Account)
	amountAttr(attrs, "amount", e.Amount)
	amountAttr(attrs, "deposit", e.Deposit)
	return &types.Event{Type: TypeGasDeposited, Attributes: attrs}
}

// GasWithdrawn captures a custody-to-spendable move.
type GasWithdrawn struct {
	Account [20]byte
	Amount  *big.Int
	Deposit *big.Int
}

// EventType satisfies the events.Event interface.
func (GasWithdrawn) EventType() string { return TypeGasWithdrawn }

// Event renders the withdrawal payload.
func (e GasWithdrawn) Event() *types.Event {
	attrs := map[string]string{}
	addrAttr(attrs, "account", e.Account)
	amountAttr(attrs, "amount", e.Amount)
	amountAttr(attrs, "deposit", e.Deposit)
	return &types.Event{Type: TypeGasWithdrawn, Attributes: attrs}
}

// GasSettled captures a sponsor charging a user's gas deposit. Charged equals
// gasUnits multiplied by the configured unit price and was burned from supply.
type GasSettled struct {
	Account  [20]byte
	Sponsor  [20]byte
	GasUnits uint64
	Charged  *big.Int
}

// EventType satisfies the events.Event interface.
func (GasSettled) EventType() string { return TypeGasSettled }

// Event renders the settlement payload.
func (e GasSettled) Event() *types.Event {
	attrs := map[string]string{
		"gasUnits": new(big.Int).SetUint64(e.GasUnits).String(),
	}
	addrAttr(attrs, "account", e.Account)
	addrAttr(attrs, "sponsor", e.Sponsor)
	amountAttr(attrs, "charged", e.Charged)
	return &types.Event{Type: TypeGasSettled, Attributes: attrs}
}
