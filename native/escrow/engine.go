package escrow

import (
	"errors"
	"math/big"
	"time"

	"hnxzledger/core/events"
	"hnxzledger/core/types"
	nativecommon "hnxzledger/native/common"
)

var (
	errNilState = errors.New("escrow engine: state not configured")

	// ErrEscrowNotFound is returned when the referenced escrow id was never
	// assigned.
	ErrEscrowNotFound = errors.New("escrow engine: escrow not found")
	// ErrEscrowAlreadyProcessed is returned when a terminal transition is
	// attempted on an escrow that already left the Pending state.
	ErrEscrowAlreadyProcessed = errors.New("escrow engine: escrow already processed")
	// ErrNotSender is returned when a caller other than the escrow sender
	// attempts a transition.
	ErrNotSender = errors.New("escrow engine: caller is not the escrow sender")
	// ErrInvalidAmount is returned for zero or negative escrow amounts.
	ErrInvalidAmount = errors.New("escrow engine: amount must be positive")
	// ErrInvalidRecipient is returned for a zero recipient or self-escrow.
	ErrInvalidRecipient = errors.New("escrow engine: invalid recipient")
	// ErrInsufficientBalance is returned when the sender cannot cover the
	// escrowed amount from spendable balance.
	ErrInsufficientBalance = errors.New("escrow engine: insufficient balance")
)

type engineState interface {
	EscrowPut(*Escrow) error
	EscrowGet(id uint64) (*Escrow, bool, error)
	NextEscrowID() (uint64, error)
	EscrowIDsAppend(addr [20]byte, id uint64) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

type escrowEvent struct {
	evt *types.Event
}

func (e escrowEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e escrowEvent) Event() *types.Event { return e.evt }

// Engine wires the escrow business logic with external state and event
// emitters. Escrowed amounts leave the sender's spendable balance at creation
// and live in ledger custody until the sender triggers release or cancel.
type Engine struct {
	state   engineState
	emitter events.Emitter
	pauses  nativecommon.PauseView
	nowFn   func() int64
}

// NewEngine creates an escrow engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPauses wires the pause switches consulted before mutating operations.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(escrowEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) loadEscrow(id uint64) (*Escrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	esc, ok, err := e.state.EscrowGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEscrowNotFound
	}
	return esc, nil
}

// Create debits the sender's spendable balance into ledger custody and
// persists a Pending escrow. The assigned id is strictly increasing from 1.
func (e *Engine) Create(sender, recipient [20]byte, amount *big.Int) (*Escrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleEscrow); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if recipient == ([20]byte{}) || recipient == sender {
		return nil, ErrInvalidRecipient
	}
	account, err := e.state.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	account = account.EnsureDefaults()
	if account.Balance.Cmp(amount) < 0 {
		return nil, ErrInsufficientBalance
	}
	id, err := e.state.NextEscrowID()
	if err != nil {
		return nil, err
	}
	account.Balance = new(big.Int).Sub(account.Balance, amount)
	if err := e.state.PutAccount(sender, account); err != nil {
		return nil, err
	}
	esc := &Escrow{
		ID:        id,
		Sender:    sender,
		Recipient: recipient,
		Amount:    new(big.Int).Set(amount),
		CreatedAt: e.now(),
		Status:    EscrowPending,
	}
	if err := e.state.EscrowPut(esc); err != nil {
		return nil, err
	}
	if err := e.state.EscrowIDsAppend(sender, id); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(esc))
	return esc.Clone(), nil
}

// Release settles the escrow in favour of the recipient. Only the sender may
// trigger the transition and only while the escrow is still Pending. The
// terminal status is persisted before the recipient is credited so a
// reentrant call observes already-finalised state.
func (e *Engine) Release(id uint64, caller [20]byte) error {
	return e.finalize(id, caller, EscrowReleased)
}

// Cancel returns the escrowed amount to the sender. Same authorisation and
// exclusivity rules as Release.
func (e *Engine) Cancel(id uint64, caller [20]byte) error {
	return e.finalize(id, caller, EscrowCancelled)
}

func (e *Engine) finalize(id uint64, caller [20]byte, status EscrowStatus) error {
	esc, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	if esc.Status != EscrowPending {
		return ErrEscrowAlreadyProcessed
	}
	if caller != esc.Sender {
		return ErrNotSender
	}
	recipient := esc.Sender
	if status == EscrowReleased {
		recipient = esc.Recipient
	}
	esc.Status = status
	if err := e.state.EscrowPut(esc); err != nil {
		return err
	}
	account, err := e.state.GetAccount(recipient)
	if err != nil {
		return err
	}
	account = account.EnsureDefaults()
	account.Balance = new(big.Int).Add(account.Balance, esc.Amount)
	if err := e.state.PutAccount(recipient, account); err != nil {
		return err
	}
	if status == EscrowReleased {
		e.emit(NewReleasedEvent(esc))
	} else {
		e.emit(NewCancelledEvent(esc))
	}
	return nil
}

// Get returns a copy of the stored escrow.
func (e *Engine) Get(id uint64) (*Escrow, error) {
	esc, err := e.loadEscrow(id)
	if err != nil {
		return nil, err
	}
	return esc.Clone(), nil
}
