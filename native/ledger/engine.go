package ledger

import (
	"errors"
	"math/big"

	"hnxzledger/core/events"
	"hnxzledger/core/types"
	nativecommon "hnxzledger/native/common"
)

// Capability roles consulted on gated operations.
const (
	// RoleSponsor marks identities permitted to settle gas charges against
	// user deposits.
	RoleSponsor = "sponsor"
	// RoleCreditProvider marks identities permitted to mint against off-ledger
	// settlements.
	RoleCreditProvider = "credit-provider"
)

var (
	errNilState = errors.New("ledger engine: state not configured")

	// ErrInvalidAmount is returned for zero or negative quantities.
	ErrInvalidAmount = errors.New("ledger engine: amount must be positive")
	// ErrInvalidRecipient is returned for transfers to the zero address or to
	// the sender itself.
	ErrInvalidRecipient = errors.New("ledger engine: invalid recipient")
	// ErrInsufficientBalance is returned when spendable balance cannot cover
	// the requested debit.
	ErrInsufficientBalance = errors.New("ledger engine: insufficient balance")
	// ErrInsufficientDeposit is returned when a gas deposit cannot cover the
	// requested withdrawal or settlement. The deposit is left unchanged.
	ErrInsufficientDeposit = errors.New("ledger engine: insufficient gas deposit")
	// ErrNotAuthorized is returned when the caller lacks the capability a
	// gated operation requires.
	ErrNotAuthorized = errors.New("ledger engine: not authorized")
)

type engineState interface {
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
	AdjustTotalSupply(delta *big.Int) (*big.Int, error)
	HasRole(role string, addr [20]byte) (bool, error)
	GasUnitPrice() (*big.Int, error)
}

// Engine is the authoritative accounting core: spendable balances, gas
// deposits and total supply. Every mint and burn flows through here so the
// conservation law (supply equals balances plus deposits plus pending escrow
// custody) holds across all operations.
type Engine struct {
	state   engineState
	emitter events.Emitter
	pauses  nativecommon.PauseView
}

// NewEngine constructs a ledger engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPauses wires the pause switches consulted before mutating operations.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) loadAccount(addr [20]byte) (*types.Account, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	account, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return account.EnsureDefaults(), nil
}

// Transfer moves spendable balance between two accounts.
func (e *Engine) Transfer(from, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleLedger); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if to == ([20]byte{}) || to == from {
		return ErrInvalidRecipient
	}
	fromAcc, err := e.loadAccount(from)
	if err != nil {
		return err
	}
	if fromAcc.Balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toAcc, err := e.loadAccount(to)
	if err != nil {
		return err
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	if err := e.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	if err := e.state.PutAccount(to, toAcc); err != nil {
		return err
	}
	e.emit(events.Transferred{From: from, To: to, Amount: amount})
	return nil
}

// CreditUser mints units to the account against an off-ledger settlement that
// the authorised provider attests already occurred. Trust is delegated
// entirely to the provider capability.
func (e *Engine) CreditUser(provider, account [20]byte, amount *big.Int, reference string) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleLedger); err != nil {
		return err
	}
	ok, err := e.state.HasRole(RoleCreditProvider, provider)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := e.mint(account, amount); err != nil {
		return err
	}
	e.emit(events.UserCredited{Provider: provider, Account: account, Amount: amount, Reference: reference})
	return nil
}

// DepositForGas moves spendable balance into the account's gas custody.
func (e *Engine) DepositForGas(account [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleLedger); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	acc, err := e.loadAccount(account)
	if err != nil {
		return err
	}
	if acc.Balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	acc.Balance = new(big.Int).Sub(acc.Balance, amount)
	acc.GasDeposit = new(big.Int).Add(acc.GasDeposit, amount)
	if err := e.state.PutAccount(account, acc); err != nil {
		return err
	}
	e.emit(events.GasDeposited{Account: account, Amount: amount, Deposit: acc.GasDeposit})
	return nil
}

// WithdrawGasDeposit moves gas custody back to spendable balance. The
// operation is an exit path and deliberately skips the pause guard.
func (e *Engine) WithdrawGasDeposit(account [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	acc, err := e.loadAccount(account)
	if err != nil {
		return err
	}
	if acc.GasDeposit.Cmp(amount) < 0 {
		return ErrInsufficientDeposit
	}
	acc.GasDeposit = new(big.Int).Sub(acc.GasDeposit, amount)
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	if err := e.state.PutAccount(account, acc); err != nil {
		return err
	}
	e.emit(events.GasWithdrawn{Account: account, Amount: amount, Deposit: acc.GasDeposit})
	return nil
}

// SettleGasCharge charges gasUnits at the configured unit price against the
// account's gas deposit and retires the charged quantity from supply. Only
// authorised sponsors may settle. When the deposit cannot cover the charge the
// call fails with ErrInsufficientDeposit and the deposit is left untouched;
// the paymaster treats that failure as a soft shortfall because the sponsored
// operation has already executed and cannot be unwound.
func (e *Engine) SettleGasCharge(sponsor, account [20]byte, gasUnits uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	ok, err := e.state.HasRole(RoleSponsor, sponsor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAuthorized
	}
	required, err := e.requiredCharge(gasUnits)
	if err != nil {
		return nil, err
	}
	acc, err := e.loadAccount(account)
	if err != nil {
		return nil, err
	}
	if acc.GasDeposit.Cmp(required) < 0 {
		return nil, ErrInsufficientDeposit
	}
	acc.GasDeposit = new(big.Int).Sub(acc.GasDeposit, required)
	if err := e.state.PutAccount(account, acc); err != nil {
		return nil, err
	}
	if required.Sign() > 0 {
		if _, err := e.state.AdjustTotalSupply(new(big.Int).Neg(required)); err != nil {
			return nil, err
		}
	}
	e.emit(events.GasSettled{Account: account, Sponsor: sponsor, GasUnits: gasUnits, Charged: required})
	return required, nil
}

// CanPayGas reports whether the account's gas deposit covers gasUnits at the
// configured unit price. Read-only.
func (e *Engine) CanPayGas(account [20]byte, gasUnits uint64) (bool, error) {
	required, err := e.requiredCharge(gasUnits)
	if err != nil {
		return false, err
	}
	acc, err := e.loadAccount(account)
	if err != nil {
		return false, err
	}
	return acc.GasDeposit.Cmp(required) >= 0, nil
}

// BalanceOf returns the spendable balance for the account.
func (e *Engine) BalanceOf(account [20]byte) (*big.Int, error) {
	acc, err := e.loadAccount(account)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(acc.Balance), nil
}

// GasDepositOf returns the custodied gas deposit for the account.
func (e *Engine) GasDepositOf(account [20]byte) (*big.Int, error) {
	acc, err := e.loadAccount(account)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(acc.GasDeposit), nil
}

// IsSponsor reports whether the address carries the sponsor capability.
func (e *Engine) IsSponsor(addr [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	return e.state.HasRole(RoleSponsor, addr)
}

// GasUnitPrice returns the configured price per gas unit in ledger units.
func (e *Engine) GasUnitPrice() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.GasUnitPrice()
}

func (e *Engine) requiredCharge(gasUnits uint64) (*big.Int, error) {
	price, err := e.state.GasUnitPrice()
	if err != nil {
		return nil, err
	}
	if price == nil {
		price = big.NewInt(0)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(gasUnits), price), nil
}

func (e *Engine) mint(account [20]byte, amount *big.Int) error {
	acc, err := e.loadAccount(account)
	if err != nil {
		return err
	}
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	if err := e.state.PutAccount(account, acc); err != nil {
		return err
	}
	_, err = e.state.AdjustTotalSupply(amount)
	return err
}
