package paymaster

import (
	"errors"
	"math/big"

	"github.com/google/uuid"

	"hnxzledger/core/events"
	nativecommon "hnxzledger/native/common"
	"hnxzledger/native/ledger"
)

var (
	errNilState  = errors.New("paymaster: state not configured")
	errNilLedger = errors.New("paymaster: ledger not configured")

	// ErrNotAuthorized is returned for pool and configuration operations
	// invoked by anyone other than the paymaster owner.
	ErrNotAuthorized = errors.New("paymaster: not authorized")
	// ErrInvalidAmount is returned for zero or negative quantities.
	ErrInvalidAmount = errors.New("paymaster: amount must be positive")
	// ErrInvalidRate is returned when configuring a non-positive exchange rate
	// or scaling factor.
	ErrInvalidRate = errors.New("paymaster: rate must be positive")
	// ErrInvalidContext is returned when settlement receives a nil or
	// malformed context.
	ErrInvalidContext = errors.New("paymaster: invalid context")
	// ErrContextConsumed is returned when a context is settled twice.
	ErrContextConsumed = errors.New("paymaster: context already consumed")
	// ErrInsufficientPool is returned when the prepaid pool cannot cover a
	// withdrawal.
	ErrInsufficientPool = errors.New("paymaster: insufficient pool balance")
	// ErrCostOverflow is returned when a cost converts to more gas units than
	// the ledger can denominate.
	ErrCostOverflow = errors.New("paymaster: cost exceeds unit range")
)

type paymasterState interface {
	PoolBalance() (*big.Int, error)
	SetPoolBalance(*big.Int) error
	GasSpent(addr [20]byte) (*big.Int, error)
	AddGasSpent(addr [20]byte, delta *big.Int) (*big.Int, error)
	ContextConsumed(nonce string) (bool, error)
	MarkContextConsumed(nonce string) error
	RelayerAllowed(addr [20]byte) (bool, error)
	SetRelayerAllowed(addr [20]byte, allowed bool) error
	ExchangeRate() (*big.Int, error)
	SetExchangeRate(*big.Int) error
	ScalingFactor() (*big.Int, error)
	SetScalingFactor(*big.Int) error
	OverheadCost() (*big.Int, error)
	SetOverheadCost(*big.Int) error
}

type ledgerView interface {
	GasDepositOf(account [20]byte) (*big.Int, error)
	IsSponsor(addr [20]byte) (bool, error)
	GasUnitPrice() (*big.Int, error)
	SettleGasCharge(sponsor, account [20]byte, gasUnits uint64) (*big.Int, error)
}

// Paymaster implements the two-phase sponsor protocol: a read-only Validate
// pre-check before the execution boundary runs an operation, and a Settle
// reconciliation afterwards. It holds no ledger state beyond its prepaid pool
// and per-account spend accumulators; all charging goes through the ledger
// engine's published operations.
type Paymaster struct {
	address [20]byte
	owner   [20]byte
	state   paymasterState
	ledger  ledgerView
	emitter events.Emitter
	pauses  nativecommon.PauseView
}

// New constructs a paymaster acting as the given sponsor identity. The owner
// gates pool movements and configuration changes.
func New(address, owner [20]byte) *Paymaster {
	return &Paymaster{
		address: address,
		owner:   owner,
		emitter: events.NoopEmitter{},
	}
}

// SetState wires the paymaster to its persistence layer.
func (p *Paymaster) SetState(state paymasterState) { p.state = state }

// SetLedger wires the paymaster to the ledger engine surface it charges
// against.
func (p *Paymaster) SetLedger(view ledgerView) { p.ledger = view }

var _ ledgerView = (*ledger.Engine)(nil)

// SetPauses wires the pause switches consulted during validation.
func (p *Paymaster) SetPauses(v nativecommon.PauseView) {
	if p == nil {
		return
	}
	p.pauses = v
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (p *Paymaster) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		p.emitter = events.NoopEmitter{}
		return
	}
	p.emitter = emitter
}

func (p *Paymaster) emit(evt events.Event) {
	if p == nil || p.emitter == nil || evt == nil {
		return
	}
	p.emitter.Emit(evt)
}

// Address returns the sponsor identity this paymaster settles as.
func (p *Paymaster) Address() [20]byte { return p.address }

// RequiredUnits converts an execution-layer cost to ledger gas units via the
// configured exchange rate: cost * rate / scalingFactor. The conversion is
// exactly linear; cost zero maps to zero and arbitrary magnitudes are handled
// without overflow.
func (p *Paymaster) RequiredUnits(cost *big.Int) (*big.Int, error) {
	if p == nil || p.state == nil {
		return nil, errNilState
	}
	if cost == nil || cost.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	rate, err := p.state.ExchangeRate()
	if err != nil {
		return nil, err
	}
	scale, err := p.state.ScalingFactor()
	if err != nil {
		return nil, err
	}
	if rate == nil || rate.Sign() <= 0 || scale == nil || scale.Sign() <= 0 {
		return nil, ErrInvalidRate
	}
	units := new(big.Int).Mul(cost, rate)
	return units.Div(units, scale), nil
}

// estimatedCharge converts a cost bound into the ledger-unit charge the user
// must be able to cover, including the per-operation overhead.
func (p *Paymaster) estimatedCharge(maxCost *big.Int) (uint64, *big.Int, ValidationCode, error) {
	overhead, err := p.state.OverheadCost()
	if err != nil {
		return 0, nil, CodeInvalidOperation, err
	}
	total := new(big.Int)
	if maxCost != nil {
		total.Set(maxCost)
	}
	if overhead != nil {
		total.Add(total, overhead)
	}
	units, err := p.RequiredUnits(total)
	if err != nil {
		return 0, nil, CodeInvalidOperation, err
	}
	if !units.IsUint64() {
		return 0, nil, CodeCostOverflow, nil
	}
	price, err := p.ledger.GasUnitPrice()
	if err != nil {
		return 0, nil, CodeInvalidOperation, err
	}
	if price == nil {
		price = big.NewInt(0)
	}
	charge := new(big.Int).Mul(units, price)
	return units.Uint64(), charge, CodeApproved, nil
}

// Validate is the read-only pre-check invoked by the execution boundary before
// running a sponsored operation. It never mutates state and never reports an
// unaffordable user as an error; rejections come back as codes so the boundary
// can skip the operation cheaply. Errors represent unexpected state retrieval
// failures only.
func (p *Paymaster) Validate(account [20]byte, maxCost *big.Int) (*Context, ValidationResult, error) {
	if p == nil || p.state == nil {
		return nil, ValidationResult{}, errNilState
	}
	if p.ledger == nil {
		return nil, ValidationResult{}, errNilLedger
	}
	if p.pauses != nil && p.pauses.IsPaused(nativecommon.ModulePaymaster) {
		return nil, ValidationResult{Code: CodeModulePaused, Reason: "paymaster module paused"}, nil
	}
	if maxCost == nil || maxCost.Sign() < 0 {
		return nil, ValidationResult{Code: CodeInvalidOperation, Reason: "cost bound required"}, nil
	}
	authorized, err := p.ledger.IsSponsor(p.address)
	if err != nil {
		return nil, ValidationResult{}, err
	}
	if !authorized {
		return nil, ValidationResult{Code: CodeSponsorNotAuthorized, Reason: "paymaster not on authorized sponsor list"}, nil
	}
	units, charge, code, err := p.estimatedCharge(maxCost)
	if err != nil {
		return nil, ValidationResult{}, err
	}
	if code != CodeApproved {
		return nil, ValidationResult{Code: code, Reason: "cost bound exceeds unit range"}, nil
	}
	deposit, err := p.ledger.GasDepositOf(account)
	if err != nil {
		return nil, ValidationResult{}, err
	}
	if deposit.Cmp(charge) < 0 {
		return nil, ValidationResult{Code: CodeInsufficientDeposit, Reason: "gas deposit below required charge"}, nil
	}
	ctx := &Context{
		Nonce:           uuid.NewString(),
		Account:         account,
		MaxCost:         new(big.Int).Set(maxCost),
		EstimatedUnits:  units,
		EstimatedCharge: charge,
	}
	return ctx, ValidationResult{Code: CodeApproved}, nil
}

// Settle reconciles the actual measured cost of an executed operation against
// the user's gas deposit. Cost conversion is checked first, so a rejected cost
// leaves the context live for a corrected retry; once the cost is accepted the
// context is marked consumed before any charging so a retried settlement
// cannot double-charge. When the deposit was drained
// between validation and now the shortfall is absorbed: nothing is charged,
// the outcome records zero cost, and no error is surfaced, because the
// sponsored operation already executed irreversibly.
func (p *Paymaster) Settle(ctx *Context, actualCost *big.Int) (*Settlement, error) {
	if p == nil || p.state == nil {
		return nil, errNilState
	}
	if p.ledger == nil {
		return nil, errNilLedger
	}
	if ctx == nil || ctx.Nonce == "" {
		return nil, ErrInvalidContext
	}
	cost := new(big.Int)
	if actualCost != nil && actualCost.Sign() > 0 {
		cost.Set(actualCost)
	}
	units, err := p.RequiredUnits(cost)
	if err != nil {
		return nil, err
	}
	if !units.IsUint64() {
		return nil, ErrCostOverflow
	}
	consumed, err := p.state.ContextConsumed(ctx.Nonce)
	if err != nil {
		return nil, err
	}
	if consumed {
		return nil, ErrContextConsumed
	}
	if err := p.state.MarkContextConsumed(ctx.Nonce); err != nil {
		return nil, err
	}
	settlement := &Settlement{
		Account:    ctx.Account,
		ActualCost: new(big.Int).Set(cost),
		Charged:    big.NewInt(0),
	}
	charged, err := p.ledger.SettleGasCharge(p.address, ctx.Account, units.Uint64())
	switch {
	case err == nil:
		settlement.Charged = charged
		if _, err := p.state.AddGasSpent(ctx.Account, cost); err != nil {
			return nil, err
		}
	case errors.Is(err, ledger.ErrInsufficientDeposit):
		// Soft failure: the operation already ran, so the loss is absorbed
		// rather than propagated. Recorded as a zero-cost settlement.
		settlement.Shortfall = true
	default:
		return nil, err
	}
	p.emit(events.SponsorshipSettled{
		Context:    ctx.Nonce,
		Account:    ctx.Account,
		Sponsor:    p.address,
		ActualCost: settlement.ActualCost,
		Charged:    settlement.Charged,
		Shortfall:  settlement.Shortfall,
	})
	return settlement, nil
}

// CanSponsorTransaction combines the deposit check and the authorized-sponsor
// check without mutating state, for external decision-makers.
func (p *Paymaster) CanSponsorTransaction(account [20]byte, estimatedCost *big.Int) (bool, error) {
	if p == nil || p.state == nil {
		return false, errNilState
	}
	if p.ledger == nil {
		return false, errNilLedger
	}
	authorized, err := p.ledger.IsSponsor(p.address)
	if err != nil {
		return false, err
	}
	if !authorized {
		return false, nil
	}
	_, charge, code, err := p.estimatedCharge(estimatedCost)
	if err != nil {
		return false, err
	}
	if code != CodeApproved {
		return false, nil
	}
	deposit, err := p.ledger.GasDepositOf(account)
	if err != nil {
		return false, err
	}
	return deposit.Cmp(charge) >= 0, nil
}

// CanSponsorAmount reports whether the prepaid pool covers the amount,
// independent of any specific user.
func (p *Paymaster) CanSponsorAmount(amount *big.Int) (bool, error) {
	if p == nil || p.state == nil {
		return false, errNilState
	}
	if amount == nil || amount.Sign() < 0 {
		return false, nil
	}
	pool, err := p.state.PoolBalance()
	if err != nil {
		return false, err
	}
	return pool.Cmp(amount) >= 0, nil
}

// GasSpent returns the running total of settled sponsor cost for the account.
// Informational only; no invariant depends on it.
func (p *Paymaster) GasSpent(account [20]byte) (*big.Int, error) {
	if p == nil || p.state == nil {
		return nil, errNilState
	}
	return p.state.GasSpent(account)
}

// DepositToPool moves the sponsor's own prepaid resources into the execution
// boundary's custody. Owner-gated.
func (p *Paymaster) DepositToPool(caller [20]byte, amount *big.Int) error {
	if p == nil || p.state == nil {
		return errNilState
	}
	if caller != p.owner {
		return ErrNotAuthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	pool, err := p.state.PoolBalance()
	if err != nil {
		return err
	}
	pool = new(big.Int).Add(pool, amount)
	if err := p.state.SetPoolBalance(pool); err != nil {
		return err
	}
	p.emit(events.PoolDeposited{Sponsor: p.address, Amount: amount, Pool: pool})
	return nil
}

// WithdrawFromPool draws down the prepaid pool. Owner-gated.
func (p *Paymaster) WithdrawFromPool(caller [20]byte, amount *big.Int) error {
	if p == nil || p.state == nil {
		return errNilState
	}
	if caller != p.owner {
		return ErrNotAuthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	pool, err := p.state.PoolBalance()
	if err != nil {
		return err
	}
	if pool.Cmp(amount) < 0 {
		return ErrInsufficientPool
	}
	pool = new(big.Int).Sub(pool, amount)
	if err := p.state.SetPoolBalance(pool); err != nil {
		return err
	}
	p.emit(events.PoolWithdrawn{Sponsor: p.address, Amount: amount, Pool: pool})
	return nil
}

// PoolBalance returns the current prepaid pool balance.
func (p *Paymaster) PoolBalance() (*big.Int, error) {
	if p == nil || p.state == nil {
		return nil, errNilState
	}
	return p.state.PoolBalance()
}

// SetExchangeRate configures the execution-cost to ledger-unit conversion
// rate. Owner-gated; the rate must be positive.
func (p *Paymaster) SetExchangeRate(caller [20]byte, rate *big.Int) error {
	if p == nil || p.state == nil {
		return errNilState
	}
	if caller != p.owner {
		return ErrNotAuthorized
	}
	if rate == nil || rate.Sign() <= 0 {
		return ErrInvalidRate
	}
	if err := p.state.SetExchangeRate(new(big.Int).Set(rate)); err != nil {
		return err
	}
	p.emit(events.ParamUpdated{Name: "paymaster.exchangeRate", Value: rate.String()})
	return nil
}

// SetScalingFactor configures the divisor applied after the exchange rate.
// Owner-gated; the factor must be positive.
func (p *Paymaster) SetScalingFactor(caller [20]byte, scale *big.Int) error {
	if p == nil || p.state == nil {
		return errNilState
	}
	if caller != p.owner {
		return ErrNotAuthorized
	}
	if scale == nil || scale.Sign() <= 0 {
		return ErrInvalidRate
	}
	if err := p.state.SetScalingFactor(new(big.Int).Set(scale)); err != nil {
		return err
	}
	p.emit(events.ParamUpdated{Name: "paymaster.scalingFactor", Value: scale.String()})
	return nil
}

// SetOverheadCost configures the fixed per-operation overhead added during
// cost estimation. Owner-gated.
func (p *Paymaster) SetOverheadCost(caller [20]byte, overhead *big.Int) error {
	if p == nil || p.state == nil {
		return errNilState
	}
	if caller != p.owner {
		return ErrNotAuthorized
	}
	if overhead == nil || overhead.Sign() < 0 {
		return ErrInvalidAmount
	}
	if err := p.state.SetOverheadCost(new(big.Int).Set(overhead)); err != nil {
		return err
	}
	p.emit(events.ParamUpdated{Name: "paymaster.overheadCost", Value: overhead.String()})
	return nil
}

// SetRelayerAllowed adds or removes a relayer from the submission allow-list.
// Owner-gated. The allow-list gates who may submit on the sponsor's behalf in
// tooling built atop this core; it is separate from the ledger's
// authorized-sponsor capability.
func (p *Paymaster) SetRelayerAllowed(caller, relayer [20]byte, allowed bool) error {
	if p == nil || p.state == nil {
		return errNilState
	}
	if caller != p.owner {
		return ErrNotAuthorized
	}
	if err := p.state.SetRelayerAllowed(relayer, allowed); err != nil {
		return err
	}
	p.emit(events.RoleUpdated{Role: "relayer", Account: relayer, Granted: allowed})
	return nil
}

// ExchangeRate returns the configured execution-cost to ledger-unit rate.
func (p *Paymaster) ExchangeRate() (*big.Int, error) {
	if p == nil || p.state == nil {
		return nil, errNilState
	}
	return p.state.ExchangeRate()
}

// OverheadCost returns the fixed per-operation estimation overhead.
func (p *Paymaster) OverheadCost() (*big.Int, error) {
	if p == nil || p.state == nil {
		return nil, errNilState
	}
	return p.state.OverheadCost()
}

// RelayerAllowed reports whether the relayer may submit for this sponsor.
func (p *Paymaster) RelayerAllowed(relayer [20]byte) (bool, error) {
	if p == nil || p.state == nil {
		return false, errNilState
	}
	return p.state.RelayerAllowed(relayer)
}
