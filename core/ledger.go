package core

import (
	"errors"
	"math/big"
	"strconv"
	"sync"

	"hnxzledger/config"
	"hnxzledger/core/events"
	"hnxzledger/native/escrow"
	"hnxzledger/native/ledger"
	"hnxzledger/native/lending"
	"hnxzledger/native/paymaster"
	"hnxzledger/observability"
	"hnxzledger/state"
	"hnxzledger/storage"
)

// ErrNotAuthority is returned when an administrative operation is invoked by
// anyone other than the configured authority key.
var ErrNotAuthority = errors.New("ledger core: caller is not the authority")

// Ledger is the top-level facade over the state manager and the native
// engines. Each public operation runs to completion under a single writer
// lock, reintroducing the atomic-per-operation execution model the accounting
// invariants depend on. Administrative operations are gated on a single
// authority key passed in at construction so independent instances can be
// stood up side by side.
type Ledger struct {
	mu        sync.RWMutex
	authority [20]byte

	manager   *state.Manager
	engine    *ledger.Engine
	lending   *lending.Engine
	escrow    *escrow.Engine
	paymaster *paymaster.Paymaster
	emitter   events.Emitter

	metrics *observability.LedgerMetrics
}

// NewLedger wires the engines over the supplied database. The paymaster acts
// as sponsorAddr and is administered by the same authority that governs the
// ledger.
func NewLedger(db storage.Database, authority, sponsorAddr [20]byte) *Ledger {
	manager := state.NewManager(db)

	engine := ledger.NewEngine()
	engine.SetState(manager)
	engine.SetPauses(manager)

	lendingEngine := lending.NewEngine()
	lendingEngine.SetState(manager)
	lendingEngine.SetPauses(manager)

	escrowEngine := escrow.NewEngine()
	escrowEngine.SetState(manager)
	escrowEngine.SetPauses(manager)

	pm := paymaster.New(sponsorAddr, authority)
	pm.SetState(manager)
	pm.SetLedger(engine)
	pm.SetPauses(manager)

	return &Ledger{
		authority: authority,
		manager:   manager,
		engine:    engine,
		lending:   lendingEngine,
		escrow:    escrowEngine,
		paymaster: pm,
		emitter:   events.NoopEmitter{},
		metrics:   observability.Ledger(),
	}
}

// ApplyConfig seeds the persisted configuration scalars from the startup
// file. Runtime administrative setters override these afterwards.
func (l *Ledger) ApplyConfig(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("ledger core: config required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.manager.SetGasUnitPrice(cfg.GasUnitPriceBig()); err != nil {
		return err
	}
	if err := l.manager.SetLoanParams(cfg.DefaultInterestRateBps, cfg.DefaultLoanDuration, cfg.MaxLTVBps); err != nil {
		return err
	}
	for _, symbol := range cfg.ApprovedCollateral {
		if err := l.manager.SetCollateralApproved(symbol, true); err != nil {
			return err
		}
	}
	if err := l.manager.SetExchangeRate(cfg.ExchangeRateBig()); err != nil {
		return err
	}
	if err := l.manager.SetScalingFactor(cfg.ScalingFactorBig()); err != nil {
		return err
	}
	if err := l.manager.SetOverheadCost(cfg.OverheadCostBig()); err != nil {
		return err
	}
	for _, module := range cfg.Paused {
		if err := l.manager.SetPaused(module, true); err != nil {
			return err
		}
	}
	return nil
}

// SetEmitter wires the event sink into every engine and into the facade's
// own administrative emissions.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.emitter = emitter
	l.engine.SetEmitter(emitter)
	l.lending.SetEmitter(emitter)
	l.escrow.SetEmitter(emitter)
	l.paymaster.SetEmitter(emitter)
}

func (l *Ledger) emit(evt events.Event) {
	if l.emitter == nil {
		return
	}
	l.emitter.Emit(evt)
}

// Paymaster exposes the sponsor protocol bound to this ledger instance.
func (l *Ledger) Paymaster() *paymaster.Paymaster { return l.paymaster }

// State exposes the underlying state manager for read-only tooling.
func (l *Ledger) State() *state.Manager { return l.manager }

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func unitsApprox(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

// --- mutating operations ---

// Transfer moves spendable balance between accounts.
func (l *Ledger) Transfer(from, to [20]byte, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.engine.Transfer(from, to, amount)
	l.metrics.RecordOperation("transfer", outcome(err))
	return err
}

// CreditUser mints units against an off-ledger settlement reference. Gated on
// the credit-provider capability.
func (l *Ledger) CreditUser(provider, account [20]byte, amount *big.Int, reference string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.engine.CreditUser(provider, account, amount, reference)
	l.metrics.RecordOperation("credit_user", outcome(err))
	if err == nil {
		l.metrics.RecordMint(unitsApprox(amount))
	}
	return err
}

// DepositForGas earmarks spendable balance for sponsored-operation costs.
func (l *Ledger) DepositForGas(account [20]byte, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.engine.DepositForGas(account, amount)
	l.metrics.RecordOperation("deposit_for_gas", outcome(err))
	return err
}

// WithdrawGasDeposit returns earmarked units to the spendable balance.
func (l *Ledger) WithdrawGasDeposit(account [20]byte, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.engine.WithdrawGasDeposit(account, amount)
	l.metrics.RecordOperation("withdraw_gas_deposit", outcome(err))
	return err
}

// SettleGasCharge charges a user's gas deposit on behalf of an authorised
// sponsor and burns the charged quantity.
func (l *Ledger) SettleGasCharge(sponsor, account [20]byte, gasUnits uint64) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	charged, err := l.engine.SettleGasCharge(sponsor, account, gasUnits)
	l.metrics.RecordOperation("settle_gas_charge", outcome(err))
	if err == nil {
		l.metrics.RecordBurn(unitsApprox(charged))
	}
	return charged, err
}

// RequestLoan custodies collateral and mints principal to the borrower.
func (l *Ledger) RequestLoan(borrower [20]byte, collateralAsset string, collateralAmount, principal *big.Int) (*lending.Loan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	loan, err := l.lending.RequestLoan(borrower, collateralAsset, collateralAmount, principal)
	l.metrics.RecordOperation("request_loan", outcome(err))
	if err == nil {
		l.metrics.RecordLoan("opened")
		l.metrics.RecordMint(unitsApprox(principal))
	}
	return loan, err
}

// RepayLoan burns principal plus accrued interest and releases collateral.
func (l *Ledger) RepayLoan(caller [20]byte, loanID uint64) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	owed, err := l.lending.RepayLoan(caller, loanID)
	l.metrics.RecordOperation("repay_loan", outcome(err))
	if err == nil {
		l.metrics.RecordLoan("repaid")
		l.metrics.RecordBurn(unitsApprox(owed))
	}
	return owed, err
}

// CreateEscrow debits the sender into ledger custody.
func (l *Ledger) CreateEscrow(sender, recipient [20]byte, amount *big.Int) (*escrow.Escrow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	esc, err := l.escrow.Create(sender, recipient, amount)
	l.metrics.RecordOperation("create_escrow", outcome(err))
	if err == nil {
		l.metrics.RecordEscrow("created")
	}
	return esc, err
}

// ReleaseEscrow settles a pending escrow in favour of the recipient.
func (l *Ledger) ReleaseEscrow(caller [20]byte, escrowID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.escrow.Release(escrowID, caller)
	l.metrics.RecordOperation("release_escrow", outcome(err))
	if err == nil {
		l.metrics.RecordEscrow("released")
	}
	return err
}

// CancelEscrow returns a pending escrow to the sender.
func (l *Ledger) CancelEscrow(caller [20]byte, escrowID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.escrow.Cancel(escrowID, caller)
	l.metrics.RecordOperation("cancel_escrow", outcome(err))
	if err == nil {
		l.metrics.RecordEscrow("cancelled")
	}
	return err
}

// ValidateSponsorship runs the paymaster pre-check under a read lock; the
// phase is read-only so the boundary may call it speculatively.
func (l *Ledger) ValidateSponsorship(account [20]byte, maxCost *big.Int) (*paymaster.Context, paymaster.ValidationResult, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.paymaster.Validate(account, maxCost)
}

// SettleSponsorship reconciles a sponsored operation's actual cost.
func (l *Ledger) SettleSponsorship(ctx *paymaster.Context, actualCost *big.Int) (*paymaster.Settlement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	settlement, err := l.paymaster.Settle(ctx, actualCost)
	l.metrics.RecordOperation("settle_sponsorship", outcome(err))
	if err == nil {
		if settlement.Shortfall {
			l.metrics.RecordSettlement("shortfall")
		} else {
			l.metrics.RecordSettlement("charged")
		}
	}
	return settlement, err
}

// --- read operations ---

// BalanceOf returns the spendable balance.
func (l *Ledger) BalanceOf(account [20]byte) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.engine.BalanceOf(account)
}

// GasDepositOf returns the custodied gas deposit.
func (l *Ledger) GasDepositOf(account [20]byte) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.engine.GasDepositOf(account)
}

// TotalSupply returns the total issued supply.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.manager.TotalSupply()
}

// LoanByID returns the stored loan.
func (l *Ledger) LoanByID(id uint64) (*lending.Loan, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lending.Get(id)
}

// LoanIDsByBorrower returns the ordered loan ids for the borrower.
func (l *Ledger) LoanIDsByBorrower(addr [20]byte) ([]uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.manager.LoanIDsByBorrower(addr)
}

// CalculateRepaymentAmount returns the quantity currently owed on the loan.
func (l *Ledger) CalculateRepaymentAmount(id uint64) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lending.CalculateRepaymentAmount(id)
}

// EscrowByID returns the stored escrow.
func (l *Ledger) EscrowByID(id uint64) (*escrow.Escrow, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.escrow.Get(id)
}

// EscrowIDsBySender returns the ordered escrow ids for the sender.
func (l *Ledger) EscrowIDsBySender(addr [20]byte) ([]uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.manager.EscrowIDsBySender(addr)
}

// CanPayGas reports whether the deposit covers gasUnits at the configured
// price.
func (l *Ledger) CanPayGas(account [20]byte, gasUnits uint64) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.engine.CanPayGas(account, gasUnits)
}

// CollateralBalance returns the holder's balance of the collateral asset.
func (l *Ledger) CollateralBalance(symbol string, addr [20]byte) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.manager.CollateralBalance(symbol, addr)
}

// --- administrative surface ---

func (l *Ledger) requireAuthority(caller [20]byte) error {
	if caller != l.authority {
		return ErrNotAuthority
	}
	return nil
}

// SetGasUnitPrice updates the per-gas-unit settlement price. Takes effect for
// subsequent settlements only.
func (l *Ledger) SetGasUnitPrice(caller [20]byte, price *big.Int) error {
	if err := l.requireAuthority(caller); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.manager.SetGasUnitPrice(price); err != nil {
		return err
	}
	l.emit(events.ParamUpdated{Name: "gasUnitPrice", Value: price.String()})
	return nil
}

// SetLoanParams updates the origination defaults. Existing loans are
// unaffected.
func (l *Ledger) SetLoanParams(caller [20]byte, rateBps, duration, maxLTVBps uint64) error {
	if err := l.requireAuthority(caller); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.manager.SetLoanParams(rateBps, duration, maxLTVBps); err != nil {
		return err
	}
	l.emit(events.ParamUpdated{Name: "loan.interestRateBps", Value: strconv.FormatUint(rateBps, 10)})
	l.emit(events.ParamUpdated{Name: "loan.duration", Value: strconv.FormatUint(duration, 10)})
	l.emit(events.ParamUpdated{Name: "loan.maxLTVBps", Value: strconv.FormatUint(maxLTVBps, 10)})
	return nil
}

// SetCollateralApproved adds or removes an asset from the approved collateral
// list.
func (l *Ledger) SetCollateralApproved(caller [20]byte, symbol string, approved bool) error {
	if err := l.requireAuthority(caller); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.manager.SetCollateralApproved(symbol, approved); err != nil {
		return err
	}
	l.emit(events.ParamUpdated{Name: "collateral.approved." + symbol, Value: strconv.FormatBool(approved)})
	return nil
}

// SetSponsorAuthorized grants or revokes the sponsor capability.
func (l *Ledger) SetSponsorAuthorized(caller, sponsor [20]byte, authorized bool) error {
	if err := l.requireAuthority(caller); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.manager.SetRole(ledger.RoleSponsor, sponsor, authorized); err != nil {
		return err
	}
	l.emit(events.RoleUpdated{Role: ledger.RoleSponsor, Account: sponsor, Granted: authorized})
	return nil
}

// SetCreditProviderAuthorized grants or revokes the credit-provider
// capability.
func (l *Ledger) SetCreditProviderAuthorized(caller, provider [20]byte, authorized bool) error {
	if err := l.requireAuthority(caller); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.manager.SetRole(ledger.RoleCreditProvider, provider, authorized); err != nil {
		return err
	}
	l.emit(events.RoleUpdated{Role: ledger.RoleCreditProvider, Account: provider, Granted: authorized})
	return nil
}

// SetPaused toggles a module's pause switch.
func (l *Ledger) SetPaused(caller [20]byte, module string, paused bool) error {
	if err := l.requireAuthority(caller); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.manager.SetPaused(module, paused); err != nil {
		return err
	}
	l.emit(events.PauseUpdated{Module: module, Paused: paused})
	return nil
}

// MintCollateral issues external collateral units to a holder. The collateral
// asset's own issuance is outside the ledger's trust domain; this authority
// hook models it for deployment seeding and tests.
func (l *Ledger) MintCollateral(caller [20]byte, symbol string, holder [20]byte, amount *big.Int) error {
	if err := l.requireAuthority(caller); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.manager.CollateralCredit(symbol, holder, amount)
}
