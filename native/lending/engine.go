package lending

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"hnxzledger/core/events"
	"hnxzledger/core/types"
	nativecommon "hnxzledger/native/common"
)

var (
	errNilState = errors.New("lending engine: state not configured")

	// ErrInvalidAmount is returned for zero or negative collateral/principal.
	ErrInvalidAmount = errors.New("lending engine: amount must be positive")
	// ErrCollateralNotApproved is returned for assets outside the approved
	// collateral list.
	ErrCollateralNotApproved = errors.New("lending engine: collateral asset not approved")
	// ErrInsufficientCollateralValue is returned when the requested principal
	// exceeds the LTV cap against the pledged collateral.
	ErrInsufficientCollateralValue = errors.New("lending engine: principal exceeds collateral value")
	// ErrCollateralTransferFailed is returned when the external collateral
	// asset cannot be moved into custody; the origination aborts with no
	// partial effect.
	ErrCollateralTransferFailed = errors.New("lending engine: collateral transfer failed")
	// ErrLoanNotFound is returned when the referenced loan id was never
	// assigned.
	ErrLoanNotFound = errors.New("lending engine: loan not found")
	// ErrLoanNotActive is returned when repayment targets a loan that has
	// already been repaid.
	ErrLoanNotActive = errors.New("lending engine: loan not active")
	// ErrNotBorrower is returned when a caller other than the borrower
	// attempts repayment.
	ErrNotBorrower = errors.New("lending engine: caller is not the borrower")
	// ErrInsufficientBalance is returned when the borrower's spendable balance
	// cannot cover principal plus accrued interest.
	ErrInsufficientBalance = errors.New("lending engine: insufficient balance")
)

type engineState interface {
	LoanPut(*Loan) error
	LoanGet(id uint64) (*Loan, bool, error)
	NextLoanID() (uint64, error)
	LoanIDsAppend(addr [20]byte, id uint64) error
	CollateralApproved(symbol string) (bool, error)
	CollateralDebit(symbol string, addr [20]byte, amount *big.Int) error
	CollateralCredit(symbol string, addr [20]byte, amount *big.Int) error
	MintToken(addr [20]byte, amount *big.Int) error
	BurnToken(addr [20]byte, amount *big.Int) error
	GetAccount(addr [20]byte) (*types.Account, error)
	LoanParams() (rateBps uint64, duration uint64, maxLTVBps uint64, err error)
}

// Engine orchestrates loan origination and repayment. Collateral lives in a
// separate asset ledger; principal is minted against it and burned with
// interest at repayment so supply conservation holds across the lifecycle.
type Engine struct {
	state   engineState
	emitter events.Emitter
	pauses  nativecommon.PauseView
	nowFn   func() int64
}

// NewEngine constructs a lending engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPauses wires the pause switches consulted before origination.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
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

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// RequestLoan custodies the collateral, mints the principal to the borrower
// and persists the new loan with the currently configured rate and duration.
// Loan id assignment is strictly increasing starting at 1.
func (e *Engine) RequestLoan(borrower [20]byte, collateralAsset string, collateralAmount, principal *big.Int) (*Loan, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleLending); err != nil {
		return nil, err
	}
	asset := strings.ToUpper(strings.TrimSpace(collateralAsset))
	if collateralAmount == nil || collateralAmount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if principal == nil || principal.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	approved, err := e.state.CollateralApproved(asset)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, ErrCollateralNotApproved
	}
	rateBps, duration, maxLTVBps, err := e.state.LoanParams()
	if err != nil {
		return nil, err
	}
	if principal.Cmp(MaxPrincipal(collateralAmount, maxLTVBps)) > 0 {
		return nil, ErrInsufficientCollateralValue
	}
	if err := e.state.CollateralDebit(asset, borrower, collateralAmount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCollateralTransferFailed, err)
	}
	id, err := e.state.NextLoanID()
	if err != nil {
		return nil, err
	}
	if err := e.state.MintToken(borrower, principal); err != nil {
		return nil, err
	}
	loan := &Loan{
		ID:               id,
		Borrower:         borrower,
		CollateralAsset:  asset,
		CollateralAmount: new(big.Int).Set(collateralAmount),
		Principal:        new(big.Int).Set(principal),
		InterestRateBps:  rateBps,
		StartTime:        e.now(),
		Duration:         duration,
		Status:           LoanActive,
	}
	if err := e.state.LoanPut(loan); err != nil {
		return nil, err
	}
	if err := e.state.LoanIDsAppend(borrower, id); err != nil {
		return nil, err
	}
	e.emit(events.LoanOpened{
		ID:               loan.ID,
		Borrower:         loan.Borrower,
		CollateralAsset:  loan.CollateralAsset,
		CollateralAmount: loan.CollateralAmount,
		Principal:        loan.Principal,
		InterestRateBps:  loan.InterestRateBps,
		StartTime:        loan.StartTime,
		Duration:         loan.Duration,
	})
	return loan.Clone(), nil
}

// RepayLoan burns principal plus accrued interest from the borrower and
// releases the custodied collateral. The Repaid status is persisted before the
// collateral leaves custody so a reentrant call sees a closed loan.
func (e *Engine) RepayLoan(caller [20]byte, id uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	loan, err := e.loadLoan(id)
	if err != nil {
		return nil, err
	}
	if loan.Status != LoanActive {
		return nil, ErrLoanNotActive
	}
	if caller != loan.Borrower {
		return nil, ErrNotBorrower
	}
	owed := RepaymentAmount(loan, e.now())
	account, err := e.state.GetAccount(caller)
	if err != nil {
		return nil, err
	}
	account = account.EnsureDefaults()
	if account.Balance.Cmp(owed) < 0 {
		return nil, ErrInsufficientBalance
	}
	if err := e.state.BurnToken(caller, owed); err != nil {
		return nil, err
	}
	loan.Status = LoanRepaid
	if err := e.state.LoanPut(loan); err != nil {
		return nil, err
	}
	if err := e.state.CollateralCredit(loan.CollateralAsset, caller, loan.CollateralAmount); err != nil {
		return nil, err
	}
	interest := new(big.Int).Sub(owed, loan.Principal)
	e.emit(events.LoanRepaid{
		ID:       loan.ID,
		Borrower: loan.Borrower,
		Owed:     owed,
		Interest: interest,
	})
	return new(big.Int).Set(owed), nil
}

// CalculateRepaymentAmount returns the quantity currently owed on the loan.
// Inactive loans owe zero.
func (e *Engine) CalculateRepaymentAmount(id uint64) (*big.Int, error) {
	loan, err := e.loadLoan(id)
	if err != nil {
		return nil, err
	}
	return RepaymentAmount(loan, e.now()), nil
}

// Get returns a copy of the stored loan.
func (e *Engine) Get(id uint64) (*Loan, error) {
	loan, err := e.loadLoan(id)
	if err != nil {
		return nil, err
	}
	return loan.Clone(), nil
}

func (e *Engine) loadLoan(id uint64) (*Loan, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	loan, ok, err := e.state.LoanGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLoanNotFound
	}
	return loan, nil
}
