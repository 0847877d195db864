package state

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"hnxzledger/core/types"
	"hnxzledger/native/escrow"
	"hnxzledger/native/lending"
	"hnxzledger/storage"
)

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func TestAccountRoundTripAndDefaults(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddr(0x01)

	// Missing accounts decode as zero-valued.
	account, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(0), account.Nonce)
	require.Zero(t, account.Balance.Sign())
	require.Zero(t, account.GasDeposit.Sign())

	account.Nonce = 7
	account.Balance = big.NewInt(1234)
	account.GasDeposit = big.NewInt(56)
	require.NoError(t, manager.PutAccount(addr, account))

	loaded, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(7), loaded.Nonce)
	require.Equal(t, big.NewInt(1234), loaded.Balance)
	require.Equal(t, big.NewInt(56), loaded.GasDeposit)
}

func TestPutAccountRejectsNegativeQuantities(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddr(0x01)

	require.Error(t, manager.PutAccount(addr, &types.Account{Balance: big.NewInt(-1)}))
	require.Error(t, manager.PutAccount(addr, &types.Account{GasDeposit: big.NewInt(-1)}))
}

func TestTotalSupplyAdjustments(t *testing.T) {
	manager := newTestManager(t)

	total, err := manager.TotalSupply()
	require.NoError(t, err)
	require.Zero(t, total.Sign())

	total, err = manager.AdjustTotalSupply(big.NewInt(1000))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1000), total)

	total, err = manager.AdjustTotalSupply(big.NewInt(-400))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(600), total)

	_, err = manager.AdjustTotalSupply(big.NewInt(-601))
	require.Error(t, err)
	total, err = manager.TotalSupply()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(600), total, "rejected adjustment must not change supply")
}

func TestMintAndBurnPreserveConservation(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddr(0x01)

	require.NoError(t, manager.MintToken(addr, big.NewInt(500)))
	account, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(500), account.Balance)
	total, err := manager.TotalSupply()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(500), total)

	require.NoError(t, manager.BurnToken(addr, big.NewInt(200)))
	account, err = manager.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(300), account.Balance)
	total, err = manager.TotalSupply()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(300), total)

	require.Error(t, manager.BurnToken(addr, big.NewInt(301)), "burn beyond balance must fail")
}

func TestRolesAreCaseInsensitive(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddr(0x01)

	require.NoError(t, manager.SetRole("Sponsor", addr, true))
	ok, err := manager.HasRole("sponsor", addr)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, manager.SetRole("sponsor", addr, false))
	ok, err = manager.HasRole("SPONSOR", addr)
	require.NoError(t, err)
	require.False(t, ok)

	require.Error(t, manager.SetRole("  ", addr, true))
}

func TestLoanRoundTripAndMonotonicIDs(t *testing.T) {
	manager := newTestManager(t)
	borrower := testAddr(0x01)

	id, err := manager.NextLoanID()
	require.NoError(t, err)
	require.Equal(t, uint64(1), id, "ids start at 1")
	id, err = manager.NextLoanID()
	require.NoError(t, err)
	require.Equal(t, uint64(2), id)

	loan := &lending.Loan{
		ID:               1,
		Borrower:         borrower,
		CollateralAsset:  "WETH",
		CollateralAmount: big.NewInt(1000),
		Principal:        big.NewInt(750),
		InterestRateBps:  500,
		StartTime:        1_700_000_000,
		Duration:         31_536_000,
		Status:           lending.LoanActive,
	}
	require.NoError(t, manager.LoanPut(loan))
	require.NoError(t, manager.LoanIDsAppend(borrower, loan.ID))

	loaded, ok, err := manager.LoanGet(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, loan.Borrower, loaded.Borrower)
	require.Equal(t, loan.CollateralAsset, loaded.CollateralAsset)
	require.Equal(t, loan.Principal, loaded.Principal)
	require.Equal(t, loan.StartTime, loaded.StartTime)
	require.Equal(t, lending.LoanActive, loaded.Status)

	_, ok, err = manager.LoanGet(99)
	require.NoError(t, err)
	require.False(t, ok)

	ids, err := manager.LoanIDsByBorrower(borrower)
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, ids)
}

func TestEscrowRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	sender, recipient := testAddr(0x01), testAddr(0x02)

	id, err := manager.NextEscrowID()
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	esc := &escrow.Escrow{
		ID:        id,
		Sender:    sender,
		Recipient: recipient,
		Amount:    big.NewInt(500),
		CreatedAt: 1_700_000_000,
		Status:    escrow.EscrowPending,
	}
	require.NoError(t, manager.EscrowPut(esc))
	require.NoError(t, manager.EscrowIDsAppend(sender, id))

	loaded, ok, err := manager.EscrowGet(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, esc.Sender, loaded.Sender)
	require.Equal(t, esc.Recipient, loaded.Recipient)
	require.Equal(t, esc.Amount, loaded.Amount)
	require.Equal(t, esc.CreatedAt, loaded.CreatedAt)
	require.Equal(t, escrow.EscrowPending, loaded.Status)

	ids, err := manager.EscrowIDsBySender(sender)
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, ids)
}

func TestCollateralAccounting(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddr(0x01)

	approved, err := manager.CollateralApproved("WETH")
	require.NoError(t, err)
	require.False(t, approved)

	require.NoError(t, manager.SetCollateralApproved("weth", true))
	approved, err = manager.CollateralApproved("WETH")
	require.NoError(t, err)
	require.True(t, approved, "symbols normalise to upper case")

	require.NoError(t, manager.CollateralCredit("WETH", addr, big.NewInt(1000)))
	balance, err := manager.CollateralBalance("WETH", addr)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1000), balance)

	require.Error(t, manager.CollateralDebit("WETH", addr, big.NewInt(1001)))
	balance, err = manager.CollateralBalance("WETH", addr)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1000), balance, "failed debit must not change balance")

	require.NoError(t, manager.CollateralDebit("WETH", addr, big.NewInt(400)))
	balance, err = manager.CollateralBalance("WETH", addr)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(600), balance)
}

func TestPaymasterStateDefaults(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddr(0x01)

	scale, err := manager.ScalingFactor()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1), scale, "unset scaling factor defaults to 1")

	require.NoError(t, manager.SetExchangeRate(big.NewInt(1_000_000)))
	rate, err := manager.ExchangeRate()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_000_000), rate)
	require.Error(t, manager.SetExchangeRate(big.NewInt(0)))

	spent, err := manager.AddGasSpent(addr, big.NewInt(30))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(30), spent)
	spent, err = manager.AddGasSpent(addr, big.NewInt(12))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(42), spent)
	_, err = manager.AddGasSpent(addr, big.NewInt(-1))
	require.Error(t, err)

	consumed, err := manager.ContextConsumed("nonce-a")
	require.NoError(t, err)
	require.False(t, consumed)
	require.NoError(t, manager.MarkContextConsumed("nonce-a"))
	consumed, err = manager.ContextConsumed("nonce-a")
	require.NoError(t, err)
	require.True(t, consumed)
	_, err = manager.ContextConsumed("  ")
	require.Error(t, err)
}

func TestPauseSwitches(t *testing.T) {
	manager := newTestManager(t)

	require.False(t, manager.IsPaused("lending"))
	require.NoError(t, manager.SetPaused("Lending", true))
	require.True(t, manager.IsPaused("lending"), "module names normalise to lower case")
	require.NoError(t, manager.SetPaused("lending", false))
	require.False(t, manager.IsPaused("lending"))
	require.Error(t, manager.SetPaused("", true))
}

func TestStateSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.db")
	addr := testAddr(0x01)

	db, err := storage.NewBoltDB(path)
	require.NoError(t, err)
	manager := NewManager(db)
	require.NoError(t, manager.MintToken(addr, big.NewInt(900)))
	require.NoError(t, manager.SetRole("sponsor", addr, true))
	require.NoError(t, manager.SetLoanParams(500, 31_536_000, 7_500))
	require.NoError(t, manager.SetGasUnitPrice(big.NewInt(15)))
	require.NoError(t, manager.MarkContextConsumed("nonce-1"))
	require.NoError(t, db.Close())

	db, err = storage.NewBoltDB(path)
	require.NoError(t, err)
	defer db.Close()
	manager = NewManager(db)

	account, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(900), account.Balance)
	total, err := manager.TotalSupply()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(900), total)
	ok, err := manager.HasRole("sponsor", addr)
	require.NoError(t, err)
	require.True(t, ok)
	rateBps, duration, maxLTV, err := manager.LoanParams()
	require.NoError(t, err)
	require.Equal(t, uint64(500), rateBps)
	require.Equal(t, uint64(31_536_000), duration)
	require.Equal(t, uint64(7_500), maxLTV)
	price, err := manager.GasUnitPrice()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(15), price)
	consumed, err := manager.ContextConsumed("nonce-1")
	require.NoError(t, err)
	require.True(t, consumed)
}
