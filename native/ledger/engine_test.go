package ledger

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"hnxzledger/core/events"
	"hnxzledger/core/types"
	nativecommon "hnxzledger/native/common"
)

type mockState struct {
	accounts map[[20]byte]*types.Account
	supply   *big.Int
	roles    map[string]map[[20]byte]bool
	gasPrice *big.Int
}

func newMockState() *mockState {
	return &mockState{
		accounts: make(map[[20]byte]*types.Account),
		supply:   big.NewInt(0),
		roles:    make(map[string]map[[20]byte]bool),
		gasPrice: big.NewInt(1),
	}
}

func (m *mockState) GetAccount(addr [20]byte) (*types.Account, error) {
	if acc, ok := m.accounts[addr]; ok {
		return acc.Clone(), nil
	}
	return (&types.Account{}).EnsureDefaults(), nil
}

func (m *mockState) PutAccount(addr [20]byte, account *types.Account) error {
	m.accounts[addr] = account.Clone()
	return nil
}

func (m *mockState) AdjustTotalSupply(delta *big.Int) (*big.Int, error) {
	next := new(big.Int).Add(m.supply, delta)
	if next.Sign() < 0 {
		return nil, errors.New("supply negative")
	}
	m.supply = next
	return new(big.Int).Set(m.supply), nil
}

func (m *mockState) HasRole(role string, addr [20]byte) (bool, error) {
	return m.roles[role][addr], nil
}

func (m *mockState) GasUnitPrice() (*big.Int, error) {
	return new(big.Int).Set(m.gasPrice), nil
}

func (m *mockState) grantRole(role string, addr [20]byte) {
	if m.roles[role] == nil {
		m.roles[role] = make(map[[20]byte]bool)
	}
	m.roles[role][addr] = true
}

func (m *mockState) fund(addr [20]byte, amount int64) {
	acc := (&types.Account{Balance: big.NewInt(amount)}).EnsureDefaults()
	m.accounts[addr] = acc
	m.supply = new(big.Int).Add(m.supply, big.NewInt(amount))
}

type mockPauses map[string]bool

func (m mockPauses) IsPaused(module string) bool { return m[module] }

type capturingEmitter struct {
	events []events.Event
}

func (c *capturingEmitter) Emit(evt events.Event) { c.events = append(c.events, evt) }

func (c *capturingEmitter) lastType() string {
	if len(c.events) == 0 {
		return ""
	}
	return c.events[len(c.events)-1].EventType()
}

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func newTestEngine(state *mockState) (*Engine, *capturingEmitter) {
	engine := NewEngine()
	engine.SetState(state)
	emitter := &capturingEmitter{}
	engine.SetEmitter(emitter)
	return engine, emitter
}

func TestTransferMovesSpendableBalance(t *testing.T) {
	state := newMockState()
	alice, bob := testAddr(0x01), testAddr(0x02)
	state.fund(alice, 1000)
	engine, emitter := newTestEngine(state)

	if err := engine.Transfer(alice, bob, big.NewInt(400)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if got, _ := engine.BalanceOf(alice); got.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("unexpected sender balance: %s", got)
	}
	if got, _ := engine.BalanceOf(bob); got.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("unexpected recipient balance: %s", got)
	}
	if emitter.lastType() != events.TypeTransfer {
		t.Fatalf("expected transfer event, got %q", emitter.lastType())
	}
}

func TestTransferRejectsBadInput(t *testing.T) {
	state := newMockState()
	alice, bob := testAddr(0x01), testAddr(0x02)
	state.fund(alice, 100)
	engine, _ := newTestEngine(state)

	if err := engine.Transfer(alice, bob, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := engine.Transfer(alice, alice, big.NewInt(10)); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}
	if err := engine.Transfer(alice, [20]byte{}, big.NewInt(10)); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("expected ErrInvalidRecipient for zero recipient, got %v", err)
	}
	if err := engine.Transfer(alice, bob, big.NewInt(101)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got, _ := engine.BalanceOf(alice); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("failed transfers must not mutate balance, got %s", got)
	}
}

func TestDepositAndWithdrawGas(t *testing.T) {
	state := newMockState()
	alice := testAddr(0x01)
	state.fund(alice, 500)
	engine, _ := newTestEngine(state)

	if err := engine.DepositForGas(alice, big.NewInt(300)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if got, _ := engine.BalanceOf(alice); got.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("unexpected spendable after deposit: %s", got)
	}
	if got, _ := engine.GasDepositOf(alice); got.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("unexpected deposit: %s", got)
	}

	if err := engine.DepositForGas(alice, big.NewInt(201)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := engine.WithdrawGasDeposit(alice, big.NewInt(301)); !errors.Is(err, ErrInsufficientDeposit) {
		t.Fatalf("expected ErrInsufficientDeposit, got %v", err)
	}

	if err := engine.WithdrawGasDeposit(alice, big.NewInt(300)); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if got, _ := engine.BalanceOf(alice); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("unexpected spendable after withdraw: %s", got)
	}
}

func TestSettleGasChargeBurnsDeposit(t *testing.T) {
	state := newMockState()
	state.gasPrice = big.NewInt(15)
	alice, sponsor := testAddr(0x01), testAddr(0xAA)
	state.fund(alice, 1000)
	state.grantRole(RoleSponsor, sponsor)
	engine, emitter := newTestEngine(state)

	if err := engine.DepositForGas(alice, big.NewInt(1000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	supplyBefore := new(big.Int).Set(state.supply)

	charged, err := engine.SettleGasCharge(sponsor, alice, 50)
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if charged.Cmp(big.NewInt(750)) != 0 {
		t.Fatalf("expected charge 750, got %s", charged)
	}
	if got, _ := engine.GasDepositOf(alice); got.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("expected deposit 250, got %s", got)
	}
	burned := new(big.Int).Sub(supplyBefore, state.supply)
	if burned.Cmp(big.NewInt(750)) != 0 {
		t.Fatalf("expected supply burn 750, got %s", burned)
	}
	if emitter.lastType() != events.TypeGasSettled {
		t.Fatalf("expected gas settled event, got %q", emitter.lastType())
	}
}

func TestSettleGasChargeNeverUnderflows(t *testing.T) {
	state := newMockState()
	state.gasPrice = big.NewInt(15)
	alice, sponsor := testAddr(0x01), testAddr(0xAA)
	state.fund(alice, 100)
	state.grantRole(RoleSponsor, sponsor)
	engine, _ := newTestEngine(state)

	if err := engine.DepositForGas(alice, big.NewInt(100)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	supplyBefore := new(big.Int).Set(state.supply)

	if _, err := engine.SettleGasCharge(sponsor, alice, 50); !errors.Is(err, ErrInsufficientDeposit) {
		t.Fatalf("expected ErrInsufficientDeposit, got %v", err)
	}
	if got, _ := engine.GasDepositOf(alice); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("failed settlement must leave deposit unchanged, got %s", got)
	}
	if state.supply.Cmp(supplyBefore) != 0 {
		t.Fatalf("failed settlement must not burn supply")
	}
}

func TestSettleGasChargeRequiresSponsorRole(t *testing.T) {
	state := newMockState()
	alice, stranger := testAddr(0x01), testAddr(0xBB)
	state.fund(alice, 100)
	engine, _ := newTestEngine(state)

	if _, err := engine.SettleGasCharge(stranger, alice, 1); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestCreditUserMintsSupply(t *testing.T) {
	state := newMockState()
	alice, provider := testAddr(0x01), testAddr(0xCC)
	state.grantRole(RoleCreditProvider, provider)
	engine, emitter := newTestEngine(state)

	if err := engine.CreditUser(provider, alice, big.NewInt(5000), "card-settlement-123"); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if got, _ := engine.BalanceOf(alice); got.Cmp(big.NewInt(5000)) != 0 {
		t.Fatalf("expected balance 5000, got %s", got)
	}
	if state.supply.Cmp(big.NewInt(5000)) != 0 {
		t.Fatalf("expected supply 5000, got %s", state.supply)
	}
	if emitter.lastType() != events.TypeUserCredited {
		t.Fatalf("expected user credited event, got %q", emitter.lastType())
	}

	if err := engine.CreditUser(alice, alice, big.NewInt(1), "self"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for unapproved provider, got %v", err)
	}
}

func TestPauseBlocksEntryPointsButNotExits(t *testing.T) {
	state := newMockState()
	alice, bob := testAddr(0x01), testAddr(0x02)
	state.fund(alice, 500)
	engine, _ := newTestEngine(state)

	if err := engine.DepositForGas(alice, big.NewInt(200)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	engine.SetPauses(mockPauses{nativecommon.ModuleLedger: true})

	if err := engine.Transfer(alice, bob, big.NewInt(10)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected pause rejection for transfer, got %v", err)
	}
	if err := engine.DepositForGas(alice, big.NewInt(10)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected pause rejection for deposit, got %v", err)
	}
	// Withdrawal is an exit path and stays open during a pause.
	if err := engine.WithdrawGasDeposit(alice, big.NewInt(200)); err != nil {
		t.Fatalf("withdraw should bypass pause: %v", err)
	}
}

func TestCanPayGas(t *testing.T) {
	state := newMockState()
	state.gasPrice = big.NewInt(10)
	alice := testAddr(0x01)
	state.fund(alice, 100)
	engine, _ := newTestEngine(state)

	if err := engine.DepositForGas(alice, big.NewInt(100)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if ok, _ := engine.CanPayGas(alice, 10); !ok {
		t.Fatalf("expected deposit 100 to cover 10 units at price 10")
	}
	if ok, _ := engine.CanPayGas(alice, 11); ok {
		t.Fatalf("expected deposit 100 to fall short of 11 units at price 10")
	}
}
