package state

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"

	"hnxzledger/core/types"
	"hnxzledger/storage"
)

// Manager is the durable source of truth for every ledger table: accounts,
// total supply, loans, escrows, collateral balances, capability sets,
// configuration scalars and the paymaster's own accounting. All values are
// RLP-encoded into a key-value backend so state survives process restart with
// identical semantics. The manager performs no business validation; the native
// engines own those rules.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var errNilManager = errors.New("state manager unavailable")

// --- encoding helpers ---

func (m *Manager) get(key []byte) ([]byte, bool, error) {
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (m *Manager) getBig(key []byte) (*big.Int, error) {
	data, ok, err := m.get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	value := new(big.Int)
	if err := rlp.DecodeBytes(data, value); err != nil {
		return nil, err
	}
	return value, nil
}

func (m *Manager) putBig(key []byte, value *big.Int) error {
	if value == nil {
		value = big.NewInt(0)
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) getUint64(key []byte) (uint64, error) {
	data, ok, err := m.get(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	var value uint64
	if err := rlp.DecodeBytes(data, &value); err != nil {
		return 0, err
	}
	return value, nil
}

func (m *Manager) putUint64(key []byte, value uint64) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) getFlag(key []byte) (bool, error) {
	data, ok, err := m.get(key)
	if err != nil {
		return false, err
	}
	return ok && len(data) == 1 && data[0] == 0x01, nil
}

func (m *Manager) putFlag(key []byte, set bool) error {
	if set {
		return m.db.Put(key, []byte{0x01})
	}
	return m.db.Delete(key)
}

func (m *Manager) getIDList(key []byte) ([]uint64, error) {
	data, ok, err := m.get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []uint64{}, nil
	}
	var list []uint64
	if err := rlp.DecodeBytes(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (m *Manager) appendID(key []byte, id uint64) error {
	list, err := m.getIDList(key)
	if err != nil {
		return err
	}
	list = append(list, id)
	encoded, err := rlp.EncodeToBytes(list)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// --- accounts ---

type storedAccount struct {
	Nonce      uint64
	Balance    *big.Int
	GasDeposit *big.Int
}

// GetAccount loads the account for the address. Missing accounts decode as
// zero-valued so callers never see nil balances.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	if m == nil || m.db == nil {
		return nil, errNilManager
	}
	data, ok, err := m.get(prefixedKey(accountPrefix, addr[:]))
	if err != nil {
		return nil, err
	}
	if !ok {
		return (&types.Account{}).EnsureDefaults(), nil
	}
	stored := new(storedAccount)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, err
	}
	account := &types.Account{Nonce: stored.Nonce, Balance: stored.Balance, GasDeposit: stored.GasDeposit}
	return account.EnsureDefaults(), nil
}

// PutAccount persists the account, rejecting negative quantities so storage
// can never hold a state the invariants forbid.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	account = account.EnsureDefaults()
	if account.Balance.Sign() < 0 {
		return fmt.Errorf("state: negative balance for account")
	}
	if account.GasDeposit.Sign() < 0 {
		return fmt.Errorf("state: negative gas deposit for account")
	}
	encoded, err := rlp.EncodeToBytes(&storedAccount{
		Nonce:      account.Nonce,
		Balance:    account.Balance,
		GasDeposit: account.GasDeposit,
	})
	if err != nil {
		return err
	}
	return m.db.Put(prefixedKey(accountPrefix, addr[:]), encoded)
}

// --- total supply ---

// TotalSupply returns the persisted total issued supply.
func (m *Manager) TotalSupply() (*big.Int, error) {
	if m == nil || m.db == nil {
		return nil, errNilManager
	}
	return m.getBig(totalSupplyKeyBytes)
}

// AdjustTotalSupply applies the delta to the stored total supply and returns
// the updated value. A delta that would drive supply negative is rejected.
func (m *Manager) AdjustTotalSupply(delta *big.Int) (*big.Int, error) {
	if m == nil || m.db == nil {
		return nil, errNilManager
	}
	if delta == nil || delta.Sign() == 0 {
		return m.TotalSupply()
	}
	total, err := m.getBig(totalSupplyKeyBytes)
	if err != nil {
		return nil, err
	}
	total = new(big.Int).Add(total, delta)
	if total.Sign() < 0 {
		return nil, fmt.Errorf("state: total supply cannot go negative")
	}
	if err := m.putBig(totalSupplyKeyBytes, total); err != nil {
		return nil, err
	}
	return total, nil
}

// MintToken credits the account's spendable balance and grows total supply by
// the same amount, preserving conservation.
func (m *Manager) MintToken(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("state: mint amount must be positive")
	}
	account, err := m.GetAccount(addr)
	if err != nil {
		return err
	}
	account.Balance = new(big.Int).Add(account.Balance, amount)
	if err := m.PutAccount(addr, account); err != nil {
		return err
	}
	_, err = m.AdjustTotalSupply(amount)
	return err
}

// BurnToken debits the account's spendable balance and shrinks total supply by
// the same amount.
func (m *Manager) BurnToken(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: burn amount must be non-negative")
	}
	if amount.Sign() == 0 {
		return nil
	}
	account, err := m.GetAccount(addr)
	if err != nil {
		return err
	}
	if account.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("state: burn exceeds balance")
	}
	account.Balance = new(big.Int).Sub(account.Balance, amount)
	if err := m.PutAccount(addr, account); err != nil {
		return err
	}
	_, err = m.AdjustTotalSupply(new(big.Int).Neg(amount))
	return err
}

// --- capability roles ---

// HasRole reports whether the address carries the capability.
func (m *Manager) HasRole(role string, addr [20]byte) (bool, error) {
	if m == nil || m.db == nil {
		return false, errNilManager
	}
	return m.getFlag(roleKey(role, addr))
}

// SetRole grants or revokes the capability for the address.
func (m *Manager) SetRole(role string, addr [20]byte, granted bool) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	if strings.TrimSpace(role) == "" {
		return fmt.Errorf("state: role name required")
	}
	return m.putFlag(roleKey(role, addr), granted)
}

func roleKey(role string, addr [20]byte) []byte {
	normalized := strings.ToLower(strings.TrimSpace(role))
	key := make([]byte, 0, len(rolePrefix)+len(normalized)+1+20)
	key = append(key, rolePrefix...)
	key = append(key, normalized...)
	key = append(key, '/')
	key = append(key, addr[:]...)
	return key
}

// --- configuration scalars ---

// GasUnitPrice returns the configured price per gas unit in ledger units.
func (m *Manager) GasUnitPrice() (*big.Int, error) {
	if m == nil || m.db == nil {
		return nil, errNilManager
	}
	return m.getBig(gasUnitPriceKeyBytes)
}

// SetGasUnitPrice stores the price per gas unit.
func (m *Manager) SetGasUnitPrice(price *big.Int) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	if price == nil || price.Sign() < 0 {
		return fmt.Errorf("state: gas unit price must be non-negative")
	}
	return m.putBig(gasUnitPriceKeyBytes, price)
}

// LoanParams returns the default interest rate, duration and LTV cap applied
// to newly originated loans. Existing loans keep the values captured at
// origination.
func (m *Manager) LoanParams() (rateBps uint64, duration uint64, maxLTVBps uint64, err error) {
	if m == nil || m.db == nil {
		return 0, 0, 0, errNilManager
	}
	if rateBps, err = m.getUint64(loanRateKeyBytes); err != nil {
		return 0, 0, 0, err
	}
	if duration, err = m.getUint64(loanDurationKeyBytes); err != nil {
		return 0, 0, 0, err
	}
	if maxLTVBps, err = m.getUint64(loanMaxLTVKeyBytes); err != nil {
		return 0, 0, 0, err
	}
	return rateBps, duration, maxLTVBps, nil
}

// SetLoanParams stores the origination defaults.
func (m *Manager) SetLoanParams(rateBps, duration, maxLTVBps uint64) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	if err := m.putUint64(loanRateKeyBytes, rateBps); err != nil {
		return err
	}
	if err := m.putUint64(loanDurationKeyBytes, duration); err != nil {
		return err
	}
	return m.putUint64(loanMaxLTVKeyBytes, maxLTVBps)
}

// --- pause switches ---

// IsPaused reports whether the module's pause switch is engaged. Satisfies
// native/common.PauseView.
func (m *Manager) IsPaused(module string) bool {
	if m == nil || m.db == nil {
		return false
	}
	paused, err := m.getFlag(prefixedStringKey(pausePrefix, strings.ToLower(strings.TrimSpace(module))))
	if err != nil {
		// Fail closed: treat unreadable pause state as paused.
		return true
	}
	return paused
}

// SetPaused toggles the module's pause switch.
func (m *Manager) SetPaused(module string, paused bool) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	normalized := strings.ToLower(strings.TrimSpace(module))
	if normalized == "" {
		return fmt.Errorf("state: module name required")
	}
	return m.putFlag(prefixedStringKey(pausePrefix, normalized), paused)
}
