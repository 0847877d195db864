package state

import (
	"fmt"
	"math/big"
	"strings"
)

// PoolBalance returns the paymaster's prepaid pool balance.
func (m *Manager) PoolBalance() (*big.Int, error) {
	if m == nil || m.db == nil {
		return nil, errNilManager
	}
	return m.getBig(paymasterPoolKey)
}

// SetPoolBalance overwrites the prepaid pool balance.
func (m *Manager) SetPoolBalance(balance *big.Int) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	if balance == nil || balance.Sign() < 0 {
		return fmt.Errorf("state: pool balance must be non-negative")
	}
	return m.putBig(paymasterPoolKey, balance)
}

// GasSpent returns the account's running total of settled sponsor cost.
func (m *Manager) GasSpent(addr [20]byte) (*big.Int, error) {
	if m == nil || m.db == nil {
		return nil, errNilManager
	}
	return m.getBig(prefixedKey(paymasterSpentPrefix, addr[:]))
}

// AddGasSpent increases the account's spend accumulator and returns the new
// total. The accumulator is monotonic non-decreasing and informational only.
func (m *Manager) AddGasSpent(addr [20]byte, delta *big.Int) (*big.Int, error) {
	if m == nil || m.db == nil {
		return nil, errNilManager
	}
	if delta == nil || delta.Sign() < 0 {
		return nil, fmt.Errorf("state: gas spend delta must be non-negative")
	}
	total, err := m.getBig(prefixedKey(paymasterSpentPrefix, addr[:]))
	if err != nil {
		return nil, err
	}
	total = new(big.Int).Add(total, delta)
	if err := m.putBig(prefixedKey(paymasterSpentPrefix, addr[:]), total); err != nil {
		return nil, err
	}
	return total, nil
}

// ContextConsumed reports whether the settlement context nonce was already
// used.
func (m *Manager) ContextConsumed(nonce string) (bool, error) {
	if m == nil || m.db == nil {
		return false, errNilManager
	}
	trimmed := strings.TrimSpace(nonce)
	if trimmed == "" {
		return false, fmt.Errorf("state: context nonce required")
	}
	return m.getFlag(prefixedStringKey(paymasterCtxPrefix, trimmed))
}

// MarkContextConsumed invalidates the settlement context nonce so a retried
// settlement can never double-charge.
func (m *Manager) MarkContextConsumed(nonce string) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	trimmed := strings.TrimSpace(nonce)
	if trimmed == "" {
		return fmt.Errorf("state: context nonce required")
	}
	return m.putFlag(prefixedStringKey(paymasterCtxPrefix, trimmed), true)
}

// RelayerAllowed reports whether the relayer is on the submission allow-list.
func (m *Manager) RelayerAllowed(addr [20]byte) (bool, error) {
	if m == nil || m.db == nil {
		return false, errNilManager
	}
	return m.getFlag(prefixedKey(paymasterRelayPrefix, addr[:]))
}

// SetRelayerAllowed adds or removes the relayer from the allow-list.
func (m *Manager) SetRelayerAllowed(addr [20]byte, allowed bool) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	return m.putFlag(prefixedKey(paymasterRelayPrefix, addr[:]), allowed)
}

// ExchangeRate returns the execution-cost to ledger-unit conversion rate.
func (m *Manager) ExchangeRate() (*big.Int, error) {
	if m == nil || m.db == nil {
		return nil, errNilManager
	}
	return m.getBig(paymasterRateKeyBytes)
}

// SetExchangeRate stores the conversion rate.
func (m *Manager) SetExchangeRate(rate *big.Int) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	if rate == nil || rate.Sign() <= 0 {
		return fmt.Errorf("state: exchange rate must be positive")
	}
	return m.putBig(paymasterRateKeyBytes, rate)
}

// ScalingFactor returns the divisor applied after the exchange rate. Missing
// entries default to 1 so an unconfigured factor never zeroes every charge.
func (m *Manager) ScalingFactor() (*big.Int, error) {
	if m == nil || m.db == nil {
		return nil, errNilManager
	}
	scale, err := m.getBig(paymasterScaleKey)
	if err != nil {
		return nil, err
	}
	if scale.Sign() == 0 {
		return big.NewInt(1), nil
	}
	return scale, nil
}

// SetScalingFactor stores the divisor.
func (m *Manager) SetScalingFactor(scale *big.Int) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	if scale == nil || scale.Sign() <= 0 {
		return fmt.Errorf("state: scaling factor must be positive")
	}
	return m.putBig(paymasterScaleKey, scale)
}

// OverheadCost returns the fixed per-operation overhead added during cost
// estimation.
func (m *Manager) OverheadCost() (*big.Int, error) {
	if m == nil || m.db == nil {
		return nil, errNilManager
	}
	return m.getBig(paymasterOverheadKey)
}

// SetOverheadCost stores the estimation overhead.
func (m *Manager) SetOverheadCost(overhead *big.Int) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	if overhead == nil || overhead.Sign() < 0 {
		return fmt.Errorf("state: overhead must be non-negative")
	}
	return m.putBig(paymasterOverheadKey, overhead)
}
