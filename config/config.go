package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Backend identifiers accepted in the DataBackend field.
const (
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
	BackendMemory  = "memory"
)

// Config captures the ledger's startup parameters. Administrative setters can
// change every scalar at runtime; the file supplies the genesis values.
type Config struct {
	DataDir     string `toml:"DataDir"`
	DataBackend string `toml:"DataBackend"`
	Environment string `toml:"Environment"`

	// GasUnitPrice is the ledger-unit price charged per gas unit at
	// settlement.
	GasUnitPrice int64 `toml:"GasUnitPrice"`

	// DefaultInterestRateBps and DefaultLoanDuration apply to newly
	// originated loans; existing loans keep the values captured at
	// origination.
	DefaultInterestRateBps uint64 `toml:"DefaultInterestRateBps"`
	DefaultLoanDuration    uint64 `toml:"DefaultLoanDuration"`
	MaxLTVBps              uint64 `toml:"MaxLTVBps"`

	// ApprovedCollateral lists the asset symbols accepted as loan collateral.
	ApprovedCollateral []string `toml:"ApprovedCollateral"`

	// ExchangeRate converts execution-layer cost to gas units; must be
	// positive. ScalingFactor is the divisor applied after the rate.
	ExchangeRate  int64 `toml:"ExchangeRate"`
	ScalingFactor int64 `toml:"ScalingFactor"`
	OverheadCost  int64 `toml:"OverheadCost"`

	// Paused lists the modules whose pause switch starts engaged.
	Paused []string `toml:"Paused"`
}

// Default returns the built-in configuration used when no file overrides it.
func Default() *Config { return defaultConfig() }

func defaultConfig() *Config {
	return &Config{
		DataDir:                "./hnxz-data",
		DataBackend:            BackendLevelDB,
		GasUnitPrice:           1,
		DefaultInterestRateBps: 500,
		DefaultLoanDuration:    31_536_000,
		MaxLTVBps:              7_500,
		ApprovedCollateral:     []string{"WETH"},
		ExchangeRate:           1,
		ScalingFactor:          1,
		OverheadCost:           0,
		Paused:                 []string{},
	}
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := defaultConfig()
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engines cannot run on.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}
	switch strings.ToLower(strings.TrimSpace(c.DataBackend)) {
	case BackendLevelDB, BackendBolt, BackendMemory:
	default:
		return fmt.Errorf("unsupported data backend: %s", c.DataBackend)
	}
	if c.GasUnitPrice < 0 {
		return fmt.Errorf("gas unit price must be non-negative")
	}
	if c.MaxLTVBps > 10_000 {
		return fmt.Errorf("max LTV bps out of range: %d", c.MaxLTVBps)
	}
	if c.ExchangeRate <= 0 {
		return fmt.Errorf("exchange rate must be positive")
	}
	if c.ScalingFactor <= 0 {
		return fmt.Errorf("scaling factor must be positive")
	}
	if c.OverheadCost < 0 {
		return fmt.Errorf("overhead cost must be non-negative")
	}
	return nil
}

// GasUnitPriceBig returns the gas unit price as a big integer.
func (c *Config) GasUnitPriceBig() *big.Int { return big.NewInt(c.GasUnitPrice) }

// ExchangeRateBig returns the exchange rate as a big integer.
func (c *Config) ExchangeRateBig() *big.Int { return big.NewInt(c.ExchangeRate) }

// ScalingFactorBig returns the scaling factor as a big integer.
func (c *Config) ScalingFactorBig() *big.Int { return big.NewInt(c.ScalingFactor) }

// OverheadCostBig returns the overhead cost as a big integer.
func (c *Config) OverheadCostBig() *big.Int { return big.NewInt(c.OverheadCost) }
