package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, BackendLevelDB, cfg.DataBackend)
	require.Equal(t, int64(1), cfg.ExchangeRate)
	require.Equal(t, int64(1), cfg.ScalingFactor)
	require.Equal(t, uint64(7_500), cfg.MaxLTVBps)
	require.Contains(t, cfg.ApprovedCollateral, "WETH")
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	_, err = os.Stat(path)
	require.NoError(t, err, "missing config must be materialised on disk")

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadAppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
DataBackend = "memory"
GasUnitPrice = 15
DefaultInterestRateBps = 250
MaxLTVBps = 5000
ApprovedCollateral = ["WETH", "WBTC"]
ExchangeRate = 1000000
Paused = ["lending"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, BackendMemory, cfg.DataBackend)
	require.Equal(t, int64(15), cfg.GasUnitPrice)
	require.Equal(t, uint64(250), cfg.DefaultInterestRateBps)
	require.Equal(t, uint64(5000), cfg.MaxLTVBps)
	require.Equal(t, []string{"WETH", "WBTC"}, cfg.ApprovedCollateral)
	require.Equal(t, int64(1_000_000), cfg.ExchangeRate)
	require.Equal(t, []string{"lending"}, cfg.Paused)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.DataBackend = "cassandra" }},
		{"negative gas price", func(c *Config) { c.GasUnitPrice = -1 }},
		{"ltv above 100 percent", func(c *Config) { c.MaxLTVBps = 10_001 }},
		{"zero exchange rate", func(c *Config) { c.ExchangeRate = 0 }},
		{"zero scaling factor", func(c *Config) { c.ScalingFactor = 0 }},
		{"negative overhead", func(c *Config) { c.OverheadCost = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
