package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polytrader/config"
)

const validYAML = `
trading:
  bankroll_usdc: 1000
  mispricing_threshold: 0.15
  max_kelly_fraction: 0.10
  interval_seconds: 3600
  max_positions: 5
  stop_loss_bankroll: 500
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, 1000.0, cfg.Trading.BankrollUSDC)
	assert.Equal(t, 0.15, cfg.Trading.MispricingThreshold)
	assert.Equal(t, time.Hour, cfg.ScanInterval())
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.Trading.MinBalanceUSDC)
	assert.Equal(t, 500, cfg.Scanner.MarketLimit)
	assert.Equal(t, 1000.0, cfg.Scanner.MinVolume24h)
	assert.Equal(t, 50, cfg.Scanner.MaxLLMAnalyses)
	assert.Equal(t, 60, cfg.RateLimit.MaxOrders)
	assert.Equal(t, time.Minute, cfg.RateWindow())
	assert.Equal(t, "https://clob.polymarket.com", cfg.API.CLOBBase)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadMissingRequiredField(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing bankroll", `
trading:
  mispricing_threshold: 0.15
  max_kelly_fraction: 0.10
  interval_seconds: 3600
  max_positions: 5
  stop_loss_bankroll: 500
`},
		{"missing threshold", `
trading:
  bankroll_usdc: 1000
  max_kelly_fraction: 0.10
  interval_seconds: 3600
  max_positions: 5
  stop_loss_bankroll: 500
`},
		{"missing max positions", `
trading:
  bankroll_usdc: 1000
  mispricing_threshold: 0.15
  max_kelly_fraction: 0.10
  interval_seconds: 3600
  stop_loss_bankroll: 500
`},
		{"stop loss above bankroll", `
trading:
  bankroll_usdc: 1000
  mispricing_threshold: 0.15
  max_kelly_fraction: 0.10
  interval_seconds: 3600
  max_positions: 5
  stop_loss_bankroll: 2000
`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POLYMARKET_API_KEY", "pk-test")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "pk-test", cfg.API.APIKey)
	assert.Equal(t, "sk-test", cfg.Oracle.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
