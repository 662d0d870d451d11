package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "ETHUSDT", cfg.Exchange.Symbol)
	assert.Equal(t, "USDT", cfg.Exchange.MarginCoin)
	assert.Equal(t, 8, cfg.Exchange.Leverage)
	assert.Equal(t, 10*time.Second, cfg.Exchange.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Runner.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Runner.BalanceInterval)
	assert.Equal(t, 48.0, cfg.Strategy.RSIBuy)
	assert.Equal(t, 45.0, cfg.Strategy.ExitRSI)
	assert.Equal(t, 4, cfg.Strategy.BreakoutLen)
	assert.Equal(t, int32(4), cfg.Strategy.QuantityPrecision)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Strategy.Start.UTC())
	assert.Equal(t, time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC), cfg.Strategy.End.UTC())
	assert.Equal(t, "stats.json", cfg.Ledger.File)
	assert.Equal(t, 17, cfg.MinCandles())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeFile(t, `
exchange:
  symbol: BTCUSDT
  leverage: 3
market:
  timeframe: 60m
strategy:
  rsi_buy: 55
`)
	t.Setenv("STRATEGY_EXIT_RSI", "40")
	t.Setenv("BITUNIX_API_KEY", "key-123")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", cfg.Exchange.Symbol)
	assert.Equal(t, 3, cfg.Exchange.Leverage)
	assert.Equal(t, "1h", cfg.Market.Timeframe)
	assert.Equal(t, 55.0, cfg.Strategy.RSIBuy)
	assert.Equal(t, 40.0, cfg.Strategy.ExitRSI)
	assert.Equal(t, "key-123", cfg.Exchange.APIKey)
	assert.Equal(t, int64(42), cfg.Notify.TelegramChatID)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"wallet fraction above one", "strategy:\n  wallet_fraction: 1.5\n"},
		{"zero leverage", "exchange:\n  leverage: 0\n"},
		{"too few candles", "market:\n  candle_limit: 10\n"},
		{"bad timeframe", "market:\n  timeframe: 7m\n"},
		{"inverted window", "strategy:\n  start: \"2026-01-01T00:00:00Z\"\n  end: \"2025-01-01T00:00:00Z\"\n"},
		{"postgres without dsn", "ledger:\n  backend: postgres\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestDumpMasksSecrets(t *testing.T) {
	t.Setenv("BITUNIX_SECRET_KEY", "supersecret")
	cfg, err := Load("")
	require.NoError(t, err)

	out, err := cfg.Dump()
	require.NoError(t, err)
	assert.Contains(t, out, "secret_key: supe****")
	assert.NotContains(t, out, "supersecret")
	assert.Contains(t, out, "symbol: ETHUSDT")
}

func TestRequireCredentials(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Exchange.APIKey, cfg.Exchange.SecretKey = "", ""
	assert.Error(t, cfg.RequireCredentials())

	cfg.Exchange.APIKey, cfg.Exchange.SecretKey = "k", "s"
	assert.NoError(t, cfg.RequireCredentials())
}
