package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "TZ", "SHARED_SECRET",
		"DATA_PROVIDER", "DATA_BASE_URL", "DATA_API_KEY", "DAY_UTC_OFFSET", "SQLITE_PATH",
		"HTTPS_PROXY", "PORT", "ACCOUNT_BALANCE", "RISK_PERCENT", "DAILY_LOSS_LIMIT_PCT",
		"POLL_INTERVAL", "MIN_RESEND_INTERVAL", "SYMBOLS", "RUN_ON_START",
	} {
		t.Setenv(k, "")
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10000, cfg.Server.Port)
	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, 15*time.Second, cfg.DataSource.FetchTimeout)
	assert.Equal(t, 60*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, 30*time.Minute, cfg.Monitor.MinResendInterval)
	assert.Equal(t, 200.0, cfg.Risk.AccountBalance)
	assert.Equal(t, 3.0, cfg.Risk.RiskPercent)
	assert.Equal(t, 200, cfg.Strategy.Periods.EMATrend)
	assert.Len(t, cfg.Symbols, 3)
	assert.Equal(t, "UTC+03:00", cfg.TZLabel())
	assert.False(t, cfg.RunOnStart)
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
telegram:
  chat_id: "123"
data_source:
  interval: 5m
  fetch_timeout: 10s
symbols:
  - symbol: xauusd
    fetch_id: GC=F
  - symbol: BTCUSD
    fetch_id: BTCUSDT
    min_unit: 0.0001
monitor:
  min_resend_interval: 45m
strategy:
  bull_rsi: 55
  periods:
    ema_fast: 9
risk:
  day_utc_offset: "-05:30"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "123", cfg.Telegram.ChatID)
	assert.Equal(t, "5m", cfg.DataSource.Interval)
	assert.Equal(t, 300, cfg.DataSource.Lookback, "unset fields keep defaults")
	assert.Equal(t, 10*time.Second, cfg.DataSource.FetchTimeout)
	assert.Equal(t, 45*time.Minute, cfg.Monitor.MinResendInterval)
	assert.Equal(t, 55.0, cfg.Strategy.BullRSI)
	assert.Equal(t, 48.0, cfg.Strategy.BearRSI)
	assert.Equal(t, 9, cfg.Strategy.Periods.EMAFast)
	assert.Equal(t, 50, cfg.Strategy.Periods.EMASlow)

	require.Len(t, cfg.Symbols, 2)
	assert.Equal(t, "XAUUSD", cfg.Symbols[0].Symbol)
	assert.Equal(t, 0.01, cfg.Symbols[0].MinUnit)
	assert.Equal(t, 0.0001, cfg.Symbols[1].MinUnit)

	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, cfg.Location()).Zone()
	assert.Equal(t, -(5*3600 + 30*60), offset)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-bot-token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("SHARED_SECRET", "s3cret")
	t.Setenv("PORT", "8080")
	t.Setenv("ACCOUNT_BALANCE", "1000")
	t.Setenv("RISK_PERCENT", "1.5")
	t.Setenv("POLL_INTERVAL", "90")
	t.Setenv("MIN_RESEND_INTERVAL", "10m")
	t.Setenv("DAY_UTC_OFFSET", "+0")
	t.Setenv("SYMBOLS", "BTCUSD:BTCUSDT:0.001, ETHUSD:ETHUSDT")
	t.Setenv("DATA_PROVIDER", "binance")
	t.Setenv("RUN_ON_START", "true")
	t.Setenv("TZ", "Asia/Riyadh")

	cfg, err := Load(writeYAML(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "from-bot-token", cfg.Telegram.BotToken)
	assert.Equal(t, 8080, cfg.Server.Port, "env beats yaml")
	assert.Equal(t, 1000.0, cfg.Risk.AccountBalance)
	assert.Equal(t, 1.5, cfg.Risk.RiskPercent)
	assert.Equal(t, 90*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, 10*time.Minute, cfg.Monitor.MinResendInterval)
	assert.Equal(t, "binance", cfg.DataSource.Provider)
	assert.True(t, cfg.RunOnStart)
	assert.Equal(t, "Asia/Riyadh", cfg.TZLabel())
	require.Len(t, cfg.Symbols, 2)
	assert.Equal(t, "ETHUSDT", cfg.Symbols[1].FetchID)
	assert.Equal(t, 0.01, cfg.Symbols[1].MinUnit)
}

func TestLoad_TelegramTokenPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "primary")
	t.Setenv("TELEGRAM_BOT_TOKEN", "secondary")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.Telegram.BotToken)
}

func TestLoad_BadEnv(t *testing.T) {
	for key, val := range map[string]string{
		"PORT":            "http",
		"ACCOUNT_BALANCE": "lots",
		"POLL_INTERVAL":   "soon",
		"SYMBOLS":         "XAUUSD:GC=F:tiny",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := Load("")
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeYAML(t, "symbols: [unclosed"))
	assert.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"no symbols":        func(c *Config) { c.Symbols = nil },
		"duplicate symbol":  func(c *Config) { c.Symbols = append(c.Symbols, c.Symbols[0]) },
		"zero min unit":     func(c *Config) { c.Symbols[0].MinUnit = 0 },
		"unknown provider":  func(c *Config) { c.DataSource.Provider = "bloomberg" },
		"rest without url":  func(c *Config) { c.DataSource.Provider = ProviderREST },
		"bad interval":      func(c *Config) { c.DataSource.Interval = "fortnight" },
		"short lookback":    func(c *Config) { c.DataSource.Lookback = 199 },
		"zero poll":         func(c *Config) { c.Monitor.PollInterval = 0 },
		"negative resend":   func(c *Config) { c.Monitor.MinResendInterval = -time.Second },
		"zero rsi period":   func(c *Config) { c.Strategy.Periods.RSI = 0 },
		"zero atr mult":     func(c *Config) { c.Strategy.ATRStopMult = 0 },
		"zero balance":      func(c *Config) { c.Risk.AccountBalance = 0 },
		"risk over 100":     func(c *Config) { c.Risk.RiskPercent = 101 },
		"zero loss limit":   func(c *Config) { c.Risk.DailyLossLimitPct = 0 },
		"bad offset":        func(c *Config) { c.Risk.DayUTCOffset = "+3h" },
		"port out of range": func(c *Config) { c.Server.Port = 70000 },
		"no summary cron":   func(c *Config) { c.Schedule.DailySummaryCron = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Symbols = DefaultSymbols()
			require.NoError(t, cfg.Validate())
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestParseUTCOffset(t *testing.T) {
	cases := map[string]int{
		"+03:00": 3 * 3600,
		"-05:30": -(5*3600 + 30*60),
		"+3":     3 * 3600,
		"0":      0,
		"":       0,
		"14":     14 * 3600,
	}
	for in, want := range cases {
		loc, err := ParseUTCOffset(in)
		require.NoError(t, err, in)
		_, got := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"+15", "+03:75", "UTC+3", "+-3"} {
		_, err := ParseUTCOffset(bad)
		assert.ErrorIs(t, err, ErrInvalid, bad)
	}
}

func TestParseSymbols(t *testing.T) {
	syms, err := ParseSymbols("xauusd:GC=F, ,EURUSD")
	require.NoError(t, err)
	require.Len(t, syms, 2)
	assert.Equal(t, "XAUUSD", syms[0].Symbol)
	assert.Equal(t, "GC=F", syms[0].FetchID)
	assert.Equal(t, "EURUSD", syms[1].FetchID)

	_, err = ParseSymbols("A:B:0.1:extra")
	assert.ErrorIs(t, err, ErrInvalid)
}
