package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/collector"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/strategy"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Data providers.
const (
	ProviderYahoo   = "yahoo"
	ProviderBinance = "binance"
	ProviderREST    = "rest"
	ProviderMock    = "mock"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken      string `yaml:"bot_token"`
		ChatID        string `yaml:"chat_id"`
		TimezoneLabel string `yaml:"timezone_label"`
		PollCommands  bool   `yaml:"poll_commands"`
	} `yaml:"telegram"`
	Server struct {
		Port         int    `yaml:"port"`
		SharedSecret string `yaml:"shared_secret"`
	} `yaml:"server"`
	DataSource struct {
		Provider     string        `yaml:"provider"`
		BaseURL      string        `yaml:"base_url"`
		APIKey       string        `yaml:"api_key"`
		SecretKey    string        `yaml:"secret_key"`
		Interval     string        `yaml:"interval"`
		Lookback     int           `yaml:"lookback"`
		FetchTimeout time.Duration `yaml:"fetch_timeout"`
	} `yaml:"data_source"`
	Symbols []model.Instrument `yaml:"symbols"`
	Monitor struct {
		PollInterval      time.Duration `yaml:"poll_interval"`
		MinResendInterval time.Duration `yaml:"min_resend_interval"`
		NotifyErrors      bool          `yaml:"notify_errors"`
	} `yaml:"monitor"`
	Strategy strategy.Params `yaml:"strategy"`
	Risk     struct {
		AccountBalance    float64 `yaml:"account_balance"`
		RiskPercent       float64 `yaml:"risk_percent"`
		DailyLossLimitPct float64 `yaml:"daily_loss_limit_pct"`
		DayUTCOffset      string  `yaml:"day_utc_offset"`
	} `yaml:"risk"`
	Schedule struct {
		DailySummaryCron string `yaml:"daily_summary_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy      string `yaml:"proxy"`
	RunOnStart bool   `yaml:"run_on_start"`
}

// DefaultSymbols is the watch list used when none is configured.
func DefaultSymbols() []model.Instrument {
	return []model.Instrument{
		{Symbol: "XAUUSD", FetchID: "GC=F", MinUnit: 0.01},
		{Symbol: "EURUSD", FetchID: "EURUSD=X", MinUnit: 0.01},
		{Symbol: "BTCUSD", FetchID: "BTC-USD", MinUnit: 0.001},
	}
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.Telegram.PollCommands = true
	cfg.Server.Port = 10000
	cfg.DataSource.Provider = ProviderYahoo
	cfg.DataSource.Interval = "15m"
	cfg.DataSource.Lookback = 300
	cfg.DataSource.FetchTimeout = 15 * time.Second
	cfg.Monitor.PollInterval = 60 * time.Second
	cfg.Monitor.MinResendInterval = 30 * time.Minute
	cfg.Strategy = strategy.DefaultParams()
	cfg.Risk.AccountBalance = 200
	cfg.Risk.RiskPercent = 3
	cfg.Risk.DailyLossLimitPct = 3
	cfg.Risk.DayUTCOffset = "+03:00"
	cfg.Schedule.DailySummaryCron = "0 55 23 * * *"
	cfg.Database.SQLitePath = "data/tv2tg_alerts.db"
	return cfg
}

// Load reads .env (if present) and the YAML file over the defaults, then
// applies environment variable overrides. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if len(cfg.Symbols) == 0 {
		cfg.Symbols = DefaultSymbols()
	}
	for i := range cfg.Symbols {
		s := &cfg.Symbols[i]
		s.Symbol = strings.ToUpper(strings.TrimSpace(s.Symbol))
		if s.FetchID == "" {
			s.FetchID = s.Symbol
		}
		if s.MinUnit == 0 {
			s.MinUnit = 0.01
		}
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	str(&c.Telegram.BotToken, "TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	str(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	str(&c.Telegram.TimezoneLabel, "TZ")
	str(&c.Server.SharedSecret, "SHARED_SECRET")
	str(&c.DataSource.Provider, "DATA_PROVIDER")
	str(&c.DataSource.BaseURL, "DATA_BASE_URL")
	str(&c.DataSource.APIKey, "DATA_API_KEY")
	str(&c.Risk.DayUTCOffset, "DAY_UTC_OFFSET")
	str(&c.Database.SQLitePath, "SQLITE_PATH")
	str(&c.Proxy, "HTTPS_PROXY")

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT %q", ErrInvalid, v)
		}
		c.Server.Port = port
	}
	floats := []struct {
		key string
		dst *float64
	}{
		{"ACCOUNT_BALANCE", &c.Risk.AccountBalance},
		{"RISK_PERCENT", &c.Risk.RiskPercent},
		{"DAILY_LOSS_LIMIT_PCT", &c.Risk.DailyLossLimitPct},
	}
	for _, f := range floats {
		if v := os.Getenv(f.key); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%w: %s %q", ErrInvalid, f.key, v)
			}
			*f.dst = n
		}
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"POLL_INTERVAL", &c.Monitor.PollInterval},
		{"MIN_RESEND_INTERVAL", &c.Monitor.MinResendInterval},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			n, err := parseSeconds(v)
			if err != nil {
				return fmt.Errorf("%w: %s %q", ErrInvalid, d.key, v)
			}
			*d.dst = n
		}
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		syms, err := ParseSymbols(v)
		if err != nil {
			return err
		}
		c.Symbols = syms
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		c.RunOnStart = v == "true" || v == "1"
	}
	return nil
}

// parseSeconds accepts a Go duration ("90s", "5m") or a bare number of seconds.
func parseSeconds(v string) (time.Duration, error) {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

// ParseSymbols parses "XAUUSD:GC=F:0.01,EURUSD:EURUSD=X" into instruments.
// The fetch ID defaults to the symbol and the min unit to 0.01.
func ParseSymbols(v string) ([]model.Instrument, error) {
	var out []model.Instrument
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		inst := model.Instrument{Symbol: strings.ToUpper(parts[0]), FetchID: parts[0], MinUnit: 0.01}
		if len(parts) > 1 && parts[1] != "" {
			inst.FetchID = parts[1]
		}
		if len(parts) > 2 {
			u, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: min unit in %q", ErrInvalid, item)
			}
			inst.MinUnit = u
		}
		if len(parts) > 3 {
			return nil, fmt.Errorf("%w: symbol entry %q", ErrInvalid, item)
		}
		out = append(out, inst)
	}
	return out, nil
}

// ParseUTCOffset turns "+03:00", "-05:30", "+3" or "0" into a fixed zone.
func ParseUTCOffset(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "Z" || s == "0" {
		return time.FixedZone("UTC", 0), nil
	}
	sign, signChar := 1, "+"
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		sign, signChar = -1, "-"
		s = s[1:]
	}
	hh, mm, hasMin := strings.Cut(s, ":")
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 14 {
		return nil, fmt.Errorf("%w: utc offset %q", ErrInvalid, s)
	}
	m := 0
	if hasMin {
		if m, err = strconv.Atoi(mm); err != nil || m < 0 || m > 59 {
			return nil, fmt.Errorf("%w: utc offset %q", ErrInvalid, s)
		}
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", signChar, h, m)
	return time.FixedZone(name, sign*(h*3600+m*60)), nil
}

// Location returns the zone used for the trading day boundary.
func (c *Config) Location() *time.Location {
	loc, err := ParseUTCOffset(c.Risk.DayUTCOffset)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TZLabel is the zone name shown in messages.
func (c *Config) TZLabel() string {
	if c.Telegram.TimezoneLabel != "" {
		return c.Telegram.TimezoneLabel
	}
	return c.Location().String()
}

// Validate checks that all required fields are set and consistent.
// Telegram credentials are optional; without them notifications are skipped.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}

	if len(c.Symbols) == 0 {
		return invalid("at least one symbol is required")
	}
	seen := make(map[string]bool)
	for _, s := range c.Symbols {
		if s.Symbol == "" || s.FetchID == "" {
			return invalid("symbol and fetch_id are required")
		}
		if seen[s.Symbol] {
			return invalid("duplicate symbol %s", s.Symbol)
		}
		seen[s.Symbol] = true
		if s.MinUnit <= 0 {
			return invalid("%s: min_unit must be positive", s.Symbol)
		}
	}

	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderBinance, ProviderMock:
	case ProviderREST:
		if c.DataSource.BaseURL == "" {
			return invalid("data_source.base_url is required for the rest provider")
		}
	default:
		return invalid("unknown data_source.provider %q", c.DataSource.Provider)
	}
	if _, err := collector.ParseInterval(c.DataSource.Interval); err != nil {
		return invalid("data_source.interval: %v", err)
	}
	if need := c.Strategy.Periods.Required(); c.DataSource.Lookback < need {
		return invalid("data_source.lookback %d is below the %d bars the indicators need", c.DataSource.Lookback, need)
	}
	if c.DataSource.FetchTimeout <= 0 {
		return invalid("data_source.fetch_timeout must be positive")
	}

	if c.Monitor.PollInterval <= 0 {
		return invalid("monitor.poll_interval must be positive")
	}
	if c.Monitor.MinResendInterval < 0 {
		return invalid("monitor.min_resend_interval must not be negative")
	}

	p := c.Strategy
	for name, v := range map[string]int{
		"ema_fast": p.Periods.EMAFast, "ema_slow": p.Periods.EMASlow, "ema_trend": p.Periods.EMATrend,
		"rsi": p.Periods.RSI, "atr": p.Periods.ATR, "sr_window": p.SRWindow,
	} {
		if v <= 0 {
			return invalid("strategy.%s must be positive", name)
		}
	}
	if p.ATRStopMult <= 0 || p.MinStopPct < 0 {
		return invalid("strategy stop parameters out of range")
	}

	if c.Risk.AccountBalance <= 0 {
		return invalid("risk.account_balance must be positive")
	}
	if c.Risk.RiskPercent <= 0 || c.Risk.RiskPercent > 100 {
		return invalid("risk.risk_percent must be in (0, 100]")
	}
	if c.Risk.DailyLossLimitPct <= 0 {
		return invalid("risk.daily_loss_limit_pct must be positive")
	}
	if _, err := ParseUTCOffset(c.Risk.DayUTCOffset); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return invalid("server.port %d out of range", c.Server.Port)
	}
	if c.Schedule.DailySummaryCron == "" {
		return invalid("schedule.daily_summary_cron is required")
	}
	return nil
}
