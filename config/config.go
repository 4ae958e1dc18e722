// Package config loads the bot configuration: a JSON file as the base,
// environment variables as overrides. Strategy thresholds live here,
// never as constants in the signal code.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"bitget-trading-bot/internal/api"
	"bitget-trading-bot/internal/executor"
	"bitget-trading-bot/internal/feed"
	"bitget-trading-bot/internal/logging"
	"bitget-trading-bot/internal/risk"
	"bitget-trading-bot/internal/signal"
	"bitget-trading-bot/internal/target"
	"bitget-trading-bot/internal/vault"
)

// Config is the full configuration tree.
type Config struct {
	TradingConfig  TradingConfig         `json:"trading"`
	Modes          map[string]ModeConfig `json:"modes"`
	RiskConfig     risk.Config           `json:"risk"`
	ExecutorConfig executor.Config       `json:"executor"`
	FeedConfig     feed.Config           `json:"feed"`
	ServerConfig   api.ServerConfig      `json:"server"`
	VaultConfig    vault.Config          `json:"vault"`
	LoggingConfig  logging.Config        `json:"logging"`
}

// TradingConfig holds process-wide trading settings.
type TradingConfig struct {
	EnableTrading bool    `json:"enable_trading"` // false runs everything against simulated fills
	BaseURL       string  `json:"base_url"`
	SimBalance    float64 `json:"sim_balance"` // starting equity when no credentials
	WindowSize    int     `json:"window_size"` // candle window capacity per symbol
}

// ModeConfig describes one trading mode.
type ModeConfig struct {
	Pairs       []string          `json:"pairs"`
	Leverage    int               `json:"leverage"`
	MaxOrders   int               `json:"max_orders"` // slot cap per (symbol, side)
	Target      target.ModeConfig `json:"target"`
	Signal      signal.Config     `json:"signal"`
	SymbolDelay Duration          `json:"symbol_delay"`
	CycleDelay  Duration          `json:"cycle_delay"`
	StaleAfter  Duration          `json:"stale_after"` // skip snapshots older than this
	ATRPeriod   int               `json:"atr_period"`
}

// Duration is a time.Duration that unmarshals from either a duration
// string ("2s", "500ms") or a plain number of nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(val))
	default:
		return fmt.Errorf("invalid duration value %v", v)
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Default returns the stock two-mode setup: majors traded steadily,
// meme pairs sniped on confirmed spikes.
func Default() *Config {
	sniperSignal := signal.DefaultConfig()
	sniperSignal.SpikeRatio = 1.8
	sniperSignal.SpikeConfirmation = 2
	sniperSignal.TakeFraction = 0.015

	return &Config{
		TradingConfig: TradingConfig{
			BaseURL:    "https://api.bitget.com",
			SimBalance: 1000,
			WindowSize: 200,
		},
		Modes: map[string]ModeConfig{
			"normal": {
				Pairs:       []string{"BTCUSDT_UMCBL", "ETHUSDT_UMCBL", "SOLUSDT_UMCBL", "LTCUSDT_UMCBL", "ASTRUSDT_UMCBL"},
				Leverage:    25,
				MaxOrders:   3,
				Target:      target.ModeConfig{BaseTarget: 30, Multiplier: 3, SwitchBalance: 3000},
				Signal:      signal.DefaultConfig(),
				SymbolDelay: Duration(2 * time.Second),
				CycleDelay:  Duration(10 * time.Second),
				StaleAfter:  Duration(30 * time.Second),
				ATRPeriod:   14,
			},
			"sniper": {
				Pairs:       []string{"PEPEUSDT_UMCBL", "SHIBUSDT_UMCBL", "FLOKIUSDT_UMCBL", "BONKUSDT_UMCBL", "WIFUSDT_UMCBL"},
				Leverage:    12,
				MaxOrders:   2,
				Target:      target.ModeConfig{BaseTarget: 40, Multiplier: 1.5, SwitchBalance: 3000},
				Signal:      sniperSignal,
				SymbolDelay: Duration(2 * time.Second),
				CycleDelay:  Duration(10 * time.Second),
				StaleAfter:  Duration(30 * time.Second),
				ATRPeriod:   14,
			},
		},
		RiskConfig:     risk.DefaultConfig(),
		ExecutorConfig: executor.DefaultConfig(),
		FeedConfig:     feed.Config{URL: feed.DefaultURL, InstType: "USDT-FUTURES"},
		ServerConfig:   api.ServerConfig{Host: "0.0.0.0", Port: 8080},
		LoggingConfig:  logging.Config{Level: "info", Output: "stdout", JSONFormat: true},
	}
}

// Load reads config.json when present, otherwise starts from the
// defaults, then applies environment overrides. A .env file is picked
// up first when one exists. A config file that exists but does not
// parse is a startup error, never a silent fallback to defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := loadFromFile(getEnvOrDefault("CONFIG_FILE", "config.json"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = Default()
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Credentials themselves are resolved by the vault package, not here.
func applyEnvOverrides(cfg *Config) {
	cfg.TradingConfig.EnableTrading = getEnvOrDefault("ENABLE_TRADING", boolString(cfg.TradingConfig.EnableTrading)) == "true"
	cfg.TradingConfig.BaseURL = getEnvOrDefault("BITGET_BASE_URL", cfg.TradingConfig.BaseURL)
	cfg.TradingConfig.SimBalance = getEnvFloatOrDefault("SIM_BALANCE", cfg.TradingConfig.SimBalance)
	cfg.TradingConfig.WindowSize = getEnvIntOrDefault("WINDOW_SIZE", cfg.TradingConfig.WindowSize)

	cfg.FeedConfig.URL = getEnvOrDefault("FEED_URL", cfg.FeedConfig.URL)

	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", cfg.ServerConfig.Port)
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", cfg.ServerConfig.Host)

	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", cfg.LoggingConfig.Level)
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", cfg.LoggingConfig.Output)
	cfg.LoggingConfig.JSONFormat = getEnvOrDefault("LOG_JSON", boolString(cfg.LoggingConfig.JSONFormat)) == "true"

	cfg.VaultConfig.Enabled = getEnvOrDefault("VAULT_ENABLED", boolString(cfg.VaultConfig.Enabled)) == "true"
	cfg.VaultConfig.Address = getEnvOrDefault("VAULT_ADDR", cfg.VaultConfig.Address)
	cfg.VaultConfig.Token = getEnvOrDefault("VAULT_TOKEN", cfg.VaultConfig.Token)
	cfg.VaultConfig.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", cfg.VaultConfig.SecretPath)
}

// Validate rejects configurations the bot cannot safely run with.
func (c *Config) Validate() error {
	if len(c.Modes) == 0 {
		return fmt.Errorf("config: no trading modes defined")
	}
	for name, mode := range c.Modes {
		if len(mode.Pairs) == 0 {
			return fmt.Errorf("config: mode %q has no pairs", name)
		}
		if mode.Leverage <= 0 {
			return fmt.Errorf("config: mode %q leverage must be positive", name)
		}
		if mode.MaxOrders <= 0 {
			return fmt.Errorf("config: mode %q max_orders must be positive", name)
		}
		if mode.Target.BaseTarget <= 0 || mode.Target.Multiplier < 1 {
			return fmt.Errorf("config: mode %q has invalid target progression", name)
		}
		if mode.Signal.SpikeRatio <= 1 {
			return fmt.Errorf("config: mode %q spike_ratio must exceed 1", name)
		}
		if mode.Signal.StopFraction <= 0 || mode.Signal.StopFraction >= 1 {
			return fmt.Errorf("config: mode %q stop_fraction out of range", name)
		}
	}
	if c.RiskConfig.MaxRiskPerTrade <= 0 || c.RiskConfig.MaxRiskPerTrade > 1 {
		return fmt.Errorf("config: max_risk_per_trade out of range")
	}
	if c.RiskConfig.MaxExposureFraction <= 0 || c.RiskConfig.MaxExposureFraction > 1 {
		return fmt.Errorf("config: max_exposure_fraction out of range")
	}
	if c.TradingConfig.WindowSize < 10 {
		return fmt.Errorf("config: window_size too small")
	}
	return nil
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
