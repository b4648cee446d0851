// Package config provides configuration management for the trading desk.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	apperrors "noren-desk/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Broker      BrokerConfig `mapstructure:"broker"`
	Data        DataConfig   `mapstructure:"data"`
	Scan        ScanConfig   `mapstructure:"scan"`
	Orders      OrderConfig  `mapstructure:"orders"`
	UI          UIConfig     `mapstructure:"ui"`
	Credentials Credentials  `mapstructure:"-"` // Loaded separately

	// ConfigDir is the directory this configuration was loaded from.
	ConfigDir string `mapstructure:"-" json:"-"`
}

// SessionPath returns the session file path for this configuration.
func (c *Config) SessionPath() string {
	return SessionPath(c.ConfigDir)
}

// DatabasePath returns the SQLite database path for this configuration.
func (c *Config) DatabasePath() string {
	return DatabasePath(c.ConfigDir)
}

// BrokerConfig holds broker gateway configuration.
type BrokerConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// DataConfig holds market data configuration.
type DataConfig struct {
	ScripmasterPath  string `mapstructure:"scripmaster_path"`
	DefaultTimeframe string `mapstructure:"default_timeframe"` // day, week, month
	HistoryDays      int    `mapstructure:"history_days"`
}

// ScanConfig holds scanner defaults.
type ScanConfig struct {
	IndexSymbol          string  `mapstructure:"index_symbol"`
	IndexSegment         string  `mapstructure:"index_segment"`
	EMA20LTPRatio        float64 `mapstructure:"ema20_ltp_ratio"`
	EMA50EMA20Ratio      float64 `mapstructure:"ema50_ema20_ratio"`
	RSIPeriod            int     `mapstructure:"rsi_period"`
	DistributionLookback int     `mapstructure:"distribution_lookback"`
}

// OrderConfig holds order-construction constants. The tolerance and
// offset defaults mirror long-standing dashboard behavior; they are
// configurable but not reinterpreted.
type OrderConfig struct {
	DuplicatePriceTolerance float64 `mapstructure:"duplicate_price_tolerance"`
	SLLimitOffsetPct        float64 `mapstructure:"sl_limit_offset_pct"`
	DefaultProduct          string  `mapstructure:"default_product"`
}

// UIConfig holds output configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// Credentials holds broker API credentials, loaded from credentials.toml.
type Credentials struct {
	UID        string `mapstructure:"uid"`
	AccountID  string `mapstructure:"account_id"`
	Password   string `mapstructure:"password"`
	TOTPSecret string `mapstructure:"totp_secret"`
	APIKey     string `mapstructure:"api_key"`
	VendorCode string `mapstructure:"vendor_code"`
	IMEI       string `mapstructure:"imei"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/noren-desk"
	}
	return filepath.Join(home, ".config", "noren-desk")
}

// SessionPath returns the session file path under the config directory.
func SessionPath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "session.json")
}

// DatabasePath returns the SQLite database path under the config directory.
func DatabasePath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "desk.db")
}

// Default returns the built-in defaults, used when no config file exists.
func Default() *Config {
	return &Config{
		Broker: BrokerConfig{
			BaseURL:        "https://api.prostocks.com/NorenWClientTP",
			TimeoutSeconds: 30,
		},
		Data: DataConfig{
			ScripmasterPath:  filepath.Join(DefaultConfigDir(), "scripmaster.txt"),
			DefaultTimeframe: "day",
			HistoryDays:      200,
		},
		Scan: ScanConfig{
			IndexSymbol:          "NIFTY",
			IndexSegment:         "NSE",
			EMA20LTPRatio:        0.95,
			EMA50EMA20Ratio:      0.95,
			RSIPeriod:            14,
			DistributionLookback: 10,
		},
		Orders: OrderConfig{
			DuplicatePriceTolerance: 0.01,
			SLLimitOffsetPct:        0.2,
			DefaultProduct:          "C",
		},
		UI: UIConfig{
			ColorEnabled: true,
			DateFormat:   "02-01-2006",
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()
	cfg.ConfigDir = configDir

	// Load main config; a missing file keeps the defaults.
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	// Load credentials
	if err := loadConfigFile(configDir, "credentials", &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NOREN_DESK_BASE_URL"); v != "" {
		cfg.Broker.BaseURL = v
	}
	if v := os.Getenv("NOREN_DESK_UID"); v != "" {
		cfg.Credentials.UID = v
	}
	if v := os.Getenv("NOREN_DESK_PASSWORD"); v != "" {
		cfg.Credentials.Password = v
	}
	if v := os.Getenv("NOREN_DESK_TOTP_SECRET"); v != "" {
		cfg.Credentials.TOTPSecret = v
	}
	if v := os.Getenv("NOREN_DESK_API_KEY"); v != "" {
		cfg.Credentials.APIKey = v
	}
	if v := os.Getenv("NOREN_DESK_SCRIPMASTER"); v != "" {
		cfg.Data.ScripmasterPath = v
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Broker.BaseURL == "" {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "broker.base_url is required")
	}
	if c.Broker.TimeoutSeconds <= 0 {
		c.Broker.TimeoutSeconds = 30
	}
	if c.Scan.RSIPeriod <= 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "scan.rsi_period must be positive")
	}
	if c.Scan.DistributionLookback < 2 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "scan.distribution_lookback must be at least 2")
	}
	if c.Orders.DuplicatePriceTolerance < 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "orders.duplicate_price_tolerance must not be negative")
	}
	if c.Orders.SLLimitOffsetPct < 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "orders.sl_limit_offset_pct must not be negative")
	}
	switch c.Data.DefaultTimeframe {
	case "day", "week", "month":
	default:
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "data.default_timeframe must be day, week or month")
	}
	return nil
}
