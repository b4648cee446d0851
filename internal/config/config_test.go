package config

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "noren-desk/internal/errors"
)

func TestLoadDefaultsWhenNoFiles(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ConfigDir != dir {
		t.Errorf("ConfigDir = %q, want %q", cfg.ConfigDir, dir)
	}
	if cfg.Broker.BaseURL == "" {
		t.Error("default base URL missing")
	}
	if cfg.Scan.RSIPeriod != 14 {
		t.Errorf("default RSI period = %d", cfg.Scan.RSIPeriod)
	}
	if cfg.Orders.DuplicatePriceTolerance != 0.01 {
		t.Errorf("default tolerance = %v", cfg.Orders.DuplicatePriceTolerance)
	}
	if cfg.Orders.SLLimitOffsetPct != 0.2 {
		t.Errorf("default SL offset = %v", cfg.Orders.SLLimitOffsetPct)
	}
}

func TestLoadReadsTOMLOverrides(t *testing.T) {
	dir := t.TempDir()

	configTOML := `
[broker]
base_url = "http://localhost:9999"
timeout_seconds = 10

[scan]
rsi_period = 21
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(configTOML), 0644); err != nil {
		t.Fatal(err)
	}
	credsTOML := `
uid = "FA0001"
totp_secret = "JBSWY3DPEHPK3PXP"
`
	if err := os.WriteFile(filepath.Join(dir, "credentials.toml"), []byte(credsTOML), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Broker.BaseURL != "http://localhost:9999" {
		t.Errorf("base URL = %q", cfg.Broker.BaseURL)
	}
	if cfg.Broker.TimeoutSeconds != 10 {
		t.Errorf("timeout = %d", cfg.Broker.TimeoutSeconds)
	}
	if cfg.Scan.RSIPeriod != 21 {
		t.Errorf("RSI period = %d", cfg.Scan.RSIPeriod)
	}
	// Untouched sections keep their defaults.
	if cfg.Scan.EMA20LTPRatio != 0.95 {
		t.Errorf("EMA ratio = %v", cfg.Scan.EMA20LTPRatio)
	}
	if cfg.Credentials.UID != "FA0001" {
		t.Errorf("UID = %q", cfg.Credentials.UID)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NOREN_DESK_BASE_URL", "http://env-host")
	t.Setenv("NOREN_DESK_UID", "FB0002")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Broker.BaseURL != "http://env-host" {
		t.Errorf("base URL = %q", cfg.Broker.BaseURL)
	}
	if cfg.Credentials.UID != "FB0002" {
		t.Errorf("UID = %q", cfg.Credentials.UID)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base URL", func(c *Config) { c.Broker.BaseURL = "" }},
		{"zero RSI period", func(c *Config) { c.Scan.RSIPeriod = 0 }},
		{"lookback too small", func(c *Config) { c.Scan.DistributionLookback = 1 }},
		{"negative tolerance", func(c *Config) { c.Orders.DuplicatePriceTolerance = -0.01 }},
		{"negative SL offset", func(c *Config) { c.Orders.SLLimitOffsetPct = -1 }},
		{"bad timeframe", func(c *Config) { c.Data.DefaultTimeframe = "hour" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !apperrors.Is(err, apperrors.ErrConfigInvalid) {
				t.Errorf("Validate = %v, want ErrConfigInvalid", err)
			}
		})
	}
}

func TestValidateRepairsTimeout(t *testing.T) {
	cfg := Default()
	cfg.Broker.TimeoutSeconds = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Broker.TimeoutSeconds != 30 {
		t.Errorf("timeout = %d, want 30", cfg.Broker.TimeoutSeconds)
	}
}

func TestPaths(t *testing.T) {
	cfg := &Config{ConfigDir: "/tmp/desk-config"}
	if got := cfg.SessionPath(); got != filepath.Join("/tmp/desk-config", "session.json") {
		t.Errorf("SessionPath = %q", got)
	}
	if got := cfg.DatabasePath(); got != filepath.Join("/tmp/desk-config", "desk.db") {
		t.Errorf("DatabasePath = %q", got)
	}
}
