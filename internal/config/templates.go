package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# noren-desk Configuration

[broker]
# Base URL of the Noren-style broker gateway
base_url = "https://api.prostocks.com/NorenWClientTP"
# HTTP timeout in seconds
timeout_seconds = 30

[data]
# Path to the tab-separated scripmaster file
scripmaster_path = ""
# Default chart timeframe: day, week, month
default_timeframe = "day"
# Days of history fetched for charts and scans
history_days = 200

[scan]
# Benchmark index for relative strength
index_symbol = "NIFTY"
index_segment = "NSE"
# Base EMA-ratio filter thresholds
ema20_ltp_ratio = 0.95
ema50_ema20_ratio = 0.95
# RSI period
rsi_period = 14
# Trailing window for distribution/reversal warnings
distribution_lookback = 10

[orders]
# Working orders within this price distance count as duplicates
duplicate_price_tolerance = 0.01
# Extra percent below the SL trigger for the stop-limit price
sl_limit_offset_pct = 0.2
# Default product: I (intraday), C (delivery), M (normal)
default_product = "C"

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-01-2006"
`

const credentialsTemplate = `# noren-desk Credentials
# Keep this file private (chmod 600).

uid = ""
account_id = ""
password = ""
# Base32 TOTP secret for the second login factor
totp_secret = ""
api_key = ""
vendor_code = ""
imei = "desk"
`

// WriteTemplates writes template config files to the config directory.
// Existing files are left untouched.
func WriteTemplates(configDir string) error {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	files := map[string]string{
		"config.toml":      configTemplate,
		"credentials.toml": credentialsTemplate,
	}

	for name, content := range files {
		path := filepath.Join(configDir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		mode := os.FileMode(0644)
		if name == "credentials.toml" {
			mode = 0600
		}
		if err := os.WriteFile(path, []byte(content), mode); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	return nil
}
