package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Portfolio Backtest Configuration

[simulation]
# Run name, used for result rows and report files
name = "backtest"
# Simulation window, end exclusive
start = "2015-01-02"
end = "2020-01-01"
# Initial capital injected on day 0
start_cash = 10000000.0
# Number of long/short slots to allocate
number_long = 10
number_short = 5
# Target book sizes as fractions of portfolio value
target_long = 0.9
target_short = 0.2
# Commission rate applied to |order notional|
commission = 0.001
# Annual fund management fee, accrued daily and settled monthly
fund_fees = 0.02
# Minimum 63-day average volume for a ticker to be tradeable
volume_floor = 10000000.0
# Rebalance anniversaries as MM-DD (weekly rebalance always applies)
rebalance_dates = ["03-31", "05-15", "08-14", "11-14"]
# Tickers excluded from selection
exclusions = []

[data]
# Directory containing the CSV inputs
dir = "data"
open_file = "open.csv"
close_file = "close.csv"
volume_file = "volume.csv"
risk_free_file = "risk_free_rate.csv"
sectors_file = "sectors.csv"

[output]
# SQLite database for results (defaults to <configdir>/results.db)
database_path = ""
# Directory for HTML reports (defaults to <configdir>/reports)
report_dir = ""

[logging]
level = "info"
console = true
file = true
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing template config: %w", err)
	}
	return nil
}
