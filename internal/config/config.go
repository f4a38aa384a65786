// Package config provides configuration management for the backtest
// application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"portfolio-backtest/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Data       DataConfig       `mapstructure:"data"`
	Output     OutputConfig     `mapstructure:"output"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SimulationConfig holds the parameters of a single backtest run.
type SimulationConfig struct {
	Name        string  `mapstructure:"name"`
	Start       string  `mapstructure:"start"` // YYYY-MM-DD
	End         string  `mapstructure:"end"`   // YYYY-MM-DD, exclusive
	StartCash   float64 `mapstructure:"start_cash"`
	NumberLong  int     `mapstructure:"number_long"`
	NumberShort int     `mapstructure:"number_short"`
	TargetLong  float64 `mapstructure:"target_long"`  // fraction of value in the long book
	TargetShort float64 `mapstructure:"target_short"` // fraction of value in the short book
	Commission  float64 `mapstructure:"commission"`   // per-order rate on |notional|
	FundFees    float64 `mapstructure:"fund_fees"`    // annual management fee rate

	// Strategy inputs.
	VolumeFloor    float64  `mapstructure:"volume_floor"` // minimum 63-day average volume
	RebalanceDates []string `mapstructure:"rebalance_dates"`
	Exclusions     []string `mapstructure:"exclusions"`
}

// DataConfig holds locations of the CSV input tables.
type DataConfig struct {
	Dir          string `mapstructure:"dir"`
	OpenFile     string `mapstructure:"open_file"`
	CloseFile    string `mapstructure:"close_file"`
	VolumeFile   string `mapstructure:"volume_file"`
	RiskFreeFile string `mapstructure:"risk_free_file"`
	SectorsFile  string `mapstructure:"sectors_file"`
}

// OutputConfig holds result persistence settings.
type OutputConfig struct {
	DatabasePath string `mapstructure:"database_path"`
	ReportDir    string `mapstructure:"report_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/portfolio-backtest"
	}
	return filepath.Join(home, ".config", "portfolio-backtest")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := createTemplateConfig(configDir); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("no config found, template written to %s", configDir)
		}
		return nil, fmt.Errorf("reading config.toml: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	if cfg.Output.DatabasePath == "" {
		cfg.Output.DatabasePath = filepath.Join(configDir, "results.db")
	}
	if cfg.Output.ReportDir == "" {
		cfg.Output.ReportDir = filepath.Join(configDir, "reports")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("simulation.name", "backtest")
	v.SetDefault("simulation.start_cash", 10000000.0)
	v.SetDefault("simulation.number_long", 10)
	v.SetDefault("simulation.number_short", 5)
	v.SetDefault("simulation.target_long", 0.9)
	v.SetDefault("simulation.target_short", 0.2)
	v.SetDefault("simulation.commission", 0.001)
	v.SetDefault("simulation.fund_fees", 0.02)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
}

// Validate checks the configuration for fatal errors. Conditions that only
// merit a warning are reported by Warnings instead.
func (c *Config) Validate() error {
	s := c.Simulation
	start, err := time.Parse("2006-01-02", s.Start)
	if err != nil {
		return fmt.Errorf("simulation.start: invalid date %q", s.Start)
	}
	end, err := time.Parse("2006-01-02", s.End)
	if err != nil {
		return fmt.Errorf("simulation.end: invalid date %q", s.End)
	}
	if !end.After(start) {
		return fmt.Errorf("simulation.end must be after simulation.start")
	}
	if s.StartCash <= 0 {
		return fmt.Errorf("simulation.start_cash must be positive")
	}
	if s.NumberLong <= 0 {
		return fmt.Errorf("simulation.number_long must be positive")
	}
	if s.NumberShort <= 0 {
		return fmt.Errorf("simulation.number_short must be positive")
	}
	if s.Commission < 0 {
		return fmt.Errorf("simulation.commission must be non-negative")
	}
	if s.FundFees < 0 {
		return fmt.Errorf("simulation.fund_fees must be non-negative")
	}
	if _, err := strategy.ParseMonthDays(s.RebalanceDates); err != nil {
		return fmt.Errorf("simulation.rebalance_dates: %w", err)
	}
	return nil
}

// Warnings returns non-fatal configuration issues to surface before a run.
func (c *Config) Warnings() []string {
	var out []string
	if c.TargetCash() < 0 {
		out = append(out, fmt.Sprintf(
			"target cash fraction is negative (%.4f): long %.2f − short %.2f exceeds 100%% of portfolio value",
			c.TargetCash(), c.Simulation.TargetLong, -c.Simulation.TargetShort))
	}
	return out
}

// TargetCash returns the portfolio fraction left uninvested by the long and
// short targets.
func (c *Config) TargetCash() float64 {
	return 1 - (c.Simulation.TargetLong - c.Simulation.TargetShort)
}

// StartDate returns the parsed simulation start date.
func (c *Config) StartDate() time.Time {
	t, _ := time.Parse("2006-01-02", c.Simulation.Start)
	return t
}

// EndDate returns the parsed simulation end date.
func (c *Config) EndDate() time.Time {
	t, _ := time.Parse("2006-01-02", c.Simulation.End)
	return t
}

// DataPath resolves a data file name against the data directory.
func (c *Config) DataPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Data.Dir, name)
}
