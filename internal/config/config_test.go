package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"portfolio-backtest/internal/strategy"
)

func validConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Name:        "test",
			Start:       "2018-01-02",
			End:         "2019-01-01",
			StartCash:   1000000,
			NumberLong:  10,
			NumberShort: 5,
			TargetLong:  0.9,
			TargetShort: 0.2,
			Commission:  0.001,
			FundFees:    0.02,
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad start", func(c *Config) { c.Simulation.Start = "01/02/2018" }},
		{"bad end", func(c *Config) { c.Simulation.End = "never" }},
		{"end before start", func(c *Config) { c.Simulation.End = "2017-01-01" }},
		{"zero cash", func(c *Config) { c.Simulation.StartCash = 0 }},
		{"zero longs", func(c *Config) { c.Simulation.NumberLong = 0 }},
		{"zero shorts", func(c *Config) { c.Simulation.NumberShort = 0 }},
		{"negative commission", func(c *Config) { c.Simulation.Commission = -0.001 }},
		{"negative fees", func(c *Config) { c.Simulation.FundFees = -0.02 }},
		{"bad rebalance date", func(c *Config) { c.Simulation.RebalanceDates = []string{"13-40"} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("want validation error")
			}
		})
	}
}

// Validate defers rebalance-date parsing to the schedule parser, so the
// two must agree on every input.
func TestValidateRebalanceDatesMatchScheduleParser(t *testing.T) {
	for _, d := range []string{"01-01", "02-30", "6-15", "12-31", "13-01", "00-10", "01-32", "junk", ""} {
		_, parseErr := strategy.ParseMonthDay(d)

		cfg := validConfig()
		cfg.Simulation.RebalanceDates = []string{d}
		validateErr := cfg.Validate()

		if (parseErr == nil) != (validateErr == nil) {
			t.Errorf("%q: ParseMonthDay err = %v, Validate err = %v", d, parseErr, validateErr)
		}
	}
}

func TestTargetCash(t *testing.T) {
	cfg := validConfig()
	if got := cfg.TargetCash(); math.Abs(got-0.3) > 1e-12 {
		t.Errorf("TargetCash = %v, want 0.3", got)
	}
}

func TestWarningsNegativeTargetCash(t *testing.T) {
	cfg := validConfig()
	if warns := cfg.Warnings(); len(warns) != 0 {
		t.Errorf("unexpected warnings: %v", warns)
	}

	cfg.Simulation.TargetLong = 1.3
	warns := cfg.Warnings()
	if len(warns) != 1 || !strings.Contains(warns[0], "negative") {
		t.Errorf("warnings = %v", warns)
	}
}

func TestDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Data.Dir = "/data"

	if got := cfg.DataPath("close.csv"); got != filepath.Join("/data", "close.csv") {
		t.Errorf("relative = %q", got)
	}
	if got := cfg.DataPath("/abs/close.csv"); got != "/abs/close.csv" {
		t.Errorf("absolute = %q", got)
	}
	if got := cfg.DataPath(""); got != "" {
		t.Errorf("empty = %q", got)
	}
}

func TestLoadWritesTemplate(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "template written") {
		t.Fatalf("err = %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "config.toml")); statErr != nil {
		t.Errorf("template not written: %v", statErr)
	}

	// The template itself must load cleanly on the second attempt.
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load template: %v", err)
	}
	if cfg.Simulation.NumberLong != 10 || cfg.Simulation.TargetShort != 0.2 {
		t.Errorf("template values = %+v", cfg.Simulation)
	}
	if cfg.Output.DatabasePath != filepath.Join(dir, "results.db") {
		t.Errorf("database path = %q", cfg.Output.DatabasePath)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	dir := t.TempDir()
	toml := `[simulation]
name = "custom"
start = "2018-01-02"
end = "2018-06-01"
start_cash = 500000.0
number_long = 4
number_short = 2
target_long = 0.8
target_short = 0.1

[data]
dir = "/var/data"
close_file = "px.csv"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.Name != "custom" || cfg.Simulation.NumberLong != 4 {
		t.Errorf("simulation = %+v", cfg.Simulation)
	}
	// Defaults fill fields the file omits.
	if cfg.Simulation.Commission != 0.001 || cfg.Simulation.FundFees != 0.02 {
		t.Errorf("defaults = %+v", cfg.Simulation)
	}
	if got := cfg.DataPath("px.csv"); got != filepath.Join("/var/data", "px.csv") {
		t.Errorf("DataPath = %q", got)
	}
}
