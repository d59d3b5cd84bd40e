// Package config loads and validates the backtester's run configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/equitysim/market"
)

const dateLayout = "2006-01-02"

// Config is the complete configuration for one backtest run.
type Config struct {
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

// BacktestConfig holds the simulation parameters.
type BacktestConfig struct {
	InitialCapital float64  `json:"initial_capital" yaml:"initial_capital"`
	CommissionRate float64  `json:"commission_rate" yaml:"commission_rate"`
	SlippageRate   float64  `json:"slippage_rate" yaml:"slippage_rate"`
	Instruments    []string `json:"instruments" yaml:"instruments"`
	UniverseFile   string   `json:"universe_file,omitempty" yaml:"universe_file,omitempty"`
	StartDate      string   `json:"start_date" yaml:"start_date"`
	EndDate        string   `json:"end_date" yaml:"end_date"`
	Granularity    string   `json:"granularity" yaml:"granularity"`
}

// StrategyConfig selects and parameterizes the strategy.
type StrategyConfig struct {
	Name          string `json:"name" yaml:"name"`
	ShortWindow   int    `json:"short_window" yaml:"short_window"`
	LongWindow    int    `json:"long_window" yaml:"long_window"`
	OrderQuantity int    `json:"order_quantity" yaml:"order_quantity"`
}

// DataConfig points at the historical bar data.
type DataConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	Dir        string `json:"dir,omitempty" yaml:"dir,omitempty"`
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
}

// JournalConfig controls result persistence.
type JournalConfig struct {
	Type          string `json:"type" yaml:"type"` // "sqlite", "csv", or "none"
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	TradesFile    string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	SnapshotsFile string `json:"snapshots_file,omitempty" yaml:"snapshots_file,omitempty"`
}

// LoggingConfig configures the diagnostic sink.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
}

// LoadFromFile loads configuration from a YAML or JSON file and validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks every constraint a run depends on.
func (c *Config) Validate() error {
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("backtest.initial_capital must be positive")
	}
	if c.Backtest.CommissionRate < 0 {
		return fmt.Errorf("backtest.commission_rate must be >= 0")
	}
	if c.Backtest.SlippageRate < 0 {
		return fmt.Errorf("backtest.slippage_rate must be >= 0")
	}
	if len(c.Backtest.Instruments) == 0 && c.Backtest.UniverseFile == "" {
		return fmt.Errorf("backtest.instruments or backtest.universe_file is required")
	}

	start, end, err := c.Period()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("backtest.end_date %s is before start_date %s", c.Backtest.EndDate, c.Backtest.StartDate)
	}

	if !market.Granularity(c.Backtest.Granularity).Valid() {
		return fmt.Errorf("backtest.granularity must be %q or %q", market.GranularityDaily, market.GranularityIntraday)
	}

	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}

	switch c.Data.Type {
	case "csv":
		if c.Data.Dir == "" {
			return fmt.Errorf("data.dir required for csv data")
		}
	case "sqlite":
		if c.Data.SQLitePath == "" {
			return fmt.Errorf("data.sqlite_path required for sqlite data")
		}
	default:
		return fmt.Errorf("data.type must be 'csv' or 'sqlite'")
	}

	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite journal")
		}
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.SnapshotsFile == "" {
			return fmt.Errorf("journal trades_file and snapshots_file required for csv journal")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv', or 'none'")
	}

	return nil
}

// Period parses the configured date range.
func (c *Config) Period() (start, end time.Time, err error) {
	start, err = time.ParseInLocation(dateLayout, strings.TrimSpace(c.Backtest.StartDate), time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("backtest.start_date: %w", err)
	}
	end, err = time.ParseInLocation(dateLayout, strings.TrimSpace(c.Backtest.EndDate), time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("backtest.end_date: %w", err)
	}
	return start, end, nil
}

// Granularity returns the parsed granularity.
func (c *Config) Granularity() market.Granularity {
	return market.Granularity(c.Backtest.Granularity)
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Backtest: BacktestConfig{
			InitialCapital: 1_000_000,
			CommissionRate: 0.00015,
			SlippageRate:   0.0001,
			Instruments:    []string{"A005930"},
			StartDate:      "2023-01-02",
			EndDate:        "2023-12-28",
			Granularity:    string(market.GranularityDaily),
		},
		Strategy: StrategyConfig{
			Name:          "ma-cross",
			ShortWindow:   5,
			LongWindow:    20,
			OrderQuantity: 10,
		},
		Data: DataConfig{
			Type: "csv",
			Dir:  "./data",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./backtests.sqlite",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
