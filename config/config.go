// Package config loads backtest scenario files. Everything is an explicit
// struct handed to constructors; no package in this repository reads
// process environment state.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents a complete backtest scenario
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	ID      string  `json:"id" yaml:"id"`
	Capital float64 `json:"capital" yaml:"capital"`
}

// StrategyConfig contains strategy selection and parameters
type StrategyConfig struct {
	Name   string  `json:"name" yaml:"name"`
	Symbol string  `json:"symbol" yaml:"symbol"`
	Units  float64 `json:"units" yaml:"units"`
	Fast   int     `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow   int     `json:"slow,omitempty" yaml:"slow,omitempty"`
}

// BacktestConfig contains engine parameters
type BacktestConfig struct {
	BarsFile    string  `json:"bars_file" yaml:"bars_file"`
	FillModel   string  `json:"fill_model" yaml:"fill_model"` // close-price, close-plus-slippage, bid-ask-midpoint
	SlippageBps float64 `json:"slippage_bps,omitempty" yaml:"slippage_bps,omitempty"`

	// RiskMode is "clamp" or "fail" for infeasible orders.
	RiskMode    string `json:"risk_mode" yaml:"risk_mode"`
	AllowShort  bool   `json:"allow_short,omitempty" yaml:"allow_short,omitempty"`
	AllowMargin bool   `json:"allow_margin,omitempty" yaml:"allow_margin,omitempty"`

	RiskFreeRate   float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	PeriodsPerYear float64 `json:"periods_per_year" yaml:"periods_per_year"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Capital <= 0 {
		return fmt.Errorf("account.capital must be positive")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if c.Strategy.Symbol == "" {
		return fmt.Errorf("strategy.symbol is required")
	}
	if c.Backtest.BarsFile == "" {
		return fmt.Errorf("backtest.bars_file is required")
	}
	switch c.Backtest.FillModel {
	case "", "close-price", "close-plus-slippage", "bid-ask-midpoint":
	default:
		return fmt.Errorf("unknown fill model: %s", c.Backtest.FillModel)
	}
	switch c.Backtest.RiskMode {
	case "", "clamp", "fail":
	default:
		return fmt.Errorf("backtest.risk_mode must be 'clamp' or 'fail'")
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:      "SIM-001",
			Capital: 100000,
		},
		Strategy: StrategyConfig{
			Name:   "ema-cross",
			Symbol: "SPY",
			Units:  100,
			Fast:   20,
			Slow:   50,
		},
		Backtest: BacktestConfig{
			BarsFile:       "./bars.csv",
			FillModel:      "close-price",
			RiskMode:       "clamp",
			RiskFreeRate:   0.05,
			PeriodsPerYear: 252,
		},
		Journal: JournalConfig{
			Type: "none",
		},
	}
}
