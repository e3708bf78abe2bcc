// Package config loads and validates tradesim run configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rustyeddy/tradesim/backtest"
	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/risk"
	"github.com/rustyeddy/tradesim/strategies"
	"gopkg.in/yaml.v3"
)

// Config represents the complete run configuration
type Config struct {
	Run      RunConfig      `json:"run" yaml:"run"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Rules    RulesConfig    `json:"rules" yaml:"rules"`
	Risk     RiskConfig     `json:"risk" yaml:"risk"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// RunConfig contains the simulation cost and exit parameters
type RunConfig struct {
	InitialBalance  float64 `json:"initial_balance" yaml:"initial_balance"`
	FeeRate         float64 `json:"fee_rate" yaml:"fee_rate"`
	SlippageRate    float64 `json:"slippage_rate" yaml:"slippage_rate"`
	RiskPerTrade    float64 `json:"risk_per_trade" yaml:"risk_per_trade"`
	RiskRewardRatio float64 `json:"risk_reward_ratio" yaml:"risk_reward_ratio"`
	MaxBarsInTrade  int     `json:"max_bars_in_trade" yaml:"max_bars_in_trade"`
}

// Engine converts the section to an engine configuration.
func (r RunConfig) Engine() backtest.Config {
	return backtest.Config{
		InitialBalance:  r.InitialBalance,
		FeeRate:         r.FeeRate,
		SlippageRate:    r.SlippageRate,
		RiskPerTrade:    r.RiskPerTrade,
		RiskRewardRatio: r.RiskRewardRatio,
		MaxBarsInTrade:  r.MaxBarsInTrade,
	}
}

// StrategyConfig names the signal source used in signal mode
type StrategyConfig struct {
	Name   string             `json:"name" yaml:"name"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// StrategyParams returns a copy of the params for the strategy.
func (s StrategyConfig) StrategyParams() strategies.Params {
	p := strategies.Params{}
	for k, v := range s.Params {
		p[k] = v
	}
	return p
}

// RulesConfig contains rule-engine parameters
type RulesConfig struct {
	Mode       string `json:"mode" yaml:"mode"`
	MAKind     string `json:"ma_kind" yaml:"ma_kind"`
	Fast       int    `json:"fast" yaml:"fast"`
	Slow       int    `json:"slow" yaml:"slow"`
	Channel    int    `json:"channel" yaml:"channel"`
	AllowShort bool   `json:"allow_short" yaml:"allow_short"`
}

// Engine converts the section to rule-engine settings.
func (r RulesConfig) Engine() backtest.Rules {
	return backtest.Rules{
		Mode:       r.Mode,
		MAKind:     r.MAKind,
		Fast:       r.Fast,
		Slow:       r.Slow,
		Channel:    r.Channel,
		AllowShort: r.AllowShort,
	}
}

// RiskConfig turns the governor on and sets its limits
type RiskConfig struct {
	Enabled     bool `json:"enabled" yaml:"enabled"`
	risk.Limits `yaml:",inline"`
}

// Governor returns a fresh governor for a run starting at capital, or nil
// when risk is disabled.
func (r RiskConfig) Governor(capital float64, opts ...risk.Option) *risk.Governor {
	if !r.Enabled {
		return nil
	}
	return risk.NewGovernor(r.Limits, capital, opts...)
}

// Journal types
const (
	JournalNone   = "none"
	JournalCSV    = "csv"
	JournalSQLite = "sqlite"
)

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	RunsFile   string `json:"runs_file,omitempty" yaml:"runs_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	OrgPath    string `json:"org_path,omitempty" yaml:"org_path,omitempty"`
}

// Open creates the configured journal. Type "none" yields journal.Nop.
func (j JournalConfig) Open() (journal.Journal, error) {
	switch j.Type {
	case JournalCSV:
		return journal.NewCSV(j.TradesFile, j.EquityFile, j.RunsFile)
	case JournalSQLite:
		return journal.NewSQLite(j.DBPath)
	case "", JournalNone:
		return journal.Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown journal type %q", j.Type)
	}
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
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

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
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
	if err := c.Run.Engine().Validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if _, err := strategies.Lookup(c.Strategy.Name); err != nil {
		return fmt.Errorf("strategy.name: %w", err)
	}
	if err := c.Rules.Engine().Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if c.Risk.Enabled {
		if err := c.Risk.Limits.Validate(); err != nil {
			return fmt.Errorf("risk.%w", err)
		}
	}
	switch c.Journal.Type {
	case "", JournalNone:
	case JournalCSV:
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case JournalSQLite:
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
	run := backtest.DefaultConfig()
	rules := backtest.DefaultRules()
	return &Config{
		Run: RunConfig{
			InitialBalance:  run.InitialBalance,
			FeeRate:         run.FeeRate,
			SlippageRate:    run.SlippageRate,
			RiskPerTrade:    run.RiskPerTrade,
			RiskRewardRatio: run.RiskRewardRatio,
			MaxBarsInTrade:  run.MaxBarsInTrade,
		},
		Strategy: StrategyConfig{
			Name: "buy_and_hold",
		},
		Rules: RulesConfig{
			Mode:    rules.Mode,
			MAKind:  rules.MAKind,
			Fast:    rules.Fast,
			Slow:    rules.Slow,
			Channel: rules.Channel,
		},
		Risk: RiskConfig{
			Limits: risk.DefaultLimits(),
		},
		Journal: JournalConfig{
			Type:       JournalNone,
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
			DBPath:     "./tradesim.db",
		},
	}
}
