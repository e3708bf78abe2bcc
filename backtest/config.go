// Package backtest replays a bar series against a signal stream or a
// built-in rule set and reports the resulting trades and equity curve.
package backtest

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/tradesim/market"
)

var (
	// ErrEmptySeries is returned when no bars are given.
	ErrEmptySeries = market.ErrEmptySeries
	// ErrInputMismatch is returned when signals and bars differ in length.
	ErrInputMismatch = errors.New("signals and bars length mismatch")
	// ErrInvalidConfig is returned for unusable run or rule settings.
	ErrInvalidConfig = errors.New("invalid backtest config")
)

const (
	// SizingEpsilon is the relative shrink applied to a quantity whose
	// fee-inclusive cost rounds above available cash.
	SizingEpsilon = 1e-9
	// maxSizingAttempts bounds the shrink loop.
	maxSizingAttempts = 8

	// StopOffsetPercent is the rule engine stop distance as a fraction of entry.
	StopOffsetPercent = 0.01
	// MinStopOffset is the absolute floor on the rule engine stop distance.
	MinStopOffset = 0.005
)

// Config is the flat run configuration.
type Config struct {
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
	FeeRate        float64 `json:"fee_rate" yaml:"fee_rate"`
	SlippageRate   float64 `json:"slippage_rate" yaml:"slippage_rate"`
	// RiskPerTrade caps rule engine positions so a stop-out loses at most
	// this amount. 0 disables the cap.
	RiskPerTrade float64 `json:"risk_per_trade" yaml:"risk_per_trade"`
	// RiskRewardRatio places the rule engine target. 0 disables targets.
	RiskRewardRatio float64 `json:"risk_reward_ratio" yaml:"risk_reward_ratio"`
	// MaxBarsInTrade forces a rule engine exit after this many bars. 0 disables.
	MaxBarsInTrade int `json:"max_bars_in_trade" yaml:"max_bars_in_trade"`
}

// DefaultConfig returns the stock run settings.
func DefaultConfig() Config {
	return Config{
		InitialBalance:  1000,
		FeeRate:         0.0004,
		SlippageRate:    0.0002,
		RiskPerTrade:    100,
		RiskRewardRatio: 4,
		MaxBarsInTrade:  50,
	}
}

// Validate reports the first unusable field.
func (c Config) Validate() error {
	if !finite(c.InitialBalance) || c.InitialBalance <= 0 {
		return fmt.Errorf("%w: initial_balance must be finite and positive, got %v", ErrInvalidConfig, c.InitialBalance)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"fee_rate", c.FeeRate},
		{"slippage_rate", c.SlippageRate},
		{"risk_per_trade", c.RiskPerTrade},
		{"risk_reward_ratio", c.RiskRewardRatio},
	} {
		if !finite(f.v) || f.v < 0 {
			return fmt.Errorf("%w: %s must be finite and non-negative, got %v", ErrInvalidConfig, f.name, f.v)
		}
	}
	if c.FeeRate >= 1 || c.SlippageRate >= 1 {
		return fmt.Errorf("%w: fee_rate and slippage_rate must be below 1", ErrInvalidConfig)
	}
	if c.MaxBarsInTrade < 0 {
		return fmt.Errorf("%w: max_bars_in_trade must be non-negative, got %d", ErrInvalidConfig, c.MaxBarsInTrade)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
