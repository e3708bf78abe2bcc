// Package risk implements the risk governor: global limits, drawdown and
// daily loss tracking, stop-loss validation and the pause/resume switch.
package risk

import (
	"fmt"
	"math"
	"strings"
)

// Limits are the configured thresholds. Percentages are in percent units,
// so 20 means 20%.
type Limits struct {
	MaxOpenPositions       int     `json:"max_open_positions" yaml:"max_open_positions"`
	MaxDrawdownPercent     float64 `json:"max_drawdown_percent" yaml:"max_drawdown_percent"`
	DailyLossLimitPercent  float64 `json:"daily_loss_limit_percent" yaml:"daily_loss_limit_percent"`
	DefaultStopLossPercent float64 `json:"default_stop_loss_percent" yaml:"default_stop_loss_percent"`
	MaxPositionSizePercent float64 `json:"max_position_size_percent" yaml:"max_position_size_percent"`
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{
		MaxOpenPositions:       5,
		MaxDrawdownPercent:     20,
		DailyLossLimitPercent:  5,
		DefaultStopLossPercent: 2,
		MaxPositionSizePercent: 20,
	}
}

// Validate checks that every limit is usable.
func (l Limits) Validate() error {
	if l.MaxOpenPositions < 1 {
		return fmt.Errorf("max_open_positions must be at least 1")
	}
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"max_drawdown_percent", l.MaxDrawdownPercent},
		{"daily_loss_limit_percent", l.DailyLossLimitPercent},
		{"default_stop_loss_percent", l.DefaultStopLossPercent},
		{"max_position_size_percent", l.MaxPositionSizePercent},
	} {
		if math.IsNaN(p.v) || math.IsInf(p.v, 0) || p.v <= 0 || p.v > 100 {
			return fmt.Errorf("%s must be in (0, 100], got %v", p.name, p.v)
		}
	}
	if l.DefaultStopLossPercent < MinStopDistancePercent || l.DefaultStopLossPercent > MaxStopDistancePercent {
		return fmt.Errorf("default_stop_loss_percent must be within [%.1f, %.1f]", MinStopDistancePercent, MaxStopDistancePercent)
	}
	return nil
}

func (l Limits) String() string {
	return fmt.Sprintf("max_open=%d max_dd=%.2f%% daily=%.2f%% stop=%.2f%% max_pos=%.2f%%",
		l.MaxOpenPositions, l.MaxDrawdownPercent, l.DailyLossLimitPercent,
		l.DefaultStopLossPercent, l.MaxPositionSizePercent)
}

// Status is the governor's derived risk level.
type Status string

const (
	StatusSafe         Status = "SAFE"
	StatusWarning      Status = "WARNING"
	StatusLimitReached Status = "LIMIT_REACHED"
	StatusCritical     Status = "CRITICAL"
)

// Code is a small integer for gauges: 0 safe through 3 critical.
func (s Status) Code() int {
	switch s {
	case StatusWarning:
		return 1
	case StatusLimitReached:
		return 2
	case StatusCritical:
		return 3
	}
	return 0
}

// warnRatio of a limit puts the governor in WARNING.
const warnRatio = 0.8

// Direction is the side of a position. It doubles as the quantity sign.
type Direction int

const (
	Long  Direction = 1
	Short Direction = -1
)

func (d Direction) String() string {
	if d == Short {
		return "short"
	}
	return "long"
}

// ParseDirection accepts "long"/"buy" and "short"/"sell".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy", "":
		return Long, nil
	case "short", "sell":
		return Short, nil
	}
	return 0, fmt.Errorf("unknown direction %q (supported: long, short)", s)
}
