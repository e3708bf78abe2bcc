// Package indicators provides streaming technical indicators over bars.
package indicators

import "github.com/rustyeddy/tradesim/market"

// Indicator computes a single streaming value from bars.
// It is deterministic and only ever sees bars it has been fed.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful.
	Ready() bool
}

// ValueF64 is implemented by indicators that produce a single float.
type ValueF64 interface {
	// Value returns the current value, or 0 when !Ready().
	Value() float64
}

// MovingAverage is a ready-checked float indicator.
type MovingAverage interface {
	Indicator
	ValueF64
}

// NewMovingAverage returns an SMA or EMA by kind ("sma" or "ema").
func NewMovingAverage(kind string, period int) MovingAverage {
	if kind == "ema" {
		return NewEMA(period)
	}
	return NewMA(period)
}
