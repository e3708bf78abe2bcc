package strategies

import (
	"fmt"

	"github.com/rustyeddy/tradesim/indicators"
	"github.com/rustyeddy/tradesim/market"
)

const (
	DefaultFast = 10
	DefaultSlow = 30
	// slowGap is added to fast when slow is not longer than fast.
	slowGap = 5
)

// MACross signals when a fast moving average crosses a slow one.
//
// The SMA flavour averages whatever history is available on early bars, so
// it can fire before slow bars have been seen. The EMA flavour waits for
// both averages to warm up.
type MACross struct {
	Kind string // "sma" or "ema"
}

func (m MACross) Name() string {
	if m.Kind == "ema" {
		return "ema_cross"
	}
	return "sma_cross"
}

// Periods resolves the fast and slow lengths from p.
func Periods(p Params) (fast, slow int, err error) {
	fast = p.Int("fast", DefaultFast)
	slow = p.Int("slow", DefaultSlow)
	if fast <= 0 {
		return 0, 0, fmt.Errorf("fast must be positive, got %d", fast)
	}
	if slow <= fast {
		slow = fast + slowGap
	}
	return fast, slow, nil
}

func (m MACross) Generate(bars []market.Bar, p Params) ([]Signal, error) {
	fast, slow, err := Periods(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name(), err)
	}

	sig := make([]Signal, len(bars))
	if m.Kind == "ema" {
		f, s := indicators.NewEMA(fast), indicators.NewEMA(slow)
		prev, seen := 0, false
		for i, b := range bars {
			f.Update(b)
			s.Update(b)
			if !f.Ready() || !s.Ready() {
				continue
			}
			cur := sign(f.Value() - s.Value())
			if seen {
				sig[i] = crossing(prev, cur)
			}
			prev, seen = cur, true
		}
		return sig, nil
	}

	fs := indicators.RollingMean(bars, fast)
	ss := indicators.RollingMean(bars, slow)
	prev := 0
	for i := range bars {
		cur := sign(fs[i] - ss[i])
		if i > 0 {
			sig[i] = crossing(prev, cur)
		}
		prev = cur
	}
	return sig, nil
}

func crossing(prev, cur int) Signal {
	switch {
	case prev <= 0 && cur > 0:
		return Enter
	case prev >= 0 && cur < 0:
		return Exit
	}
	return Hold
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
