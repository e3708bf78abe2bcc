package strategies

import (
	"fmt"

	"github.com/rustyeddy/tradesim/market"
)

const (
	// Pattern3Bars is the number of bars a Pattern3 setup spans, ending on
	// the confirming bar.
	Pattern3Bars = 6
	// DefaultPattern3RR is the target as a multiple of the structural stop
	// distance.
	DefaultPattern3RR = 4.0
)

// Pattern3At reports whether bars[c] confirms a three candle swing
// reversal and returns its structural stop. Reading back from c:
//
//	c-5  prev   any bar
//	c-4  swing  low below prev and after
//	c-3  after  confirms the swing low
//	c-2  red    bearish, low pierces the swing low
//	c-1  green  bullish, opens at or below red's close, closes at or above red's open
//	c    next   range overlaps green (no gap)
//
// The stop is red's low. Only bars up to c are read.
func Pattern3At(bars []market.Bar, c int) (float64, bool) {
	if c < Pattern3Bars-1 || c >= len(bars) {
		return 0, false
	}
	prev, swing, after := bars[c-5], bars[c-4], bars[c-3]
	red, green, next := bars[c-2], bars[c-1], bars[c]

	if swing.Low >= prev.Low || swing.Low >= after.Low {
		return 0, false
	}
	if red.Close >= red.Open || red.Low >= swing.Low {
		return 0, false
	}
	if green.Close <= green.Open || green.Open > red.Close || green.Close < red.Open {
		return 0, false
	}
	if next.Low > green.High || next.High < green.Low {
		return 0, false
	}
	return red.Low, true
}

// Pattern3 enters long on the close of a bar confirming a Pattern3 setup.
// It exits when a close reaches the structural stop or the target, which
// sits rr times the stop distance above the entry close.
type Pattern3 struct{}

func (Pattern3) Name() string { return "pattern3_extreme" }

func (Pattern3) Generate(bars []market.Bar, p Params) ([]Signal, error) {
	rr := p.Float("rr", DefaultPattern3RR)
	if rr <= 0 {
		return nil, fmt.Errorf("pattern3_extreme: rr must be positive, got %v", rr)
	}

	sig := make([]Signal, len(bars))
	var (
		in           bool
		stop, target float64
	)
	for i, b := range bars {
		if in {
			if b.Close <= stop || b.Close >= target {
				sig[i] = Exit
				in = false
			}
			continue
		}
		s, ok := Pattern3At(bars, i)
		if !ok || s >= b.Close {
			continue
		}
		sig[i] = Enter
		in = true
		stop = s
		target = b.Close + rr*(b.Close-s)
	}
	return sig, nil
}
