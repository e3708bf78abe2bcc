package indicators

import (
	"fmt"

	"github.com/rustyeddy/tradesim/market"
)

// MA calculates the Simple Moving Average of the last period closes.
func MA(bars []market.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return 0, fmt.Errorf("not enough bars: need %d, got %d", period, len(bars))
	}

	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += bars[i].Close
	}
	return sum / float64(period), nil
}

// EMA calculates the Exponential Moving Average seeded with the SMA of the
// first period closes.
func EMA(bars []market.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return 0, fmt.Errorf("not enough bars: need %d, got %d", period, len(bars))
	}

	multiplier := 2.0 / float64(period+1)

	sma := 0.0
	for i := 0; i < period; i++ {
		sma += bars[i].Close
	}
	ema := sma / float64(period)

	for i := period; i < len(bars); i++ {
		ema = (bars[i].Close-ema)*multiplier + ema
	}
	return ema, nil
}

// RollingMean returns, for every index, the mean of up to period closes
// ending at that index. Early indexes average whatever history exists.
func RollingMean(bars []market.Bar, period int) []float64 {
	out := make([]float64, len(bars))
	if period <= 0 {
		return out
	}
	sum := 0.0
	for i, b := range bars {
		sum += b.Close
		n := i + 1
		if n > period {
			sum -= bars[i-period].Close
			n = period
		}
		out[i] = sum / float64(n)
	}
	return out
}
