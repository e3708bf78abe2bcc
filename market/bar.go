// Package market holds the price bar types consumed by the simulator.
package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrEmptySeries is returned when a bar series has no bars.
	ErrEmptySeries = errors.New("empty bar series")
	// ErrInvalidSeries is returned when a series breaks ordering or OHLC rules.
	ErrInvalidSeries = errors.New("invalid bar series")
)

// Bar is one OHLCV bar. Time is unix seconds.
type Bar struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// T returns the bar time as a UTC time.Time.
func (b Bar) T() time.Time {
	return time.Unix(b.Time, 0).UTC()
}

// Validate checks a single bar's OHLC relationships.
func (b Bar) Validate() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite value")
		}
	}
	if b.Low > b.High {
		return fmt.Errorf("low %.6f above high %.6f", b.Low, b.High)
	}
	if b.Open < b.Low || b.Open > b.High {
		return fmt.Errorf("open %.6f outside [%.6f, %.6f]", b.Open, b.Low, b.High)
	}
	if b.Close < b.Low || b.Close > b.High {
		return fmt.Errorf("close %.6f outside [%.6f, %.6f]", b.Close, b.Low, b.High)
	}
	if b.Volume < 0 {
		return fmt.Errorf("negative volume %.6f", b.Volume)
	}
	return nil
}

// ValidateSeries checks that bars is non-empty, strictly increasing in time
// and that every bar is internally consistent.
func ValidateSeries(bars []Bar) error {
	if len(bars) == 0 {
		return ErrEmptySeries
	}
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%w: bar %d: %v", ErrInvalidSeries, i, err)
		}
		if i > 0 && b.Time <= bars[i-1].Time {
			return fmt.Errorf("%w: bar %d: time %d not after %d", ErrInvalidSeries, i, b.Time, bars[i-1].Time)
		}
	}
	return nil
}

// Closes returns the close prices of bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// FromCloses builds flat bars (O=H=L=C) from closes, one per step seconds
// starting at start. Handy for fixtures and synthetic series.
func FromCloses(start, step int64, closes ...float64) []Bar {
	out := make([]Bar, len(closes))
	for i, c := range closes {
		out[i] = Bar{
			Time:  start + int64(i)*step,
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}
	return out
}
