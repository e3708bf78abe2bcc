package strategies

import (
	"testing"

	"github.com/rustyeddy/tradesim/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ohlc(i int, o, h, l, c float64) market.Bar {
	return market.Bar{Time: int64(i) * 3600, Open: o, High: h, Low: l, Close: c}
}

// pattern3Bars is a setup confirmed on bar 5 with its stop at 100.
func pattern3Bars(next ...market.Bar) []market.Bar {
	bars := []market.Bar{
		ohlc(0, 105, 106, 103, 104),       // prev
		ohlc(1, 104, 104.5, 101, 102),     // swing low 101
		ohlc(2, 102, 104, 102, 103.5),     // after
		ohlc(3, 103.5, 104, 100, 101),     // red pierces to 100
		ohlc(4, 100.8, 104.5, 100.5, 104), // green engulfs red
		ohlc(5, 104, 105, 103.5, 104.5),   // overlaps green
	}
	for i, b := range next {
		b.Time = int64(Pattern3Bars+i) * 3600
		bars = append(bars, b)
	}
	return bars
}

func TestPattern3At(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(b []market.Bar) []market.Bar
		want   bool
	}{
		{"match", nil, true},
		{"swing not below prev", func(b []market.Bar) []market.Bar { b[0].Low = 100.5; return b }, false},
		{"swing not confirmed", func(b []market.Bar) []market.Bar { b[2].Low = 100.8; return b }, false},
		{"red is bullish", func(b []market.Bar) []market.Bar { b[3].Close = 103.8; return b }, false},
		{"red does not pierce", func(b []market.Bar) []market.Bar { b[3].Low = 101; return b }, false},
		{"green opens above red close", func(b []market.Bar) []market.Bar { b[4].Open = 101.5; return b }, false},
		{"green does not engulf", func(b []market.Bar) []market.Bar { b[4].Close = 103; return b }, false},
		{"gap above green", func(b []market.Bar) []market.Bar { b[5] = ohlc(5, 105, 106, 104.8, 105.5); return b }, false},
		{"gap below green", func(b []market.Bar) []market.Bar { b[5] = ohlc(5, 100, 100.4, 99, 99.5); return b }, false},
		{"too few bars", func(b []market.Bar) []market.Bar { return b[:5] }, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bars := pattern3Bars()
			if tt.mutate != nil {
				bars = tt.mutate(bars)
			}
			stop, ok := Pattern3At(bars, len(bars)-1)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, 100.0, stop)
			}
		})
	}

	_, ok := Pattern3At(pattern3Bars(), 4)
	assert.False(t, ok, "bar 4 is not a confirming bar")
}

func TestPattern3_Generate(t *testing.T) {
	t.Parallel()

	// entry close 104.5, stop 100; rr 4 puts the target at 122.5
	tests := []struct {
		name   string
		params Params
		next   []market.Bar
		want   []int
	}{
		{"stop close", nil, []market.Bar{ohlc(0, 104.5, 104.5, 98.5, 99)}, []int{0, 0, 0, 0, 0, 1, -1}},
		{"target close", nil, []market.Bar{ohlc(0, 104.5, 123.5, 104, 123)}, []int{0, 0, 0, 0, 0, 1, -1}},
		{"holds between", nil, []market.Bar{ohlc(0, 104.5, 111, 104, 110)}, []int{0, 0, 0, 0, 0, 1, 0}},
		{"rr param", Params{"rr": 1}, []market.Bar{ohlc(0, 104.5, 111, 104, 110)}, []int{0, 0, 0, 0, 0, 1, -1}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sig, err := Pattern3{}.Generate(pattern3Bars(tt.next...), tt.params)
			require.NoError(t, err)
			assert.Equal(t, FromInts(tt.want), sig)
		})
	}

	// the confirming bar overlaps green but closes under the red low
	bars := pattern3Bars()
	bars[5] = ohlc(5, 101, 101, 99, 99.5)
	sig, err := Pattern3{}.Generate(bars, nil)
	require.NoError(t, err)
	assert.Equal(t, make([]Signal, 6), sig)

	_, err = Pattern3{}.Generate(pattern3Bars(), Params{"rr": 0})
	require.Error(t, err)
}
