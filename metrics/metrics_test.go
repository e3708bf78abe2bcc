package metrics

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noNaN(t *testing.T, s Summary) {
	t.Helper()
	v := reflect.ValueOf(s)
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() == reflect.Float64 {
			x := f.Float()
			assert.False(t, math.IsNaN(x) || math.IsInf(x, 0), "%s = %v", v.Type().Field(i).Name, x)
		}
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, 1000)
	assert.Equal(t, Summary{}, s)
	assert.Equal(t, 0.0, s.ProfitFactor)
	noNaN(t, s)

	assert.Equal(t, Summary{}, Summarize([]TradeResult{}, 0))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		trades  []TradeResult
		initial float64
		check   func(t *testing.T, s Summary)
	}{
		{
			name:    "mixed",
			trades:  []TradeResult{{PnL: 100, R: 2}, {PnL: -50, R: -1}, {PnL: 0, R: 0}, {PnL: 30, R: 0.6}},
			initial: 1000,
			check: func(t *testing.T, s Summary) {
				assert.Equal(t, 4, s.TotalTrades)
				assert.Equal(t, 2, s.Wins)
				assert.Equal(t, 1, s.Losses)
				assert.InDelta(t, 50.0, s.WinRatePct, 1e-9)
				assert.InDelta(t, 25.0, s.LossRatePct, 1e-9)
				assert.InDelta(t, 130.0, s.GrossProfit, 1e-9)
				assert.InDelta(t, -50.0, s.GrossLoss, 1e-9)
				assert.InDelta(t, 80.0, s.NetProfit, 1e-9)
				assert.InDelta(t, 2.6, s.ProfitFactor, 1e-9)
				// equity 1000, 1100, 1050, 1050, 1080
				assert.InDelta(t, 50.0, s.MaxDrawdown, 1e-9)
				assert.InDelta(t, 50.0/1100*100, s.MaxDrawdownPct, 1e-9)
				assert.InDelta(t, 0.4, s.AverageR, 1e-9)
				assert.InDelta(t, 1.3, s.AverageWinR, 1e-9)
				assert.InDelta(t, -1.0, s.AverageLossR, 1e-9)
				assert.Equal(t, 100.0, s.LargestWin)
				assert.Equal(t, -50.0, s.LargestLoss)
				assert.InDelta(t, 8.0, s.ReturnPct, 1e-9)
				assert.Greater(t, s.Sharpe, 0.0)
			},
		},
		{
			name:    "no losses keeps profit factor zero",
			trades:  []TradeResult{{PnL: 10, R: 1}, {PnL: 20, R: 2}},
			initial: 100,
			check: func(t *testing.T, s Summary) {
				assert.Equal(t, 0.0, s.ProfitFactor)
				assert.Equal(t, 0.0, s.MaxDrawdown)
				assert.Equal(t, 0, s.Losses)
				assert.Equal(t, 0.0, s.AverageLossR)
			},
		},
		{
			name:    "single trade has no sharpe",
			trades:  []TradeResult{{PnL: -10, R: -1}},
			initial: 100,
			check: func(t *testing.T, s Summary) {
				assert.Equal(t, 0.0, s.Sharpe)
				assert.InDelta(t, 10.0, s.MaxDrawdownPct, 1e-9)
			},
		},
		{
			name:    "identical R has no sharpe",
			trades:  []TradeResult{{PnL: 1, R: 0.1}, {PnL: 1, R: 0.1}, {PnL: 1, R: 0.1}},
			initial: 100,
			check: func(t *testing.T, s Summary) {
				assert.Equal(t, 0.0, s.Sharpe)
			},
		},
		{
			name:    "zero capital",
			trades:  []TradeResult{{PnL: -10, R: -1}},
			initial: 0,
			check: func(t *testing.T, s Summary) {
				assert.Equal(t, 0.0, s.ReturnPct)
				assert.Equal(t, 0.0, s.MaxDrawdownPct)
			},
		},
		{
			name:    "non-finite inputs are ignored",
			trades:  []TradeResult{{PnL: math.NaN(), R: math.Inf(1)}, {PnL: 5, R: 1}},
			initial: 100,
			check: func(t *testing.T, s Summary) {
				assert.Equal(t, 1, s.Wins)
				assert.InDelta(t, 5.0, s.NetProfit, 1e-9)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := Summarize(tt.trades, tt.initial)
			noNaN(t, s)
			tt.check(t, s)
		})
	}
}

func TestSummarize_Idempotent(t *testing.T) {
	trades := []TradeResult{{PnL: 3, R: 0.3}, {PnL: -7, R: -0.7}, {PnL: 11, R: 1.1}}
	in := append([]TradeResult(nil), trades...)

	a := Summarize(trades, 500)
	b := Summarize(trades, 500)
	assert.Equal(t, a, b)
	assert.Equal(t, in, trades)
}

func TestDrawdowns_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		trades := make([]TradeResult, r.Intn(40))
		for i := range trades {
			trades[i] = TradeResult{PnL: r.NormFloat64() * 50}
		}
		eq := EquityFromTrades(trades, 1000)
		require.Len(t, eq, len(trades)+1)

		dd, peak := Drawdowns(eq)
		_, maxPct := MaxDrawdown(eq)
		for i := range eq {
			if i > 0 {
				require.GreaterOrEqual(t, peak[i], peak[i-1])
			}
			require.LessOrEqual(t, dd[i], 0.0)
			require.GreaterOrEqual(t, maxPct+1e-9, -dd[i]*100)
		}
	}
}

func TestDrawdowns_Empty(t *testing.T) {
	dd, peak := Drawdowns(nil)
	assert.Empty(t, dd)
	assert.Empty(t, peak)
	abs, pct := MaxDrawdown(nil)
	assert.Equal(t, 0.0, abs)
	assert.Equal(t, 0.0, pct)
}
