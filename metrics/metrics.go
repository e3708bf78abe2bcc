// Package metrics summarizes a closed trade log.
package metrics

import "math"

// periodsPerYear annualizes the per-trade Sharpe ratio.
const periodsPerYear = 252

// minStdDev treats rounding noise in R as zero dispersion.
const minStdDev = 1e-12

// TradeResult is the part of a closed trade the aggregator needs.
type TradeResult struct {
	PnL float64
	R   float64
}

// Summary holds performance statistics over a trade log. Every field is
// zero for an empty log.
type Summary struct {
	TotalTrades    int     `json:"total_trades"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRatePct     float64 `json:"winrate_pct"`
	LossRatePct    float64 `json:"lossrate_pct"`
	GrossProfit    float64 `json:"gross_profit"`
	GrossLoss      float64 `json:"gross_loss"`
	NetProfit      float64 `json:"net_profit"`
	ProfitFactor   float64 `json:"profit_factor"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	AverageR       float64 `json:"average_R"`
	AverageWinR    float64 `json:"average_win_R"`
	AverageLossR   float64 `json:"average_loss_R"`
	LargestWin     float64 `json:"largest_win"`
	LargestLoss    float64 `json:"largest_loss"`
	ReturnPct      float64 `json:"return_pct"`
	Sharpe         float64 `json:"sharpe"`
}

// Summarize computes the summary of trades against initialCapital.
// A zero P&L trade is neither a win nor a loss.
func Summarize(trades []TradeResult, initialCapital float64) Summary {
	var s Summary
	if len(trades) == 0 {
		return s
	}
	s.TotalTrades = len(trades)

	var sumR, sumWinR, sumLossR float64
	for _, t := range trades {
		pnl := finite(t.PnL)
		r := finite(t.R)
		s.NetProfit += pnl
		sumR += r
		switch {
		case pnl > 0:
			s.Wins++
			s.GrossProfit += pnl
			sumWinR += r
			s.LargestWin = math.Max(s.LargestWin, pnl)
		case pnl < 0:
			s.Losses++
			s.GrossLoss += pnl
			sumLossR += r
			s.LargestLoss = math.Min(s.LargestLoss, pnl)
		}
	}

	n := float64(s.TotalTrades)
	s.WinRatePct = float64(s.Wins) / n * 100
	s.LossRatePct = float64(s.Losses) / n * 100
	if s.GrossLoss < 0 {
		s.ProfitFactor = s.GrossProfit / -s.GrossLoss
	}
	s.AverageR = sumR / n
	if s.Wins > 0 {
		s.AverageWinR = sumWinR / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AverageLossR = sumLossR / float64(s.Losses)
	}
	if initialCapital > 0 {
		s.ReturnPct = s.NetProfit / initialCapital * 100
	}

	equity := EquityFromTrades(trades, initialCapital)
	s.MaxDrawdown, s.MaxDrawdownPct = MaxDrawdown(equity)
	s.Sharpe = sharpe(trades, s.AverageR)
	return s
}

// EquityFromTrades rebuilds an equity series by adding each trade's P&L to
// initialCapital. The first point is initialCapital itself.
func EquityFromTrades(trades []TradeResult, initialCapital float64) []float64 {
	out := make([]float64, 0, len(trades)+1)
	eq := initialCapital
	out = append(out, eq)
	for _, t := range trades {
		eq += finite(t.PnL)
		out = append(out, eq)
	}
	return out
}

// Drawdowns returns, for each point, (v - peak) / peak and the running peak.
// Drawdowns are always <= 0 and the peak never decreases. Points with a
// non-positive peak report 0.
func Drawdowns(equity []float64) (dd, peak []float64) {
	dd = make([]float64, len(equity))
	peak = make([]float64, len(equity))
	if len(equity) == 0 {
		return dd, peak
	}
	p := equity[0]
	for i, v := range equity {
		if v > p {
			p = v
		}
		peak[i] = p
		if p > 0 {
			dd[i] = (v - p) / p
		}
	}
	return dd, peak
}

// MaxDrawdown is the largest peak-to-trough decline of equity, absolute and
// in percent of the peak it fell from. Both are reported as magnitudes.
func MaxDrawdown(equity []float64) (abs, pct float64) {
	dd, peak := Drawdowns(equity)
	for i, v := range equity {
		if d := peak[i] - v; d > abs {
			abs = d
		}
		if p := -dd[i] * 100; p > pct {
			pct = p
		}
	}
	return abs, pct
}

func sharpe(trades []TradeResult, mean float64) float64 {
	if len(trades) < 2 {
		return 0
	}
	var ss float64
	for _, t := range trades {
		d := finite(t.R) - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(trades)))
	if std < minStdDev {
		return 0
	}
	return mean / std * math.Sqrt(periodsPerYear)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
