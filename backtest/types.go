package backtest

import (
	"github.com/rustyeddy/tradesim/metrics"
	"github.com/rustyeddy/tradesim/risk"
)

// Direction reuses the risk package sides: Long is +1, Short is -1.
type Direction = risk.Direction

const (
	Long  = risk.Long
	Short = risk.Short
)

// ExitReason says why a position closed.
type ExitReason string

const (
	ExitSignal      ExitReason = "signal"
	ExitStop        ExitReason = "stop"
	ExitTarget      ExitReason = "target"
	ExitTimeout     ExitReason = "timeout"
	ExitReversal    ExitReason = "reversal"
	ExitEndOfSeries ExitReason = "end_of_series"
)

// Trade is a closed position. Trades are never modified once recorded.
type Trade struct {
	EntryTime  int64      `json:"entry_time"`
	ExitTime   int64      `json:"exit_time"`
	EntryIndex int        `json:"entry_index"`
	ExitIndex  int        `json:"exit_index"`
	Direction  string     `json:"direction"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Quantity   float64    `json:"quantity"`
	EntryFee   float64    `json:"entry_fee"`
	ExitFee    float64    `json:"exit_fee"`
	PnL        float64    `json:"pnl"`
	R          float64    `json:"result_R"`
	Risked     float64    `json:"risk_amount"`
	MFE        float64    `json:"mfe"`
	MAE        float64    `json:"mae"`
	Stop       float64    `json:"stop"`
	Target     float64    `json:"target"`
	PlannedRR  float64    `json:"planned_rr,omitempty"`
	BarsHeld   int        `json:"bars_held"`
	Reason     ExitReason `json:"exit_reason"`
}

// Side returns the trade direction.
func (t Trade) Side() Direction {
	if t.Direction == Short.String() {
		return Short
	}
	return Long
}

// EquityPoint is account value at a bar close.
type EquityPoint struct {
	Time   int64   `json:"time"`
	Equity float64 `json:"equity"`
}

// Rejection records an entry the engine declined.
type Rejection struct {
	Time   int64  `json:"time"`
	Index  int    `json:"index"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Rejection codes raised by the engine itself. Governor refusals carry the
// governor's codes.
const (
	RejectSizing = "SIZING"
	RejectStop   = "STOP_INVALID"
)

// Result is everything a run produces.
type Result struct {
	Trades       []Trade         `json:"trades"`
	EquityCurve  []EquityPoint   `json:"equity_curve"`
	Summary      metrics.Summary `json:"summary"`
	FinalBalance float64         `json:"final_balance"`
	Rejections   []Rejection     `json:"rejections,omitempty"`
}

// TradeResults adapts trades for the metrics package.
func TradeResults(trades []Trade) []metrics.TradeResult {
	out := make([]metrics.TradeResult, len(trades))
	for i, t := range trades {
		out[i] = metrics.TradeResult{PnL: t.PnL, R: t.R}
	}
	return out
}

// Equities returns the bare equity values of a curve.
func Equities(curve []EquityPoint) []float64 {
	out := make([]float64, len(curve))
	for i, p := range curve {
		out[i] = p.Equity
	}
	return out
}
