// Package journal persists simulation output: trades, equity samples and
// per-run summaries.
package journal

import "time"

// TradeRecord is one closed trade of a run.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Seq        int
	Symbol     string
	Direction  string
	Quantity   float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	EntryFee   float64
	ExitFee    float64
	RealizedPL float64
	R          float64
	MFE        float64
	MAE        float64
	Stop       float64
	Target     float64
	BarsHeld   int
	Reason     string
}

// EquitySnapshot is the account value at one bar close. Drawdown is the
// fraction below the running peak and is never positive.
type EquitySnapshot struct {
	RunID    string
	Time     time.Time
	Equity   float64
	Drawdown float64
}

// Journal is a sink for run output.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	RecordRun(RunRecord) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) RecordRun(RunRecord) error { return nil }
func (Nop) Close() error { return nil }
