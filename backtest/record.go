package backtest

import (
	"fmt"
	"time"

	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/metrics"
	"github.com/rustyeddy/tradesim/pkg/id"
)

// Run modes stored with a recorded run.
const (
	ModeSignals = "signals"
	ModeRules   = "rules"
)

// RunInfo describes a run for the journal. Config must be the
// configuration the Result was produced with.
type RunInfo struct {
	RunID    string
	Created  time.Time
	Dataset  string
	Symbol   string
	Strategy string
	Mode     string
	Params   string
	Config   Config
	OrgPath  string
	Notes    []string
}

// Record writes res to j: every trade, every equity point and a run summary.
// An empty RunID is filled with a fresh ULID and returned in the record.
func Record(j journal.Journal, info RunInfo, res Result) (journal.RunRecord, error) {
	if info.RunID == "" {
		info.RunID = id.New()
	}
	if info.Created.IsZero() {
		info.Created = time.Now().UTC()
	}

	for i, t := range res.Trades {
		rec := journal.TradeRecord{
			RunID:      info.RunID,
			TradeID:    fmt.Sprintf("%s-%d", info.RunID, i+1),
			Seq:        i + 1,
			Symbol:     info.Symbol,
			Direction:  t.Direction,
			Quantity:   t.Quantity,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			OpenTime:   time.Unix(t.EntryTime, 0).UTC(),
			CloseTime:  time.Unix(t.ExitTime, 0).UTC(),
			EntryFee:   t.EntryFee,
			ExitFee:    t.ExitFee,
			RealizedPL: t.PnL,
			R:          t.R,
			MFE:        t.MFE,
			MAE:        t.MAE,
			Stop:       t.Stop,
			Target:     t.Target,
			BarsHeld:   t.BarsHeld,
			Reason:     string(t.Reason),
		}
		if err := j.RecordTrade(rec); err != nil {
			return journal.RunRecord{}, fmt.Errorf("record trade %d: %w", i+1, err)
		}
	}

	dd, _ := metrics.Drawdowns(Equities(res.EquityCurve))
	for i, p := range res.EquityCurve {
		snap := journal.EquitySnapshot{
			RunID:    info.RunID,
			Time:     time.Unix(p.Time, 0).UTC(),
			Equity:   p.Equity,
			Drawdown: dd[i],
		}
		if err := j.RecordEquity(snap); err != nil {
			return journal.RunRecord{}, fmt.Errorf("record equity %d: %w", i, err)
		}
	}

	run := RunRecordOf(info, res)
	if err := j.RecordRun(run); err != nil {
		return journal.RunRecord{}, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

// RunRecordOf builds the journal summary row for res.
func RunRecordOf(info RunInfo, res Result) journal.RunRecord {
	s := res.Summary
	run := journal.RunRecord{
		RunID:        info.RunID,
		Created:      info.Created,
		Dataset:      info.Dataset,
		Symbol:       info.Symbol,
		Strategy:     info.Strategy,
		Mode:         info.Mode,
		Params:       info.Params,
		FeeRate:      info.Config.FeeRate,
		SlippageRate: info.Config.SlippageRate,
		Bars:         len(res.EquityCurve),
		Trades:       s.TotalTrades,
		Wins:         s.Wins,
		Losses:       s.Losses,
		Rejections:   len(res.Rejections),
		StartBalance: info.Config.InitialBalance,
		EndBalance:   res.FinalBalance,
		NetPL:        s.NetProfit,
		ReturnPct:    s.ReturnPct,
		WinRate:      s.WinRatePct,
		ProfitFactor: s.ProfitFactor,
		MaxDDPct:     s.MaxDrawdownPct,
		AvgR:         s.AverageR,
		Sharpe:       s.Sharpe,
		OrgPath:      info.OrgPath,
		Notes:        info.Notes,
	}
	if n := len(res.EquityCurve); n > 0 {
		run.Start = time.Unix(res.EquityCurve[0].Time, 0).UTC()
		run.End = time.Unix(res.EquityCurve[n-1].Time, 0).UTC()
	}
	return run
}
