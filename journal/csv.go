package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	tradeHeader  = []string{"run_id", "trade_id", "seq", "symbol", "direction", "quantity", "entry_price", "exit_price", "open_time", "close_time", "entry_fee", "exit_fee", "realized_pl", "r", "mfe", "mae", "stop", "target", "bars_held", "reason"}
	equityHeader = []string{"run_id", "time", "equity", "drawdown"}
	runHeader    = []string{"run_id", "created", "dataset", "symbol", "strategy", "mode", "params", "start", "end", "bars", "trades", "wins", "losses", "rejections", "start_balance", "end_balance", "net_pl", "return_pct", "win_rate", "profit_factor", "max_dd_pct", "avg_r", "sharpe"}
)

// CSVJournal writes trades and equity to two CSV files and, optionally,
// appends run summaries to a third.
type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	runs   *csv.Writer
	files  []*os.File
}

// NewCSV creates (truncating) tradesPath and equityPath. When runsPath is
// not empty it is opened for append and given a header if new.
func NewCSV(tradesPath, equityPath, runsPath string) (*CSVJournal, error) {
	j := &CSVJournal{}

	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, fmt.Errorf("create trades file: %w", err)
	}
	j.files = append(j.files, tf)
	ef, err := os.Create(equityPath)
	if err != nil {
		j.closeFiles()
		return nil, fmt.Errorf("create equity file: %w", err)
	}
	j.files = append(j.files, ef)

	j.trades = csv.NewWriter(tf)
	j.equity = csv.NewWriter(ef)
	if err := writeFlush(j.trades, tradeHeader); err != nil {
		j.closeFiles()
		return nil, err
	}
	if err := writeFlush(j.equity, equityHeader); err != nil {
		j.closeFiles()
		return nil, err
	}

	if runsPath != "" {
		st, statErr := os.Stat(runsPath)
		rf, err := os.OpenFile(runsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			j.closeFiles()
			return nil, fmt.Errorf("open runs file: %w", err)
		}
		j.files = append(j.files, rf)
		j.runs = csv.NewWriter(rf)
		if statErr != nil || st.Size() == 0 {
			if err := writeFlush(j.runs, runHeader); err != nil {
				j.closeFiles()
				return nil, err
			}
		}
	}

	return j, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return writeFlush(j.trades, []string{
		t.RunID,
		t.TradeID,
		strconv.Itoa(t.Seq),
		t.Symbol,
		t.Direction,
		f(t.Quantity),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.OpenTime.UTC().Format(time.RFC3339),
		t.CloseTime.UTC().Format(time.RFC3339),
		f(t.EntryFee),
		f(t.ExitFee),
		f(t.RealizedPL),
		f(t.R),
		f(t.MFE),
		f(t.MAE),
		f(t.Stop),
		f(t.Target),
		strconv.Itoa(t.BarsHeld),
		t.Reason,
	})
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	return writeFlush(j.equity, []string{
		e.RunID,
		e.Time.UTC().Format(time.RFC3339),
		f(e.Equity),
		f(e.Drawdown),
	})
}

// RecordRun appends r to the runs file. It is a no-op without one.
func (j *CSVJournal) RecordRun(r RunRecord) error {
	if j.runs == nil {
		return nil
	}
	return writeFlush(j.runs, []string{
		r.RunID,
		r.Created.UTC().Format(time.RFC3339),
		r.Dataset,
		r.Symbol,
		r.Strategy,
		r.Mode,
		r.Params,
		r.Start.UTC().Format(time.RFC3339),
		r.End.UTC().Format(time.RFC3339),
		strconv.Itoa(r.Bars),
		strconv.Itoa(r.Trades),
		strconv.Itoa(r.Wins),
		strconv.Itoa(r.Losses),
		strconv.Itoa(r.Rejections),
		f(r.StartBalance),
		f(r.EndBalance),
		f(r.NetPL),
		f(r.ReturnPct),
		f(r.WinRate),
		f(r.ProfitFactor),
		f(r.MaxDDPct),
		f(r.AvgR),
		f(r.Sharpe),
	})
}

func (j *CSVJournal) Close() error {
	for _, w := range []*csv.Writer{j.trades, j.equity, j.runs} {
		if w == nil {
			continue
		}
		w.Flush()
		if err := w.Error(); err != nil {
			j.closeFiles()
			return err
		}
	}
	return j.closeFiles()
}

func (j *CSVJournal) closeFiles() error {
	var first error
	for _, fh := range j.files {
		if err := fh.Close(); err != nil && first == nil {
			first = err
		}
	}
	j.files = nil
	return first
}

func writeFlush(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
