package journal

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite writes run output to a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and applies Schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, seq, symbol, direction, quantity, entry_price, exit_price,
		 open_time, close_time, entry_fee, exit_fee, realized_pl, r, mfe, mae,
		 stop, target, bars_held, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.Seq, t.Symbol, t.Direction, t.Quantity, t.EntryPrice, t.ExitPrice,
		t.OpenTime.UTC(), t.CloseTime.UTC(), t.EntryFee, t.ExitFee, t.RealizedPL, t.R, t.MFE, t.MAE,
		t.Stop, t.Target, t.BarsHeld, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (run_id, time, equity, drawdown)
		VALUES (?, ?, ?, ?)`,
		e.RunID, e.Time.UTC(), e.Equity, e.Drawdown,
	)
	return err
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO runs
		(run_id, created, dataset, symbol, strategy, mode, params, fee_rate, slippage_rate,
		 start_time, end_time, bars, trades, wins, losses, rejections,
		 start_balance, end_balance, net_pl, return_pct, win_rate, profit_factor,
		 max_dd_pct, avg_r, sharpe, org_path, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Dataset, r.Symbol, r.Strategy, r.Mode, r.Params, r.FeeRate, r.SlippageRate,
		r.Start.UTC(), r.End.UTC(), r.Bars, r.Trades, r.Wins, r.Losses, r.Rejections,
		r.StartBalance, r.EndBalance, r.NetPL, r.ReturnPct, r.WinRate, r.ProfitFactor,
		r.MaxDDPct, r.AvgR, r.Sharpe, r.OrgPath, strings.Join(r.Notes, "\n"),
	)
	return err
}

// ExportRunOrg loads a run with its trades and returns the Org report.
func (j *SQLite) ExportRunOrg(runID string) (string, error) {
	run, err := j.GetRun(runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRun(runID)
	if err != nil {
		return "", err
	}
	head, err := run.RenderOrg()
	if err != nil {
		return "", err
	}
	if len(trades) == 0 {
		return head, nil
	}
	return head + "\n" + FormatTradesOrg(trades), nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
