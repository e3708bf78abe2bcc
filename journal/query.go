package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("not found")

const tradeColumns = `trade_id, run_id, seq, symbol, direction, quantity, entry_price, exit_price,
	open_time, close_time, entry_fee, exit_fee, realized_pl, r, mfe, mae,
	stop, target, bars_held, reason`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var rec TradeRecord
	err := s.Scan(
		&rec.TradeID, &rec.RunID, &rec.Seq, &rec.Symbol, &rec.Direction,
		&rec.Quantity, &rec.EntryPrice, &rec.ExitPrice,
		&rec.OpenTime, &rec.CloseTime,
		&rec.EntryFee, &rec.ExitFee, &rec.RealizedPL, &rec.R, &rec.MFE, &rec.MAE,
		&rec.Stop, &rec.Target, &rec.BarsHeld, &rec.Reason,
	)
	return rec, err
}

func (j *SQLite) queryTrades(query string, args ...any) ([]TradeRecord, error) {
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)
	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %q: %w", tradeID, ErrNotFound)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesByRun returns a run's trades in the order they closed.
func (j *SQLite) ListTradesByRun(runID string) ([]TradeRecord, error) {
	return j.queryTrades(`SELECT `+tradeColumns+` FROM trades WHERE run_id = ? ORDER BY seq ASC`, runID)
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	return j.queryTrades(`SELECT `+tradeColumns+` FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC, seq ASC`, start.UTC(), end.UTC())
}

// ListEquityByRun returns a run's equity samples in time order.
func (j *SQLite) ListEquityByRun(runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT run_id, time, equity, drawdown
		FROM equity
		WHERE run_id = ?
		ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.RunID, &e.Time, &e.Equity, &e.Drawdown); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRun returns the summary row of a run.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	var r RunRecord
	var notes string
	err := j.db.QueryRow(`
		SELECT run_id, created, dataset, symbol, strategy, mode, params, fee_rate, slippage_rate,
		       start_time, end_time, bars, trades, wins, losses, rejections,
		       start_balance, end_balance, net_pl, return_pct, win_rate, profit_factor,
		       max_dd_pct, avg_r, sharpe, org_path, notes
		FROM runs WHERE run_id = ?`, runID).Scan(
		&r.RunID, &r.Created, &r.Dataset, &r.Symbol, &r.Strategy, &r.Mode, &r.Params, &r.FeeRate, &r.SlippageRate,
		&r.Start, &r.End, &r.Bars, &r.Trades, &r.Wins, &r.Losses, &r.Rejections,
		&r.StartBalance, &r.EndBalance, &r.NetPL, &r.ReturnPct, &r.WinRate, &r.ProfitFactor,
		&r.MaxDDPct, &r.AvgR, &r.Sharpe, &r.OrgPath, &notes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("run %q: %w", runID, ErrNotFound)
		}
		return RunRecord{}, err
	}
	if notes != "" {
		r.Notes = strings.Split(notes, "\n")
	}
	return r, nil
}

// ListRuns returns every run, newest first.
func (j *SQLite) ListRuns() ([]RunRecord, error) {
	rows, err := j.db.Query(`SELECT run_id FROM runs ORDER BY created DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]RunRecord, 0, len(ids))
	for _, id := range ids {
		r, err := j.GetRun(id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
