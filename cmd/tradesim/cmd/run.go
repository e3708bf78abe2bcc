package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rustyeddy/tradesim/backtest"
	"github.com/rustyeddy/tradesim/config"
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/risk"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runFlags are shared by the commands that execute a single run.
type runFlags struct {
	bars   string
	symbol string
	from   int64
	to     int64
	limit  int

	balance  float64
	fee      float64
	slippage float64
	withRisk bool

	journalType string
	dbPath      string
	tradesFile  string
	equityFile  string
	runsFile    string
	orgPath     string

	asJSON bool
}

func addRunFlags(c *cobra.Command, f *runFlags) {
	c.Flags().StringVarP(&f.bars, "bars", "b", "", "path to bar CSV (ts,open,high,low,close[,volume]) (required)")
	c.Flags().StringVar(&f.symbol, "symbol", "", "symbol recorded with the run")
	c.Flags().Int64Var(&f.from, "from", 0, "skip bars before this unix time")
	c.Flags().Int64Var(&f.to, "to", 0, "skip bars at or after this unix time")
	c.Flags().IntVar(&f.limit, "limit", 0, "keep only the last N bars")

	c.Flags().Float64Var(&f.balance, "balance", 0, "starting balance (overrides config)")
	c.Flags().Float64Var(&f.fee, "fee", 0, "fee rate per side (overrides config)")
	c.Flags().Float64Var(&f.slippage, "slippage", 0, "slippage rate per side (overrides config)")
	c.Flags().BoolVar(&f.withRisk, "risk", false, "attach a risk governor with the configured limits")

	c.Flags().StringVar(&f.journalType, "journal", "", "journal type: none, csv or sqlite (overrides config)")
	c.Flags().StringVarP(&f.dbPath, "db", "d", "", "SQLite journal path")
	c.Flags().StringVar(&f.tradesFile, "trades", "", "CSV trades file")
	c.Flags().StringVar(&f.equityFile, "equity", "", "CSV equity file")
	c.Flags().StringVar(&f.runsFile, "runs", "", "CSV runs file (appended)")
	c.Flags().StringVar(&f.orgPath, "org", "", "write an Org-mode run report to this path")

	c.Flags().BoolVar(&f.asJSON, "json", false, "print the full result as JSON")

	c.MarkFlagRequired("bars")
}

func (f *runFlags) loadBars() ([]market.Bar, error) {
	bars, err := market.LoadCSV(f.bars, market.ReadOptions{From: f.from, To: f.to, Limit: f.limit})
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	return bars, nil
}

// engineConfig is the configured run section with changed flags applied.
func (f *runFlags) engineConfig(c *cobra.Command) (backtest.Config, error) {
	cfg := appCfg.Run.Engine()
	if c.Flags().Changed("balance") {
		cfg.InitialBalance = f.balance
	}
	if c.Flags().Changed("fee") {
		cfg.FeeRate = f.fee
	}
	if c.Flags().Changed("slippage") {
		cfg.SlippageRate = f.slippage
	}
	return cfg, cfg.Validate()
}

func (f *runFlags) journalConfig() config.JournalConfig {
	jc := appCfg.Journal
	if f.journalType != "" {
		jc.Type = f.journalType
	}
	for dst, v := range map[*string]string{
		&jc.DBPath:     f.dbPath,
		&jc.TradesFile: f.tradesFile,
		&jc.EquityFile: f.equityFile,
		&jc.RunsFile:   f.runsFile,
		&jc.OrgPath:    f.orgPath,
	} {
		if v != "" {
			*dst = v
		}
	}
	return jc
}

// governor returns a fresh governor when risk is enabled by flag or config.
func (f *runFlags) governor(capital float64) *risk.Governor {
	rc := appCfg.Risk
	if f.withRisk {
		rc.Enabled = true
	}
	return rc.Governor(capital, risk.WithLogger(logger), risk.WithObserver(govMetrics))
}

// execute runs r over the bars named by f and prints the outcome.
func execute(c *cobra.Command, f *runFlags, r *backtest.Runner) error {
	bars, err := f.loadBars()
	if err != nil {
		return err
	}
	cfg, err := f.engineConfig(c)
	if err != nil {
		return err
	}

	gov := f.governor(cfg.InitialBalance)
	r.Engine = &backtest.Engine{Config: cfg, Governor: gov, Logger: logger}

	jc := f.journalConfig()
	j, err := jc.Open()
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	r.Journal = j
	r.Info.Dataset = filepath.Base(f.bars)
	r.Info.Symbol = f.symbol
	r.Info.OrgPath = jc.OrgPath
	r.Options.WriteOrg = jc.OrgPath != ""

	rep, err := r.Run(context.Background(), bars)
	if err != nil {
		return err
	}
	runMetrics.ObserveRun(rep.Run.Strategy, rep.Result)
	logger.Info("run recorded", zap.String("run_id", rep.Run.RunID), zap.String("journal", jc.Type))

	out := c.OutOrStdout()
	if f.asJSON {
		var snap *risk.Snapshot
		if gov != nil {
			s := gov.Snapshot()
			snap = &s
		}
		return printJSON(out, struct {
			RunID  string          `json:"run_id"`
			Result backtest.Result `json:"result"`
			Risk   *risk.Snapshot  `json:"risk,omitempty"`
		}{rep.Run.RunID, rep.Result, snap})
	}

	s := rep.Result.Summary
	fmt.Fprintf(out, "Run %s (%s, %s)\n", rep.Run.RunID, rep.Run.Strategy, rep.Run.Mode)
	fmt.Fprintf(out, "  Bars:          %d\n", len(bars))
	fmt.Fprintf(out, "  Trades:        %d (wins %d, losses %d)\n", s.TotalTrades, s.Wins, s.Losses)
	long, short := sides(rep.Result.Trades)
	fmt.Fprintf(out, "  Long/Short:    %d/%d\n", long, short)
	fmt.Fprintf(out, "  Rejections:    %d\n", len(rep.Result.Rejections))
	fmt.Fprintf(out, "  Start Balance: %.2f\n", cfg.InitialBalance)
	fmt.Fprintf(out, "  Final Balance: %.2f\n", rep.Result.FinalBalance)
	fmt.Fprintf(out, "  Net P/L:       %.2f (%.2f%%)\n", s.NetProfit, s.ReturnPct)
	fmt.Fprintf(out, "  Win Rate:      %.2f%%\n", s.WinRatePct)
	fmt.Fprintf(out, "  Profit Factor: %.2f\n", s.ProfitFactor)
	fmt.Fprintf(out, "  Max Drawdown:  %.2f (%.2f%%)\n", s.MaxDrawdown, s.MaxDrawdownPct)
	fmt.Fprintf(out, "  Average R:     %.2f\n", s.AverageR)
	fmt.Fprintf(out, "  Sharpe:        %.2f\n", s.Sharpe)
	if gov != nil {
		snap := gov.Snapshot()
		fmt.Fprintf(out, "  Risk Status:   %s (drawdown %.2f%%)\n", snap.Status, snap.CurrentDrawdown)
		if gov.Paused() {
			fmt.Fprintf(out, "  Trading paused: %s\n", snap.PauseReason)
		}
	}
	return nil
}

func sides(trades []backtest.Trade) (long, short int) {
	for _, t := range trades {
		if t.Side() == backtest.Short {
			short++
		} else {
			long++
		}
	}
	return long, short
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
