package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rustyeddy/tradesim/backtest"
	"github.com/rustyeddy/tradesim/risk"
	"github.com/rustyeddy/tradesim/sweep"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a fast/slow parameter grid in parallel",
	Long: `Sweep runs one independent simulation per (fast, slow) pair with
fast < slow and ranks the results by net profit. Every run gets its own
engine and, with --risk, its own governor.

Example:
  tradesim sweep --bars data/btc_1h.csv --strategy sma_cross --fast 5,10 --slow 20,30 --workers 4`,
	RunE: runSweep,
}

var (
	swFlags    runFlags
	swStrategy string
	swFast     []int
	swSlow     []int
	swWorkers  int
	swTop      int
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	addRunFlags(sweepCmd, &swFlags)
	sweepCmd.Flags().StringVarP(&swStrategy, "strategy", "s", "sma_cross", "crossover strategy to sweep")
	sweepCmd.Flags().IntSliceVar(&swFast, "fast", []int{5, 10, 20}, "fast periods")
	sweepCmd.Flags().IntSliceVar(&swSlow, "slow", []int{30, 50, 100}, "slow periods")
	sweepCmd.Flags().IntVarP(&swWorkers, "workers", "w", 0, "parallel runs (0 = GOMAXPROCS)")
	sweepCmd.Flags().IntVar(&swTop, "top", 10, "print only the best N results (0 = all)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	bars, err := swFlags.loadBars()
	if err != nil {
		return err
	}
	cfg, err := swFlags.engineConfig(cmd)
	if err != nil {
		return err
	}

	jobs := sweep.Grid(swStrategy, swFast, swSlow)
	if len(jobs) == 0 {
		return fmt.Errorf("no fast/slow pair with fast < slow")
	}

	opts := sweep.Options{
		Workers: swWorkers,
		Logger:  logger,
		Info:    backtest.RunInfo{Dataset: filepath.Base(swFlags.bars), Symbol: swFlags.symbol},
	}
	if swFlags.withRisk || appCfg.Risk.Enabled {
		limits := appCfg.Risk.Limits
		opts.Limits = &limits
	}

	jc := swFlags.journalConfig()
	j, err := jc.Open()
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()
	opts.Journal = j

	outcomes, err := sweep.Run(context.Background(), bars, cfg, jobs, opts)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Err == nil {
			runMetrics.ObserveRun(swStrategy, o.Result)
		}
	}

	ranked := sweep.Rank(outcomes)
	if swTop > 0 && len(ranked) > swTop {
		ranked = ranked[:swTop]
	}

	out := cmd.OutOrStdout()
	if swFlags.asJSON {
		type row struct {
			Name    string         `json:"name"`
			RunID   string         `json:"run_id,omitempty"`
			Summary any            `json:"summary"`
			Final   float64        `json:"final_balance"`
			Risk    *risk.Snapshot `json:"risk,omitempty"`
		}
		rows := make([]row, 0, len(ranked))
		for _, o := range ranked {
			rows = append(rows, row{o.Job.Name, o.RunID, o.Result.Summary, o.Result.FinalBalance, o.Risk})
		}
		return printJSON(out, rows)
	}

	fmt.Fprintf(out, "Sweep: %d jobs, %d bars\n\n", len(jobs), len(bars))
	fmt.Fprintf(out, "%-32s %8s %10s %8s %8s\n", "JOB", "TRADES", "NET P/L", "WIN%", "MAXDD%")
	for _, o := range ranked {
		s := o.Result.Summary
		fmt.Fprintf(out, "%-32s %8d %10.2f %8.2f %8.2f\n", o.Job.Name, s.TotalTrades, s.NetProfit, s.WinRatePct, s.MaxDrawdownPct)
	}
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(out, "%-32s error: %v\n", o.Job.Name, o.Err)
		}
	}
	return nil
}
