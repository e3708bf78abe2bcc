package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/tradesim/risk"
	"github.com/spf13/cobra"
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Exercise the risk governor",
	Long: `Inspect risk governor behaviour without running a simulation.

Subcommands:
  replay - Feed a capital series and print the resulting risk snapshot
  stop   - Validate a stop-loss against an entry price

Examples:
  tradesim risk replay --capital 10000,9000,9500,7800 --max-drawdown 20
  tradesim risk stop --entry 100 --stop 99.8 --direction long`,
}

var riskReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a capital series through a governor",
	Args:  cobra.NoArgs,
	RunE:  runRiskReplay,
}

var riskStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Validate a stop-loss price",
	Args:  cobra.NoArgs,
	RunE:  runRiskStop,
}

var (
	rkCapital      []float64
	rkMaxDrawdown  float64
	rkDailyLoss    float64
	rkMaxPositions int
	rkPositions    int
	rkPerDay       bool

	rkEntry     float64
	rkStop      float64
	rkDirection string
)

func init() {
	rootCmd.AddCommand(riskCmd)
	riskCmd.AddCommand(riskReplayCmd)
	riskCmd.AddCommand(riskStopCmd)

	riskReplayCmd.Flags().Float64SliceVar(&rkCapital, "capital", nil, "capital updates, first value is initial capital (required)")
	riskReplayCmd.Flags().Float64Var(&rkMaxDrawdown, "max-drawdown", 0, "max drawdown percent (overrides config)")
	riskReplayCmd.Flags().Float64Var(&rkDailyLoss, "daily-loss", 0, "daily loss limit percent (overrides config)")
	riskReplayCmd.Flags().IntVar(&rkMaxPositions, "max-positions", 0, "max open positions (overrides config)")
	riskReplayCmd.Flags().IntVar(&rkPositions, "positions", 0, "open positions to report before replaying")
	riskReplayCmd.Flags().BoolVar(&rkPerDay, "per-day", false, "treat each update as a new trading day")
	riskReplayCmd.MarkFlagRequired("capital")

	riskStopCmd.Flags().Float64Var(&rkEntry, "entry", 0, "entry price (required)")
	riskStopCmd.Flags().Float64Var(&rkStop, "stop", 0, "stop price (0 uses the default stop distance)")
	riskStopCmd.Flags().StringVar(&rkDirection, "direction", "long", "long or short")
	riskStopCmd.MarkFlagRequired("entry")
}

func runRiskReplay(cmd *cobra.Command, args []string) error {
	if len(rkCapital) == 0 {
		return fmt.Errorf("capital: at least one value is required")
	}

	limits := appCfg.Risk.Limits
	fl := cmd.Flags()
	if fl.Changed("max-drawdown") {
		limits.MaxDrawdownPercent = rkMaxDrawdown
	}
	if fl.Changed("daily-loss") {
		limits.DailyLossLimitPercent = rkDailyLoss
	}
	if fl.Changed("max-positions") {
		limits.MaxOpenPositions = rkMaxPositions
	}
	if err := limits.Validate(); err != nil {
		return fmt.Errorf("risk limits: %w", err)
	}

	day := time.Date(2000, 1, 3, 12, 0, 0, 0, time.UTC)
	g := risk.NewGovernor(limits, rkCapital[0],
		risk.WithClock(func() time.Time { return day }),
		risk.WithLogger(logger),
		risk.WithObserver(govMetrics))
	if rkPositions > 0 {
		g.UpdatePositionCount(rkPositions)
	}
	for i, c := range rkCapital {
		at := day
		if rkPerDay {
			at = day.AddDate(0, 0, i)
		}
		g.UpdateCapitalAt(at, c)
	}

	return printJSON(cmd.OutOrStdout(), struct {
		Snapshot risk.Snapshot `json:"snapshot"`
		Decision risk.Decision `json:"can_open_position"`
	}{g.Snapshot(), g.CheckCanOpenPosition()})
}

func runRiskStop(cmd *cobra.Command, args []string) error {
	dir, err := risk.ParseDirection(rkDirection)
	if err != nil {
		return err
	}
	g := risk.NewGovernor(appCfg.Risk.Limits, 0, risk.WithLogger(logger))
	return printJSON(cmd.OutOrStdout(), g.ValidateStopLoss(rkEntry, rkStop, dir))
}
