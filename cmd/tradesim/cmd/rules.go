package cmd

import (
	"github.com/rustyeddy/tradesim/backtest"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Run the built-in rule engine over a bar series",
	Long: `Rules derives entries from a moving average cross or a channel breakout
and manages every position with a fixed stop, a target at the configured
risk/reward multiple and a holding period limit.

Examples:
  tradesim rules --bars data/btc_1h.csv --mode ma_cross --fast 10 --slow 30
  tradesim rules --bars data/btc_1h.csv --mode breakout --channel 20 --allow-short`,
	RunE: runRules,
}

var (
	rlFlags      runFlags
	rlMode       string
	rlKind       string
	rlFast       int
	rlSlow       int
	rlChannel    int
	rlAllowShort bool
	rlRR         float64
	rlMaxBars    int
	rlRisk       float64
)

func init() {
	rootCmd.AddCommand(rulesCmd)

	addRunFlags(rulesCmd, &rlFlags)
	rulesCmd.Flags().StringVar(&rlMode, "mode", "", "entry rule: ma_cross, breakout or pattern3_extreme (default from config)")
	rulesCmd.Flags().StringVar(&rlKind, "ma-kind", "", "moving average kind for ma_cross: sma or ema")
	rulesCmd.Flags().IntVar(&rlFast, "fast", 0, "fast moving average period")
	rulesCmd.Flags().IntVar(&rlSlow, "slow", 0, "slow moving average period")
	rulesCmd.Flags().IntVar(&rlChannel, "channel", 0, "breakout channel length")
	rulesCmd.Flags().BoolVar(&rlAllowShort, "allow-short", false, "open shorts on bearish setups")
	rulesCmd.Flags().Float64Var(&rlRR, "rr", 0, "target as a multiple of the stop distance (0 disables)")
	rulesCmd.Flags().IntVar(&rlMaxBars, "max-bars", 0, "close after this many bars (0 disables)")
	rulesCmd.Flags().Float64Var(&rlRisk, "risk-per-trade", 0, "cap size so a stop-out loses at most this amount (0 disables)")
}

func runRules(cmd *cobra.Command, args []string) error {
	rules := appCfg.Rules.Engine()
	fl := cmd.Flags()
	if fl.Changed("mode") {
		rules.Mode = rlMode
	}
	if fl.Changed("ma-kind") {
		rules.MAKind = rlKind
	}
	if fl.Changed("fast") {
		rules.Fast = rlFast
	}
	if fl.Changed("slow") {
		rules.Slow = rlSlow
	}
	if fl.Changed("channel") {
		rules.Channel = rlChannel
	}
	if fl.Changed("allow-short") {
		rules.AllowShort = rlAllowShort
	}
	if err := rules.Validate(); err != nil {
		return err
	}

	if fl.Changed("rr") {
		appCfg.Run.RiskRewardRatio = rlRR
	}
	if fl.Changed("max-bars") {
		appCfg.Run.MaxBarsInTrade = rlMaxBars
	}
	if fl.Changed("risk-per-trade") {
		appCfg.Run.RiskPerTrade = rlRisk
	}

	return execute(cmd, &rlFlags, &backtest.Runner{Rules: &rules})
}
