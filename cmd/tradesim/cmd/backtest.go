package cmd

import (
	"fmt"
	"strconv"

	"github.com/rustyeddy/tradesim/backtest"
	"github.com/rustyeddy/tradesim/strategies"
	"github.com/spf13/cobra"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a named strategy over a bar series",
	Long: `Backtest generates one signal per bar from a named strategy and replays
them: a positive signal enters long with all available cash, a negative one
exits. Positions still open after the last bar are closed at its close.

Supported strategies:
  - buy_and_hold: enter on the first bar, exit on the last
  - sma_cross / ema_cross: moving average crossover (params fast, slow)
  - breakout: close outside the prior channel (param channel)
  - noop: never trades

Example:
  tradesim backtest --bars data/btc_1h.csv --strategy sma_cross --param fast=10 --param slow=30`,
	RunE: runBacktest,
}

var (
	btFlags    runFlags
	btStrategy string
	btParams   map[string]string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	addRunFlags(backtestCmd, &btFlags)
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "", "strategy name (default from config)")
	backtestCmd.Flags().StringToStringVarP(&btParams, "param", "p", nil, "strategy parameter as name=value (repeatable)")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	name := appCfg.Strategy.Name
	if btStrategy != "" {
		name = btStrategy
	}
	src, err := strategies.Lookup(name)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	params := appCfg.Strategy.StrategyParams()
	for k, v := range btParams {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("param %s: invalid number %q", k, v)
		}
		params[k] = x
	}

	return execute(cmd, &btFlags, &backtest.Runner{Source: src, Params: params})
}
