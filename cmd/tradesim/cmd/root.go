package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rustyeddy/tradesim/config"
	"github.com/rustyeddy/tradesim/internal/logging"
	"github.com/rustyeddy/tradesim/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "tradesim",
	Short: "A deterministic bar-level trading simulator",
	Long: `Tradesim replays OHLC bar series against trading signals or built-in
entry rules and reports trades, an equity curve and performance statistics.

It provides tools for:
  - Backtesting named strategies in signal mode
  - Running the stop/target/timeout rule engine
  - Parallel parameter sweeps
  - Risk governor replays and stop-loss validation
  - Journaling runs to CSV or SQLite with Org-mode reports`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

var (
	cfgFile    string
	logLevel   string
	envFile    string
	metricsOut string
)

// Process-wide state built by setup for the running command.
var (
	appCfg     *config.Config
	logger     = zap.NewNop()
	registry   *prometheus.Registry
	govMetrics *telemetry.GovernorMetrics
	runMetrics *telemetry.RunMetrics
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file with TRADESIM_* overrides")
	rootCmd.PersistentFlags().StringVar(&metricsOut, "metrics-out", "", "write Prometheus text metrics to this file after the command")
}

func setup(cmd *cobra.Command, args []string) error {
	l, err := logging.New(logLevel)
	if err != nil {
		return err
	}
	logger = l

	cfg := config.Default()
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		return fmt.Errorf("apply env: %w", err)
	}
	appCfg = cfg

	registry = prometheus.NewRegistry()
	if govMetrics, err = telemetry.NewGovernorMetrics(registry); err != nil {
		return err
	}
	if runMetrics, err = telemetry.NewRunMetrics(registry); err != nil {
		return err
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	defer func() { _ = logger.Sync() }()
	if metricsOut == "" || registry == nil {
		return nil
	}
	if err := telemetry.WriteTextfile(metricsOut, registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
