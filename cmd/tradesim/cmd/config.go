package cmd

import (
	"fmt"

	"github.com/rustyeddy/tradesim/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage simulation configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  tradesim config init -o tradesim.yaml
  tradesim config validate -f tradesim.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings. The format
follows the extension: .json writes JSON, anything else writes YAML.

Example:
  tradesim config init -o tradesim.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check that a configuration file loads and passes validation.

Example:
  tradesim config validate -f tradesim.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "tradesim.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(out, "\nEdit the file and run with:")
	fmt.Fprintf(out, "  tradesim --config %s backtest --bars <file.csv>\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  Run: balance %.2f, fee %.4f, slippage %.4f\n",
		cfg.Run.InitialBalance, cfg.Run.FeeRate, cfg.Run.SlippageRate)
	fmt.Fprintf(out, "  Strategy: %s\n", cfg.Strategy.Name)
	fmt.Fprintf(out, "  Rules: %s\n", cfg.Rules.Mode)
	fmt.Fprintf(out, "  Risk: %t\n", cfg.Risk.Enabled)
	fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.Type)
	return nil
}
