package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/tradesim/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the SQLite run journal",
	Long: `Query and display runs and trades recorded in a SQLite journal.

Subcommands:
  runs    - List recorded runs, newest first
  run     - Print the Org-mode report of a run
  trades  - List the trades of a run
  trade   - Get details of a specific trade by ID
  day     - List trades closed on a specific UTC day

Examples:
  tradesim journal runs -d tradesim.db
  tradesim journal run 01HX3K2V6W8Q9T5R4N7M2B1C0D
  tradesim journal day 2024-01-15`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalRunCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "Print the Org-mode report of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalRun,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades <run-id>",
	Short: "List the trades of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrades,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific UTC day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalRunCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal DB (default from config)")
}

func openJournalDB() (*journal.SQLite, error) {
	path := journalDBPath
	if path == "" {
		path = appCfg.Journal.DBPath
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-26s %-20s %-12s %-8s %7s %10s\n", "RUN", "CREATED", "STRATEGY", "MODE", "TRADES", "NET P/L")
	for _, r := range runs {
		fmt.Fprintf(out, "%-26s %-20s %-12s %-8s %7d %10.2f\n",
			r.RunID, r.Created.UTC().Format("2006-01-02 15:04:05"), r.Strategy, r.Mode, r.Trades, r.NetPL)
	}
	return nil
}

func runJournalRun(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	org, err := j.ExportRunOrg(args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), org)
	return nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTradesByRun(args[0])
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	start, end, err := dayBounds(time.UTC, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1), nil
}
