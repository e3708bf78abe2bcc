package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath, "")
	require.NoError(t, err)
	assert.NoError(t, j.Close())

	assert.Equal(t, [][]string{tradeHeader}, readCSV(t, tradesPath))
	assert.Equal(t, [][]string{equityHeader}, readCSV(t, equityPath))
}

func TestCSVJournalRecords(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")
	runsPath := filepath.Join(dir, "runs.csv")

	closeT := time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC)

	j, err := NewCSV(tradesPath, equityPath, runsPath)
	require.NoError(t, err)
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "R1-1", 1, closeT, -12.5)))
	require.NoError(t, j.RecordEquity(EquitySnapshot{RunID: "R1", Time: closeT, Equity: 987.5, Drawdown: -0.0125}))
	require.NoError(t, j.RecordRun(RunRecord{RunID: "R1", Strategy: "buy_and_hold", Trades: 1}))
	require.NoError(t, j.Close())

	trades := readCSV(t, tradesPath)
	require.Len(t, trades, 2)
	assert.Equal(t, "R1-1", trades[1][1])
	assert.Equal(t, "long", trades[1][4])
	assert.Equal(t, "2024-01-02T04:05:06Z", trades[1][9])
	assert.Equal(t, "-12.500000", trades[1][12])
	assert.Equal(t, "target", trades[1][19])

	equity := readCSV(t, equityPath)
	require.Len(t, equity, 2)
	assert.Equal(t, []string{"R1", "2024-01-02T04:05:06Z", "987.500000", "-0.012500"}, equity[1])

	// a second journal appends to the runs file without a second header
	j2, err := NewCSV(tradesPath, equityPath, runsPath)
	require.NoError(t, err)
	require.NoError(t, j2.RecordRun(RunRecord{RunID: "R2", Strategy: "noop"}))
	require.NoError(t, j2.Close())

	runs := readCSV(t, runsPath)
	require.Len(t, runs, 3)
	assert.Equal(t, runHeader, runs[0])
	assert.Equal(t, "R1", runs[1][0])
	assert.Equal(t, "R2", runs[2][0])
}

func TestCSVJournalBadPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := NewCSV(filepath.Join(dir, "missing", "t.csv"), filepath.Join(dir, "e.csv"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create trades file")
}
