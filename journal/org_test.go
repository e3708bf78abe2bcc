package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	closeT := time.Date(2024, 3, 15, 14, 20, 30, 0, time.UTC)
	trade := sampleTrade("01HRUN", "trade-12345678-abcd", 1, closeT, 250)

	result := FormatTradeOrg(trade)

	for _, want := range []string{
		"** Trade 1: BTCUSDT long (trade-12) target",
		":PROPERTIES:",
		":TRADE_ID: trade-12345678-abcd",
		":RUN_ID: 01HRUN",
		":SYMBOL: BTCUSDT",
		":QUANTITY: 0.250000",
		":ENTRY_TIME: 2024-03-15T13:20:30Z",
		":ENTRY_PRICE: 40000.00000",
		":EXIT_TIME: 2024-03-15T14:20:30Z",
		":STOP: 39600.00000",
		":TARGET: 41600.00000",
		":FEES: 8.10",
		":REALIZED_PL: 250.00",
		":RESULT_R: 2.50",
		":BARS_HELD: 3",
		":MFE: 120.00000",
		":MAE: 35.00000",
		":EXIT_REASON: target",
		":END:",
		"*** Setup",
		"*** Lessons",
	} {
		assert.Contains(t, result, want)
	}
}

func TestFormatTradeOrg_OptionalFields(t *testing.T) {
	t.Parallel()

	closeT := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		edit   func(*TradeRecord)
		absent []string
	}{
		{
			name:   "signal trade without stops",
			edit:   func(r *TradeRecord) { r.Stop, r.Target, r.Reason = 0, 0, "signal" },
			absent: []string{":STOP:", ":TARGET:"},
		},
		{
			name:   "no excursions",
			edit:   func(r *TradeRecord) { r.MFE, r.MAE = 0, 0 },
			absent: []string{":MFE:", ":MAE:"},
		},
		{
			name: "missing symbol",
			edit: func(r *TradeRecord) { r.Symbol = "" },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sampleTrade("R", "T1", 1, closeT, 10)
			tt.edit(&rec)
			out := FormatTradeOrg(rec)
			for _, key := range tt.absent {
				assert.NotContains(t, out, key)
			}
			assert.Contains(t, out, ":EXIT_REASON: "+rec.Reason)
			if rec.Symbol == "" {
				assert.Contains(t, out, ":SYMBOL: -")
			}
		})
	}
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	closeT := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)
	out := FormatTradesOrg([]TradeRecord{
		sampleTrade("R", "A1", 1, closeT, 1),
		sampleTrade("R", "B2", 2, closeT, 2),
	})
	assert.Equal(t, 2, strings.Count(out, "** Trade "))
	assert.Contains(t, out, "\n\n\n** Trade 2: BTCUSDT long (B2) target")
	assert.Empty(t, FormatTradesOrg(nil))
}

func TestRunRecordOrg(t *testing.T) {
	t.Parallel()

	run := RunRecord{
		RunID:        "01HXYZ",
		Created:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Strategy:     "sma_cross",
		Mode:         "signals",
		Start:        time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		StartBalance: 1000,
		EndBalance:   1100,
		NetPL:        100,
		ReturnPct:    10,
		Trades:       4,
		Wins:         3,
		Losses:       1,
		WinRate:      75,
		Notes:        []string{"trend regime"},
	}

	s, err := run.RenderOrg()
	require.NoError(t, err)
	assert.Contains(t, s, "* BACKTEST: sma_cross -")
	assert.Contains(t, s, ":RUN_ID:      01HXYZ")
	assert.Contains(t, s, ":START_DATE:  2024-04-01")
	assert.Contains(t, s, ":END_BAL:     1100.00")
	assert.Contains(t, s, ":WIN_RATE:    75.00")
	assert.Contains(t, s, ":CREATED:     [2024-05-01 Wed 12:00]")
	assert.Contains(t, s, "- trend regime")

	path := filepath.Join(t.TempDir(), "run.org")
	require.NoError(t, run.WriteOrg(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, s, string(data))

	require.Error(t, (&RunRecord{}).WriteOrg(""))
}
