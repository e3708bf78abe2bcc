package journal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	_, ok := m.Latest()
	assert.False(t, ok)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			runID := "A"
			if i%2 == 1 {
				runID = "B"
			}
			_ = m.RecordTrade(TradeRecord{RunID: runID})
			_ = m.RecordEquity(EquitySnapshot{RunID: runID})
		}(i)
	}
	wg.Wait()

	assert.Len(t, m.Trades(""), 20)
	assert.Len(t, m.Trades("A"), 10)
	assert.Len(t, m.Equity("B"), 10)

	require.NoError(t, m.RecordRun(RunRecord{RunID: "A"}))
	require.NoError(t, m.RecordRun(RunRecord{RunID: "B"}))
	latest, ok := m.Latest()
	require.True(t, ok)
	assert.Equal(t, "B", latest.RunID)
	assert.Len(t, m.Runs(), 2)
	assert.NoError(t, m.Close())

	var _ Journal = m
	var _ Journal = Nop{}
	var _ Journal = &SQLite{}
	var _ Journal = &CSVJournal{}
}
