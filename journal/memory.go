package journal

import "sync"

// Memory keeps everything in process. It is safe for concurrent use and
// doubles as the "latest run" store for callers that want one.
type Memory struct {
	mu     sync.Mutex
	trades []TradeRecord
	equity []EquitySnapshot
	runs   []RunRecord
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) RecordTrade(t TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, t)
	return nil
}

func (m *Memory) RecordEquity(e EquitySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.equity = append(m.equity, e)
	return nil
}

func (m *Memory) RecordRun(r RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return nil
}

func (m *Memory) Close() error { return nil }

// Trades returns a copy of the recorded trades for runID, or all when empty.
func (m *Memory) Trades(runID string) []TradeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []TradeRecord
	for _, t := range m.trades {
		if runID == "" || t.RunID == runID {
			out = append(out, t)
		}
	}
	return out
}

// Equity returns a copy of the recorded samples for runID, or all when empty.
func (m *Memory) Equity(runID string) []EquitySnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EquitySnapshot
	for _, e := range m.equity {
		if runID == "" || e.RunID == runID {
			out = append(out, e)
		}
	}
	return out
}

// Runs returns a copy of the recorded runs in insertion order.
func (m *Memory) Runs() []RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RunRecord(nil), m.runs...)
}

// Latest returns the most recently recorded run.
func (m *Memory) Latest() (RunRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) == 0 {
		return RunRecord{}, false
	}
	return m.runs[len(m.runs)-1], true
}
