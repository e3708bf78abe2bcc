package risk

import (
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day1 = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGovernor_DrawdownGoesCritical(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	limits.MaxDrawdownPercent = 20

	g := NewGovernor(limits, 10000, WithClock(fixedClock(day1)))
	for _, c := range []float64{10000, 9000, 9500, 7800} {
		g.UpdateCapital(c)
	}

	st := g.State()
	assert.InDelta(t, 22.0, st.CurrentDrawdown, 1e-9)
	assert.Equal(t, StatusCritical, st.Status)
	assert.True(t, st.Paused)
	assert.Equal(t, 10000.0, st.PeakCapital)

	snap := g.Snapshot()
	assert.Equal(t, 22.0, snap.CurrentDrawdown)
	assert.Equal(t, StatusCritical, snap.Status)
	assert.True(t, snap.Paused)
}

func TestGovernor_DrawdownPauseReason(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	limits.MaxDrawdownPercent = 20
	limits.DailyLossLimitPercent = 50

	g := NewGovernor(limits, 10000, WithClock(fixedClock(day1)))

	g.UpdateCapital(9000)
	assert.Equal(t, StatusSafe, g.State().Status)

	g.UpdateCapital(8300) // 17% is above 0.8 * 20
	assert.Equal(t, StatusWarning, g.State().Status)
	assert.False(t, g.Paused())

	g.UpdateCapital(7800)
	st := g.State()
	assert.Equal(t, StatusCritical, st.Status)
	assert.Equal(t, "Max drawdown limit reached", st.PauseReason)

	d := g.CheckCanOpenPosition()
	assert.False(t, d.Allowed)
	assert.Equal(t, CodePaused, d.Code())
	assert.Equal(t, "Trading is paused: Max drawdown limit reached", d.Reason())

	// Manual resume clears the pause, but the next check pauses again
	// since drawdown is still over the limit.
	g.ResumeTrading()
	assert.False(t, g.Paused())
	d = g.CheckCanOpenPosition()
	assert.False(t, d.Allowed)
	assert.Equal(t, CodeMaxDrawdown, d.Code())
	assert.Equal(t, "Maximum drawdown (20%) exceeded", d.Reason())
	assert.True(t, g.Paused())
}

func TestGovernor_PeakIsMonotone(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	limits.MaxDrawdownPercent = 100
	limits.DailyLossLimitPercent = 100
	g := NewGovernor(limits, 100, WithClock(fixedClock(day1)))

	peak := 100.0
	for _, c := range []float64{120, 90, 130, 80, 80, 129, 140, 10} {
		g.UpdateCapital(c)
		st := g.State()
		require.GreaterOrEqual(t, st.PeakCapital, peak)
		peak = st.PeakCapital
		assert.GreaterOrEqual(t, st.CurrentDrawdown, 0.0)
	}
	assert.Equal(t, 140.0, peak)
}

func TestGovernor_DailyReset(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	limits.MaxDrawdownPercent = 50
	g := NewGovernor(limits, 1000)

	g.UpdateCapitalAt(day1, 980)
	st := g.State()
	assert.InDelta(t, 2.0, st.DailyLossPercent, 1e-9)
	assert.InDelta(t, -20.0, st.DailyLoss, 1e-9)
	assert.Equal(t, StatusSafe, st.Status)

	g.UpdateCapitalAt(day1.Add(2*time.Hour), 955)
	st = g.State()
	assert.InDelta(t, 4.5, st.DailyLossPercent, 1e-9)
	assert.Equal(t, StatusWarning, st.Status)

	// first update after midnight starts the day from the last capital
	g.UpdateCapitalAt(day1.Add(15*time.Hour), 950)
	st = g.State()
	assert.Equal(t, 955.0, st.DayStartCapital)
	assert.InDelta(t, 5.0/955*100, st.DailyLossPercent, 1e-9)
	assert.Equal(t, StatusSafe, st.Status)

	// gains never count as loss
	g.UpdateCapitalAt(day1.Add(16*time.Hour), 990)
	assert.Equal(t, 0.0, g.State().DailyLossPercent)
}

func TestGovernor_NoLossIsPositiveZero(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		capital float64
	}{
		{"unchanged", 1000},
		{"gain", 1010},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGovernor(DefaultLimits(), 1000)
			g.UpdateCapitalAt(day1, tt.capital)

			st := g.State()
			assert.False(t, math.Signbit(st.DailyLoss))
			assert.False(t, math.Signbit(st.DailyLossPercent))

			data, err := json.Marshal(g.Snapshot())
			require.NoError(t, err)
			assert.Contains(t, string(data), `"daily_loss_percent":0,`)
		})
	}
}

func TestGovernor_DailyLossCritical(t *testing.T) {
	t.Parallel()

	g := NewGovernor(DefaultLimits(), 1000)
	g.UpdateCapitalAt(day1, 940)

	st := g.State()
	assert.Equal(t, StatusCritical, st.Status)
	assert.Equal(t, "Daily loss limit reached", st.PauseReason)

	g.ResumeTrading()
	g.ResetDailyCounters()
	st = g.State()
	assert.Equal(t, 0.0, st.DailyLossPercent)
	assert.Equal(t, 940.0, st.DayStartCapital)
	assert.True(t, g.CheckCanOpenPosition().Allowed)
}

func TestGovernor_PositionLimit(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	limits.MaxOpenPositions = 2
	g := NewGovernor(limits, 1000)

	assert.True(t, g.CheckCanOpenPosition().Allowed)
	g.UpdatePositionCount(1)
	g.UpdatePositionCount(1)
	assert.Equal(t, StatusLimitReached, g.State().Status)

	d := g.CheckCanOpenPosition()
	assert.False(t, d.Allowed)
	assert.Equal(t, CodeMaxPositions, d.Code())
	assert.Equal(t, "Maximum open positions (2) reached", d.Reason())
	assert.False(t, g.Paused())

	g.UpdatePositionCount(-5)
	assert.Equal(t, 0, g.State().OpenPositions)
	assert.Equal(t, StatusSafe, g.State().Status)
}

func TestGovernor_PauseIdempotent(t *testing.T) {
	t.Parallel()

	g := NewGovernor(DefaultLimits(), 1000)
	g.PauseTrading("manual")
	g.PauseTrading("something else")

	st := g.State()
	assert.True(t, st.Paused)
	assert.Equal(t, "manual", st.PauseReason)

	d := g.CheckCanOpenPosition()
	assert.False(t, d.Allowed)
	assert.Equal(t, "Trading is paused: manual", d.Reason())

	g.ResumeTrading()
	g.ResumeTrading()
	assert.False(t, g.Paused())
	assert.Empty(t, g.State().PauseReason)
}

func TestGovernor_UpdateLimits(t *testing.T) {
	t.Parallel()

	g := NewGovernor(DefaultLimits(), 1000, WithClock(fixedClock(day1)))
	g.UpdateCapital(850) // 15% drawdown, daily loss over 5%
	g.ResumeTrading()

	l := DefaultLimits()
	l.MaxDrawdownPercent = 50
	l.DailyLossLimitPercent = 50
	g.UpdateLimits(l)

	assert.Equal(t, l, g.Limits())
	assert.Equal(t, StatusSafe, g.State().Status)
	assert.True(t, g.CheckCanOpenPosition().Allowed)
}

func TestGovernor_Observer(t *testing.T) {
	t.Parallel()

	var got []Snapshot
	var g *Governor
	g = NewGovernor(DefaultLimits(), 1000, WithObserver(ObserverFunc(func(s Snapshot) {
		got = append(got, s)
		// re-entering the governor from the observer must not deadlock
		_ = g.Snapshot()
	})))

	g.PauseTrading("manual")
	g.PauseTrading("again") // no change, no notification
	g.ResumeTrading()
	g.UpdateCapitalAt(day1, 1100)

	require.Len(t, got, 3)
	assert.True(t, got[0].Paused)
	assert.False(t, got[1].Paused)
	assert.Equal(t, 1100.0, got[2].PeakCapital)
}

func TestGovernor_ConcurrentUpdates(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	limits.MaxOpenPositions = 1000
	g := NewGovernor(limits, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g.UpdatePositionCount(1)
			g.UpdateCapitalAt(day1, 1000+float64(i))
			_ = g.CheckCanOpenPosition()
			g.UpdatePositionCount(-1)
		}(i)
	}
	wg.Wait()

	st := g.State()
	assert.Equal(t, 0, st.OpenPositions)
	assert.Equal(t, 1049.0, st.PeakCapital)
}

func TestGovernor_MaxPositionNotional(t *testing.T) {
	g := NewGovernor(DefaultLimits(), 1000)
	assert.InDelta(t, 200.0, g.MaxPositionNotional(1000), 1e-9)
	assert.Equal(t, 0.0, g.MaxPositionNotional(-1))
}

func TestLimitsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Limits)
		wantErr bool
		errMsg  string
	}{
		{"defaults", func(*Limits) {}, false, ""},
		{"no positions", func(l *Limits) { l.MaxOpenPositions = 0 }, true, "max_open_positions"},
		{"zero drawdown", func(l *Limits) { l.MaxDrawdownPercent = 0 }, true, "max_drawdown_percent"},
		{"daily over 100", func(l *Limits) { l.DailyLossLimitPercent = 101 }, true, "daily_loss_limit_percent"},
		{"default stop too tight", func(l *Limits) { l.DefaultStopLossPercent = 0.1 }, true, "default_stop_loss_percent"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l := DefaultLimits()
			tt.mutate(&l)
			err := l.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("SHORT")
	require.NoError(t, err)
	assert.Equal(t, Short, d)
	assert.Equal(t, "short", d.String())

	d, err = ParseDirection("buy")
	require.NoError(t, err)
	assert.Equal(t, Long, d)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 0, StatusSafe.Code())
	assert.Equal(t, 1, StatusWarning.Code())
	assert.Equal(t, 2, StatusLimitReached.Code())
	assert.Equal(t, 3, StatusCritical.Code())
}
