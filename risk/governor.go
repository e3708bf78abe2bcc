package risk

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// State is the governor's mutable risk state. Values are read through
// Governor.State and only ever changed by Governor methods.
type State struct {
	OpenPositions    int       `json:"open_positions"`
	CurrentDrawdown  float64   `json:"current_drawdown"`
	DailyLoss        float64   `json:"daily_loss"`
	DailyLossPercent float64   `json:"daily_loss_percent"`
	InitialCapital   float64   `json:"initial_capital"`
	CurrentCapital   float64   `json:"current_capital"`
	PeakCapital      float64   `json:"peak_capital"`
	DayStartCapital  float64   `json:"day_start_capital"`
	LastReset        time.Time `json:"last_reset"`
	Status           Status    `json:"status"`
	Paused           bool      `json:"is_paused"`
	PauseReason      string    `json:"pause_reason,omitempty"`
}

// Snapshot is the display form of the state, rounded to cents.
type Snapshot struct {
	Status           Status  `json:"status"`
	OpenPositions    int     `json:"open_positions"`
	MaxPositions     int     `json:"max_positions"`
	CurrentDrawdown  float64 `json:"current_drawdown"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	DailyLossPercent float64 `json:"daily_loss_percent"`
	DailyLossLimit   float64 `json:"daily_loss_limit"`
	CurrentCapital   float64 `json:"current_capital"`
	PeakCapital      float64 `json:"peak_capital"`
	Paused           bool    `json:"is_paused"`
	PauseReason      string  `json:"pause_reason,omitempty"`
}

// Observer is notified with a fresh snapshot after every state change.
// It is called outside the governor lock.
type Observer interface {
	ObserveRisk(Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) ObserveRisk(s Snapshot) { f(s) }

// Option configures a Governor.
type Option func(*Governor)

// WithClock sets the time source used by UpdateCapital.
func WithClock(now func() time.Time) Option {
	return func(g *Governor) { g.now = now }
}

// WithLocation sets the zone whose midnight starts a new trading day.
func WithLocation(loc *time.Location) Option {
	return func(g *Governor) { g.loc = loc }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(g *Governor) { g.log = l }
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(g *Governor) { g.observer = o }
}

// Governor owns one session's limits and risk state. It is safe for
// concurrent use.
type Governor struct {
	mu       sync.Mutex
	limits   Limits
	state    State
	now      func() time.Time
	loc      *time.Location
	log      *zap.Logger
	observer Observer
}

// NewGovernor creates a governor tracking capital from initialCapital.
func NewGovernor(limits Limits, initialCapital float64, opts ...Option) *Governor {
	g := &Governor{
		limits: limits,
		now:    time.Now,
		loc:    time.UTC,
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(g)
	}
	g.state = State{
		InitialCapital:  initialCapital,
		CurrentCapital:  initialCapital,
		PeakCapital:     initialCapital,
		DayStartCapital: initialCapital,
		Status:          StatusSafe,
	}
	g.log.Info("risk governor initialized",
		zap.Stringer("limits", limits),
		zap.Float64("initial_capital", initialCapital))
	return g
}

// CheckCanOpenPosition reports whether a new position may be opened.
// Exceeding the drawdown or daily loss limit at check time pauses trading.
func (g *Governor) CheckCanOpenPosition() Decision {
	g.mu.Lock()
	d := Decision{Allowed: true}
	changed := false

	switch {
	case g.state.Paused:
		d.add(CodePaused, fmt.Sprintf("Trading is paused: %s", g.state.PauseReason))
	case g.state.OpenPositions >= g.limits.MaxOpenPositions:
		d.add(CodeMaxPositions, fmt.Sprintf("Maximum open positions (%d) reached", g.limits.MaxOpenPositions))
	case g.state.CurrentDrawdown >= g.limits.MaxDrawdownPercent:
		changed = g.pauseLocked("Max drawdown limit reached")
		d.add(CodeMaxDrawdown, fmt.Sprintf("Maximum drawdown (%g%%) exceeded", g.limits.MaxDrawdownPercent))
	case g.state.DailyLossPercent >= g.limits.DailyLossLimitPercent:
		changed = g.pauseLocked("Daily loss limit reached")
		d.add(CodeDailyLoss, fmt.Sprintf("Daily loss limit (%g%%) exceeded", g.limits.DailyLossLimitPercent))
	}
	g.unlockAndNotify(changed)
	return d
}

// ValidateStopLoss checks a proposed stop, placing the default stop when
// none (stop <= 0) is given.
func (g *Governor) ValidateStopLoss(entry, stop float64, dir Direction) StopCheck {
	g.mu.Lock()
	pct := g.limits.DefaultStopLossPercent
	g.mu.Unlock()

	sc := CheckStop(entry, stop, dir, pct)
	if sc.Defaulted {
		g.log.Warn("no stop loss provided, using default",
			zap.Float64("entry", entry),
			zap.Float64("stop", sc.Stop),
			zap.Stringer("direction", dir))
	}
	return sc
}

// UpdatePositionCount adjusts the open position count, never below zero.
func (g *Governor) UpdatePositionCount(delta int) {
	g.mu.Lock()
	g.state.OpenPositions += delta
	if g.state.OpenPositions < 0 {
		g.state.OpenPositions = 0
	}
	g.deriveStatusLocked()
	g.log.Debug("open positions updated", zap.Int("open_positions", g.state.OpenPositions))
	g.unlockAndNotify(true)
}

// UpdateCapital records capital as of the governor clock.
func (g *Governor) UpdateCapital(capital float64) {
	g.UpdateCapitalAt(g.now(), capital)
}

// UpdateCapitalAt records capital as of at. Backtests pass bar time so the
// day boundary follows the data rather than the wall clock.
func (g *Governor) UpdateCapitalAt(at time.Time, capital float64) {
	g.mu.Lock()
	s := &g.state

	if s.LastReset.IsZero() {
		s.LastReset = at
	} else if g.dayOf(at).After(g.dayOf(s.LastReset)) {
		s.DayStartCapital = s.CurrentCapital
		s.DailyLoss = 0
		s.DailyLossPercent = 0
		s.LastReset = at
		g.log.Info("daily loss counter reset", zap.Time("day", g.dayOf(at)))
	}

	s.CurrentCapital = capital
	if capital > s.PeakCapital {
		s.PeakCapital = capital
	}
	if s.PeakCapital > 0 {
		s.CurrentDrawdown = (s.PeakCapital - capital) / s.PeakCapital * 100
	} else {
		s.CurrentDrawdown = 0
	}

	s.DailyLoss, s.DailyLossPercent = 0, 0
	if capital < s.DayStartCapital {
		s.DailyLoss = capital - s.DayStartCapital
		if s.DayStartCapital > 0 {
			s.DailyLossPercent = (s.DayStartCapital - capital) / s.DayStartCapital * 100
		}
	}

	g.deriveStatusLocked()
	g.log.Debug("capital updated",
		zap.Float64("capital", capital),
		zap.Float64("drawdown", s.CurrentDrawdown),
		zap.String("status", string(s.Status)))
	g.unlockAndNotify(true)
}

// PauseTrading stops new entries. Pausing an already paused governor keeps
// the original reason.
func (g *Governor) PauseTrading(reason string) {
	g.mu.Lock()
	changed := g.pauseLocked(reason)
	g.unlockAndNotify(changed)
}

// ResumeTrading clears the pause unconditionally.
func (g *Governor) ResumeTrading() {
	g.mu.Lock()
	g.state.Paused = false
	g.state.PauseReason = ""
	g.log.Info("trading resumed")
	g.unlockAndNotify(true)
}

// ResetDailyCounters zeroes the daily loss and starts a new day at the
// current capital.
func (g *Governor) ResetDailyCounters() {
	g.mu.Lock()
	g.state.DailyLoss = 0
	g.state.DailyLossPercent = 0
	g.state.DayStartCapital = g.state.CurrentCapital
	g.state.LastReset = g.now()
	g.deriveStatusLocked()
	g.log.Info("daily counters reset manually")
	g.unlockAndNotify(true)
}

// UpdateLimits replaces the limits and re-derives status.
func (g *Governor) UpdateLimits(l Limits) {
	g.mu.Lock()
	g.limits = l
	g.deriveStatusLocked()
	g.log.Info("risk limits updated", zap.Stringer("limits", l))
	g.unlockAndNotify(true)
}

// Limits returns the current limits.
func (g *Governor) Limits() Limits {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limits
}

// State returns a copy of the raw state.
func (g *Governor) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Snapshot returns the rounded display state.
func (g *Governor) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// Paused reports whether entries are currently blocked by a pause.
func (g *Governor) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Paused
}

// MaxPositionNotional is the largest position value allowed at capital.
func (g *Governor) MaxPositionNotional(capital float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limits.MaxPositionNotional(capital)
}

func (g *Governor) deriveStatusLocked() {
	s := &g.state
	l := g.limits
	switch {
	case s.CurrentDrawdown >= l.MaxDrawdownPercent:
		s.Status = StatusCritical
		g.pauseLocked("Max drawdown limit reached")
	case s.DailyLossPercent >= l.DailyLossLimitPercent:
		s.Status = StatusCritical
		g.pauseLocked("Daily loss limit reached")
	case s.OpenPositions >= l.MaxOpenPositions:
		s.Status = StatusLimitReached
	case s.CurrentDrawdown >= l.MaxDrawdownPercent*warnRatio,
		s.DailyLossPercent >= l.DailyLossLimitPercent*warnRatio:
		s.Status = StatusWarning
	default:
		s.Status = StatusSafe
	}
}

// pauseLocked reports whether the pause state changed.
func (g *Governor) pauseLocked(reason string) bool {
	if g.state.Paused {
		return false
	}
	g.state.Paused = true
	g.state.PauseReason = reason
	g.log.Warn("trading paused", zap.String("reason", reason))
	return true
}

func (g *Governor) snapshotLocked() Snapshot {
	s := g.state
	return Snapshot{
		Status:           s.Status,
		OpenPositions:    s.OpenPositions,
		MaxPositions:     g.limits.MaxOpenPositions,
		CurrentDrawdown:  round2(s.CurrentDrawdown),
		MaxDrawdown:      g.limits.MaxDrawdownPercent,
		DailyLossPercent: round2(s.DailyLossPercent),
		DailyLossLimit:   g.limits.DailyLossLimitPercent,
		CurrentCapital:   round2(s.CurrentCapital),
		PeakCapital:      round2(s.PeakCapital),
		Paused:           s.Paused,
		PauseReason:      s.PauseReason,
	}
}

// unlockAndNotify releases the lock and, when notify is set, hands the
// observer a snapshot taken while still locked.
func (g *Governor) unlockAndNotify(notify bool) {
	obs := g.observer
	var snap Snapshot
	if notify && obs != nil {
		snap = g.snapshotLocked()
	}
	g.mu.Unlock()

	if notify && obs != nil {
		obs.ObserveRisk(snap)
	}
}

func (g *Governor) dayOf(t time.Time) time.Time {
	y, m, d := t.In(g.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, g.loc)
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
