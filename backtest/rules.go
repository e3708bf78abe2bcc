package backtest

import (
	"fmt"
	"math"
	"strings"

	"github.com/rustyeddy/tradesim/indicators"
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/risk"
	"github.com/rustyeddy/tradesim/strategies"
	"go.uber.org/zap"
)

// Rule engine modes.
const (
	ModeMACross  = "ma_cross"
	ModeBreakout = "breakout"
	ModePattern3 = "pattern3_extreme"
)

// Rules configure the built-in entry logic used by RunRules.
type Rules struct {
	Mode       string `json:"mode" yaml:"mode"`
	MAKind     string `json:"ma_kind" yaml:"ma_kind"` // "sma" or "ema"
	Fast       int    `json:"fast" yaml:"fast"`
	Slow       int    `json:"slow" yaml:"slow"`
	Channel    int    `json:"channel" yaml:"channel"`
	AllowShort bool   `json:"allow_short" yaml:"allow_short"`
}

// DefaultRules is an SMA 10/30 cross, long only.
func DefaultRules() Rules {
	return Rules{Mode: ModeMACross, MAKind: "sma", Fast: 10, Slow: 30, Channel: 20}
}

// Validate checks the lengths used by the selected mode.
func (r Rules) Validate() error {
	switch strings.ToLower(r.Mode) {
	case ModeMACross:
		if r.Fast <= 0 || r.Slow <= 0 {
			return fmt.Errorf("%w: fast and slow must be positive, got %d/%d", ErrInvalidConfig, r.Fast, r.Slow)
		}
		if r.Fast >= r.Slow {
			return fmt.Errorf("%w: fast (%d) must be shorter than slow (%d)", ErrInvalidConfig, r.Fast, r.Slow)
		}
		switch strings.ToLower(r.MAKind) {
		case "", "sma", "ema":
		default:
			return fmt.Errorf("%w: unknown ma_kind %q (supported: sma, ema)", ErrInvalidConfig, r.MAKind)
		}
	case ModeBreakout:
		if r.Channel <= 0 {
			return fmt.Errorf("%w: channel must be positive, got %d", ErrInvalidConfig, r.Channel)
		}
	case ModePattern3:
	default:
		return fmt.Errorf("%w: unknown mode %q (supported: %s, %s, %s)", ErrInvalidConfig, r.Mode, ModeMACross, ModeBreakout, ModePattern3)
	}
	return nil
}

// ruleSignal reads the next bar and reports +1 for a long setup, -1 for a
// short/exit setup and 0 otherwise. It only ever sees bars fed so far.
type ruleSignal interface {
	next(b market.Bar) int
}

type maCross struct {
	fast, slow indicators.MovingAverage
	prev       int
	seen       bool
}

func (m *maCross) next(b market.Bar) int {
	m.fast.Update(b)
	m.slow.Update(b)
	if !m.fast.Ready() || !m.slow.Ready() {
		return 0
	}
	cur := 0
	switch d := m.fast.Value() - m.slow.Value(); {
	case d > 0:
		cur = 1
	case d < 0:
		cur = -1
	}
	sig := 0
	if m.seen {
		switch {
		case m.prev <= 0 && cur > 0:
			sig = 1
		case m.prev >= 0 && cur < 0:
			sig = -1
		}
	}
	m.prev, m.seen = cur, true
	return sig
}

// structuralStop is implemented by rule signals that place their own stop.
// stop returns the stop of the setup reported by the latest next call.
type structuralStop interface {
	stop() float64
}

type pattern3 struct {
	window []market.Bar
	last   float64
}

func (p *pattern3) next(b market.Bar) int {
	p.window = append(p.window, b)
	if len(p.window) > strategies.Pattern3Bars {
		p.window = p.window[1:]
	}
	s, ok := strategies.Pattern3At(p.window, len(p.window)-1)
	if !ok {
		return 0
	}
	p.last = s
	return 1
}

func (p *pattern3) stop() float64 { return p.last }

type breakout struct {
	ch *indicators.Channel
}

func (c *breakout) next(b market.Bar) int {
	sig := 0
	if c.ch.Ready() {
		switch {
		case b.Close > c.ch.Upper():
			sig = 1
		case b.Close < c.ch.Lower():
			sig = -1
		}
	}
	c.ch.Update(b)
	return sig
}

func (r Rules) signal() ruleSignal {
	switch strings.ToLower(r.Mode) {
	case ModeBreakout:
		return &breakout{ch: indicators.NewChannel(r.Channel)}
	case ModePattern3:
		return &pattern3{}
	}
	kind := strings.ToLower(r.MAKind)
	return &maCross{
		fast: indicators.NewMovingAverage(kind, r.Fast),
		slow: indicators.NewMovingAverage(kind, r.Slow),
	}
}

// StopOffset is the rule engine stop distance for an entry price.
func StopOffset(entry float64) float64 {
	return math.Max(entry*StopOffsetPercent, MinStopOffset)
}

// RunRules derives entries from rules and manages every position with a
// stop, a target at RiskRewardRatio times the stop distance and a
// holding period limit. The stop sits StopOffset from the fill unless the
// rule places a structural stop of its own. On each bar after entry, exits
// are checked in order stop, target, timeout, reversal using that bar's
// high and low.
func (e *Engine) RunRules(bars []market.Bar, rules Rules) (Result, error) {
	if err := e.preflight(bars); err != nil {
		return Result{}, err
	}
	if err := rules.Validate(); err != nil {
		return Result{}, err
	}

	log := e.logger().With(zap.String("mode", rules.Mode))
	b := newBook(e.Config, e.Governor, log, len(bars))
	gen := rules.signal()

	for i, bar := range bars {
		sig := gen.next(bar)
		b.track(i, bar)

		if b.pos.open && i > b.pos.entryIdx {
			e.checkExit(b, i, bar, sig)
		}

		if !b.pos.open && sig != 0 {
			dir := Long
			if sig < 0 {
				dir = Short
			}
			if dir == Long || rules.AllowShort {
				var structural float64
				if s, ok := gen.(structuralStop); ok {
					structural = s.stop()
				}
				e.enterWithStops(b, i, bar, dir, structural)
			}
		}

		b.mark(bar)
	}
	b.finish(bars)
	return b.result(), nil
}

// checkExit closes the open position if bar triggers an exit. When stop and
// target are both inside the bar's range the stop wins.
func (e *Engine) checkExit(b *book, i int, bar market.Bar, sig int) {
	p := b.pos
	switch {
	case p.hasStop && stopHit(p, bar):
		b.close(i, bar, b.exitFill(p.stop, p.dir), ExitStop)
	case p.hasTarget && targetHit(p, bar):
		b.close(i, bar, b.exitFill(p.target, p.dir), ExitTarget)
	case e.Config.MaxBarsInTrade > 0 && p.barsHeld >= e.Config.MaxBarsInTrade:
		b.close(i, bar, b.exitFill(bar.Close, p.dir), ExitTimeout)
	case sig != 0 && Direction(sig) != p.dir:
		b.close(i, bar, b.exitFill(bar.Close, p.dir), ExitReversal)
	}
}

func stopHit(p position, bar market.Bar) bool {
	if p.dir == Short {
		return bar.High >= p.stop
	}
	return bar.Low <= p.stop
}

func targetHit(p position, bar market.Bar) bool {
	if p.dir == Short {
		return bar.Low <= p.target
	}
	return bar.High >= p.target
}

// enterWithStops opens dir at bar's close with a stop and target. A
// positive structural price replaces the StopOffset stop.
func (e *Engine) enterWithStops(b *book, i int, bar market.Bar, dir Direction, structural float64) {
	if !b.allowed(i, bar) {
		return
	}

	fill := b.entryFill(bar.Close, dir)
	req := entryRequest{
		dir:     dir,
		fill:    fill,
		stop:    fill - float64(dir)*StopOffset(fill),
		hasStop: true,
	}
	if structural > 0 {
		if float64(dir)*(fill-structural) <= 0 {
			b.reject(i, bar, RejectStop, fmt.Sprintf("structural stop %v is on the wrong side of entry %v", structural, fill))
			return
		}
		req.stop = structural
	}
	offset := math.Abs(fill - req.stop)
	if rr := e.Config.RiskRewardRatio; rr > 0 {
		req.target = fill + float64(dir)*offset*rr
		req.hasTarget = req.target > 0
	}

	if b.gov != nil {
		sc := b.gov.ValidateStopLoss(fill, req.stop, dir)
		if !sc.Valid {
			b.reject(i, bar, RejectStop, sc.Reason)
			return
		}
	}
	if e.Config.RiskPerTrade > 0 {
		req.maxQty = risk.SizeByRisk(e.Config.RiskPerTrade, fill, req.stop)
	}

	if qty := b.size(i, bar, req); qty > 0 {
		b.open(i, bar, req, qty)
	}
}
