package backtest

import (
	"fmt"

	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/metrics"
	"github.com/rustyeddy/tradesim/risk"
	"github.com/rustyeddy/tradesim/strategies"
	"go.uber.org/zap"
)

// Engine runs simulations with a fixed configuration. An Engine holds no
// per-run state, so one Engine may run many series. A Governor, when set,
// is shared across those runs and is the only state that outlives a run.
type Engine struct {
	Config   Config
	Governor *risk.Governor
	Logger   *zap.Logger
}

// NewEngine returns an engine with a no-op logger and no governor.
func NewEngine(cfg Config) *Engine {
	return &Engine{Config: cfg, Logger: zap.NewNop()}
}

// Simulate runs bars against signals with cfg and no governor.
func Simulate(bars []market.Bar, signals []strategies.Signal, cfg Config) (Result, error) {
	return NewEngine(cfg).Simulate(bars, signals)
}

// Simulate replays bars against a per-bar signal stream. A positive signal
// enters long with all available cash, a negative one exits. Positions still
// open after the last bar are closed at its close.
func (e *Engine) Simulate(bars []market.Bar, signals []strategies.Signal) (Result, error) {
	if err := e.preflight(bars); err != nil {
		return Result{}, err
	}
	if len(signals) != len(bars) {
		return Result{}, fmt.Errorf("%w: %d signals for %d bars", ErrInputMismatch, len(signals), len(bars))
	}

	b := newBook(e.Config, e.Governor, e.logger(), len(bars))
	for i, bar := range bars {
		b.track(i, bar)

		sig := signals[i]
		switch {
		case sig > 0 && !b.pos.open:
			if b.allowed(i, bar) {
				req := entryRequest{dir: Long, fill: b.entryFill(bar.Close, Long)}
				if qty := b.size(i, bar, req); qty > 0 {
					b.open(i, bar, req, qty)
				}
			}
		case sig < 0 && b.pos.open:
			b.close(i, bar, b.exitFill(bar.Close, b.pos.dir), ExitSignal)
		}

		b.mark(bar)
	}
	b.finish(bars)

	res := b.result()
	e.logger().Debug("simulation finished",
		zap.Int("bars", len(bars)),
		zap.Int("trades", len(res.Trades)),
		zap.Float64("final_balance", res.FinalBalance))
	return res, nil
}

func (e *Engine) preflight(bars []market.Bar) error {
	if err := e.Config.Validate(); err != nil {
		return err
	}
	return market.ValidateSeries(bars)
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func summarize(trades []Trade, initial float64) metrics.Summary {
	return metrics.Summarize(TradeResults(trades), initial)
}
