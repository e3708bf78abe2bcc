package backtest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/pkg/id"
	"github.com/rustyeddy/tradesim/strategies"
	"go.uber.org/zap"
)

// RunnerOptions controls what the runner does with a finished run.
type RunnerOptions struct {
	// WriteOrg renders the run report to Info.OrgPath when it is set.
	WriteOrg bool
}

// Runner ties a series to either a signal source or a rule set, runs it on
// Engine and records the outcome. Exactly one of Source and Rules is used;
// Rules wins when both are set.
type Runner struct {
	Engine  *Engine
	Source  strategies.Source
	Params  strategies.Params
	Rules   *Rules
	Journal journal.Journal
	Info    RunInfo
	Options RunnerOptions
}

// Report is a run's Result plus the summary row written for it.
type Report struct {
	Result Result
	Run    journal.RunRecord
}

// Run executes the simulation over bars. Without a Journal the summary row
// is still built but nothing is written.
func (r *Runner) Run(ctx context.Context, bars []market.Bar) (Report, error) {
	if r.Engine == nil {
		return Report{}, fmt.Errorf("backtest: Engine is required")
	}
	if r.Source == nil && r.Rules == nil {
		return Report{}, fmt.Errorf("backtest: Source or Rules is required")
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	info := r.Info
	info.Config = r.Engine.Config
	if info.RunID == "" {
		info.RunID = id.New()
	}

	var (
		res Result
		err error
	)
	if r.Rules != nil {
		info.Mode = ModeRules
		if info.Strategy == "" {
			info.Strategy = r.Rules.Mode
		}
		if info.Params == "" {
			info.Params = encodeParams(r.Rules)
		}
		res, err = r.Engine.RunRules(bars, *r.Rules)
	} else {
		info.Mode = ModeSignals
		if info.Strategy == "" {
			info.Strategy = r.Source.Name()
		}
		if info.Params == "" {
			info.Params = encodeParams(r.Params)
		}
		var signals []strategies.Signal
		signals, err = r.Source.Generate(bars, r.Params)
		if err != nil {
			return Report{}, fmt.Errorf("generate %s signals: %w", r.Source.Name(), err)
		}
		res, err = r.Engine.Simulate(bars, signals)
	}
	if err != nil {
		return Report{}, err
	}

	var run journal.RunRecord
	if r.Journal != nil {
		run, err = Record(r.Journal, info, res)
		if err != nil {
			return Report{}, err
		}
	} else {
		run = RunRecordOf(info, res)
	}

	if r.Options.WriteOrg && run.OrgPath != "" {
		if err := run.WriteOrg(""); err != nil {
			return Report{}, err
		}
	}

	r.Engine.logger().Info("run complete",
		zap.String("run_id", run.RunID),
		zap.String("strategy", run.Strategy),
		zap.String("mode", run.Mode),
		zap.Int("trades", run.Trades),
		zap.Float64("end_balance", run.EndBalance))

	return Report{Result: res, Run: run}, nil
}

func encodeParams(v any) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "{}"
	}
	return string(b)
}
