// Package sweep runs many independent simulations over one series in
// parallel.
package sweep

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/rustyeddy/tradesim/backtest"
	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/risk"
	"github.com/rustyeddy/tradesim/strategies"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Job is one parameter set. When Rules is set the job runs in rule mode and
// Strategy and Params are ignored.
type Job struct {
	Name     string
	Strategy string
	Params   strategies.Params
	Rules    *backtest.Rules
}

// Options control a sweep.
type Options struct {
	// Workers bounds concurrency. 0 means GOMAXPROCS.
	Workers int
	// Limits, when set, gives every job its own governor.
	Limits *risk.Limits
	// Registry resolves strategy names. nil means the default registry.
	Registry strategies.Registry
	// Journal, when set, receives every successful run. Writes are
	// serialized.
	Journal journal.Journal
	Info    backtest.RunInfo
	Logger  *zap.Logger
}

// Outcome is the result of one job. Err is set instead of Result when the
// job could not run.
type Outcome struct {
	Job    Job
	Result backtest.Result
	RunID  string
	Risk   *risk.Snapshot
	Err    error
}

// Run executes jobs against bars with base as the shared run config.
// Outcomes are returned in job order. A failing job does not stop the others;
// cancelling ctx skips jobs that have not started and Run then returns
// ctx.Err() along with the partial outcomes.
func Run(ctx context.Context, bars []market.Bar, base backtest.Config, jobs []Job, opts Options) ([]Outcome, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if err := market.ValidateSeries(bars); err != nil {
		return nil, err
	}
	if opts.Limits != nil {
		if err := opts.Limits.Validate(); err != nil {
			return nil, fmt.Errorf("sweep limits: %w", err)
		}
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = strategies.DefaultRegistry()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]Outcome, len(jobs))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			out[i].Job = job
			if err := ctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}

			var gov *risk.Governor
			if opts.Limits != nil {
				gov = risk.NewGovernor(*opts.Limits, base.InitialBalance, risk.WithLogger(log))
			}
			e := &backtest.Engine{Config: base, Governor: gov, Logger: log}

			res, info, err := runJob(e, reg, bars, job)
			if err != nil {
				out[i].Err = err
				log.Debug("sweep job failed", zap.String("job", job.Name), zap.Error(err))
				return nil
			}
			out[i].Result = res
			if gov != nil {
				snap := gov.Snapshot()
				out[i].Risk = &snap
			}

			if opts.Journal != nil {
				ri := opts.Info
				ri.RunID = ""
				ri.Strategy, ri.Mode, ri.Params = info.Strategy, info.Mode, info.Params
				ri.Config = base
				mu.Lock()
				run, err := backtest.Record(opts.Journal, ri, res)
				mu.Unlock()
				if err != nil {
					out[i].Err = err
					return nil
				}
				out[i].RunID = run.RunID
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Info("sweep finished", zap.Int("jobs", len(jobs)), zap.Int("workers", workers))
	return out, ctx.Err()
}

func runJob(e *backtest.Engine, reg strategies.Registry, bars []market.Bar, job Job) (backtest.Result, backtest.RunInfo, error) {
	if job.Rules != nil {
		res, err := e.RunRules(bars, *job.Rules)
		params, _ := json.Marshal(job.Rules)
		return res, backtest.RunInfo{Strategy: job.Rules.Mode, Mode: backtest.ModeRules, Params: string(params)}, err
	}

	src, err := reg.Lookup(job.Strategy)
	if err != nil {
		return backtest.Result{}, backtest.RunInfo{}, err
	}
	signals, err := src.Generate(bars, job.Params)
	if err != nil {
		return backtest.Result{}, backtest.RunInfo{}, err
	}
	res, err := e.Simulate(bars, signals)
	params, _ := json.Marshal(job.Params)
	return res, backtest.RunInfo{Strategy: src.Name(), Mode: backtest.ModeSignals, Params: string(params)}, err
}

// Grid builds one job per (fast, slow) pair with fast < slow.
func Grid(strategy string, fast, slow []int) []Job {
	var jobs []Job
	for _, f := range fast {
		for _, s := range slow {
			if f >= s {
				continue
			}
			jobs = append(jobs, Job{
				Name:     fmt.Sprintf("%s fast=%d slow=%d", strategy, f, s),
				Strategy: strategy,
				Params:   strategies.Params{"fast": float64(f), "slow": float64(s)},
			})
		}
	}
	return jobs
}

// Rank returns the successful outcomes ordered by net profit, best first.
// Ties keep job order.
func Rank(outcomes []Outcome) []Outcome {
	var ok []Outcome
	for _, o := range outcomes {
		if o.Err == nil {
			ok = append(ok, o)
		}
	}
	sort.SliceStable(ok, func(a, b int) bool {
		return ok[a].Result.Summary.NetProfit > ok[b].Result.Summary.NetProfit
	})
	return ok
}
