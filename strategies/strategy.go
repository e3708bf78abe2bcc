// Package strategies turns a bar series into per-bar trading signals.
package strategies

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/tradesim/market"
)

// Signal is a per-bar directive: > 0 enter, < 0 exit, 0 hold.
type Signal int

const (
	Exit  Signal = -1
	Hold  Signal = 0
	Enter Signal = 1
)

func (s Signal) String() string {
	switch {
	case s > 0:
		return "enter"
	case s < 0:
		return "exit"
	default:
		return "hold"
	}
}

// ErrUnknownStrategy is returned by Lookup for names not in the registry.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Source generates one signal per bar. Implementations must only look at
// bars[:i+1] when deciding signal i.
type Source interface {
	Name() string
	Generate(bars []market.Bar, p Params) ([]Signal, error)
}

// Params are named numeric strategy parameters such as "fast" and "slow".
type Params map[string]float64

// Int returns the named parameter truncated to int, or def when absent.
func (p Params) Int(name string, def int) int {
	if v, ok := p[name]; ok {
		return int(v)
	}
	return def
}

// Float returns the named parameter, or def when absent.
func (p Params) Float(name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// FromInts converts a precomputed integer directive sequence.
func FromInts(in []int) []Signal {
	out := make([]Signal, len(in))
	for i, v := range in {
		out[i] = Signal(v)
	}
	return out
}

// Registry maps normalized strategy names to sources.
type Registry map[string]Source

// Register adds s under its own name.
func (r Registry) Register(s Source) {
	r[normalize(s.Name())] = s
}

// Lookup finds a source by name. Matching ignores case, surrounding space and
// treats '-' like '_'.
func (r Registry) Lookup(name string) (Source, error) {
	if s, ok := r[normalize(name)]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnknownStrategy, name, strings.Join(r.Names(), ", "))
}

// Names returns the registered names, sorted.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Generate looks up name and runs it over bars.
func (r Registry) Generate(name string, bars []market.Bar, p Params) ([]Signal, error) {
	s, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return s.Generate(bars, p)
}

// DefaultRegistry returns a fresh registry holding the built-in strategies.
func DefaultRegistry() Registry {
	r := Registry{}
	r.Register(BuyAndHold{})
	r.Register(MACross{Kind: "sma"})
	r.Register(MACross{Kind: "ema"})
	r.Register(Breakout{})
	r.Register(Pattern3{})
	r.Register(Noop{})
	return r
}

// Lookup finds name in the default registry.
func Lookup(name string) (Source, error) {
	return DefaultRegistry().Lookup(name)
}

func normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}
