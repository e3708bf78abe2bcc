// Package telemetry exposes governor state and run counters as Prometheus
// metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rustyeddy/tradesim/backtest"
	"github.com/rustyeddy/tradesim/risk"
)

const namespace = "tradesim"

// GovernorMetrics mirrors the latest governor snapshot into gauges.
type GovernorMetrics struct {
	Drawdown      prometheus.Gauge
	DailyLoss     prometheus.Gauge
	OpenPositions prometheus.Gauge
	Status        prometheus.Gauge
	Paused        prometheus.Gauge
}

// NewGovernorMetrics creates and registers the governor gauges on reg.
func NewGovernorMetrics(reg prometheus.Registerer) (*GovernorMetrics, error) {
	m := &GovernorMetrics{
		Drawdown:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "risk_drawdown_percent", Help: "Current drawdown from peak capital, in percent"}),
		DailyLoss:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "risk_daily_loss_percent", Help: "Loss since the start of the trading day, in percent"}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "risk_open_positions", Help: "Open positions known to the governor"}),
		Status:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "risk_status", Help: "0=safe, 1=warning, 2=limit_reached, 3=critical"}),
		Paused:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "risk_paused", Help: "1 while trading is paused"}),
	}
	for _, c := range []prometheus.Collector{m.Drawdown, m.DailyLoss, m.OpenPositions, m.Status, m.Paused} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveRisk implements risk.Observer.
func (m *GovernorMetrics) ObserveRisk(s risk.Snapshot) {
	m.Drawdown.Set(s.CurrentDrawdown)
	m.DailyLoss.Set(s.DailyLossPercent)
	m.OpenPositions.Set(float64(s.OpenPositions))
	m.Status.Set(float64(s.Status.Code()))
	if s.Paused {
		m.Paused.Set(1)
	} else {
		m.Paused.Set(0)
	}
}

// RunMetrics counts simulation output per strategy.
type RunMetrics struct {
	Runs         *prometheus.CounterVec
	Trades       *prometheus.CounterVec
	Rejections   *prometheus.CounterVec
	ForcedCloses *prometheus.CounterVec
	FinalBalance *prometheus.GaugeVec
}

// NewRunMetrics creates and registers the run collectors on reg.
func NewRunMetrics(reg prometheus.Registerer) (*RunMetrics, error) {
	labels := []string{"strategy"}
	m := &RunMetrics{
		Runs:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "runs_total", Help: "Completed simulation runs"}, labels),
		Trades:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "trades_total", Help: "Closed trades"}, labels),
		Rejections:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "rejections_total", Help: "Entries declined by sizing or the governor"}, labels),
		ForcedCloses: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "forced_closes_total", Help: "Positions closed at the end of the series"}, labels),
		FinalBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: "final_balance", Help: "Cash at the end of the latest run"}, labels),
	}
	for _, c := range []prometheus.Collector{m.Runs, m.Trades, m.Rejections, m.ForcedCloses, m.FinalBalance} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveRun adds one finished run for strategy.
func (m *RunMetrics) ObserveRun(strategy string, res backtest.Result) {
	forced := 0
	for _, t := range res.Trades {
		if t.Reason == backtest.ExitEndOfSeries {
			forced++
		}
	}
	m.Runs.WithLabelValues(strategy).Inc()
	m.Trades.WithLabelValues(strategy).Add(float64(len(res.Trades)))
	m.Rejections.WithLabelValues(strategy).Add(float64(len(res.Rejections)))
	m.ForcedCloses.WithLabelValues(strategy).Add(float64(forced))
	m.FinalBalance.WithLabelValues(strategy).Set(res.FinalBalance)
}

// WriteTextfile writes everything gathered by g to path in the text
// exposition format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
