package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/joshharrison/lineloom/internal/planner"
	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "lineloom"

// Metrics holds the Prometheus collectors updated by every balance request.
type Metrics struct {
	runsTotal       *prom.CounterVec
	failuresTotal   *prom.CounterVec
	movesTotal      *prom.CounterVec
	stations        prom.Gauge
	balanceRate     prom.Gauge
	smoothingIndex  prom.Gauge
	durationSeconds *prom.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. Collectors
// already registered under the same name are reused.
func NewMetrics(reg prom.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	runs := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "balance_runs_total",
		Help:      "Total number of successful balance runs.",
	}, []string{"heuristic"})
	failures := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "balance_failures_total",
		Help:      "Total number of rejected balance requests.",
	}, []string{"reason"})
	moves := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "improvement_moves_total",
		Help:      "Total number of applied improvement moves.",
	}, []string{"kind"})
	stations := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "stations",
		Help:      "Station count of the last plan.",
	})
	balance := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "balance_rate",
		Help:      "Balance rate of the last plan.",
	})
	smoothing := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "smoothing_index",
		Help:      "Smoothing index of the last plan.",
	})
	duration := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "balance_duration_seconds",
		Help:      "Time spent balancing a task table.",
		Buckets:   prom.DefBuckets,
	}, []string{"heuristic"})

	var err error
	if runs, err = registerCollector(reg, runs); err != nil {
		return nil, err
	}
	if failures, err = registerCollector(reg, failures); err != nil {
		return nil, err
	}
	if moves, err = registerCollector(reg, moves); err != nil {
		return nil, err
	}
	if stations, err = registerCollector(reg, stations); err != nil {
		return nil, err
	}
	if balance, err = registerCollector(reg, balance); err != nil {
		return nil, err
	}
	if smoothing, err = registerCollector(reg, smoothing); err != nil {
		return nil, err
	}
	if duration, err = registerCollector(reg, duration); err != nil {
		return nil, err
	}

	return &Metrics{
		runsTotal:       runs,
		failuresTotal:   failures,
		movesTotal:      moves,
		stations:        stations,
		balanceRate:     balance,
		smoothingIndex:  smoothing,
		durationSeconds: duration,
	}, nil
}

// ObservePlan records a successful run.
func (m *Metrics) ObservePlan(plan *planner.BalancePlan, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(plan.Heuristic).Inc()
	m.durationSeconds.WithLabelValues(plan.Heuristic).Observe(elapsed.Seconds())
	for _, mv := range plan.Moves {
		m.movesTotal.WithLabelValues(string(mv.Kind)).Inc()
	}
	m.stations.Set(float64(plan.StationCount()))
	m.balanceRate.Set(plan.Final.BalanceRate)
	m.smoothingIndex.Set(plan.Final.Smoothing)
}

// ObserveFailure records a rejected request.
func (m *Metrics) ObserveFailure(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.failuresTotal.WithLabelValues(reason).Inc()
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
