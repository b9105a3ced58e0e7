package observability

import (
	"context"
	"time"

	"github.com/aretw0/statetree/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "statetree"

// Metrics holds the Prometheus collectors.
type Metrics struct {
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	ignored     *prometheus.CounterVec
	dispatches  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "slot_transitions_total",
			Help:      "Slot transitions by area, slot and resulting status.",
		}, []string{"area", "slot", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "slot_failures_total",
			Help:      "Operations recorded as failed, by area and action kind.",
		}, []string{"area", "kind"}),
		ignored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "actions_ignored_total",
			Help:      "Actions that left the tree untouched, by reason.",
		}, []string{"area", "reason"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "dispatches_total",
			Help:      "Session dispatch calls by outcome.",
		}, []string{"area", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of session dispatch calls, store round trips included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"area"}),
	}
	for _, c := range []prometheus.Collector{m.transitions, m.failures, m.ignored, m.dispatches, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.transitions.WithLabelValues(e.Area, e.Slot, string(e.To)).Inc()
			if e.To == domain.StatusError {
				m.failures.WithLabelValues(e.Area, e.Kind).Inc()
			}
		},
		OnIgnored: func(_ context.Context, e *domain.IgnoredEvent) {
			m.ignored.WithLabelValues(e.Area, string(e.Reason)).Inc()
		},
	}
}

// ObserveDispatch records one session dispatch. Its signature matches
// session.DispatchObserver.
func (m *Metrics) ObserveDispatch(_ context.Context, area string, _ int, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.dispatches.WithLabelValues(area, result).Inc()
	m.duration.WithLabelValues(area).Observe(elapsed.Seconds())
}
