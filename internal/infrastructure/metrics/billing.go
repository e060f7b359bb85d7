// Package metrics exposes billing counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abengolea/heartlink-sub000/internal/application/subscription/usecases"
)

const namespace = "heartlink"

// BillingMetrics implements usecases.BillingMetrics on a private registry.
type BillingMetrics struct {
	registry *prometheus.Registry

	reconcileTotal  *prometheus.CounterVec
	sweepRuns       prometheus.Counter
	sweepBlocked    prometheus.Counter
	sweepBackfilled prometheus.Counter
	sweepFailed     prometheus.Counter
	sweepDuration   prometheus.Histogram
	gateDecisions   *prometheus.CounterVec
	changeEvents    *prometheus.CounterVec
}

var _ usecases.BillingMetrics = (*BillingMetrics)(nil)

func NewBillingMetrics() *BillingMetrics {
	m := &BillingMetrics{
		registry: prometheus.NewRegistry(),
		reconcileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_reconcile_total",
			Help:      "Payment notifications by reconciliation outcome.",
		}, []string{"outcome"}),
		sweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_runs_total",
			Help:      "Completed expiry sweeps.",
		}),
		sweepBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_blocked_total",
			Help:      "Subscriptions blocked by the expiry sweeper.",
		}),
		sweepBackfilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_grace_backfilled_total",
			Help:      "Subscriptions whose missing grace period end was backfilled.",
		}),
		sweepFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_failed_total",
			Help:      "Subscriptions the sweeper failed to process.",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of expiry sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_gate_decisions_total",
			Help:      "Access gate decisions by reason.",
		}, []string{"reason", "allowed"}),
		changeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_changes_total",
			Help:      "Subscription change events received from the event bus.",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		m.reconcileTotal,
		m.sweepRuns,
		m.sweepBlocked,
		m.sweepBackfilled,
		m.sweepFailed,
		m.sweepDuration,
		m.gateDecisions,
		m.changeEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *BillingMetrics) ObserveReconcile(outcome string) {
	m.reconcileTotal.WithLabelValues(outcome).Inc()
}

func (m *BillingMetrics) ObserveSweep(report *usecases.SweepReport, duration time.Duration) {
	m.sweepRuns.Inc()
	m.sweepDuration.Observe(duration.Seconds())
	if report == nil {
		return
	}
	m.sweepBlocked.Add(float64(report.Blocked))
	m.sweepBackfilled.Add(float64(report.Backfilled))
	m.sweepFailed.Add(float64(report.Failed))
}

func (m *BillingMetrics) ObserveGate(reason string, allowed bool) {
	m.gateDecisions.WithLabelValues(reason, strconv.FormatBool(allowed)).Inc()
}

// ObserveChange counts a subscription change event seen on the bus.
func (m *BillingMetrics) ObserveChange(reason string) {
	m.changeEvents.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *BillingMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
