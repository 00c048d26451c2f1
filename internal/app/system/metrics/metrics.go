// Package metrics holds the Prometheus collectors exposed on /metrics.
//
// All recording methods are nil-safe so services and workers can be built
// without metrics in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "articlio"

// Metrics owns a private registry and the application collectors.
type Metrics struct {
	reg *prometheus.Registry

	interactions   *prometheus.CounterVec
	feedRequests   *prometheus.CounterVec
	feedDuration   *prometheus.HistogramVec
	reconcileRuns  *prometheus.CounterVec
	reconcileFixed prometheus.Counter
	otpSent        prometheus.Counter
}

// New registers every collector on a fresh registry, plus the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_total",
			Help:      "Interaction ledger mutations by type, action and outcome.",
		}, []string{"type", "action", "outcome"}),
		feedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "Feed listings served, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		feedDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_duration_seconds",
			Help:      "Feed assembly latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Stats reconciliation passes by outcome.",
		}, []string{"outcome"}),
		reconcileFixed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_fixed_articles_total",
			Help:      "Articles whose stats were rewritten by reconciliation.",
		}),
		otpSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_sent_total",
			Help:      "Verification codes issued.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.interactions,
		m.feedRequests,
		m.feedDuration,
		m.reconcileRuns,
		m.reconcileFixed,
		m.otpSent,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Interaction(kind, action, outcome string) {
	if m == nil {
		return
	}
	m.interactions.WithLabelValues(kind, action, outcome).Inc()
}

func (m *Metrics) Feed(kind, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.feedRequests.WithLabelValues(kind, outcome).Inc()
	m.feedDuration.WithLabelValues(kind).Observe(took.Seconds())
}

func (m *Metrics) Reconcile(fixed int64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.reconcileRuns.WithLabelValues("error").Inc()
		return
	}
	m.reconcileRuns.WithLabelValues("ok").Inc()
	m.reconcileFixed.Add(float64(fixed))
}

func (m *Metrics) OTPSent() {
	if m == nil {
		return
	}
	m.otpSent.Inc()
}
