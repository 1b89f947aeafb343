// Package metrics exposes Prometheus counters for vocabulary reloads and
// utterance resolution.
//
// All methods are safe on a nil *Metrics, so components can take an
// optional collector without branching at every call site.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hatgram"

// Metrics holds the collectors registered on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	reloads        *prometheus.CounterVec
	rejectedRows   *prometheus.CounterVec
	hatReloads     *prometheus.CounterVec
	utterances     *prometheus.CounterVec
	resolveSeconds prometheus.Histogram
}

// New creates a collector set on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "term_reloads_total",
			Help:      "Term table reloads by domain.",
		}, []string{"domain"}),
		rejectedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "override_rows_rejected_total",
			Help:      "Override rows dropped with a warning, by domain.",
		}, []string{"domain"}),
		hatReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hat_style_reloads_total",
			Help:      "Hat style reconfigurations by trigger job.",
		}, []string{"job"}),
		utterances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Resolved utterances by outcome.",
		}, []string{"outcome"}),
		resolveSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Time to resolve one utterance.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
	}
	m.registry.MustRegister(m.reloads, m.rejectedRows, m.hatReloads, m.utterances, m.resolveSeconds)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TermReload records a reload of domain that dropped rejected rows.
func (m *Metrics) TermReload(domain string, rejected int) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(domain).Inc()
	if rejected > 0 {
		m.rejectedRows.WithLabelValues(domain).Add(float64(rejected))
	}
}

// HatReload records a hat style reconfiguration run by job ("fast", "slow"
// or "initial").
func (m *Metrics) HatReload(job string) {
	if m == nil {
		return
	}
	m.hatReloads.WithLabelValues(job).Inc()
}

// Utterance records one resolution attempt.
func (m *Metrics) Utterance(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.utterances.WithLabelValues(outcome).Inc()
	m.resolveSeconds.Observe(elapsed.Seconds())
}
