// Package metrics exposes prometheus counters for product and session activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered by the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry  *prometheus.Registry
	mutations *prometheus.CounterVec
	auth      *prometheus.CounterVec
	exports   *prometheus.CounterVec
}

// New registers the service collectors on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farmchainx",
			Name:      "product_mutations_total",
			Help:      "Product record mutations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		auth: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farmchainx",
			Name:      "auth_attempts_total",
			Help:      "Registration and login attempts by outcome.",
		}, []string{"operation", "outcome"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farmchainx",
			Name:      "sheet_exports_total",
			Help:      "Spreadsheet exports by outcome.",
		}, []string{"outcome"}),
	}
	registry.MustRegister(
		m.mutations,
		m.auth,
		m.exports,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ProductMutation counts an add or delete.
func (m *Metrics) ProductMutation(operation string, err error) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(operation, outcome(err)).Inc()
}

// AuthAttempt counts a register or login.
func (m *Metrics) AuthAttempt(operation string, err error) {
	if m == nil {
		return
	}
	m.auth.WithLabelValues(operation, outcome(err)).Inc()
}

// Export counts a spreadsheet export.
func (m *Metrics) Export(err error) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(outcome(err)).Inc()
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
