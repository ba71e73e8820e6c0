// Package metrics holds the Prometheus collectors exported by the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. Each instance owns its registry so tests can
// build as many as they like without duplicate registration panics.
type Metrics struct {
	registry *prometheus.Registry

	LoansCreated  prometheus.Counter
	LoansReturned prometheus.Counter
	LoanConflicts *prometheus.CounterVec
	AuthFailures  *prometheus.CounterVec
	HTTPLatency   *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go runtime
// and process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		LoansCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "library_loans_created_total",
			Help: "Total loans created.",
		}),
		LoansReturned: factory.NewCounter(prometheus.CounterOpts{
			Name: "library_loans_returned_total",
			Help: "Total loans returned.",
		}),
		LoanConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "library_loan_conflicts_total",
			Help: "Loan operations rejected because of the current loan state.",
		}, []string{"operation"}), // create|return
		AuthFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "library_auth_failures_total",
			Help: "Rejected credentials and tokens.",
		}, []string{"reason"}), // credentials|token
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
