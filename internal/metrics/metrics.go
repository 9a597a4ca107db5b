// Package metrics holds the Prometheus collectors of the discovery service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	TermsChecks     *prometheus.CounterVec
	TermsFailures   *prometheus.CounterVec
	ServerChanges   *prometheus.CounterVec
	BindOperations  *prometheus.CounterVec
	EventsDelivered *prometheus.CounterVec
	MatrixLatency   *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TermsChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "discokeeper_terms_checks_total",
			Help: "Identity server terms checks by navigation outcome.",
		}, []string{"outcome"}),
		TermsFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "discokeeper_terms_failures_total",
			Help: "Failed identity server terms checks by failure channel.",
		}, []string{"kind"}),
		ServerChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "discokeeper_identity_server_changes_total",
			Help: "Identity server change requests by result.",
		}, []string{"result"}),
		BindOperations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "discokeeper_bind_operations_total",
			Help: "Bind and unbind operations by operation and result.",
		}, []string{"op", "result"}),
		EventsDelivered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "discokeeper_verification_events_total",
			Help: "Pushed verification events by delivery result.",
		}, []string{"result"}),
		MatrixLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "discokeeper_matrix_request_duration_ms",
			Help:    "Latency of identity server and homeserver requests in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"endpoint"}),
	}
}

// TermsChecked records a successful terms check.
func (m *Metrics) TermsChecked(outcome string) {
	if m == nil {
		return
	}
	m.TermsChecks.WithLabelValues(outcome).Inc()
}

// TermsFailed records a failed terms check.
func (m *Metrics) TermsFailed(kind string) {
	if m == nil {
		return
	}
	m.TermsFailures.WithLabelValues(kind).Inc()
}

// ServerChanged records an identity server change request.
func (m *Metrics) ServerChanged(result string) {
	if m == nil {
		return
	}
	m.ServerChanges.WithLabelValues(result).Inc()
}

// BindOperation records a bind/unbind/check call.
func (m *Metrics) BindOperation(op, result string) {
	if m == nil {
		return
	}
	m.BindOperations.WithLabelValues(op, result).Inc()
}

// EventDelivered records a pushed verification event.
func (m *Metrics) EventDelivered(result string) {
	if m == nil {
		return
	}
	m.EventsDelivered.WithLabelValues(result).Inc()
}

// ObserveMatrix records the latency of one outbound request.
func (m *Metrics) ObserveMatrix(endpoint string, ms float64) {
	if m == nil {
		return
	}
	m.MatrixLatency.WithLabelValues(endpoint).Observe(ms)
}
