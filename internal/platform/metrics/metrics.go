package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics — счётчики протокола. Nil-receiver безопасен: в тестах модуль
// можно собирать без метрик.
type Metrics struct {
	registry *prometheus.Registry

	SessionsIssued prometheus.Counter
	Rotations      prometheus.Counter
	ReuseDetected  prometheus.Counter
	CodesIssued    prometheus.Counter
	CodesConsumed  prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: reg,
		SessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_sessions_issued_total",
			Help: "Sessions created via code exchange.",
		}),
		Rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_refresh_rotations_total",
			Help: "Successful refresh token rotations.",
		}),
		ReuseDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_refresh_reuse_detected_total",
			Help: "Replays of already-rotated refresh tokens.",
		}),
		CodesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_handoff_codes_issued_total",
			Help: "Handoff codes issued after provider login.",
		}),
		CodesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_handoff_codes_consumed_total",
			Help: "Handoff codes exchanged for a token pair.",
		}),
	}
	reg.MustRegister(m.SessionsIssued, m.Rotations, m.ReuseDetected, m.CodesIssued, m.CodesConsumed)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncSessionsIssued() {
	if m != nil {
		m.SessionsIssued.Inc()
	}
}
func (m *Metrics) IncRotations() {
	if m != nil {
		m.Rotations.Inc()
	}
}
func (m *Metrics) IncReuseDetected() {
	if m != nil {
		m.ReuseDetected.Inc()
	}
}
func (m *Metrics) IncCodesIssued() {
	if m != nil {
		m.CodesIssued.Inc()
	}
}
func (m *Metrics) IncCodesConsumed() {
	if m != nil {
		m.CodesConsumed.Inc()
	}
}
