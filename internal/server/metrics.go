package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	registry *prometheus.Registry

	analyses        *prometheus.CounterVec
	sessionsCreated prometheus.Counter
	activeSessions  prometheus.Gauge
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()

	m := &metrics{
		registry: registry,
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hirelens_analyses_total",
			Help: "Analysis calls by outcome.",
		}, []string{"status"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hirelens_sessions_created_total",
			Help: "Sessions created since process start.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hirelens_sessions_active",
			Help: "Currently live sessions.",
		}),
	}

	registry.MustRegister(m.analyses, m.sessionsCreated, m.activeSessions)
	return m
}
