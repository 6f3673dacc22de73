package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported by the service
type Metrics struct {
	registry *prometheus.Registry

	RSVPSubmissions *prometheus.CounterVec
	Signups         *prometheus.CounterVec
	Prompts         *prometheus.CounterVec
	Reminders       *prometheus.CounterVec
}

// New creates a registry with Go/process collectors and the RSVP counters
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		RSVPSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wedding",
			Name:      "rsvp_submissions_total",
			Help:      "RSVP upserts by resulting status and outcome.",
		}, []string{"status", "outcome"}),
		Signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wedding",
			Name:      "signups_total",
			Help:      "Signup attempts by outcome.",
		}, []string{"outcome"}),
		Prompts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wedding",
			Name:      "rsvp_prompts_total",
			Help:      "RSVP prompt decisions.",
		}, []string{"decision"}),
		Reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wedding",
			Name:      "rsvp_reminders_total",
			Help:      "WhatsApp RSVP reminders by outcome.",
		}, []string{"outcome"}),
	}
	registry.MustRegister(m.RSVPSubmissions, m.Signups, m.Prompts, m.Reminders)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
