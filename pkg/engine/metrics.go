// Copyright 2024-2026 Aiku AI

package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultPassthrough = "passthrough"
	resultHandled     = "handled"
	resultDropped     = "dropped"

	resolutionUnknown = "unknown"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	messages     *prometheus.CounterVec
	resolutions  *prometheus.CounterVec
	modelErrors  *prometheus.CounterVec
	reloads      *prometheus.CounterVec
	placeholders prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatmarkup",
			Name:      "messages_total",
			Help:      "Chat payloads seen by the dispatch pipeline, by outcome.",
		}, []string{"result"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatmarkup",
			Name:      "placeholder_resolutions_total",
			Help:      "Placeholder resolutions, by requirement outcome.",
		}, []string{"result"}),
		modelErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatmarkup",
			Name:      "model_errors_total",
			Help:      "Model tags whose producer failed, by tag.",
		}, []string{"model"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatmarkup",
			Name:      "config_reloads_total",
			Help:      "Configuration reloads, by outcome.",
		}, []string{"result"}),
		placeholders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chatmarkup",
			Name:      "placeholders",
			Help:      "Placeholders in the published configuration.",
		}),
	}
	reg.MustRegister(m.messages, m.resolutions, m.modelErrors, m.reloads, m.placeholders)
	return m
}

func (m *Metrics) observeMessage(result string) {
	if m != nil {
		m.messages.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) observeResolution(result string) {
	if m != nil {
		m.resolutions.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) observeModelError(model string) {
	if m != nil {
		m.modelErrors.WithLabelValues(model).Inc()
	}
}

func (m *Metrics) observeReload(total int, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "partial"
	}
	m.reloads.WithLabelValues(result).Inc()
	m.placeholders.Set(float64(total))
}

func (m *Metrics) observeReloadFailure() {
	if m != nil {
		m.reloads.WithLabelValues("failed").Inc()
	}
}
