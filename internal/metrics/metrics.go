// Package metrics exposes the panel session as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/allbin/protoboard"
)

const namespace = "protoboard"

// Metrics implements protoboard.Instruments on a private registry
type Metrics struct {
	registry *prometheus.Registry

	LinesReceived   *prometheus.CounterVec
	Connected       prometheus.Gauge
	Counter         prometheus.Gauge
	ResetsRequested prometheus.Counter
	ResetsCompleted *prometheus.CounterVec
	UpdatesDropped  prometheus.Counter
	RecordsFailed   prometheus.Counter

	// Set by the service wiring rather than the session
	PublishFailures prometheus.Counter
	CommandsRelayed *prometheus.CounterVec
}

var _ protoboard.Instruments = (*Metrics)(nil)

// New creates the metrics and registers them together with the Go runtime
// collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		LinesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "serial",
				Name:      "lines_received_total",
				Help:      "Lines received from the board by classified kind",
			},
			[]string{"kind"},
		),

		Connected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "serial",
				Name:      "connected",
				Help:      "Serial connection status (0=disconnected, 1=connected)",
			},
		),

		Counter: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "device",
				Name:      "counter",
				Help:      "Current value of the proximity sensor counter",
			},
		),

		ResetsRequested: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reset",
				Name:      "requested_total",
				Help:      "Counter resets requested",
			},
		),

		ResetsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reset",
				Name:      "completed_total",
				Help:      "Counter resets completed by outcome",
			},
			[]string{"outcome"},
		),

		UpdatesDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "updates_dropped_total",
				Help:      "Updates dropped for slow subscribers",
			},
		),

		RecordsFailed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "records_failed_total",
				Help:      "Event records that could not be persisted",
			},
		),

		PublishFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mqtt",
				Name:      "publish_failures_total",
				Help:      "Failed MQTT publishes",
			},
		),

		CommandsRelayed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "commands_relayed_total",
				Help:      "Queued web commands handed to the session by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.LinesReceived,
		m.Connected,
		m.Counter,
		m.ResetsRequested,
		m.ResetsCompleted,
		m.UpdatesDropped,
		m.RecordsFailed,
		m.PublishFailures,
		m.CommandsRelayed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) LineReceived(kind protoboard.EventKind) {
	m.LinesReceived.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) ConnectionChanged(connected bool) {
	if connected {
		m.Connected.Set(1)
	} else {
		m.Connected.Set(0)
	}
}

func (m *Metrics) CounterChanged(value uint64) {
	m.Counter.Set(float64(value))
}

func (m *Metrics) ResetRequested() {
	m.ResetsRequested.Inc()
}

func (m *Metrics) ResetCompleted(notice protoboard.Notice) {
	m.ResetsCompleted.WithLabelValues(notice.String()).Inc()
}

func (m *Metrics) UpdateDropped() {
	m.UpdatesDropped.Inc()
}

func (m *Metrics) RecordFailed() {
	m.RecordsFailed.Inc()
}

// PublishFailed counts a failed MQTT publish
func (m *Metrics) PublishFailed(error) {
	m.PublishFailures.Inc()
}

// CommandRelayed counts a queued web command by outcome
func (m *Metrics) CommandRelayed(result string) {
	m.CommandsRelayed.WithLabelValues(result).Inc()
}
