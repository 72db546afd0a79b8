// Package metrics provides Prometheus collectors for the receive
// pipeline: audio throughput, drop counts, BER, and process lifecycle
// counters, exposed on the daemon's /metrics endpoint.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector the pipeline updates. It implements
// prometheus.Collector and registers itself on its own registry so the
// default registry's Go runtime noise stays out unless asked for.
type Metrics struct {
	AudioBytes      *prometheus.CounterVec
	AudioDrops      *prometheus.CounterVec
	DiagnosticLines prometheus.Counter
	BERPercent      prometheus.Gauge
	SessionsStarted prometheus.Counter
	Recordings      prometheus.Counter
	ProcessExits    *prometheus.CounterVec
	HistoryEntries  prometheus.Counter

	registry *prometheus.Registry
}

// New creates the pipeline metrics and registers them on a fresh
// registry.
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.initMetrics()

	if err := m.registry.Register(m); err != nil {
		return nil, fmt.Errorf("register pipeline metrics: %w", err)
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.AudioBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hdrd_audio_bytes_total",
		Help: "Audio bytes forwarded to each consumer",
	}, []string{"consumer"})

	m.AudioDrops = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hdrd_audio_chunks_dropped_total",
		Help: "Audio chunks dropped because a consumer queue was full",
	}, []string{"consumer"})

	m.DiagnosticLines = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hdrd_diagnostic_lines_total",
		Help: "Diagnostic lines read from the receiver",
	})

	m.BERPercent = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hdrd_ber_percent",
		Help: "Most recent bit error rate in percent",
	})

	m.SessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hdrd_sessions_started_total",
		Help: "Radio sessions started",
	})

	m.Recordings = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hdrd_recordings_started_total",
		Help: "Recordings started",
	})

	m.ProcessExits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hdrd_process_exits_total",
		Help: "Managed process exits by role and classification",
	}, []string{"role", "class"})

	m.HistoryEntries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hdrd_history_entries_total",
		Help: "Song transitions appended to the history log",
	})
}

// Collect implements the prometheus.Collector interface.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.AudioBytes.Collect(ch)
	m.AudioDrops.Collect(ch)
	ch <- m.DiagnosticLines
	ch <- m.BERPercent
	ch <- m.SessionsStarted
	ch <- m.Recordings
	m.ProcessExits.Collect(ch)
	ch <- m.HistoryEntries
}

// Describe implements the prometheus.Collector interface.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.AudioBytes.Describe(ch)
	m.AudioDrops.Describe(ch)
	ch <- m.DiagnosticLines.Desc()
	ch <- m.BERPercent.Desc()
	ch <- m.SessionsStarted.Desc()
	ch <- m.Recordings.Desc()
	m.ProcessExits.Describe(ch)
	ch <- m.HistoryEntries.Desc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
