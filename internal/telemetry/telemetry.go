// Package telemetry collects display and fetch metrics on a private
// Prometheus registry. There is no HTTP listener; metrics are exported with
// WriteTextfile for the node exporter textfile collector.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flightmatrix"

// Fetch results used as label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds the collectors. All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry
	path     string

	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	queued        prometheus.Gauge
	malformed     prometheus.Counter
	filtered      prometheus.Counter
	mode          *prometheus.GaugeVec
	pages         *prometheus.CounterVec
}

// New creates the collectors. When textfilePath is set, WriteTextfile
// writes the registry there.
func New(textfilePath string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		path:     textfilePath,
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetches_total",
				Help:      "OpenSky fetch attempts by result.",
			},
			[]string{"result"},
		),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of OpenSky fetches.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "flights_queued",
			Help:      "Flights in the display queue after the last successful fetch.",
		}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_states_total",
			Help:      "State vectors dropped as malformed.",
		}),
		filtered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filtered_states_total",
			Help:      "State vectors dropped by the filter policy.",
		}),
		mode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "mode",
				Help:      "Current scheduler mode (1 for the active mode).",
			},
			[]string{"mode"},
		),
		pages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_rendered_total",
				Help:      "Frames presented by page kind.",
			},
			[]string{"kind"},
		),
	}

	m.registry.MustRegister(m.fetches, m.fetchDuration, m.queued, m.malformed, m.filtered, m.mode, m.pages)
	m.fetches.WithLabelValues(ResultSuccess)
	m.fetches.WithLabelValues(ResultFailure)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// FetchSucceeded records a successful fetch and the resulting queue.
func (m *Metrics) FetchSucceeded(d time.Duration, queued, malformed, filtered int) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(ResultSuccess).Inc()
	m.fetchDuration.Observe(d.Seconds())
	m.queued.Set(float64(queued))
	m.malformed.Add(float64(malformed))
	m.filtered.Add(float64(filtered))
}

// FetchFailed records a failed fetch.
func (m *Metrics) FetchFailed(d time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(ResultFailure).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// SetMode marks current as the active mode out of all.
func (m *Metrics) SetMode(current string, all []string) {
	if m == nil {
		return
	}
	for _, name := range all {
		v := 0.0
		if name == current {
			v = 1
		}
		m.mode.WithLabelValues(name).Set(v)
	}
}

// PageRendered counts one presented page of the given kind.
func (m *Metrics) PageRendered(kind string) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(kind).Inc()
}

// WriteTextfile writes the registry in text exposition format. It does
// nothing when no path is configured.
func (m *Metrics) WriteTextfile() error {
	if m == nil || m.path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
