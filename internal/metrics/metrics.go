// Package metrics defines the Prometheus collectors exposed by the server.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "linecard"

// Generation kinds.
const (
	KindRegional = "regional"
	KindState    = "state"
)

// Outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalid_input"
	OutcomeRetrieval    = "retrieval_error"
	OutcomeConfig       = "config_error"
	OutcomeRender       = "render_error"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	Generations  *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	LogoFailures prometheus.Counter
	Swept        prometheus.Counter
	InFlight     prometheus.Gauge
}

// New registers the collectors, plus Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		Generations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Line card generation requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time to fetch, group, and render one line card.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"kind"}),
		LogoFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logo_failures_total",
			Help:      "Logos that could not be downloaded or decoded.",
		}),
		Swept: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_files_total",
			Help:      "Expired documents removed from the output directory.",
		}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generations_in_flight",
			Help:      "Generations currently running.",
		}),
	}
}

// Observe records one finished generation.
func (m *Metrics) Observe(kind, outcome string, d time.Duration, logoFailures int) {
	m.Generations.WithLabelValues(kind, outcome).Inc()
	if outcome == OutcomeOK {
		m.Duration.WithLabelValues(kind).Observe(d.Seconds())
	}
	if logoFailures > 0 {
		m.LogoFailures.Add(float64(logoFailures))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Outcome classifies err with the given predicates, checked in order.
// A nil error is OutcomeOK; an unmatched error is OutcomeRender.
func Outcome(err error, classes ...Class) string {
	if err == nil {
		return OutcomeOK
	}
	for _, c := range classes {
		for _, target := range c.Errors {
			if errors.Is(err, target) {
				return c.Outcome
			}
		}
	}
	return OutcomeRender
}

// Class maps sentinel errors to an outcome label.
type Class struct {
	Outcome string
	Errors  []error
}
