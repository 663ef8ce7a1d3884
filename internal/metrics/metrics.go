// Package metrics exports ingestion telemetry as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/internal/domain/posting"
)

const namespace = "jobingest"

var _ posting.Recorder = (*Metrics)(nil)

// Metrics holds all ingestion metrics on a private registry
type Metrics struct {
	registry *prometheus.Registry

	pagesFetched     *prometheus.CounterVec
	rateLimited      *prometheus.CounterVec
	postingsAdmitted *prometheus.CounterVec
	sourcesFinished  *prometheus.CounterVec
	sourceInserted   *prometheus.CounterVec
	runsFinished     *prometheus.CounterVec
	runDuration      prometheus.Histogram
}

// New registers the ingestion metrics plus Go runtime collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		pagesFetched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Provider pages requested, by outcome",
		}, []string{"source", "outcome"}),
		rateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Rate-limit responses, by whether the page was retried",
		}, []string{"source", "retried"}),
		postingsAdmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postings_admitted_total",
			Help:      "Postings offered to the store, by result",
		}, []string{"source", "result"}),
		sourcesFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sources_finished_total",
			Help:      "Per-source collection runs, by stop reason",
		}, []string{"source", "reason"}),
		sourceInserted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_inserted_total",
			Help:      "New postings persisted per source",
		}, []string{"source"}),
		runsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_finished_total",
			Help:      "Ingestion runs, by final status",
		}, []string{"status"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full ingestion run",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}
}

// Handler returns the HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) PageFetched(source domain.Source, outcome string) {
	m.pagesFetched.WithLabelValues(source.String(), outcome).Inc()
}

func (m *Metrics) RateLimited(source domain.Source, retried bool) {
	m.rateLimited.WithLabelValues(source.String(), strconv.FormatBool(retried)).Inc()
}

func (m *Metrics) PostingAdmitted(source domain.Source, isNew bool) {
	result := "duplicate"
	if isNew {
		result = "inserted"
	}
	m.postingsAdmitted.WithLabelValues(source.String(), result).Inc()
}

func (m *Metrics) SourceFinished(source domain.Source, reason string, inserted int) {
	m.sourcesFinished.WithLabelValues(source.String(), reason).Inc()
	m.sourceInserted.WithLabelValues(source.String()).Add(float64(inserted))
}

func (m *Metrics) RunFinished(status domain.TaskStatus, _ int, elapsed time.Duration) {
	m.runsFinished.WithLabelValues(string(status)).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}
