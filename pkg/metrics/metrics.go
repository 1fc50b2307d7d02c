// Package metrics defines the Prometheus collectors of an evaluation run and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors of the evaluation engine.
type Metrics struct {
	registry         *prometheus.Registry
	DocsIndexed      prometheus.Counter
	DocsSkipped      prometheus.Counter
	IndexTerms       prometheus.Gauge
	QueriesEvaluated prometheus.Counter
	QueriesSkipped   prometheus.Counter
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	StageDuration    *prometheus.HistogramVec
	MeanPrecision    *prometheus.GaugeVec
	MeanRecall       *prometheus.GaugeVec
}

// New creates the collectors and registers them on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DocsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "releval_documents_indexed_total",
			Help: "Documents added to the inverted index.",
		}),
		DocsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "releval_documents_skipped_total",
			Help: "Documents skipped because they could not be read or parsed.",
		}),
		IndexTerms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "releval_index_terms",
			Help: "Distinct terms in the current index.",
		}),
		QueriesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "releval_queries_evaluated_total",
			Help: "Queries ranked and measured.",
		}),
		QueriesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "releval_queries_skipped_total",
			Help: "Queries skipped for lack of relevance judgments.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "releval_rank_cache_hits_total",
			Help: "Rankings served from the cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "releval_rank_cache_misses_total",
			Help: "Rankings computed because the cache had no entry.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "releval_stage_duration_seconds",
			Help:    "Duration of each pipeline stage.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}, []string{"stage"}),
		MeanPrecision: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "releval_mean_precision",
			Help: "Mean precision at each cutoff over the last evaluation.",
		}, []string{"cutoff"}),
		MeanRecall: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "releval_mean_recall",
			Help: "Mean recall at each cutoff over the last evaluation.",
		}, []string{"cutoff"}),
	}
	m.registry.MustRegister(
		m.DocsIndexed,
		m.DocsSkipped,
		m.IndexTerms,
		m.QueriesEvaluated,
		m.QueriesSkipped,
		m.CacheHits,
		m.CacheMisses,
		m.StageDuration,
		m.MeanPrecision,
		m.MeanRecall,
	)
	return m
}

// ObserveStage records how long stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// SetMeans publishes the mean precision and recall per cutoff.
func (m *Metrics) SetMeans(precision, recall map[int]float64) {
	for k, v := range precision {
		m.MeanPrecision.WithLabelValues(strconv.Itoa(k)).Set(v)
	}
	for k, v := range recall {
		m.MeanRecall.WithLabelValues(strconv.Itoa(k)).Set(v)
	}
}

// Registry exposes the registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape HTTP handler for m.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
