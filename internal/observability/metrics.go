package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	RowsExtracted *prometheus.CounterVec // labels: dataset={weather,collisions}
	RowsCleaned   *prometheus.CounterVec // labels: dataset={weather,collisions}

	FactsLoaded    *prometheus.CounterVec // labels: fact={weather,collisions}
	FactsDuplicate *prometheus.CounterVec // labels: fact={weather,collisions}
	FactsSkipped   *prometheus.CounterVec // labels: fact={weather,collisions}

	DimensionLookups *prometheus.CounterVec // labels: dimension={datetime,location}, result={hit,insert,conflict}

	PhaseDuration   *prometheus.HistogramVec // labels: phase={extract,transform,load}
	PipelineRunning prometheus.Gauge
	PipelineRuns    *prometheus.CounterVec // labels: outcome={success,failure}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RowsExtracted,
		m.RowsCleaned,
		m.FactsLoaded,
		m.FactsDuplicate,
		m.FactsSkipped,
		m.DimensionLookups,
		m.PhaseDuration,
		m.PipelineRunning,
		m.PipelineRuns,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nyc_etl",
			Name:      "rows_extracted_total",
			Help:      "Raw rows returned by the extractors.",
		}, []string{"dataset"}),
		RowsCleaned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nyc_etl",
			Name:      "rows_cleaned_total",
			Help:      "Rows surviving transformation.",
		}, []string{"dataset"}),
		FactsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nyc_etl",
			Name:      "facts_loaded_total",
			Help:      "Fact rows inserted into the store.",
		}, []string{"fact"}),
		FactsDuplicate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nyc_etl",
			Name:      "facts_duplicate_total",
			Help:      "Fact rows skipped because their natural key already exists.",
		}, []string{"fact"}),
		FactsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nyc_etl",
			Name:      "facts_skipped_total",
			Help:      "Rows the loader skipped as malformed.",
		}, []string{"fact"}),
		DimensionLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nyc_etl",
			Name:      "dimension_lookups_total",
			Help:      "Dimension resolutions by outcome.",
		}, []string{"dimension", "result"}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nyc_etl",
			Name:      "phase_duration_seconds",
			Help:      "Duration of each pipeline phase.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"phase"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nyc_etl",
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is active.",
		}),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nyc_etl",
			Name:      "pipeline_runs_total",
			Help:      "Completed pipeline runs by outcome.",
		}, []string{"outcome"}),
	}
}
