package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "survey_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	SubmissionsExtracted prometheus.Counter
	RecordsProcessed     *prometheus.CounterVec // labels: category
	RecordsSkipped       prometheus.Counter
	RecordsExcluded      prometheus.Counter
	RecordsLoaded        prometheus.Counter
	SurveyWarnings       prometheus.Counter
	ExtractErrors        prometheus.Counter
	LoadErrors           *prometheus.CounterVec // labels: sink
	PipelineRunning      prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Survey platform metrics.
	KoboRequests        *prometheus.CounterVec // labels: outcome={success,error}
	KoboRequestDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SubmissionsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_extracted_total",
			Help:      "Total raw submissions read from the survey source.",
		}),
		RecordsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_processed_total",
			Help:      "Demand records produced, by respondent category.",
		}, []string{"category"}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Submissions dropped because extraction failed.",
		}),
		RecordsExcluded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_excluded_total",
			Help:      "Submissions dropped for inconsistent time reporting.",
		}),
		RecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Demand records handed to the sinks.",
		}),
		SurveyWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "survey_warnings_total",
			Help:      "Warnings raised while processing batches.",
		}),
		ExtractErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extract_errors_total",
			Help:      "Failed attempts to read submissions from the source.",
		}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Failed batch loads, by sink.",
		}, []string{"sink"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a batch is being processed, 0 otherwise.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of submissions per extracted batch.",
			Buckets:   []float64{1, 10, 25, 50, 100, 250, 500, 1000},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete extract-process-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		KoboRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kobo_requests_total",
			Help:      "KoboToolbox API page requests by outcome.",
		}, []string{"outcome"}),
		KoboRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kobo_request_duration_seconds",
			Help:      "KoboToolbox API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}

	prometheus.MustRegister(
		m.SubmissionsExtracted,
		m.RecordsProcessed,
		m.RecordsSkipped,
		m.RecordsExcluded,
		m.RecordsLoaded,
		m.SurveyWarnings,
		m.ExtractErrors,
		m.LoadErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.KoboRequests,
		m.KoboRequestDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SubmissionsExtracted:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "submissions_extracted_total"}),
		RecordsProcessed:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "records_processed_total"}, []string{"category"}),
		RecordsSkipped:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "records_skipped_total"}),
		RecordsExcluded:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "records_excluded_total"}),
		RecordsLoaded:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "records_loaded_total"}),
		SurveyWarnings:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "survey_warnings_total"}),
		ExtractErrors:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "extract_errors_total"}),
		LoadErrors:              prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "load_errors_total"}, []string{"sink"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_processing_duration_seconds"}),
		KoboRequests:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "kobo_requests_total"}, []string{"outcome"}),
		KoboRequestDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "kobo_request_duration_seconds"}),
	}
}
