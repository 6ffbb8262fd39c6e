package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the risk service.
type Metrics struct {
	Assessments     *prometheus.CounterVec // labels: level={LOW,MEDIUM,HIGH}
	ScoringErrors   *prometheus.CounterVec // labels: kind={field,classifier,timeout,internal}
	RiskPercent     prometheus.Histogram
	RuleTriggers    *prometheus.CounterVec // labels: rule, e.g. "rainfall_mm>150"
	ScoringDuration prometheus.Histogram

	// Classifier result cache.
	ClassifierCache *prometheus.CounterVec // labels: result={hit,miss}

	// Assessment event dispatch.
	EventsPublished   prometheus.Counter
	EventsDropped     prometheus.Counter
	PublishErrors     prometheus.Counter
	DispatcherRunning prometheus.Gauge
	PublishBatchSize  prometheus.Histogram

	ModelInfo *prometheus.GaugeVec // labels: name, version, mode
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Assessments,
		m.ScoringErrors,
		m.RiskPercent,
		m.RuleTriggers,
		m.ScoringDuration,
		m.ClassifierCache,
		m.EventsPublished,
		m.EventsDropped,
		m.PublishErrors,
		m.DispatcherRunning,
		m.PublishBatchSize,
		m.ModelInfo,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "landslide",
			Name:      "assessments_total",
			Help:      "Successful risk assessments by risk level.",
		}, []string{"level"}),
		ScoringErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "landslide",
			Name:      "scoring_errors_total",
			Help:      "Failed risk assessments by error kind.",
		}, []string{"kind"}),
		RiskPercent: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "landslide",
			Name:      "risk_percent",
			Help:      "Distribution of returned risk percentages.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 99},
		}),
		RuleTriggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "landslide",
			Name:      "rule_triggers_total",
			Help:      "Amplification rules fired, by rule.",
		}, []string{"rule"}),
		ScoringDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "landslide",
			Name:      "scoring_duration_seconds",
			Help:      "Time spent building the feature vector and scoring it.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		ClassifierCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "landslide",
			Name:      "classifier_cache_total",
			Help:      "Classifier cache lookups by result.",
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "landslide",
			Name:      "events_published_total",
			Help:      "Assessment events written to the sink.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "landslide",
			Name:      "events_dropped_total",
			Help:      "Assessment events dropped because the dispatch queue was full.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "landslide",
			Name:      "publish_errors_total",
			Help:      "Failed attempts to write an event batch to the sink.",
		}),
		DispatcherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "landslide",
			Name:      "dispatcher_running",
			Help:      "1 when the event dispatcher is active, 0 when shut down.",
		}),
		PublishBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "landslide",
			Name:      "publish_batch_size",
			Help:      "Number of events per batch written to the sink.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		ModelInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "landslide",
			Name:      "model_info",
			Help:      "Loaded classifier bundle; always 1.",
		}, []string{"name", "version", "mode"}),
	}
}
