package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
)

// AssessmentMetrics holds Prometheus metrics for the assessment pipeline.
// A nil *AssessmentMetrics records nothing.
type AssessmentMetrics struct {
	AssessmentsTotal    *prometheus.CounterVec
	AssessmentDuration  prometheus.Histogram
	SimulationsTotal    *prometheus.CounterVec
	SignalFailuresTotal *prometheus.CounterVec
	SchemaViolations    *prometheus.CounterVec
	AssessmentsInFlight prometheus.Gauge
}

// NewAssessmentMetrics registers the pipeline metrics with reg
func NewAssessmentMetrics(reg prometheus.Registerer) *AssessmentMetrics {
	factory := promauto.With(reg)

	return &AssessmentMetrics{
		AssessmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokencheck_assessments_total",
			Help: "Total number of finished assessments by score and strategy",
		}, []string{"chain", "score", "strategy"}),
		AssessmentDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tokencheck_assessment_duration_seconds",
			Help:    "Time taken to assess one token",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 90, 120, 180},
		}),
		SimulationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokencheck_simulations_total",
			Help: "Total number of honeypot simulations by outcome",
		}, []string{"chain", "outcome"}),
		SignalFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokencheck_signal_failures_total",
			Help: "Total number of signals that could not be determined",
		}, []string{"signal"}),
		SchemaViolations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokencheck_llm_schema_violations_total",
			Help: "Total number of LLM answers that failed schema validation",
		}, []string{"review"}),
		AssessmentsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tokencheck_assessments_in_flight",
			Help: "Number of assessments currently running",
		}),
	}
}

// ObserveAssessment records one finished assessment
func (m *AssessmentMetrics) ObserveAssessment(report *entities.AssessmentReport, took time.Duration) {
	if m == nil || report == nil {
		return
	}
	m.AssessmentsTotal.WithLabelValues(report.CheckList.Chain.String(), report.Score.String(), string(report.Strategy)).Inc()
	m.AssessmentDuration.Observe(took.Seconds())
	for signal := range report.SignalErrors {
		m.SignalFailuresTotal.WithLabelValues(signal).Inc()
	}
}

// ObserveSimulation records a terminal simulation outcome
func (m *AssessmentMetrics) ObserveSimulation(chain entities.Chain, outcome entities.SimulationOutcome) {
	if m == nil {
		return
	}
	m.SimulationsTotal.WithLabelValues(chain.String(), string(outcome)).Inc()
}

// ObserveSchemaViolation records an LLM answer that could not be decoded
func (m *AssessmentMetrics) ObserveSchemaViolation(review string) {
	if m == nil {
		return
	}
	m.SchemaViolations.WithLabelValues(review).Inc()
}

// Begin marks an assessment as started and returns its completion func
func (m *AssessmentMetrics) Begin() func() {
	if m == nil {
		return func() {}
	}
	m.AssessmentsInFlight.Inc()
	return m.AssessmentsInFlight.Dec
}
