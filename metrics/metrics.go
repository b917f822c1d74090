// Package metrics holds the Prometheus collectors of the compilation
// pipeline.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/swcgen/artifact"
)

const namespace = "swcgen"

// Pipeline stages observed by StageDuration.
const (
	StageDecode     = "decode"
	StageExtract    = "extract"
	StageSynthesize = "synthesize"
	StageIntegrate  = "integrate"
	StageValidate   = "validate"
)

// Metrics is the set of pipeline collectors.
type Metrics struct {
	RequirementsExtracted prometheus.Counter
	ArtifactsSynthesized  *prometheus.CounterVec
	EntitiesIntegrated    *prometheus.CounterVec
	IntegrationFailures   prometheus.Counter
	ValidationErrors      prometheus.Gauge
	CacheHits             prometheus.Counter
	CacheMisses           prometheus.Counter
	StageDuration         *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RequirementsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requirements_extracted_total",
			Help:      "Requirement documents produced by the extractor.",
		}),
		ArtifactsSynthesized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_synthesized_total",
			Help:      "Artifacts produced by the synthesizer, by kind.",
		}, []string{"kind"}),
		EntitiesIntegrated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_integrated_total",
			Help:      "Entities added to project graphs, by kind.",
		}, []string{"kind"}),
		IntegrationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integration_failures_total",
			Help:      "Artifact sets rejected with unresolved references.",
		}),
		ValidationErrors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "validation_errors",
			Help:      "Violations reported by the most recent validation.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Compilations served from the artifact cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Compilations that ran extraction and synthesis.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"stage"}),
	}

	if reg == nil {
		return m, nil
	}
	var errs []error
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// NewNop returns unregistered collectors.
func NewNop() *Metrics {
	m, _ := New(nil)
	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RequirementsExtracted,
		m.ArtifactsSynthesized,
		m.EntitiesIntegrated,
		m.IntegrationFailures,
		m.ValidationErrors,
		m.CacheHits,
		m.CacheMisses,
		m.StageDuration,
	}
}

// ObserveStage records the time elapsed since start for a stage.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// AddSynthesized adds per-kind synthesizer output.
func (m *Metrics) AddSynthesized(counts artifact.Counts) {
	addCounts(m.ArtifactsSynthesized, counts)
}

// AddIntegrated adds per-kind entities created by an integration.
func (m *Metrics) AddIntegrated(counts artifact.Counts) {
	addCounts(m.EntitiesIntegrated, counts)
}

func addCounts(vec *prometheus.CounterVec, counts artifact.Counts) {
	for kind, n := range counts {
		if n > 0 {
			vec.WithLabelValues(string(kind)).Add(float64(n))
		}
	}
}
