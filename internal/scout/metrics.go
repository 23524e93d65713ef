// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scout

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/unified-scout/internal/rerank"
	"github.com/pdiddy/unified-scout/internal/search"
	"github.com/pdiddy/unified-scout/pkg/types"
)

// accumulator collects the Metrics of one run as the stages complete.
type accumulator struct {
	m     types.Metrics
	start time.Time
}

func newAccumulator() *accumulator {
	return &accumulator{
		m: types.Metrics{
			PerProvider: map[string]int{},
			Timings:     map[string]time.Duration{},
		},
		start: time.Now(),
	}
}

func (a *accumulator) stage(name string, since time.Time) {
	a.m.Timings[name] += time.Since(since)
}

func (a *accumulator) fanOut(fan search.FanOutResult) {
	a.m.RawCount = len(fan.Documents)
	a.m.ProviderErrors = len(fan.Errors)
	for name, n := range fan.PerProvider {
		a.m.PerProvider[name] += n
	}
}

func (a *accumulator) rerank(results []rerank.Result, path string) {
	a.m.AfterRerank = len(results)
	a.m.RerankPath = path
	if len(results) == 0 {
		return
	}
	var sum float64
	for _, r := range results {
		sum += r.RelevanceScore
	}
	a.m.AvgRelevance = sum / float64(len(results))
}

// Recorder receives every finished run. err is the error Run returned.
type Recorder interface {
	Observe(res types.Result, err error)
}

// Run outcomes used as the "outcome" label.
const (
	OutcomeLive     = "live"
	OutcomeCached   = "cached"
	OutcomeRejected = "rejected"
)

// PrometheusRecorder exports run metrics to a Prometheus registry.
type PrometheusRecorder struct {
	Runs              *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
	ProviderDocuments *prometheus.CounterVec
	ProviderErrors    prometheus.Counter
	PersistFailures   prometheus.Counter
	RerankPath        *prometheus.CounterVec
	ResultSize        prometheus.Histogram
}

// NewPrometheusRecorder registers the scout metrics with reg. A nil reg
// uses the default registerer.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &PrometheusRecorder{
		Runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scout",
				Name:      "runs_total",
				Help:      "Total number of pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "scout",
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		ProviderDocuments: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scout",
				Name:      "provider_documents_total",
				Help:      "Raw documents returned per provider",
			},
			[]string{"provider"},
		),
		ProviderErrors: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "scout",
				Name:      "provider_errors_total",
				Help:      "Failed provider calls",
			},
		),
		PersistFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "scout",
				Name:      "persist_failures_total",
				Help:      "Documents that could not be persisted",
			},
		),
		RerankPath: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scout",
				Name:      "rerank_total",
				Help:      "Reranks by path taken",
			},
			[]string{"path"},
		),
		ResultSize: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "scout",
				Name:      "result_size",
				Help:      "Distribution of returned result counts",
				Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
			},
		),
	}
}

// Observe implements Recorder.
func (r *PrometheusRecorder) Observe(res types.Result, err error) {
	switch {
	case err != nil:
		r.Runs.WithLabelValues(OutcomeRejected).Inc()
		return
	case res.Cached:
		r.Runs.WithLabelValues(OutcomeCached).Inc()
		r.ResultSize.Observe(float64(res.Found))
		return
	}
	r.Runs.WithLabelValues(OutcomeLive).Inc()
	r.ResultSize.Observe(float64(res.Found))
	for stage, d := range res.Metrics.Timings {
		r.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
	for name, n := range res.Metrics.PerProvider {
		r.ProviderDocuments.WithLabelValues(name).Add(float64(n))
	}
	r.ProviderErrors.Add(float64(res.Metrics.ProviderErrors))
	r.PersistFailures.Add(float64(res.Metrics.PersistFailures))
	if res.Metrics.RerankPath != "" {
		r.RerankPath.WithLabelValues(res.Metrics.RerankPath).Inc()
	}
}
