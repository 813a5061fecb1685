package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once                 sync.Once
	stageDuration        *prom.HistogramVec
	runDuration          prom.Histogram
	unitResults          *prom.CounterVec
	orphanedBlocks       prom.Counter
	generatorConcurrency prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "codesworth",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual per-unit pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "codesworth",
			Name:      "run_duration_seconds",
			Help:      "Total documentation run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.unitResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "codesworth",
			Name:      "unit_results_total",
			Help:      "Per-unit outcomes by result",
		}, []string{"result"})
		pr.orphanedBlocks = prom.NewCounter(prom.CounterOpts{
			Namespace: "codesworth",
			Name:      "orphaned_blocks_total",
			Help:      "Protected blocks relocated to the preserved-content section",
		})
		pr.generatorConcurrency = prom.NewGauge(prom.GaugeOpts{
			Namespace: "codesworth",
			Name:      "generator_concurrency",
			Help:      "Configured concurrency cap for content-generator calls",
		})

		reg.MustRegister(pr.stageDuration, pr.runDuration, pr.unitResults, pr.orphanedBlocks, pr.generatorConcurrency)
	})
	return pr
}

func (pr *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	pr.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	pr.runDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncUnitResult(result ResultLabel) {
	pr.unitResults.WithLabelValues(string(result)).Inc()
}

func (pr *PrometheusRecorder) IncOrphanedBlocks(n int) {
	pr.orphanedBlocks.Add(float64(n))
}

func (pr *PrometheusRecorder) SetGeneratorConcurrency(n int) {
	pr.generatorConcurrency.Set(float64(n))
}
