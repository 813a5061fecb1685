package metrics

import "time"

// ResultLabel enumerates per-unit outcome categories for counters.
type ResultLabel string

const (
	ResultWritten ResultLabel = "written"
	ResultSkipped ResultLabel = "skipped"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for documentation runs. Implementations
// may forward to Prometheus, OpenTelemetry, etc. The NoopRecorder is the
// default so components never nil-check their recorder.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncUnitResult(result ResultLabel)
	IncOrphanedBlocks(n int)
	SetGeneratorConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncUnitResult(ResultLabel)                  {}
func (NoopRecorder) IncOrphanedBlocks(int)                      {}
func (NoopRecorder) SetGeneratorConcurrency(int)                {}
