package metrics

import "time"

// ResultLabel enumerates result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for generation metrics. All methods
// must be safe for concurrent use; pages are generated in parallel.
type Recorder interface {
	ObservePageDuration(d time.Duration)
	IncPageResult(result ResultLabel)
	ObserveJobDuration(job string, d time.Duration)
	IncJobResult(job string, result ResultLabel)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(result ResultLabel)
	AddAssetsCopied(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePageDuration(time.Duration)         {}
func (NoopRecorder) IncPageResult(ResultLabel)                 {}
func (NoopRecorder) ObserveJobDuration(string, time.Duration)  {}
func (NoopRecorder) IncJobResult(string, ResultLabel)          {}
func (NoopRecorder) ObserveRunDuration(time.Duration)          {}
func (NoopRecorder) IncRunOutcome(ResultLabel)                 {}
func (NoopRecorder) AddAssetsCopied(int)                       {}

// ResultOf maps an error to its result label.
func ResultOf(err error) ResultLabel {
	if err != nil {
		return ResultFailed
	}
	return ResultSuccess
}
