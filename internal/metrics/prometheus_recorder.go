package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "kartoffeldruck"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg          *prom.Registry
	pageDuration prom.Histogram
	pageResults  *prom.CounterVec
	jobDuration  *prom.HistogramVec
	jobResults   *prom.CounterVec
	runDuration  prom.Histogram
	runOutcome   *prom.CounterVec
	assetsCopied prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.pageDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "page_duration_seconds",
		Help:      "Duration of rendering and writing a single page",
		Buckets:   prom.DefBuckets,
	})
	pr.pageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "page_results_total",
		Help:      "Generated page counts by result",
	}, []string{"result"})
	pr.jobDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Duration of individual generate jobs",
		Buckets:   prom.DefBuckets,
	}, []string{"job"})
	pr.jobResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "job_results_total",
		Help:      "Generate job counts by result",
	}, []string{"job", "result"})
	pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Total run duration",
		Buckets:   prom.DefBuckets,
	})
	pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "run_outcomes_total",
		Help:      "Run outcomes by final status",
	}, []string{"result"})
	pr.assetsCopied = prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "assets_copied_total",
		Help:      "Static asset files copied to the destination",
	})
	reg.MustRegister(pr.pageDuration, pr.pageResults, pr.jobDuration, pr.jobResults, pr.runDuration, pr.runOutcome, pr.assetsCopied)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

// WriteTextfile writes the current metric values in the text exposition
// format, for the node_exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.reg)
}

func (p *PrometheusRecorder) ObservePageDuration(d time.Duration) {
	if p == nil || p.pageDuration == nil {
		return
	}
	p.pageDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageResult(result ResultLabel) {
	if p == nil || p.pageResults == nil {
		return
	}
	p.pageResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveJobDuration(job string, d time.Duration) {
	if p == nil || p.jobDuration == nil {
		return
	}
	p.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncJobResult(job string, result ResultLabel) {
	if p == nil || p.jobResults == nil {
		return
	}
	p.jobResults.WithLabelValues(job, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(result ResultLabel) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) AddAssetsCopied(n int) {
	if p == nil || p.assetsCopied == nil {
		return
	}
	p.assetsCopied.Add(float64(n))
}
