// Package metrics provides observability hooks for generation runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	d, err := druck.New(cfg) // NoopRecorder
//	d, err := druck.New(cfg, druck.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The Prometheus implementation is scraped once at the end of a run and
// written to a node_exporter textfile (see PrometheusRecorder.WriteTextfile).
package metrics
