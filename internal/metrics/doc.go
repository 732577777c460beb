// Package metrics records build and stage measurements.
//
// Components receive a Recorder and default to NoopRecorder, so metrics cost
// nothing unless a PrometheusRecorder is injected:
//
//	reg := prometheus.NewRegistry()
//	svc := build.NewService(fs).WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// A one-shot CLI process has nothing to scrape it, so after a build the
// registry is written in the node_exporter textfile format with WriteTextfile.
package metrics
