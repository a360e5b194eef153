// Package metrics records build, resolution, search and preview metrics.
//
// Components take a Recorder and default to NoopRecorder, so nothing needs
// nil checks. The CLI swaps in a PrometheusRecorder when metrics are
// enabled in the configuration, and the preview server exposes it on
// /metrics.
package metrics
