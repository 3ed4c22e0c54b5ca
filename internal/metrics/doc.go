// Package metrics provides the observability hooks of the publish pipeline.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection needs no nil checks:
//
//	pipeline := publish.New(deps) // NoopRecorder
//	pipeline := publish.New(deps, publish.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the given registry, and
// HTTPHandler serves that registry on /metrics.
package metrics
