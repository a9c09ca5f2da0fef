// Package metrics provides resolution and forge request metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks:
//
//	resolver := docviewer.NewResolver(opener, docviewer.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The server exposes the registry through HTTPHandler.
package metrics
