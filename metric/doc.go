// Package metric provides Prometheus metrics for LSL2Logs.
//
// The package wraps a dedicated Prometheus registry with the recorder's
// core metrics (active streams, drained samples, written rows, loop
// timings) plus Go runtime collectors, and serves them over HTTP together
// with a plain-text health endpoint.
//
// Components register their own metrics through the Registry methods so
// that nothing touches the global Prometheus default registry:
//
//	registry := metric.NewRegistry()
//	registry.RegisterCounter("natsbridge", "announcements", counter)
//
//	server := metric.NewServer(9090, "/metrics", registry)
//	go server.Start()
//
// Metrics are optional throughout the codebase: a nil registry disables
// collection without changing behavior.
package metric
