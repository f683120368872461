// Package metric provides Prometheus metrics for kvmesh.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: registry, server-side instruments and HTTP handler
//   - collector.go: store collector sampled at scrape time
//
// Metrics include:
//
//   - Connection gauges and counters
//   - Command counters and latency histograms
//   - Protocol error and disconnect counters
//   - Store key, byte and per-shard gauges
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
