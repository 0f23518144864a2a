// Package metric provides Prometheus metrics for MerkleKV.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry and HTTP handler
//   - collector.go: storage engine statistics collector
//
// Metrics include:
//
//   - Command counters and latency histograms per command
//   - Active connection gauges
//   - Storage statistics (disk size, record count, cache entries)
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
