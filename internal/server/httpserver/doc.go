// Package httpserver serves the operational HTTP endpoints of kvmesh-server:
// Prometheus metrics at /metrics and a liveness probe at /healthz.
package httpserver
