package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "kvmesh"

// Disconnect reasons recorded by ConnClosed.
const (
	ReasonEOF      = "eof"
	ReasonReset    = "reset"
	ReasonProtocol = "protocol"
	ReasonTimeout  = "timeout"
	ReasonIO       = "io"
	ReasonShutdown = "shutdown"
	ReasonInternal = "internal"
)

// Registry owns the Prometheus registry and the server instruments.
//
// All recording methods accept a nil receiver and do nothing, so components
// can run without metrics.
type Registry struct {
	reg *prometheus.Registry

	connsActive     prometheus.Gauge
	connsTotal      prometheus.Counter
	disconnects     *prometheus.CounterVec
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	protocolErrors  prometheus.Counter
}

// NewRegistry creates a registry with the server instruments and the Go
// runtime and process collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		connsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "connections_active",
			Help:      "Number of open client connections.",
		}),
		connsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "connections_total",
			Help:      "Total number of accepted client connections.",
		}),
		disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "disconnects_total",
			Help:      "Closed client connections by reason.",
		}, []string{"reason"}),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "commands_total",
			Help:      "Dispatched commands by name and result.",
		}, []string{"command", "result"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "command_duration_seconds",
			Help:      "Command dispatch latency.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}, []string{"command"}),
		protocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "protocol_errors_total",
			Help:      "Connections dropped because of malformed frames.",
		}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.connsActive,
		r.connsTotal,
		r.disconnects,
		r.commandsTotal,
		r.commandDuration,
		r.protocolErrors,
	)
	return r
}

// MustRegister registers additional collectors, panicking on conflicts.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// Gatherer returns the underlying gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an http.Handler serving the registry in text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{
		Registry: r.reg,
	})
}

// ConnOpened records an accepted connection.
func (r *Registry) ConnOpened() {
	if r == nil {
		return
	}
	r.connsTotal.Inc()
	r.connsActive.Inc()
}

// ConnClosed records a closed connection and why it ended.
func (r *Registry) ConnClosed(reason string) {
	if r == nil {
		return
	}
	r.connsActive.Dec()
	r.disconnects.WithLabelValues(reason).Inc()
	if reason == ReasonProtocol {
		r.protocolErrors.Inc()
	}
}

// ObserveCommand records one dispatched command.
// Unknown command names should be folded into a fixed label by the caller.
func (r *Registry) ObserveCommand(command, result string, d time.Duration) {
	if r == nil {
		return
	}
	r.commandsTotal.WithLabelValues(command, result).Inc()
	r.commandDuration.WithLabelValues(command).Observe(d.Seconds())
}
