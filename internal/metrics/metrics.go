// Package metrics exposes Prometheus instrumentation for the server:
// command throughput and latency, connection counts, keyspace size, and
// AOF write/fsync activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	CommandErrors   *prometheus.CounterVec

	ConnectionsActive prometheus.Gauge
	ConnectionsTotal  prometheus.Counter
	ConnectionsDenied prometheus.Counter

	KeyspaceSize  prometheus.Gauge
	ExpiredKeys   prometheus.Counter

	AOFWritesTotal  prometheus.Counter
	AOFFsyncTotal   prometheus.Counter
	AOFFsyncSeconds prometheus.Histogram
	AOFRewrites     prometheus.Counter
}

// New registers and returns a fresh Metrics set against a dedicated
// registry (not the global default, so multiple servers in one process —
// as in tests — don't collide on collector registration).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		CommandsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "driftkv_commands_total",
			Help: "Total commands processed, by command name and classification.",
		}, []string{"command", "class"}),

		CommandDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "driftkv_command_duration_seconds",
			Help:    "Command handling latency in seconds, by command name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"command"}),

		CommandErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "driftkv_command_errors_total",
			Help: "Commands that returned an error reply, by error kind.",
		}, []string{"kind"}),

		ConnectionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "driftkv_connections_active",
			Help: "Currently open client connections.",
		}),
		ConnectionsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "driftkv_connections_total",
			Help: "Total client connections accepted.",
		}),
		ConnectionsDenied: f.NewCounter(prometheus.CounterOpts{
			Name: "driftkv_connections_denied_total",
			Help: "Connections rejected for exceeding max_connections.",
		}),

		KeyspaceSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "driftkv_keyspace_size",
			Help: "Approximate number of live keys.",
		}),
		ExpiredKeys: f.NewCounter(prometheus.CounterOpts{
			Name: "driftkv_expired_keys_total",
			Help: "Keys removed by lazy or active expiry.",
		}),

		AOFWritesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "driftkv_aof_writes_total",
			Help: "Write commands appended to the AOF.",
		}),
		AOFFsyncTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "driftkv_aof_fsync_total",
			Help: "fsync calls issued against the AOF.",
		}),
		AOFFsyncSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "driftkv_aof_fsync_seconds",
			Help:    "fsync latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		AOFRewrites: f.NewCounter(prometheus.CounterOpts{
			Name: "driftkv_aof_rewrites_total",
			Help: "Completed BGREWRITEAOF compactions.",
		}),
	}
}

// Handler returns the HTTP handler serving this Metrics set in Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
