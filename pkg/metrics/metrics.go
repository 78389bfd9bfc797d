package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Supervision metrics
	BackendUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zkconsole_backend_up",
			Help: "Whether the managed backend is reachable (1 = up, 0 = down)",
		},
	)

	ActiveHost = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zkconsole_active_host",
			Help: "Currently adopted backend host (1 = active)",
		},
		[]string{"host"},
	)

	HealthChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zkconsole_health_checks_total",
			Help: "Total number of backend health checks by result",
		},
		[]string{"result"},
	)

	HealthCheckDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "zkconsole_health_check_duration_seconds",
			Help:    "Backend health check duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RestartAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zkconsole_restart_attempts_total",
			Help: "Total number of backend restart attempts by trigger",
		},
		[]string{"trigger"},
	)

	RestartsThrottledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zkconsole_restarts_throttled_total",
			Help: "Total number of automatic restarts suppressed by the attempt budget",
		},
	)

	BackendMemoryMB = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zkconsole_backend_memory_mb",
			Help: "Last reported backend memory usage in MB",
		},
	)

	BackendCPUPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zkconsole_backend_cpu_percent",
			Help: "Last reported backend CPU usage percent",
		},
	)

	// Live feed metrics
	LiveEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zkconsole_live_events_total",
			Help: "Total number of push-stream events received by type",
		},
		[]string{"event"},
	)

	LiveBufferSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zkconsole_live_buffer_size",
			Help: "Current number of records in the live attendance buffer",
		},
	)

	StreamConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zkconsole_stream_connected",
			Help: "Whether the live push stream is connected (1 = connected)",
		},
	)

	StreamReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zkconsole_stream_reconnects_total",
			Help: "Total number of push-stream reconnect attempts",
		},
	)

	MergeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "zkconsole_merge_duration_seconds",
			Help:    "Live buffer merge duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(BackendUp)
	prometheus.MustRegister(ActiveHost)
	prometheus.MustRegister(HealthChecksTotal)
	prometheus.MustRegister(HealthCheckDuration)
	prometheus.MustRegister(RestartAttemptsTotal)
	prometheus.MustRegister(RestartsThrottledTotal)
	prometheus.MustRegister(BackendMemoryMB)
	prometheus.MustRegister(BackendCPUPercent)
	prometheus.MustRegister(LiveEventsTotal)
	prometheus.MustRegister(LiveBufferSize)
	prometheus.MustRegister(StreamConnected)
	prometheus.MustRegister(StreamReconnectsTotal)
	prometheus.MustRegister(MergeDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
