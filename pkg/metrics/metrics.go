package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Ingest metrics
	PacketsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "follower_packets_total",
			Help: "Total number of ingested packets by result",
		},
		[]string{"result"}, // ok, unauthorized, invalid
	)

	FixesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "follower_fixes_total",
			Help: "Total number of packets that carried a valid GPS fix",
		},
	)

	StorageFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "follower_storage_failures_total",
			Help: "Total number of failed durable writes (acknowledged anyway)",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "follower_api_requests_total",
			Help: "Total number of API requests by route and status",
		},
		[]string{"route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "follower_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	WebsocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "follower_websocket_clients",
			Help: "Number of connected websocket viewers",
		},
	)

	// Tracker-side metrics
	ConnectAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "follower_connect_attempts_total",
			Help: "Total number of WiFi connection attempts by result",
		},
		[]string{"result"}, // ok, failed
	)

	PushFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "follower_push_failures_total",
			Help: "Total number of failed telemetry pushes",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(PacketsTotal)
	prometheus.MustRegister(FixesTotal)
	prometheus.MustRegister(StorageFailuresTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(WebsocketClients)
	prometheus.MustRegister(ConnectAttemptsTotal)
	prometheus.MustRegister(PushFailuresTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
