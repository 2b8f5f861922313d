package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gfxtrace",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"server", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gfxtrace",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"server", "method", "path", "status"},
	)
	rpcCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gfxtrace",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Service calls handled, by call and result code.",
		},
		[]string{"call", "code"},
	)
	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gfxtrace",
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "Service call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"call"},
	)
	clientCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gfxtrace",
			Subsystem: "client",
			Name:      "cache_lookups_total",
			Help:      "Client path cache lookups by outcome (hit, miss, shared).",
		},
		[]string{"outcome"},
	)
	decodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gfxtrace",
			Subsystem: "codec",
			Name:      "decode_failures_total",
			Help:      "Payloads that failed to decode, by reason.",
		},
		[]string{"reason"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, rpcCalls, rpcDuration, clientCache, decodeFailures)
	})
}

func RecordHTTPRequest(server, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(server, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(server, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordRPC(call, code string, duration time.Duration) {
	RegisterMetrics()
	rpcCalls.WithLabelValues(call, code).Inc()
	rpcDuration.WithLabelValues(call).Observe(duration.Seconds())
}

func RecordClientCache(outcome string) {
	RegisterMetrics()
	clientCache.WithLabelValues(outcome).Inc()
}

func RecordDecodeFailure(reason string) {
	RegisterMetrics()
	decodeFailures.WithLabelValues(reason).Inc()
}
