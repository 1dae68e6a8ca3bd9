package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "landingd",
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Delivery sessions currently held in the registry.",
		},
	)
	sessionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "landingd",
			Subsystem: "sessions",
			Name:      "started_total",
			Help:      "Delivery sessions accepted after remote confirmation.",
		},
	)
	sessionsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "landingd",
			Subsystem: "sessions",
			Name:      "finished_total",
			Help:      "Delivery sessions ended by a terminal outcome report.",
		},
		[]string{"outcome"},
	)
	sessionsAbandoned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "landingd",
			Subsystem: "sessions",
			Name:      "abandoned_total",
			Help:      "Delivery sessions dropped by abrupt disconnect.",
		},
	)
	sessionsOrphanedRemote = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "landingd",
			Subsystem: "sessions",
			Name:      "orphaned_remote_total",
			Help:      "Sessions removed locally after the terminal-status remote write failed.",
		},
	)
	remoteRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "landingd",
			Subsystem: "remote",
			Name:      "requests_total",
			Help:      "Remote delivery/device API requests.",
		},
		[]string{"op", "status"},
	)
	remoteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "landingd",
			Subsystem: "remote",
			Name:      "request_duration_seconds",
			Help:      "Remote delivery/device API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op", "status"},
	)
	broadcastEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "landingd",
			Subsystem: "namespace",
			Name:      "broadcast_events_total",
			Help:      "Events broadcast to the whole namespace.",
		},
		[]string{"event"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			sessionsActive,
			sessionsStarted,
			sessionsFinished,
			sessionsAbandoned,
			sessionsOrphanedRemote,
			remoteRequests,
			remoteDuration,
			broadcastEvents,
		)
	})
}

func SetActiveSessions(n int) {
	RegisterMetrics()
	sessionsActive.Set(float64(n))
}

func RecordSessionStarted() {
	RegisterMetrics()
	sessionsStarted.Inc()
}

func RecordSessionFinished(outcome string) {
	RegisterMetrics()
	sessionsFinished.WithLabelValues(outcome).Inc()
}

func RecordSessionAbandoned() {
	RegisterMetrics()
	sessionsAbandoned.Inc()
}

func RecordSessionOrphanedRemote() {
	RegisterMetrics()
	sessionsOrphanedRemote.Inc()
}

func RecordRemoteRequest(op string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	remoteRequests.WithLabelValues(op, statusLabel).Inc()
	remoteDuration.WithLabelValues(op, statusLabel).Observe(duration.Seconds())
}

func RecordBroadcast(event string) {
	RegisterMetrics()
	broadcastEvents.WithLabelValues(event).Inc()
}
