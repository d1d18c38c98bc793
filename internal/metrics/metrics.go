// Package metrics holds the Prometheus collectors of the transport shim.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joshuapare/osckit/pkg/types"
)

const namespace = "osckit"

// Transport labels.
const (
	TransportUDP = "udp"
	TransportWS  = "ws"
	TransportApp = "app"
)

var (
	registerOnce sync.Once

	messagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "osc",
			Name:      "messages_received_total",
			Help:      "Inbound OSC messages by transport.",
		},
		[]string{"transport"},
	)
	messagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "osc",
			Name:      "messages_dropped_total",
			Help:      "Inbound OSC messages that failed to decode or apply.",
		},
		[]string{"transport", "reason"},
	)
	messagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "osc",
			Name:      "messages_sent_total",
			Help:      "Outbound OSC messages pushed to listeners.",
		},
		[]string{"transport"},
	)
	updatesApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tree",
			Name:      "updates_applied_total",
			Help:      "Committed node value updates.",
		},
	)
	listeners = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tree",
			Name:      "listeners",
			Help:      "Active LISTEN registrations.",
		},
	)
	arenaRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "arena",
			Name:      "remaining_bytes",
			Help:      "Free capacity of the tree allocator.",
		},
	)
	wsClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Connected WebSocket clients.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP query requests.",
		},
		[]string{"method", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP query request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)
)

// Register adds every collector to the default registry. It is safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			messagesReceived, messagesDropped, messagesSent,
			updatesApplied, listeners, arenaRemaining, wsClients,
			httpRequests, httpDuration,
		)
	})
}

// Reason labels a drop by the error's kind.
func Reason(err error) string {
	if k, ok := types.KindOf(err); ok {
		return k.String()
	}
	return "other"
}

func RecordReceived(transport string) {
	Register()
	messagesReceived.WithLabelValues(transport).Inc()
}

func RecordDropped(transport string, err error) {
	Register()
	messagesDropped.WithLabelValues(transport, Reason(err)).Inc()
}

func RecordSent(transport string) {
	Register()
	messagesSent.WithLabelValues(transport).Inc()
}

func RecordUpdate() {
	Register()
	updatesApplied.Inc()
}

func SetListeners(n int) {
	Register()
	listeners.Set(float64(n))
}

func SetArenaRemaining(n int64) {
	Register()
	arenaRemaining.Set(float64(n))
}

func AddWSClients(delta int) {
	Register()
	wsClients.Add(float64(delta))
}

func RecordHTTPRequest(method string, status int, duration time.Duration) {
	Register()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, statusLabel).Inc()
	httpDuration.WithLabelValues(method, statusLabel).Observe(duration.Seconds())
}

// Middleware records every request handled by a gin engine.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		RecordHTTPRequest(c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
