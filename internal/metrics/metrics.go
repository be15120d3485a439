// Package metrics holds the Prometheus collectors of the chat server.
//
// Label values are limited to event names, route patterns and status codes
// so cardinality stays bounded.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Connections gauges the live websocket connections.
	Connections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_connections",
			Help: "Current number of live websocket connections.",
		},
	)

	// Events counts inbound events by name and outcome.
	Events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_events_total",
			Help: "Inbound websocket events by event name and outcome.",
		},
		[]string{"event", "outcome"},
	)

	// RateLimited counts sends dropped by the author cooldown.
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_rate_limited_total",
			Help: "Messages dropped by the per-author cooldown.",
		},
	)

	// DroppedFrames counts outbound frames skipped because a client buffer was full.
	DroppedFrames = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_dropped_frames_total",
			Help: "Outbound frames skipped for slow clients.",
		},
	)

	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Event outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeInvalid     = "invalid"
	OutcomeForbidden   = "forbidden"
	OutcomeStoreError  = "store_error"
)

func init() {
	prometheus.MustRegister(Connections, Events, RateLimited, DroppedFrames, httpReqs, httpLat)
}

// HTTP instruments requests handled by a chi router. The path label is the
// matched route pattern, or the raw path when nothing matched.
func HTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpReqs.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		httpLat.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
