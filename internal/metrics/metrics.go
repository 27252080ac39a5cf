package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and route
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discround_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "route"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discround_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "route"},
	)

	// RequestInProgress counts HTTP requests currently being processed
	RequestInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "discround_http_requests_in_progress",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// SessionTransitions counts round session state changes by target state
	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discround_session_transitions_total",
			Help: "Total number of round session state transitions",
		},
		[]string{"to", "trigger"},
	)

	// ScoreRecordsWritten counts score records accepted into the ledger
	ScoreRecordsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discround_score_records_written_total",
			Help: "Total number of score records written",
		},
	)

	// RejectedOperations counts operations refused with a classified error
	RejectedOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discround_rejected_operations_total",
			Help: "Total number of rejected session operations",
		},
		[]string{"operation", "kind"},
	)

	// PlayDataReads counts play-data reads, split by whether the storage read was shared
	PlayDataReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discround_play_data_reads_total",
			Help: "Total number of play-data reads",
		},
		[]string{"shared"},
	)

	// WebSocketClients tracks connected WebSocket clients
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "discround_websocket_clients",
			Help: "Number of connected WebSocket clients",
		},
	)
)

// Middleware collects HTTP request metrics labelled by chi route pattern
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RequestInProgress.Inc()
		defer RequestInProgress.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := []string{strconv.Itoa(status), r.Method, route}

		RequestCounter.WithLabelValues(labels...).Inc()
		RequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	})
}
