package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Mutation outcomes recorded through Info.SetOutcome.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "statehub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by operation and status code",
		},
		[]string{"operation", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "statehub",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by operation",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "statehub",
			Name:      "mutations_total",
			Help:      "State mutations by operation, outcome and validation failure kind",
		},
		[]string{"operation", "outcome", "kind"},
	)
)

// quietOperations are health and scrape routes logged at debug level.
var quietOperations = map[string]bool{
	"health":  true,
	"ready":   true,
	"metrics": true,
}

// Metrics counts requests per operation and, for mutations, the outcome the
// handler recorded.
func Metrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			op := unnamedOperation
			info := InfoFromContext(r.Context())
			if info != nil {
				op = info.Operation
			}
			httpRequestsTotal.WithLabelValues(op, strconv.Itoa(rec.code())).Inc()
			httpRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

			if info != nil && info.Outcome != "" {
				mutationsTotal.WithLabelValues(op, info.Outcome, info.Kind).Inc()
			}
		})
	}
}

// Logging writes one entry per request. Rejected mutations are warnings,
// server errors are errors and health routes are debug.
func Logging(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			status := rec.code()
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
			}

			info := InfoFromContext(r.Context())
			if info == nil {
				logger.Info("request", fields...)
				return
			}
			fields = append(fields,
				zap.String("request_id", info.RequestID),
				zap.String("operation", info.Operation),
			)
			if info.StateID != "" {
				fields = append(fields, zap.String("state_id", info.StateID))
			}
			if info.Subject != "" {
				fields = append(fields, zap.String("subject", info.Subject))
			}
			if info.Outcome != "" {
				fields = append(fields, zap.String("outcome", info.Outcome))
			}
			if info.Kind != "" {
				fields = append(fields, zap.String("kind", info.Kind))
			}

			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("request", fields...)
			case info.Outcome == OutcomeRejected:
				logger.Warn("request", fields...)
			case quietOperations[info.Operation]:
				logger.Debug("request", fields...)
			default:
				logger.Info("request", fields...)
			}
		})
	}
}
