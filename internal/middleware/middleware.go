// Package middleware provides the HTTP middleware chain of the statehub server.
//
// Every middleware runs after gorilla/mux has matched a route, so the route
// name doubles as the operation label in logs and metrics.
package middleware

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/statehub/internal/model"
)

// RequestIDHeader is the HTTP header carrying the request ID.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds client supplied request IDs.
const maxRequestIDLen = 128

// unnamedOperation labels requests whose route has no name.
const unnamedOperation = "unrouted"

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

type infoKey struct{}

// Info describes one request as it moves through the chain. Track creates
// it; Auth fills in Subject and handlers record the mutation outcome.
type Info struct {
	RequestID string
	Operation string
	StateID   string
	Subject   string
	Outcome   string
	Kind      string
}

// SetOutcome records how a mutation ended and, for rejections, the kind of
// validation failure. It is safe on a nil Info.
func (i *Info) SetOutcome(outcome, kind string) {
	if i == nil {
		return
	}
	i.Outcome = outcome
	i.Kind = kind
}

// InfoFromContext returns the request Info, or nil outside the chain.
func InfoFromContext(ctx context.Context) *Info {
	info, _ := ctx.Value(infoKey{}).(*Info)
	return info
}

// RequestIDFromContext returns the request ID assigned by Track, or an empty
// string.
func RequestIDFromContext(ctx context.Context) string {
	if info := InfoFromContext(ctx); info != nil {
		return info.RequestID
	}
	return ""
}

// Track assigns the request ID and names the request after its route. A
// client supplied X-Request-ID is kept when it is short enough; otherwise a
// UUID is generated.
func Track() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > maxRequestIDLen {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			info := &Info{
				RequestID: id,
				Operation: operationOf(r),
				StateID:   mux.Vars(r)["id"],
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), infoKey{}, info)))
		})
	}
}

// Recovery turns a panic in a handler into a 500 response.
func Recovery(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				fields := []zap.Field{
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				}
				if info := InfoFromContext(r.Context()); info != nil {
					fields = append(fields,
						zap.String("request_id", info.RequestID),
						zap.String("operation", info.Operation),
						zap.String("state_id", info.StateID),
					)
				}
				logger.Error("handler panicked", fields...)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func operationOf(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if name := route.GetName(); name != "" {
			return name
		}
	}
	return unnamedOperation
}

// writeError writes the API error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Code: status, Message: message})
}

// statusRecorder remembers the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// Hijack lets WebSocket upgrades pass through the recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	s.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// code returns the recorded status, 200 when the handler wrote nothing.
func (s *statusRecorder) code() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
