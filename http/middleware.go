// Package http serves signature verification over net/http.
package http

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	verifier "github.com/microai-paygate/verifier"
	"github.com/microai-paygate/verifier/http/internal/helpers"
)

// Config holds the configuration shared by the HTTP adapters.
type Config struct {
	// Verifier evaluates the requests. Required.
	Verifier *verifier.Verifier

	// Logger receives request and failure logs. Defaults to slog.Default().
	Logger *slog.Logger

	// OmitFallbackCorrelationID suppresses the X-Correlation-ID response
	// header when the caller sent none, instead of echoing "unknown".
	OmitFallbackCorrelationID bool

	// MaxBodyBytes bounds the verify request body. Defaults to 1 MiB.
	MaxBodyBytes int64

	// AllowOrigins enables CORS for the listed origins when non-empty.
	AllowOrigins []string

	// MetricsHandler is mounted at GET /metrics when set.
	MetricsHandler http.Handler
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// CorrelationIDKey is the context key holding the request's correlation id.
const CorrelationIDKey = contextKey("correlation_id")

// WithCorrelationID returns a copy of ctx carrying id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// CorrelationIDFromContext returns the correlation id stored by the
// correlation middleware, or the fallback when there is none.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok && id != "" {
		return id
	}
	return helpers.FallbackCorrelationID
}

// NewCorrelationMiddleware stores the request's correlation id in the
// request context and echoes it on the response before the handler runs, so
// every response carries it whatever its status.
func NewCorrelationMiddleware(config *Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, supplied := helpers.CorrelationID(r.Header)
			helpers.EchoCorrelationID(w.Header(), id, supplied, config.OmitFallbackCorrelationID)
			next.ServeHTTP(w, r.WithContext(WithCorrelationID(r.Context(), id)))
		})
	}
}

// NewRequestLogger logs one line per request with its status and duration.
func NewRequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{w: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
				"correlation_id", CorrelationIDFromContext(r.Context()),
			)
		})
	}
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	w           http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) Header() http.Header {
	return s.w.Header()
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.WriteHeader(http.StatusOK)
	}
	return s.w.Write(b)
}

func (s *statusRecorder) WriteHeader(statusCode int) {
	if s.wroteHeader {
		return
	}
	s.wroteHeader = true
	s.status = statusCode
	s.w.WriteHeader(statusCode)
}

// Flush implements http.Flusher to support streaming responses.
func (s *statusRecorder) Flush() {
	if flusher, ok := s.w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack implements http.Hijacker to support connection hijacking.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := s.w.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, errors.New("hijacking not supported")
}
