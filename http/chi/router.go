// Package chi mounts the verifier endpoints on a Chi router.
// This package is a thin adapter that uses the stdlib http.Handler interface
// and delegates all verification logic to shared helpers.
package chi

import (
	"log/slog"
	"net/http"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	verifierhttp "github.com/microai-paygate/verifier/http"
)

// NewRouter creates a Chi router serving POST /verify, GET /health and, when
// config.MetricsHandler is set, GET /metrics.
//
// Example usage:
//
//	v, _ := verifier.New()
//	r, err := chi.NewRouter(&verifierhttp.Config{Verifier: v})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":3002", r)
func NewRouter(config *verifierhttp.Config) (chirouter.Router, error) {
	h, err := verifierhttp.NewHandler(config)
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chirouter.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(verifierhttp.NewCorrelationMiddleware(config))
	r.Use(newRequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.ServeHealth)
	r.Post("/verify", h.ServeVerify)
	if config.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", config.MetricsHandler)
	}

	return r, nil
}

// newRequestLogger logs one slog line per request using Chi's response
// writer wrapper to capture the status.
func newRequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.InfoContext(r.Context(), "http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"remote_addr", r.RemoteAddr,
					"correlation_id", verifierhttp.CorrelationIDFromContext(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
