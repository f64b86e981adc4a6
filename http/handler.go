package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/microai-paygate/verifier/http/internal/helpers"
)

// ErrNoVerifier is returned when a Config carries no Verifier.
var ErrNoVerifier = errors.New("http: config has no verifier")

// Handler serves the verify and health endpoints.
type Handler struct {
	config *Config
}

// NewHandler creates a Handler for config.
func NewHandler(config *Config) (*Handler, error) {
	if config == nil || config.Verifier == nil {
		return nil, ErrNoVerifier
	}
	return &Handler{config: config}, nil
}

// ServeVerify handles POST /verify. The correlation header is echoed even
// when the handler is mounted without the correlation middleware.
func (h *Handler) ServeVerify(w http.ResponseWriter, r *http.Request) {
	id, supplied := helpers.CorrelationID(r.Header)
	helpers.EchoCorrelationID(w.Header(), id, supplied, h.config.OmitFallbackCorrelationID)

	status, resp := helpers.Evaluate(r.Context(), h.config.Verifier, r.Body, h.config.MaxBodyBytes, id, h.config.logger())
	helpers.WriteVerifyResponse(w, status, resp, h.config.logger())
}

// ServeHealth handles GET /health.
func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, helpers.HealthBody)
}

// NewServeMux returns a stdlib router serving /verify, /health and, when
// configured, /metrics.
func NewServeMux(config *Config) (http.Handler, error) {
	h, err := NewHandler(config)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /verify", h.ServeVerify)
	mux.HandleFunc("GET /health", h.ServeHealth)
	if config.MetricsHandler != nil {
		mux.Handle("GET /metrics", config.MetricsHandler)
	}

	var handler http.Handler = mux
	handler = NewRequestLogger(config.logger())(handler)
	handler = NewCorrelationMiddleware(config)(handler)
	return handler, nil
}
