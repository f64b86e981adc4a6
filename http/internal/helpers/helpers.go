// Package helpers provides shared helper functions for the verifier HTTP adapters.
// These helpers are used by the stdlib, Chi and Gin adapters to ensure consistent behavior.
package helpers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/net/http/httpguts"

	verifier "github.com/microai-paygate/verifier"
	"github.com/microai-paygate/verifier/encoding"
)

const (
	// CorrelationIDHeader carries the caller's trace token in both directions.
	CorrelationIDHeader = "X-Correlation-ID"

	// FallbackCorrelationID is used when the caller sent no correlation id.
	FallbackCorrelationID = "unknown"

	// DefaultMaxBodyBytes bounds the verify request body.
	DefaultMaxBodyBytes int64 = 1 << 20

	// HealthBody is the fixed liveness payload.
	HealthBody = "Verifier OK"
)

// CorrelationID returns the request's correlation id. An absent or empty
// header yields FallbackCorrelationID and supplied=false.
func CorrelationID(h http.Header) (id string, supplied bool) {
	if v := h.Get(CorrelationIDHeader); v != "" {
		return v, true
	}
	return FallbackCorrelationID, false
}

// EchoCorrelationID sets the response correlation header. The fallback is
// echoed unless omitFallback is set; ids that are not valid header values
// are never echoed.
func EchoCorrelationID(h http.Header, id string, supplied, omitFallback bool) {
	if !supplied && omitFallback {
		return
	}
	if !httpguts.ValidHeaderFieldValue(id) {
		return
	}
	h.Set(CorrelationIDHeader, id)
}

// StatusFor maps an outcome to its HTTP status: 400 when the request could
// not be evaluated, 200 otherwise.
func StatusFor(o verifier.Outcome) int {
	if o.IsStructural() {
		return http.StatusBadRequest
	}
	return http.StatusOK
}

// Evaluate decodes a verify request from body and runs it through v. A body
// that cannot be decoded yields 400 without calling the verifier.
func Evaluate(ctx context.Context, v *verifier.Verifier, body io.Reader, maxBytes int64, correlationID string, logger *slog.Logger) (int, verifier.VerifyResponse) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}

	req, err := encoding.DecodeVerifyRequest(io.LimitReader(body, maxBytes))
	if err != nil {
		logger.WarnContext(ctx, "rejected verify request body",
			"correlation_id", correlationID,
			"error", err,
		)
		return http.StatusBadRequest, verifier.ErrorResponse(fmt.Errorf("Invalid request body: %w", err))
	}

	outcome := v.VerifyRequest(ctx, correlationID, req)
	return StatusFor(outcome), outcome.Response()
}

// WriteVerifyResponse writes resp as JSON with the given status.
func WriteVerifyResponse(w http.ResponseWriter, status int, resp verifier.VerifyResponse, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; a failed write can only be logged.
	if err := encoding.EncodeVerifyResponse(w, resp); err != nil {
		logger.Error("failed to write verify response", "error", err)
	}
}
