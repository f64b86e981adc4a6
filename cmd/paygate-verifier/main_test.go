package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verifier "github.com/microai-paygate/verifier"
	"github.com/microai-paygate/verifier/encoding"
	"github.com/microai-paygate/verifier/evm"
	"github.com/microai-paygate/verifier/internal/config"
)

const testPrivateKeyHex = "380eb0f3d505f087e438eca80bc4df9a7faa24f868e69fc0440261a0fc0567dc"

func signedBody(t *testing.T, chainID uint64) []byte {
	t.Helper()
	signer, err := evm.NewSigner(evm.WithPrivateKey(testPrivateKeyHex))
	require.NoError(t, err)
	req, err := signer.Request(verifier.PaymentContext{
		Recipient: "0x1234567890123456789012345678901234567890",
		Token:     "USDC",
		Amount:    "100",
		Nonce:     "n1",
		ChainID:   chainID,
	}, false)
	require.NoError(t, err)
	body, err := encoding.MarshalVerifyRequest(req)
	require.NoError(t, err)
	return body
}

func TestBuildHandler_Routers(t *testing.T) {
	for _, router := range []string{config.RouterChi, config.RouterGin} {
		t.Run(router, func(t *testing.T) {
			cfg, err := config.Load()
			require.NoError(t, err)
			cfg.Server.Router = router

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			h, err := buildHandler(cfg, logger, prometheus.NewRegistry())
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/verify", bytes.NewReader(signedBody(t, 1)))
			req.Header.Set("X-Correlation-ID", "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "abc-123", w.Header().Get("X-Correlation-ID"))
			assert.Contains(t, w.Body.String(), `"is_valid":true`)

			w = httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), "paygate_verifier_verifications_total")
			assert.Contains(t, w.Body.String(), "go_goroutines")
		})
	}
}

func TestBuildHandler_ChainAllowlist(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Chains.Allowed = "base"
	cfg.Metrics.Enabled = false

	h, err := buildHandler(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), prometheus.NewRegistry())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/verify", bytes.NewReader(signedBody(t, 1))))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to build typed data: ")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBuildHandler_WarnsAboutCORSOnChi(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.CORS.AllowOrigins = "http://localhost:3000"
	cfg.Metrics.Enabled = false

	var buf bytes.Buffer
	_, err = buildHandler(cfg, slog.New(slog.NewTextHandler(&buf, nil)), prometheus.NewRegistry())
	require.NoError(t, err)
	assert.True(t, strings.Contains(buf.String(), "only applied by the gin router"), buf.String())
}

func TestBuildHandler_InvalidDomain(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Domain.Name = ""

	_, err = buildHandler(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), prometheus.NewRegistry())
	assert.ErrorIs(t, err, verifier.ErrInvalidDomain)
}
