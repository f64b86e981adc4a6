package telemetry

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microai-paygate/verifier/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "info", Format: "json"}, &buf)

	logger.Info("signature valid", "correlation_id", "abc-123")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "signature valid", entry["msg"])
	assert.Equal(t, "abc-123", entry["correlation_id"])
	assert.Equal(t, ServiceName, entry["service"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "debug", Format: "TEXT"}, &buf)

	logger.Debug("verification request", "nonce", "n1")

	assert.Contains(t, buf.String(), `msg="verification request"`)
	assert.Contains(t, buf.String(), "nonce=n1")
	assert.Contains(t, buf.String(), "service="+ServiceName)
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "warn"}, &buf)

	logger.Info("should not appear")
	assert.Empty(t, buf.String())

	logger.Warn("verification failed")
	assert.NotEmpty(t, buf.String())
}

func TestNewLogger_HexValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "info", Format: "json"}, &buf)

	addr := common.HexToAddress("0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826")
	digest := common.HexToHash("0x01")
	logger.Info("recovered", "recovered_address", addr, "digest", digest, "chain_id", 8453)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "0xcd2a3d9f938e13cd947ec05abc7fe734df8dd826", entry["recovered_address"])
	assert.Equal(t, digest.Hex(), entry["digest"])
	assert.EqualValues(t, 8453, entry["chain_id"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "parseLevel(%q)", in)
	}
}
