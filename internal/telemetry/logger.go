// Package telemetry builds the verifier's process logger.
package telemetry

import (
	"io"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/microai-paygate/verifier/internal/config"
)

// ServiceName is attached to every record as the "service" attribute.
const ServiceName = "paygate-verifier"

// NewLogger builds the process logger from the log section. Format "text"
// selects the text handler, anything else JSON.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		ReplaceAttr: hexAttrs,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With("service", ServiceName)
}

// hexAttrs renders addresses and hashes as lowercase 0x hex, the form they
// take on the wire.
func hexAttrs(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindAny {
		return a
	}
	switch v := a.Value.Any().(type) {
	case common.Address:
		return slog.String(a.Key, strings.ToLower(v.Hex()))
	case common.Hash:
		return slog.String(a.Key, v.Hex())
	}
	return a
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
