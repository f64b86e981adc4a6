// Package gin mounts the verifier endpoints on a Gin engine.
// This package is a thin adapter that translates gin.Context to the shared
// helpers used by the stdlib and Chi adapters.
package gin

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	verifierhttp "github.com/microai-paygate/verifier/http"
	"github.com/microai-paygate/verifier/http/internal/helpers"
)

// correlationKey is the gin.Context key holding the correlation id.
const correlationKey = "correlation_id"

// NewEngine creates a Gin engine serving POST /verify, GET /health and, when
// config.MetricsHandler is set, GET /metrics. CORS is enabled only when
// config.AllowOrigins is non-empty.
//
// Example usage:
//
//	v, _ := verifier.New()
//	r, err := gin.NewEngine(&verifierhttp.Config{Verifier: v})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r.Run(":3002")
func NewEngine(config *verifierhttp.Config) (*gin.Engine, error) {
	if _, err := verifierhttp.NewHandler(config); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(newCorrelationMiddleware(config))
	r.Use(newRequestLogger(logger))
	r.Use(gin.Recovery())
	if len(config.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  config.AllowOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", helpers.CorrelationIDHeader},
			ExposeHeaders: []string{"Content-Length", helpers.CorrelationIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, helpers.HealthBody)
	})
	r.POST("/verify", newVerifyHandler(config, logger))
	if config.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(config.MetricsHandler))
	}

	return r, nil
}

func newCorrelationMiddleware(config *verifierhttp.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, supplied := helpers.CorrelationID(c.Request.Header)
		helpers.EchoCorrelationID(c.Writer.Header(), id, supplied, config.OmitFallbackCorrelationID)

		c.Set(correlationKey, id)
		c.Request = c.Request.WithContext(verifierhttp.WithCorrelationID(c.Request.Context(), id))
		c.Next()
	}
}

func newRequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
			"correlation_id", c.GetString(correlationKey),
		)
	}
}

func newVerifyHandler(config *verifierhttp.Config, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetString(correlationKey)
		if id == "" {
			id = helpers.FallbackCorrelationID
		}

		status, resp := helpers.Evaluate(c.Request.Context(), config.Verifier, c.Request.Body, config.MaxBodyBytes, id, logger)
		c.JSON(status, resp)
	}
}
