package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginframework "github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	verifier "github.com/microai-paygate/verifier"
	verifierhttp "github.com/microai-paygate/verifier/http"
	"github.com/microai-paygate/verifier/http/chi"
	"github.com/microai-paygate/verifier/http/gin"
	"github.com/microai-paygate/verifier/internal/config"
	"github.com/microai-paygate/verifier/internal/server"
	"github.com/microai-paygate/verifier/internal/telemetry"
	"github.com/microai-paygate/verifier/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; fall back to the repository root when run from a subdirectory.
	if err := godotenv.Load(".env"); err != nil {
		_ = godotenv.Load("../.env")
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := telemetry.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	handler, err := buildHandler(cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	srv := server.New(cfg.Addr(), handler, server.Options{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		Logger:       logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return srv.Start(ctx)
}

// buildHandler wires the verifier, metrics and the configured router.
func buildHandler(cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) (http.Handler, error) {
	domain, err := cfg.VerifierDomain()
	if err != nil {
		return nil, err
	}
	chains, err := cfg.AllowedChainIDs()
	if err != nil {
		return nil, err
	}

	opts := []verifier.Option{
		verifier.WithDomain(domain),
		verifier.WithAllowedChains(chains...),
		verifier.WithLogger(logger),
	}

	httpConfig := &verifierhttp.Config{
		Logger:                    logger,
		OmitFallbackCorrelationID: cfg.Correlation.OmitFallback,
		MaxBodyBytes:              cfg.Server.MaxBodyBytes,
		AllowOrigins:              cfg.AllowOrigins(),
	}

	if cfg.Metrics.Enabled {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder, err := metrics.NewPrometheusRecorder(reg)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		opts = append(opts, verifier.WithRecorder(recorder))
		httpConfig.MetricsHandler = metrics.Handler(reg)
	}

	v, err := verifier.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating verifier: %w", err)
	}
	httpConfig.Verifier = v

	logger.Info("paygate verifier starting",
		"addr", cfg.Addr(),
		"router", cfg.Server.Router,
		"domain", domain.Name,
		"domain_version", domain.Version,
		"allowed_chains", chains,
		"metrics", cfg.Metrics.Enabled,
	)

	switch cfg.Server.Router {
	case config.RouterGin:
		ginframework.SetMode(ginframework.ReleaseMode)
		return gin.NewEngine(httpConfig)
	default:
		if len(httpConfig.AllowOrigins) > 0 {
			logger.Warn("cors.alloworigins is only applied by the gin router, ignoring", "origins", httpConfig.AllowOrigins)
		}
		return chi.NewRouter(httpConfig)
	}
}
