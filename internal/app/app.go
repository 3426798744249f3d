// Package app wires the application together and runs it.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/gacetapress/gaceta/internal/article"
	"github.com/gacetapress/gaceta/internal/config"
	"github.com/gacetapress/gaceta/internal/handler"
	"github.com/gacetapress/gaceta/internal/interview"
	"github.com/gacetapress/gaceta/internal/logger"
	"github.com/gacetapress/gaceta/internal/metrics"
	"github.com/gacetapress/gaceta/internal/middleware"
	"github.com/gacetapress/gaceta/internal/opinion"
	"github.com/gacetapress/gaceta/internal/security"
	"github.com/gacetapress/gaceta/internal/storage"
)

// uploadClientTimeout bounds a single interview video upload. Videos
// run to 500 MB, so the article fetch timeout is far too short here.
const uploadClientTimeout = 10 * time.Minute

// Init initializes the application: JSON structured logging first so
// config loading can already log, then the Config from the
// environment. Log output goes to w.
func Init(w io.Writer) (*config.Config, error) {
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run is the application entry point. It parses the subcommand from
// args (pass os.Args[1:]) and starts the matching mode.
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck skips full initialization; it only needs the port.
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("content_bucket", cfg.ContentBucketURL),
	)

	return runServe(cfg)
}

// runServe starts the API server: wires every dependency, warms the
// article cache in the background and serves until SIGINT or SIGTERM,
// then shuts down gracefully.
func runServe(cfg *config.Config) error {
	// 1. Metrics registry
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 2. Security services
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewTextSanitizer()

	// 3. Object store clients
	storeClient := ssrfGuard.NewSafeClient(cfg.FetchTimeout, cfg.FetchMaxSize)
	contentLister := storage.NewS3Lister(cfg.ContentBucketURL, storeClient, slog.Default())
	interviewsLister := storage.NewS3Lister(cfg.InterviewsBucketURL, storeClient, slog.Default())

	uploadClient := ssrfGuard.NewSafeClient(uploadClientTimeout, cfg.UploadMaxSize)
	interviewsPutter := storage.NewS3Putter(cfg.InterviewsBucketURL, uploadClient, slog.Default())

	// 4. Content core
	fetcher := article.NewHTTPTextFetcher(ssrfGuard, slog.Default(), cfg.FetchTimeout, cfg.FetchMaxSize)
	aggregator := article.NewAggregator(
		contentLister, fetcher, slog.Default(), collector,
		cfg.FetchMaxConcurrent, cfg.DefaultLanguage,
	)

	// 5. Collaborators
	opinionStore := opinion.NewStore(cfg.OpinionsFile, sanitizer, slog.Default())
	interviewService := interview.NewService(
		interviewsLister, fetcher, interviewsPutter, slog.Default(), cfg.UploadMaxSize,
	)

	// 6. Rate limiter (config values are req/min, rate.Limit is req/sec)
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.OpinionRate = rate.Limit(float64(cfg.RateLimitOpinion) / 60.0)
	rateLimiterCfg.OpinionBurst = cfg.RateLimitOpinion
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 7. Router
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		HTTPMetrics:       collector,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		AdminUser:     cfg.AdminUser,
		AdminPassword: cfg.AdminPassword,

		Aggregator: aggregator,
		DaysLister: contentLister,

		OpinionStore:     opinionStore,
		OpinionListLimit: cfg.OpinionsLimit,
		InterviewService: interviewService,
		UploadMaxSize:    cfg.UploadMaxSize,

		MetricsGatherer: registry,
	})

	// 8. Warm today's batch so the first page view doesn't pay the
	// aggregation cost.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := aggregator.Load(ctx, "", "", "", "", ""); err != nil {
			slog.Warn("startup article load failed", slog.String("error", err.Error()))
		}
	}()

	// 9. HTTP server
	// ReadTimeout must cover a full interview video upload; the header
	// timeout keeps slow-loris connections bounded.
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       uploadClientTimeout,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck probes the running server's /health endpoint. Used as
// the Docker health check subcommand in distroless images.
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
