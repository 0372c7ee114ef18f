package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mstgnz/shurjopay/handler"
	"github.com/mstgnz/shurjopay/infra/config"
	"github.com/mstgnz/shurjopay/infra/logger"
	"github.com/mstgnz/shurjopay/infra/middle"
	"github.com/mstgnz/shurjopay/infra/opensearch"
	"github.com/mstgnz/shurjopay/infra/sqlite"
	"github.com/mstgnz/shurjopay/provider"
	"github.com/mstgnz/shurjopay/provider/shurjopay"
	"github.com/mstgnz/shurjopay/router"
	v1 "github.com/mstgnz/shurjopay/router/v1"
)

func main() {
	// A missing .env is fine, the environment may already be set
	if err := config.LoadEnvFile(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Fatal("Load env error", err)
	}

	cfg := config.GetAppConfig()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		osClient *opensearch.Client
		osLogger *opensearch.Logger
	)
	if cfg.EnableLogging {
		client, err := opensearch.NewClient(cfg)
		if err != nil {
			logger.Warn("OpenSearch unavailable, continuing without it", logger.LogContext{
				Fields: map[string]any{"error": err.Error()},
			})
		} else {
			osClient = client
			osLogger = opensearch.NewLogger(client)
		}
	}
	logger.InitGlobalLogger(osLogger)

	var store *sqlite.Recorder
	if cfg.SQLitePath != "" {
		recorder, err := sqlite.NewRecorder(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("Failed to open exchange store", err)
		}
		defer recorder.Close()
		store = recorder
		go pruneExchanges(ctx, store, time.Duration(cfg.LogRetentionDays)*24*time.Hour)
	}

	spConfig, err := shurjopay.ConfigFromEnv()
	if err != nil {
		logger.Fatal("Invalid ShurjoPay configuration", err)
	}

	var recorders provider.MultiRecorder
	if store != nil {
		recorders = append(recorders, store)
	}
	if osLogger != nil {
		recorders = append(recorders, osLogger)
	}

	opts := []shurjopay.Option{shurjopay.WithSender(newSender(cfg.Transport, spConfig))}
	if len(recorders) > 0 {
		opts = append(opts, shurjopay.WithRecorder(recorders))
	}
	client, err := shurjopay.NewClient(spConfig, opts...)
	if err != nil {
		logger.Fatal("Failed to create ShurjoPay client", err)
	}
	logger.Info("ShurjoPay client ready", logger.LogContext{
		Provider: "shurjopay",
		Fields:   map[string]any{"config": spConfig.String(), "transport": cfg.Transport},
	})

	validate := config.App().Validator
	api := v1.Handlers{Payments: handler.NewPaymentHandler(client, validate)}
	stores := map[string]handler.Pinger{}
	if store != nil {
		var failures handler.FailureSearcher
		if osLogger != nil {
			failures = osLogger
		}
		api.Exchanges = handler.NewExchangesHandler(store, failures)
		stores["sqlite"] = store
	}
	if osClient != nil {
		stores["opensearch"] = osClient
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middle.RequestLoggingMiddleware())
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(middle.RateLimitMiddleware(middle.NewRateLimiter(ctx, config.GetIntEnv("RATE_LIMIT_PER_MINUTE", 100), time.Minute)))
	r.Use(middle.RequestValidationMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: strings.Split(cfg.AllowedOrigins, ","),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Origin", "X-Requested-With", middle.RequestIDHeader},
		ExposedHeaders: []string{middle.RequestIDHeader},
		MaxAge:         300,
	}))

	router.Routes(r, api, handler.NewHealthHandler(client.Tokens(), spConfig.BaseURL, stores))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", err)
		}
	}()
	logger.Info("API is running", logger.LogContext{Fields: map[string]any{"port": cfg.Port}})

	<-ctx.Done()

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", err)
	}
}

// newSender picks the transport used to reach the gateway
func newSender(transport string, cfg shurjopay.Config) provider.Sender {
	httpConfig := provider.CreateHTTPClientConfig(cfg.BaseURL, cfg.Timeout)
	if strings.EqualFold(transport, "fasthttp") {
		return provider.NewFastHTTPClient(httpConfig)
	}
	return provider.NewProviderHTTPClient(httpConfig)
}

// pruneExchanges drops exchanges older than retention once a day
func pruneExchanges(ctx context.Context, store *sqlite.Recorder, retention time.Duration) {
	if retention <= 0 {
		return
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		removed, err := store.Prune(ctx, time.Now().Add(-retention))
		if err != nil {
			logger.Warn("Failed to prune exchanges", logger.LogContext{Fields: map[string]any{"error": err.Error()}})
		} else if removed > 0 {
			logger.Info("Pruned exchanges", logger.LogContext{Fields: map[string]any{"removed": removed}})
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
