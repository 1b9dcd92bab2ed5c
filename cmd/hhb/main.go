package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/huishoudboekje/backend/internal/config"
	"github.com/huishoudboekje/backend/internal/domain"
	"github.com/huishoudboekje/backend/internal/handler"
	"github.com/huishoudboekje/backend/internal/infra/cache"
	"github.com/huishoudboekje/backend/internal/infra/observability"
	"github.com/huishoudboekje/backend/internal/infra/resilience"
	"github.com/huishoudboekje/backend/internal/infra/supabase"
	"github.com/huishoudboekje/backend/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("detector_lookback_days", cfg.DetectorLookbackDays),
		zap.Bool("detector_auto_deactivate", cfg.AutoDeactivate),
		zap.Strings("features", cfg.Features.Enabled()),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "huishoudboekje-backend")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	summaryCache := cache.New[*domain.MonthSummary](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Store ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		metrics,
		logger,
	)

	// --- Services ---
	svcs := handler.Services{
		Accounts: service.NewAccountService(store, logger),
		Patterns: service.NewPatternService(store, metrics, logger),
		Recurrence: service.NewRecurrenceService(store, service.RecurrenceConfig{
			LookbackDays:   cfg.DetectorLookbackDays,
			GraceDays:      cfg.DetectorGraceDays,
			AutoDeactivate: cfg.AutoDeactivate,
			MaxConcurrency: cfg.MaxConcurrency,
		}, metrics, logger),
		Budgets:  service.NewBudgetService(store, summaryCache, cfg.TrendWindowMonths, metrics, logger),
		Forecast: service.NewForecastService(store, metrics, logger),

		SuggestionsEnabled: cfg.Features.IsEnabled("pattern_suggestions"),
	}

	// --- Router ---
	router := handler.NewRouter(svcs, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
