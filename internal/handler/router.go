package handler

import (
	"net/http"
	"time"

	"github.com/huishoudboekje/backend/internal/domain"
	"github.com/huishoudboekje/backend/internal/infra/observability"
	"github.com/huishoudboekje/backend/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles the service layer handed to the router.
type Services struct {
	Accounts   *service.AccountService
	Patterns   *service.PatternService
	Recurrence *service.RecurrenceService
	Budgets    *service.BudgetService
	Forecast   *service.ForecastService

	// SuggestionsEnabled exposes the pattern-suggestions route; off
	// means the route is simply absent.
	SuggestionsEnabled bool
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Accounts))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		// Accounts
		r.Get("/accounts", listAccountsHandler(svcs.Accounts, logger))

		r.Route("/accounts/{accountId}", func(r chi.Router) {
			r.Get("/", getAccountHandler(svcs.Accounts, logger))
			r.Post("/default", setDefaultAccountHandler(svcs.Accounts, logger))

			// Classification patterns
			r.Get("/patterns", listPatternsHandler(svcs.Patterns, logger))
			r.Post("/patterns", createPatternHandler(svcs.Patterns, logger))
			r.Delete("/patterns/{patternId}", deletePatternHandler(svcs.Patterns, logger))
			r.Post("/patterns/check", checkTransactionHandler(svcs.Patterns, logger))
			if svcs.SuggestionsEnabled {
				r.Get("/patterns/suggestions", patternSuggestionsHandler(svcs.Patterns, logger))
			}

			// Recurring transactions
			r.Post("/recurring/detect", detectRecurringHandler(svcs.Recurrence, logger))
			r.Get("/recurring", listRecurringHandler(svcs.Recurrence, logger))
			r.Post("/recurring/{recurringId}/deactivate", deactivateRecurringHandler(svcs.Recurrence, logger))
			r.Get("/recurring/upcoming", upcomingHandler(svcs.Recurrence, logger))

			// Budgets
			r.Get("/budgets/summary", budgetSummaryHandler(svcs.Budgets, logger))
			r.Get("/budgets/{budgetId}/state", budgetStateHandler(svcs.Budgets, logger))

			// Forecast
			r.Get("/forecast", forecastHandler(svcs.Forecast, logger))
		})

		// Batch detection across all accounts
		r.Post("/recurring/detect-all", detectAllHandler(svcs.Recurrence, logger))

		// Operational snapshot of detector runs
		r.Get("/recurring/metrics", detectorMetricsHandler(metrics))
	})

	return r
}

func healthzHandler(accounts *service.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "hhb-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		start := time.Now()
		_, err := accounts.List(ctx)
		latency := time.Since(start).Milliseconds()
		status := "healthy"
		if err != nil {
			status = "degraded"
		}
		services = append(services, domain.ServiceHealth{
			Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
		})

		overall := "healthy"
		for _, s := range services {
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overall,
			Services: services,
		})
	}
}

func detectorMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]float64{
			"runs_ok":    metrics.DetectorRunCount("ok"),
			"runs_error": metrics.DetectorRunCount("error"),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
