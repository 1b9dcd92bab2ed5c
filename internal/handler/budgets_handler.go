package handler

import (
	"net/http"

	"github.com/huishoudboekje/backend/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Budgets
// ============================================================

func budgetSummaryHandler(svc *service.BudgetService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts/{accountId}/budgets/summary")
		defer span.End()

		accountID, err := accountIDParam(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		summary, err := svc.Summarize(ctx, accountID, r.URL.Query().Get("month"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func budgetStateHandler(svc *service.BudgetService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts/{accountId}/budgets/{budgetId}/state")
		defer span.End()

		accountID, err := accountIDParam(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		budgetID, err := int64Param(r, "budgetId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		state, err := svc.State(ctx, accountID, budgetID, r.URL.Query().Get("month"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"budgetId": budgetID, "state": state})
	}
}
