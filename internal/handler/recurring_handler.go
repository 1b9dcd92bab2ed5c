package handler

import (
	"net/http"

	"github.com/huishoudboekje/backend/internal/domain"
	"github.com/huishoudboekje/backend/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Recurring transactions
// ============================================================

func detectRecurringHandler(svc *service.RecurrenceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts/{accountId}/recurring/detect")
		defer span.End()

		accountID, err := accountIDParam(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		result, err := svc.Detect(ctx, accountID, queryBool(r, "force"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func detectAllHandler(svc *service.RecurrenceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/recurring/detect-all")
		defer span.End()

		results, err := svc.DetectAll(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func listRecurringHandler(svc *service.RecurrenceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts/{accountId}/recurring")
		defer span.End()

		accountID, err := accountIDParam(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		recurring, err := svc.List(ctx, accountID, queryBool(r, "active"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if recurring == nil {
			recurring = []domain.RecurringTransaction{}
		}
		writeJSON(w, http.StatusOK, recurring)
	}
}

func deactivateRecurringHandler(svc *service.RecurrenceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts/{accountId}/recurring/{recurringId}/deactivate")
		defer span.End()

		accountID, err := accountIDParam(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		recurringID := chi.URLParam(r, "recurringId")

		if err := svc.Deactivate(ctx, accountID, recurringID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": recurringID, "active": false})
	}
}

func upcomingHandler(svc *service.RecurrenceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts/{accountId}/recurring/upcoming")
		defer span.End()

		accountID, err := accountIDParam(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		upcoming, err := svc.Upcoming(ctx, accountID, queryIntDefault(r, "days", 30))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if upcoming == nil {
			upcoming = []domain.UpcomingTransaction{}
		}
		writeJSON(w, http.StatusOK, upcoming)
	}
}
