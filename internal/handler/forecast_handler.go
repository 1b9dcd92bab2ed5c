package handler

import (
	"net/http"

	"github.com/huishoudboekje/backend/internal/domain"
	"github.com/huishoudboekje/backend/internal/service"

	"go.uber.org/zap"
)

func forecastHandler(svc *service.ForecastService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts/{accountId}/forecast")
		defer span.End()

		accountID, err := accountIDParam(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		items, err := svc.Month(ctx, accountID, r.URL.Query().Get("month"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if items == nil {
			items = []domain.ForecastItem{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}
