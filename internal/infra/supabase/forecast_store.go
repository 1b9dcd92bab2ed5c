package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huishoudboekje/backend/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

type forecastItemRow struct {
	ID                  int64  `json:"id"`
	AccountID           int64  `json:"account_id"`
	MonthYear           string `json:"month_year"`
	Type                string `json:"type"`
	BudgetID            *int64 `json:"budget_id"`
	CategoryID          *int64 `json:"category_id"`
	ExpectedAmountCents int64  `json:"expected_amount_cents"`
	Position            int    `json:"position"`
	DisplayName         string `json:"display_name"`
}

func (r *forecastItemRow) toDomain() domain.ForecastItem {
	return domain.ForecastItem{
		ID:             r.ID,
		AccountID:      r.AccountID,
		MonthYear:      r.MonthYear,
		Type:           domain.BudgetType(r.Type),
		BudgetID:       r.BudgetID,
		CategoryID:     r.CategoryID,
		ExpectedAmount: domain.FromCents(r.ExpectedAmountCents),
		Position:       r.Position,
		DisplayName:    r.DisplayName,
	}
}

// ListForecastItems returns the planned lines for an account-month.
func (c *Client) ListForecastItems(ctx context.Context, accountID int64, monthYear string) ([]domain.ForecastItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListForecastItems")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("account.id", accountID),
		attribute.String("month", monthYear),
	)

	var rows []forecastItemRow
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("forecast_items?account_id=eq.%d&month_year=eq.%s&order=position.asc", accountID, monthYear)
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		if body == nil {
			rows = nil
			return nil
		}
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.ForecastItem, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}
