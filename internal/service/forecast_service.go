package service

import (
	"context"
	"sort"

	"github.com/huishoudboekje/backend/internal/domain"
	"github.com/huishoudboekje/backend/internal/infra/observability"
	"github.com/huishoudboekje/backend/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var forecastTracer = otel.Tracer("service/forecast")

// ForecastService returns a month's planned income/expense lines with
// their actual amounts computed from that month's transactions.
type ForecastService struct {
	store   port.FinanceStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewForecastService creates a new forecast service.
func NewForecastService(store port.FinanceStore, metrics *observability.Metrics, logger *zap.Logger) *ForecastService {
	return &ForecastService{store: store, metrics: metrics, logger: logger}
}

// Month returns the forecast lines for an account-month, ordered by
// position, with actuals filled in. Lines linked to neither a budget
// nor a category keep an actual of zero.
func (s *ForecastService) Month(ctx context.Context, accountID int64, monthYear string) ([]domain.ForecastItem, error) {
	ctx, span := forecastTracer.Start(ctx, "ForecastService.Month")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("account.id", accountID),
		attribute.String("month", monthYear),
	)

	if !monthYearRe.MatchString(monthYear) {
		return nil, &domain.ErrValidation{Field: "month", Message: "must be formatted YYYY-MM"}
	}

	items, err := s.store.ListForecastItems(ctx, accountID, monthYear)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []domain.ForecastItem{}, nil
	}

	txs, err := s.store.ListTransactionsByMonth(ctx, accountID, monthYear)
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].ActualAmount = s.actualFor(ctx, &items[i], txs)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	return items, nil
}

// actualFor computes a line's actual from the month's transactions:
// by the linked budget's category set, or by the single linked
// category, sign-normalized by the line's type.
func (s *ForecastService) actualFor(ctx context.Context, item *domain.ForecastItem, txs []domain.Transaction) domain.Money {
	if item.BudgetID != nil {
		budget, err := s.store.GetBudget(ctx, item.AccountID, *item.BudgetID)
		if err != nil {
			s.logger.Warn("forecast line references missing budget",
				zap.Int64("account_id", item.AccountID),
				zap.Int64("budget_id", *item.BudgetID))
			return 0
		}
		return SumBudgetSpend(budget, txs)
	}

	if item.CategoryID == nil {
		return 0
	}
	var total domain.Money
	for i := range txs {
		tx := &txs[i]
		if tx.CategoryID == nil || *tx.CategoryID != *item.CategoryID {
			continue
		}
		if !countsForBudgetType(item.Type, tx.TransactionType) {
			continue
		}
		total = total.Add(tx.Amount.Abs())
	}
	return total
}
