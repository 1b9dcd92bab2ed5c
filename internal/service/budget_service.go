package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/huishoudboekje/backend/internal/domain"
	"github.com/huishoudboekje/backend/internal/infra/observability"
	"github.com/huishoudboekje/backend/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var budgetTracer = otel.Tracer("service/budget")

var monthYearRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// BudgetService resolves budget versions and aggregates monthly
// summaries, memoizing them per account-month.
type BudgetService struct {
	store             port.FinanceStore
	cache             port.Cache[*domain.MonthSummary]
	trendWindowMonths int
	metrics           *observability.Metrics
	logger            *zap.Logger
	now               func() time.Time
}

// NewBudgetService creates a new budget service.
func NewBudgetService(store port.FinanceStore, cache port.Cache[*domain.MonthSummary], trendWindowMonths int, metrics *observability.Metrics, logger *zap.Logger) *BudgetService {
	if trendWindowMonths <= 0 {
		trendWindowMonths = 12
	}
	return &BudgetService{
		store:             store,
		cache:             cache,
		trendWindowMonths: trendWindowMonths,
		metrics:           metrics,
		logger:            logger,
		now:               time.Now,
	}
}

// State classifies one budget against a reference month.
func (s *BudgetService) State(ctx context.Context, accountID, budgetID int64, monthYear string) (domain.BudgetState, error) {
	ctx, span := budgetTracer.Start(ctx, "BudgetService.State")
	defer span.End()

	monthYear, err := s.normalizeMonth(monthYear)
	if err != nil {
		return "", err
	}

	if _, err := s.store.GetBudget(ctx, accountID, budgetID); err != nil {
		return "", err
	}
	versions, err := s.store.ListBudgetVersions(ctx, budgetID)
	if err != nil {
		return "", err
	}

	state := ClassifyBudget(versions, monthYear)
	if state == domain.BudgetStateIndeterminate {
		s.metrics.IncrBudgetAnomaly("no_versions")
		s.logger.Warn("budget has zero versions",
			zap.Int64("account_id", accountID),
			zap.Int64("budget_id", budgetID))
	}
	return state, nil
}

// Summarize aggregates allocations against actual spend for one
// account-month. Results are cached; the cache entry is evicted after
// its TTL, not on writes, so freshly imported transactions can lag by
// up to the TTL.
func (s *BudgetService) Summarize(ctx context.Context, accountID int64, monthYear string) (*domain.MonthSummary, error) {
	ctx, span := budgetTracer.Start(ctx, "BudgetService.Summarize")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("account.id", accountID),
		attribute.String("month", monthYear),
	)
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("budget_summary", time.Since(start)) }()

	monthYear, err := s.normalizeMonth(monthYear)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("summary:%d:%s", accountID, monthYear)
	if cached, ok := s.cache.Get(cacheKey); ok {
		s.metrics.IncrCacheHit("budget_summary")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("budget_summary")

	budgets, err := s.store.ListBudgets(ctx, accountID)
	if err != nil {
		return nil, err
	}
	monthTxs, err := s.store.ListTransactionsByMonth(ctx, accountID, monthYear)
	if err != nil {
		return nil, err
	}
	historyTxs, err := s.store.ListTransactionsSince(ctx, accountID, monthAdd(monthYear, -s.trendWindowMonths)+"-01")
	if err != nil {
		return nil, err
	}
	spendByMonth := bucketByMonth(historyTxs, monthYear)

	summary := &domain.MonthSummary{
		MonthYear:     monthYear,
		Budgets:       make([]domain.BudgetSummary, 0, len(budgets)),
		Uncategorized: UncategorizedForMonth(monthTxs),
	}

	for i := range budgets {
		b := &budgets[i]
		if !b.Active {
			continue
		}
		versions, verr := s.store.ListBudgetVersions(ctx, b.ID)
		if verr != nil {
			return nil, verr
		}
		if ClassifyBudget(versions, monthYear) != domain.BudgetStateActive {
			if len(versions) == 0 {
				s.metrics.IncrBudgetAnomaly("no_versions")
				s.logger.Warn("budget has zero versions, excluded from summary",
					zap.Int64("account_id", accountID),
					zap.Int64("budget_id", b.ID))
			}
			continue
		}
		version, ok := ResolveVersion(versions, monthYear)
		if !ok {
			continue
		}

		spent := SumBudgetSpend(b, monthTxs)
		history := make([]int64, 0, len(spendByMonth))
		for _, txs := range spendByMonth {
			history = append(history, SumBudgetSpend(b, txs).Cents())
		}

		summary.Budgets = append(summary.Budgets,
			BuildBudgetSummary(b, version.AllocatedAmount, spent, history, monthYear))
	}

	s.metrics.IncrBudgetSummary()
	s.cache.Set(cacheKey, summary)
	return summary, nil
}

// normalizeMonth validates "YYYY-MM" input, defaulting empty to the
// current calendar month.
func (s *BudgetService) normalizeMonth(monthYear string) (string, error) {
	if monthYear == "" {
		return s.now().Format(domain.MonthLayout), nil
	}
	if !monthYearRe.MatchString(monthYear) {
		return "", &domain.ErrValidation{Field: "month", Message: "must be formatted YYYY-MM"}
	}
	return monthYear, nil
}

// bucketByMonth groups history transactions by month, excluding the
// month under summary so the trend baseline is strictly trailing.
func bucketByMonth(txs []domain.Transaction, excludeMonth string) map[string][]domain.Transaction {
	out := map[string][]domain.Transaction{}
	for i := range txs {
		m := txs[i].Month()
		if m == "" || m >= excludeMonth {
			continue
		}
		out[m] = append(out[m], txs[i])
	}
	return out
}

// monthAdd shifts a "YYYY-MM" month by delta months.
func monthAdd(monthYear string, delta int) string {
	t, err := time.Parse(domain.MonthLayout, monthYear)
	if err != nil {
		return monthYear
	}
	return t.AddDate(0, delta, 0).Format(domain.MonthLayout)
}
