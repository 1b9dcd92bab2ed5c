package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huishoudboekje/backend/internal/domain"
	"github.com/huishoudboekje/backend/internal/infra/cache"
	"github.com/huishoudboekje/backend/internal/infra/observability"
	"github.com/huishoudboekje/backend/internal/service"

	"go.uber.org/zap"
)

func newBudgetService(store *mockStore) *service.BudgetService {
	c := cache.New[*domain.MonthSummary](time.Minute)
	svc := service.NewBudgetService(store, c, 12, observability.NewMetrics(), zap.NewNop())
	service.SetBudgetNowForTest(svc, func() time.Time {
		return time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	})
	return svc
}

func seedBudgetFixtures(store *mockStore) {
	store.accounts = []domain.Account{{ID: 1}}
	store.budgets = []domain.Budget{
		{ID: 1, AccountID: 1, Name: "Boodschappen", Type: domain.BudgetExpense, Active: true, CategoryIDs: []int64{10}},
	}
	store.versions[1] = []domain.BudgetVersion{
		{ID: 1, BudgetID: 1, AllocatedAmount: domain.FromCents(40000), EffectiveFromMonth: "2024-01", IsCurrent: true},
	}
	// Current month: 300 spent of 400 budget.
	store.transactions = []domain.Transaction{
		{ID: 1, AccountID: 1, Date: "2025-03-02", CategoryID: int64Ptr(10), TransactionType: domain.TransactionDebit, Amount: domain.FromCents(-20000)},
		{ID: 2, AccountID: 1, Date: "2025-03-20", CategoryID: int64Ptr(10), TransactionType: domain.TransactionDebit, Amount: domain.FromCents(-10000)},
		{ID: 3, AccountID: 1, Date: "2025-03-21", TransactionType: domain.TransactionDebit, Amount: domain.FromCents(-1250)},
	}
	// Two trailing months of history at 250 each.
	for m, month := range []string{"2025-01", "2025-02"} {
		store.transactions = append(store.transactions, domain.Transaction{
			ID: int64(100 + m), AccountID: 1, Date: month + "-10",
			CategoryID: int64Ptr(10), TransactionType: domain.TransactionDebit,
			Amount: domain.FromCents(-25000),
		})
	}
}

func TestBudgetService_Summarize(t *testing.T) {
	store := newMockStore()
	seedBudgetFixtures(store)
	svc := newBudgetService(store)

	got, err := svc.Summarize(context.Background(), 1, "2025-03")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if len(got.Budgets) != 1 {
		t.Fatalf("expected 1 budget row, got %d", len(got.Budgets))
	}

	row := got.Budgets[0]
	if row.SpentAmount.Cents() != 30000 {
		t.Errorf("spent = %d, want 30000", row.SpentAmount.Cents())
	}
	if row.RemainingAmount.Cents() != 10000 {
		t.Errorf("remaining = %d, want 10000", row.RemainingAmount.Cents())
	}
	if row.SpentPercentage != 75.0 {
		t.Errorf("spent pct = %f, want 75.0", row.SpentPercentage)
	}
	if row.Status != domain.StatusGood {
		t.Errorf("status = %s, want good", row.Status)
	}
	if row.HistoricalMedian.Cents() != 25000 {
		t.Errorf("median = %d, want 25000", row.HistoricalMedian.Cents())
	}
	if row.TrendDirection != domain.TrendIncreasing {
		t.Errorf("30000 vs median 25000 is +20%%, want increasing, got %s", row.TrendDirection)
	}

	if got.Uncategorized.Count != 1 || got.Uncategorized.TotalAmount.Cents() != 1250 {
		t.Errorf("uncategorized = %+v, want count 1 / 1250", got.Uncategorized)
	}
}

func TestBudgetService_SummarizeUsesCache(t *testing.T) {
	store := newMockStore()
	seedBudgetFixtures(store)
	svc := newBudgetService(store)
	ctx := context.Background()

	first, err := svc.Summarize(ctx, 1, "2025-03")
	if err != nil {
		t.Fatalf("first: %v", err)
	}

	// A failing store no longer matters for a memoized month.
	store.err = errors.New("store down")
	second, err := svc.Summarize(ctx, 1, "2025-03")
	if err != nil {
		t.Fatalf("cached call hit the store: %v", err)
	}
	if first != second {
		t.Error("expected the memoized summary instance")
	}
}

func TestBudgetService_SummarizeDefaultsToCurrentMonth(t *testing.T) {
	store := newMockStore()
	seedBudgetFixtures(store)
	svc := newBudgetService(store)

	got, err := svc.Summarize(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got.MonthYear != "2025-03" {
		t.Errorf("empty month should default to the pinned current month, got %s", got.MonthYear)
	}
}

func TestBudgetService_SummarizeRejectsBadMonth(t *testing.T) {
	store := newMockStore()
	svc := newBudgetService(store)

	for _, bad := range []string{"2025-13", "2025-3", "03-2025", "garbage"} {
		_, err := svc.Summarize(context.Background(), 1, bad)
		var verr *domain.ErrValidation
		if !errors.As(err, &verr) {
			t.Errorf("month %q: expected validation error, got %v", bad, err)
		}
	}
}

func TestBudgetService_SummarizeSkipsInactiveAndUncovered(t *testing.T) {
	store := newMockStore()
	seedBudgetFixtures(store)
	store.budgets = append(store.budgets,
		domain.Budget{ID: 2, AccountID: 1, Name: "Oud project", Type: domain.BudgetProject, Active: false},
		domain.Budget{ID: 3, AccountID: 1, Name: "Vakantie 2026", Type: domain.BudgetExpense, Active: true},
	)
	store.versions[3] = []domain.BudgetVersion{
		{ID: 5, BudgetID: 3, EffectiveFromMonth: "2026-01"},
	}
	svc := newBudgetService(store)

	got, err := svc.Summarize(context.Background(), 1, "2025-03")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if len(got.Budgets) != 1 {
		t.Errorf("inactive and future budgets must be excluded, got %d rows", len(got.Budgets))
	}
}

func TestBudgetService_State(t *testing.T) {
	store := newMockStore()
	seedBudgetFixtures(store)
	svc := newBudgetService(store)
	ctx := context.Background()

	state, err := svc.State(ctx, 1, 1, "2025-03")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state != domain.BudgetStateActive {
		t.Errorf("state = %s, want active", state)
	}

	state, err = svc.State(ctx, 1, 1, "2023-01")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state != domain.BudgetStateFuture {
		t.Errorf("state = %s, want future", state)
	}

	_, err = svc.State(ctx, 1, 99, "2025-03")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Errorf("unknown budget: expected not-found, got %v", err)
	}
}

func TestBudgetService_StateZeroVersions(t *testing.T) {
	store := newMockStore()
	store.accounts = []domain.Account{{ID: 1}}
	store.budgets = []domain.Budget{{ID: 7, AccountID: 1, Name: "Kaal", Type: domain.BudgetExpense, Active: true}}
	svc := newBudgetService(store)

	state, err := svc.State(context.Background(), 1, 7, "2025-03")
	if err != nil {
		t.Fatalf("zero versions must not error: %v", err)
	}
	if state != domain.BudgetStateIndeterminate {
		t.Errorf("state = %s, want indeterminate", state)
	}
}
