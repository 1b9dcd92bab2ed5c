// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain and
// service layers from the persistence adapter.
package port

import (
	"context"

	"github.com/huishoudboekje/backend/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// FinanceStore defines all data operations the services need.
// Implemented by the Supabase adapter (or any other persistence layer).
// All reads/writes are account-scoped; the store never mixes tenants.
type FinanceStore interface {
	// Accounts
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	GetAccount(ctx context.Context, accountID int64) (*domain.Account, error)
	SetDefaultAccount(ctx context.Context, accountID int64) error

	// Transactions (read-only here; import pipeline writes them)
	ListTransactions(ctx context.Context, accountID int64) ([]domain.Transaction, error)
	ListTransactionsByMonth(ctx context.Context, accountID int64, monthYear string) ([]domain.Transaction, error)
	ListTransactionsSince(ctx context.Context, accountID int64, fromDate string) ([]domain.Transaction, error)

	// Patterns
	ListPatterns(ctx context.Context, accountID int64) ([]domain.Pattern, error)
	CreatePattern(ctx context.Context, p *domain.Pattern) (*domain.Pattern, error)
	DeletePattern(ctx context.Context, accountID, patternID int64) error
	PatternHashExists(ctx context.Context, accountID int64, uniqueHash string) (bool, error)

	// Budgets + versions
	ListBudgets(ctx context.Context, accountID int64) ([]domain.Budget, error)
	GetBudget(ctx context.Context, accountID, budgetID int64) (*domain.Budget, error)
	ListBudgetVersions(ctx context.Context, budgetID int64) ([]domain.BudgetVersion, error)

	// Recurring transactions. ReplaceRecurringSet applies a detector
	// run's full replacement set as one logical transaction so a
	// concurrent re-run for the same account cannot interleave.
	ListRecurring(ctx context.Context, accountID int64, activeOnly bool) ([]domain.RecurringTransaction, error)
	ReplaceRecurringSet(ctx context.Context, accountID int64, set []domain.RecurringTransaction) error
	DeactivateRecurring(ctx context.Context, accountID int64, recurringID string) error

	// Forecast items
	ListForecastItems(ctx context.Context, accountID int64, monthYear string) ([]domain.ForecastItem, error)
}
