package service_test

import (
	"context"
	"strconv"

	"github.com/huishoudboekje/backend/internal/domain"
)

// mockStore is a hand-rolled in-memory FinanceStore for service tests.
type mockStore struct {
	accounts     []domain.Account
	transactions []domain.Transaction
	patterns     []domain.Pattern
	budgets      []domain.Budget
	versions     map[int64][]domain.BudgetVersion
	recurring    map[int64][]domain.RecurringTransaction
	forecast     []domain.ForecastItem

	err          error // when set, every call fails with it
	replaceCalls int
	nextID       int64
}

func newMockStore() *mockStore {
	return &mockStore{
		versions:  map[int64][]domain.BudgetVersion{},
		recurring: map[int64][]domain.RecurringTransaction{},
		nextID:    1000,
	}
}

func (m *mockStore) ListAccounts(_ context.Context) ([]domain.Account, error) {
	return m.accounts, m.err
}

func (m *mockStore) GetAccount(_ context.Context, accountID int64) (*domain.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.accounts {
		if m.accounts[i].ID == accountID {
			return &m.accounts[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "account", ID: strconv.FormatInt(accountID, 10)}
}

func (m *mockStore) SetDefaultAccount(_ context.Context, accountID int64) error {
	if m.err != nil {
		return m.err
	}
	for i := range m.accounts {
		m.accounts[i].IsDefault = m.accounts[i].ID == accountID
	}
	return nil
}

func (m *mockStore) ListTransactions(_ context.Context, accountID int64) ([]domain.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Transaction
	for _, tx := range m.transactions {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *mockStore) ListTransactionsByMonth(_ context.Context, accountID int64, monthYear string) ([]domain.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Transaction
	for _, tx := range m.transactions {
		if tx.AccountID == accountID && tx.Month() == monthYear {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *mockStore) ListTransactionsSince(_ context.Context, accountID int64, fromDate string) ([]domain.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Transaction
	for _, tx := range m.transactions {
		if tx.AccountID == accountID && tx.Date >= fromDate {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *mockStore) ListPatterns(_ context.Context, accountID int64) ([]domain.Pattern, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Pattern
	for _, p := range m.patterns {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockStore) CreatePattern(_ context.Context, p *domain.Pattern) (*domain.Pattern, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	created := *p
	created.ID = m.nextID
	m.patterns = append(m.patterns, created)
	return &created, nil
}

func (m *mockStore) DeletePattern(_ context.Context, accountID, patternID int64) error {
	if m.err != nil {
		return m.err
	}
	for i, p := range m.patterns {
		if p.AccountID == accountID && p.ID == patternID {
			m.patterns = append(m.patterns[:i], m.patterns[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "pattern", ID: strconv.FormatInt(patternID, 10)}
}

func (m *mockStore) PatternHashExists(_ context.Context, accountID int64, uniqueHash string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, p := range m.patterns {
		if p.AccountID == accountID && p.UniqueHash == uniqueHash {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) ListBudgets(_ context.Context, accountID int64) ([]domain.Budget, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Budget
	for _, b := range m.budgets {
		if b.AccountID == accountID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockStore) GetBudget(_ context.Context, accountID, budgetID int64) (*domain.Budget, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.budgets {
		if m.budgets[i].AccountID == accountID && m.budgets[i].ID == budgetID {
			return &m.budgets[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "budget", ID: strconv.FormatInt(budgetID, 10)}
}

func (m *mockStore) ListBudgetVersions(_ context.Context, budgetID int64) ([]domain.BudgetVersion, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.versions[budgetID], nil
}

func (m *mockStore) ListRecurring(_ context.Context, accountID int64, activeOnly bool) ([]domain.RecurringTransaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.RecurringTransaction
	for _, rt := range m.recurring[accountID] {
		if activeOnly && !rt.Active {
			continue
		}
		out = append(out, rt)
	}
	return out, nil
}

func (m *mockStore) ReplaceRecurringSet(_ context.Context, accountID int64, set []domain.RecurringTransaction) error {
	if m.err != nil {
		return m.err
	}
	m.replaceCalls++
	m.recurring[accountID] = append([]domain.RecurringTransaction(nil), set...)
	return nil
}

func (m *mockStore) DeactivateRecurring(_ context.Context, accountID int64, recurringID string) error {
	if m.err != nil {
		return m.err
	}
	set := m.recurring[accountID]
	for i := range set {
		if set[i].ID == recurringID {
			set[i].Active = false
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "recurring_transaction", ID: recurringID}
}

func (m *mockStore) ListForecastItems(_ context.Context, accountID int64, monthYear string) ([]domain.ForecastItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.ForecastItem
	for _, it := range m.forecast {
		if it.AccountID == accountID && it.MonthYear == monthYear {
			out = append(out, it)
		}
	}
	return out, nil
}
