package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/huishoudboekje/backend/internal/domain"
	"github.com/huishoudboekje/backend/internal/handler"
	"github.com/huishoudboekje/backend/internal/infra/cache"
	"github.com/huishoudboekje/backend/internal/infra/observability"
	"github.com/huishoudboekje/backend/internal/infra/resilience"
	"github.com/huishoudboekje/backend/internal/infra/supabase"
	"github.com/huishoudboekje/backend/internal/service"

	"go.uber.org/zap"
)

// fakePostgREST mimics the handful of Supabase PostgREST endpoints the
// store talks to, keeping upserted recurring rows in memory so a detect
// run can be read back through the API.
type fakePostgREST struct {
	mu           sync.Mutex
	accounts     []domain.Account
	transactions []domain.Transaction
	recurring    []domain.RecurringTransaction
}

func (f *fakePostgREST) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/rest/v1/accounts" && r.Method == http.MethodGet:
			id := r.URL.Query().Get("id")
			if id == "" {
				json.NewEncoder(w).Encode(f.accounts)
				return
			}
			out := []domain.Account{}
			for _, a := range f.accounts {
				if id == fmt.Sprintf("eq.%d", a.ID) {
					out = append(out, a)
				}
			}
			json.NewEncoder(w).Encode(out)

		case r.URL.Path == "/rest/v1/transactions" && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(f.transactions)

		case r.URL.Path == "/rest/v1/recurring_transactions" && r.Method == http.MethodGet:
			activeOnly := strings.Contains(r.URL.RawQuery, "active=is.true")
			out := []domain.RecurringTransaction{}
			for _, rt := range f.recurring {
				if !activeOnly || rt.Active {
					out = append(out, rt)
				}
			}
			json.NewEncoder(w).Encode(out)

		case r.URL.Path == "/rest/v1/recurring_transactions" && r.Method == http.MethodPost:
			var rows []domain.RecurringTransaction
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			for _, row := range rows {
				replaced := false
				for i := range f.recurring {
					if f.recurring[i].ID == row.ID {
						f.recurring[i] = row
						replaced = true
					}
				}
				if !replaced {
					f.recurring = append(f.recurring, row)
				}
			}
			w.WriteHeader(http.StatusCreated)

		case r.URL.Path == "/rest/v1/recurring_transactions" && r.Method == http.MethodDelete:
			// The store only issues not.in deletes here; keep everything
			// it upserted and drop the rest.
			keep := f.recurring[:0]
			for _, rt := range f.recurring {
				if !strings.Contains(r.URL.RawQuery, "id=not.in.") ||
					strings.Contains(r.URL.RawQuery, rt.ID) {
					keep = append(keep, rt)
				}
			}
			f.recurring = keep
			w.WriteHeader(http.StatusNoContent)

		case r.Method == http.MethodPatch:
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newRouter(t *testing.T, baseURL string) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("test")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 4}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	store := supabase.NewClient(httpClient, baseURL, "anon", "service", cb, cfg, metrics, logger)

	svcs := handler.Services{
		Accounts: service.NewAccountService(store, logger),
		Patterns: service.NewPatternService(store, metrics, logger),
		Recurrence: service.NewRecurrenceService(store, service.RecurrenceConfig{
			AutoDeactivate: false, // fixtures carry fixed dates, the wall clock must not deactivate them
			MaxConcurrency: 2,
		}, metrics, logger),
		Budgets:  service.NewBudgetService(store, cache.New[*domain.MonthSummary](time.Minute), 12, metrics, logger),
		Forecast: service.NewForecastService(store, metrics, logger),

		SuggestionsEnabled: true,
	}
	return handler.NewRouter(svcs, metrics, logger)
}

// TestIntegration_DetectAndList runs a full detect flow against a fake
// PostgREST backend and reads the persisted set back through the API.
func TestIntegration_DetectAndList(t *testing.T) {
	fake := &fakePostgREST{
		accounts: []domain.Account{
			{ID: 1, Name: "Betaalrekening", IBAN: "NL91ABNA0417164300", IsDefault: true},
		},
	}
	for m := 1; m <= 6; m++ {
		fake.transactions = append(fake.transactions, domain.Transaction{
			ID:              int64(m),
			AccountID:       1,
			Date:            fmt.Sprintf("2025-%02d-05", m),
			Description:     "Spotify AB",
			TransactionType: domain.TransactionDebit,
			Amount:          domain.FromCents(1099),
		})
	}
	// One-off purchase, should not qualify.
	fake.transactions = append(fake.transactions, domain.Transaction{
		ID: 100, AccountID: 1, Date: "2025-03-14", Description: "Coolblue BV",
		TransactionType: domain.TransactionDebit, Amount: domain.FromCents(49900),
	})

	backend := httptest.NewServer(fake.handler())
	defer backend.Close()

	router := newRouter(t, backend.URL)

	req := httptest.NewRequest(http.MethodPost, "/v1/accounts/1/recurring/detect", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("detect: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	var result domain.DetectionResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode detect response: %v", err)
	}
	if len(result.Recurring) != 1 {
		t.Fatalf("expected 1 recurring transaction, got %d", len(result.Recurring))
	}
	got := result.Recurring[0]
	if got.MerchantKey != "spotify ab" {
		t.Errorf("merchant key: got %q", got.MerchantKey)
	}
	if got.Frequency != domain.FrequencyMonthly {
		t.Errorf("frequency: got %q", got.Frequency)
	}
	if got.PredictedAmount.Cents() != 1099 {
		t.Errorf("predicted amount: got %d", got.PredictedAmount.Cents())
	}
	if got.ID == "" {
		t.Error("expected a generated id")
	}

	// The set must now be readable through the list endpoint.
	req = httptest.NewRequest(http.MethodGet, "/v1/accounts/1/recurring?active=true", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var listed []domain.RecurringTransaction
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != got.ID {
		t.Fatalf("expected the persisted entry, got %+v", listed)
	}
}

// TestIntegration_AccountNotFound tests 404 mapping for unknown accounts.
func TestIntegration_AccountNotFound(t *testing.T) {
	fake := &fakePostgREST{
		accounts: []domain.Account{{ID: 1, Name: "Betaalrekening", IsDefault: true}},
	}
	backend := httptest.NewServer(fake.handler())
	defer backend.Close()

	router := newRouter(t, backend.URL)

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d. Body: %s", rec.Code, rec.Body.String())
	}
}
