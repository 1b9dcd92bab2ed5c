package service_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/huishoudboekje/backend/internal/domain"
	"github.com/huishoudboekje/backend/internal/service"
)

// monthlyHistory builds n same-merchant debits on the 1st of
// consecutive months starting at 2025-01-01.
func monthlyHistory(accountID int64, description string, cents int64, n int) []domain.Transaction {
	txs := make([]domain.Transaction, 0, n)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		txs = append(txs, domain.Transaction{
			ID:              int64(i + 1),
			AccountID:       accountID,
			Date:            start.AddDate(0, i, 0).Format(domain.DateLayout),
			Description:     description,
			TransactionType: domain.TransactionDebit,
			Amount:          domain.FromCents(-cents),
		})
	}
	return txs
}

func TestDetectRecurring_Monthly(t *testing.T) {
	history := monthlyHistory(1, "Spotify AB", 1299, 6)

	got, st := service.DetectRecurring(1, history, service.DetectOptions{
		Now: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 recurring transaction, got %d", len(got))
	}
	rt := got[0]

	if rt.Frequency != domain.FrequencyMonthly {
		t.Errorf("frequency = %s, want monthly", rt.Frequency)
	}
	if rt.OccurrenceCount != 6 {
		t.Errorf("occurrence count = %d, want 6", rt.OccurrenceCount)
	}
	if rt.IntervalConsistency != 1.0 {
		t.Errorf("interval consistency = %f, want 1.0", rt.IntervalConsistency)
	}
	if rt.Confidence < 0.8 {
		t.Errorf("confidence = %f, want >= 0.8", rt.Confidence)
	}
	if rt.PredictedAmount.Cents() != 1299 {
		t.Errorf("predicted amount = %d, want 1299", rt.PredictedAmount.Cents())
	}
	if rt.AmountVariancePct != 0 {
		t.Errorf("variance = %f, want 0 for identical amounts", rt.AmountVariancePct)
	}
	if rt.LastOccurrence != "2025-06-01" {
		t.Errorf("last occurrence = %s, want 2025-06-01", rt.LastOccurrence)
	}
	// last date + 30 days
	if rt.NextExpected != "2025-07-01" {
		t.Errorf("next expected = %s, want 2025-07-01", rt.NextExpected)
	}
	if st.SkippedRows != 0 {
		t.Errorf("skipped rows = %d, want 0", st.SkippedRows)
	}
	if st.QualifiedGroups != 1 {
		t.Errorf("qualified groups = %d, want 1", st.QualifiedGroups)
	}
}

func TestDetectRecurring_InsufficientOccurrences(t *testing.T) {
	history := monthlyHistory(1, "Netflix BV", 1599, 2)

	got, _ := service.DetectRecurring(1, history, service.DetectOptions{})
	if len(got) != 0 {
		t.Errorf("2 occurrences must never qualify, got %d results", len(got))
	}
}

func TestDetectRecurring_WeeklyNeedsSixOccurrences(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	var history []domain.Transaction
	for i := 0; i < 4; i++ {
		history = append(history, domain.Transaction{
			ID:              int64(i + 1),
			AccountID:       1,
			Date:            start.AddDate(0, 0, 7*i).Format(domain.DateLayout),
			Description:     "Sportschool",
			TransactionType: domain.TransactionDebit,
			Amount:          domain.FromCents(-750),
		})
	}

	// 4 perfectly weekly occurrences: below the weekly bucket's floor,
	// and the gaps fit no other bucket.
	got, _ := service.DetectRecurring(1, history, service.DetectOptions{})
	if len(got) != 0 {
		t.Errorf("4 weekly occurrences should not qualify, got %d", len(got))
	}

	for i := 4; i < 7; i++ {
		history = append(history, domain.Transaction{
			ID:              int64(i + 1),
			AccountID:       1,
			Date:            start.AddDate(0, 0, 7*i).Format(domain.DateLayout),
			Description:     "Sportschool",
			TransactionType: domain.TransactionDebit,
			Amount:          domain.FromCents(-750),
		})
	}
	got, _ = service.DetectRecurring(1, history, service.DetectOptions{})
	if len(got) != 1 || got[0].Frequency != domain.FrequencyWeekly {
		t.Fatalf("7 weekly occurrences should classify weekly, got %+v", got)
	}
}

func TestDetectRecurring_IdempotentRerun(t *testing.T) {
	history := monthlyHistory(1, "Ziggo Services", 4550, 5)
	history = append(history, monthlyHistory(1, "Eneco Energie", 11000, 4)...)

	opts := service.DetectOptions{Now: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)}
	first, _ := service.DetectRecurring(1, history, opts)
	second, _ := service.DetectRecurring(1, history, opts)

	if len(first) != len(second) {
		t.Fatalf("re-run changed result count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("re-run diverged at %d:\n%+v\n%+v", i, first[i], second[i])
		}
	}
}

func TestDetectRecurring_SkipsMalformedDatesAndSplits(t *testing.T) {
	history := monthlyHistory(1, "Spotify AB", 1299, 4)
	parent := int64(1)
	history = append(history,
		domain.Transaction{ID: 90, AccountID: 1, Date: "31-01-2025", Description: "Spotify AB", TransactionType: domain.TransactionDebit, Amount: domain.FromCents(-1299)},
		domain.Transaction{ID: 91, AccountID: 1, Date: "2025-02-15", Description: "Spotify AB", TransactionType: domain.TransactionDebit, Amount: domain.FromCents(-1299), ParentTransactionID: &parent},
		domain.Transaction{ID: 92, AccountID: 2, Date: "2025-02-16", Description: "Spotify AB", TransactionType: domain.TransactionDebit, Amount: domain.FromCents(-1299)},
	)

	got, st := service.DetectRecurring(1, history, service.DetectOptions{})
	if st.SkippedRows != 1 {
		t.Errorf("skipped rows = %d, want 1 (only the malformed date)", st.SkippedRows)
	}
	if len(got) != 1 || got[0].OccurrenceCount != 4 {
		t.Fatalf("split children and other accounts must not join the group: %+v", got)
	}
}

func TestDetectRecurring_EmptyHistory(t *testing.T) {
	got, st := service.DetectRecurring(1, nil, service.DetectOptions{})
	if len(got) != 0 || st.SkippedRows != 0 {
		t.Errorf("empty history should yield empty result, got %v (%+v)", got, st)
	}
}

func TestDetectRecurring_AmountVariance(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	amounts := []int64{9000, 10000, 11000} // mean 10000, spread 2000
	var history []domain.Transaction
	for i, cents := range amounts {
		history = append(history, domain.Transaction{
			ID:              int64(i + 1),
			AccountID:       1,
			Date:            start.AddDate(0, i, 0).Format(domain.DateLayout),
			Description:     "Vattenfall",
			TransactionType: domain.TransactionDebit,
			Amount:          domain.FromCents(-cents),
		})
	}

	got, _ := service.DetectRecurring(1, history, service.DetectOptions{})
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got[0].PredictedAmount.Cents() != 10000 {
		t.Errorf("predicted = %d, want mean 10000", got[0].PredictedAmount.Cents())
	}
	if got[0].AmountVariancePct != 20.0 {
		t.Errorf("variance = %f, want 20.0", got[0].AmountVariancePct)
	}
}

func TestDetectRecurring_MergesNearDuplicateMerchants(t *testing.T) {
	// Same subscription, description spelled two ways by the bank.
	history := monthlyHistory(1, "Basic Fit Nederland", 2199, 3)
	extra := monthlyHistory(1, "Basic Fit Nederlans", 2199, 3)
	for i := range extra {
		extra[i].ID += 100
		extra[i].Date = time.Date(2025, time.Month(4+i), 1, 0, 0, 0, 0, time.UTC).Format(domain.DateLayout)
	}
	history = append(history, extra...)

	got, _ := service.DetectRecurring(1, history, service.DetectOptions{})
	if len(got) != 1 {
		t.Fatalf("near-duplicate keys should merge into one group, got %d", len(got))
	}
	if got[0].OccurrenceCount != 6 {
		t.Errorf("occurrence count = %d, want 6 after merge", got[0].OccurrenceCount)
	}
}

func TestDetectRecurring_LookbackWindow(t *testing.T) {
	history := monthlyHistory(1, "Spotify AB", 1299, 6)
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	got, _ := service.DetectRecurring(1, history, service.DetectOptions{
		LookbackDays: 70, // keeps only the last two occurrences
		Now:          now,
	})
	if len(got) != 0 {
		t.Errorf("lookback should leave too few occurrences, got %d", len(got))
	}
}

func TestNormalizeMerchantKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Spotify AB 48213", "spotify ab"},
		{"Spotify AB 48991", "spotify ab"},
		{"  Albert   Heijn  ", "albert heijn"},
		{"NS GROEP IZA 2025-03-14", "ns groep iza"},
		{"SEPA Incasso 0001234567", "sepa incasso"},
		{"12345", "12345"}, // never strip down to nothing
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%q", c.in), func(t *testing.T) {
			if got := service.NormalizeMerchantKey(c.in); got != c.want {
				t.Errorf("NormalizeMerchantKey(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}
