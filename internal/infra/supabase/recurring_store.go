package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huishoudboekje/backend/internal/domain"
	"github.com/huishoudboekje/backend/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

type recurringRow struct {
	ID                   string  `json:"id"`
	AccountID            int64   `json:"account_id"`
	MerchantKey          string  `json:"merchant_key"`
	DisplayName          string  `json:"display_name"`
	TransactionType      string  `json:"transaction_type"`
	Frequency            string  `json:"frequency"`
	PredictedAmountCents int64   `json:"predicted_amount_cents"`
	AmountVariancePct    float64 `json:"amount_variance_pct"`
	Confidence           float64 `json:"confidence"`
	IntervalConsistency  float64 `json:"interval_consistency"`
	OccurrenceCount      int     `json:"occurrence_count"`
	LastOccurrence       string  `json:"last_occurrence"`
	NextExpected         string  `json:"next_expected"`
	Active               bool    `json:"active"`
	CategoryID           *int64  `json:"category_id"`
}

func (r *recurringRow) toDomain() domain.RecurringTransaction {
	return domain.RecurringTransaction{
		ID:                  r.ID,
		AccountID:           r.AccountID,
		MerchantKey:         r.MerchantKey,
		DisplayName:         r.DisplayName,
		TransactionType:     domain.TransactionType(r.TransactionType),
		Frequency:           domain.Frequency(r.Frequency),
		PredictedAmount:     domain.FromCents(r.PredictedAmountCents),
		AmountVariancePct:   r.AmountVariancePct,
		Confidence:          r.Confidence,
		IntervalConsistency: r.IntervalConsistency,
		OccurrenceCount:     r.OccurrenceCount,
		LastOccurrence:      r.LastOccurrence,
		NextExpected:        r.NextExpected,
		Active:              r.Active,
		CategoryID:          r.CategoryID,
	}
}

func recurringToRow(rt *domain.RecurringTransaction) recurringRow {
	return recurringRow{
		ID:                   rt.ID,
		AccountID:            rt.AccountID,
		MerchantKey:          rt.MerchantKey,
		DisplayName:          rt.DisplayName,
		TransactionType:      string(rt.TransactionType),
		Frequency:            string(rt.Frequency),
		PredictedAmountCents: rt.PredictedAmount.Cents(),
		AmountVariancePct:    rt.AmountVariancePct,
		Confidence:           rt.Confidence,
		IntervalConsistency:  rt.IntervalConsistency,
		OccurrenceCount:      rt.OccurrenceCount,
		LastOccurrence:       rt.LastOccurrence,
		NextExpected:         rt.NextExpected,
		Active:               rt.Active,
		CategoryID:           rt.CategoryID,
	}
}

// ListRecurring returns an account's recurring transactions.
func (c *Client) ListRecurring(ctx context.Context, accountID int64, activeOnly bool) ([]domain.RecurringTransaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListRecurring")
	defer span.End()
	span.SetAttributes(attribute.Int64("account.id", accountID))

	path := fmt.Sprintf("recurring_transactions?account_id=eq.%d&order=merchant_key.asc", accountID)
	if activeOnly {
		path += "&active=is.true"
	}

	var rows []recurringRow
	err := c.execute(ctx, func() error {
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

	out := make([]domain.RecurringTransaction, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// ReplaceRecurringSet applies a detector run's full replacement set:
// upsert every row by id, then delete rows the run no longer produces.
// Both statements run inside one breaker execution so a concurrent
// re-run for the same account cannot interleave between them.
func (c *Client) ReplaceRecurringSet(ctx context.Context, accountID int64, set []domain.RecurringTransaction) error {
	ctx, span := tracer.Start(ctx, "Supabase.ReplaceRecurringSet")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("account.id", accountID),
		attribute.Int("set.size", len(set)),
	)

	rows := make([]recurringRow, len(set))
	keepIDs := make([]string, len(set))
	for i := range set {
		rows[i] = recurringToRow(&set[i])
		keepIDs[i] = set[i].ID
	}

	return c.execute(ctx, func() error {
		if len(rows) > 0 {
			if _, err := c.doPost(ctx, "recurring_transactions?on_conflict=id", rows,
				"resolution=merge-duplicates,return=minimal"); err != nil {
				return err
			}
		}

		deletePath := fmt.Sprintf("recurring_transactions?account_id=eq.%d", accountID)
		if len(keepIDs) > 0 {
			deletePath += fmt.Sprintf("&id=not.in.(%s)", strings.Join(keepIDs, ","))
		}
		return c.doDelete(ctx, deletePath)
	})
}

// DeactivateRecurring clears the active flag on one recurring
// transaction.
func (c *Client) DeactivateRecurring(ctx context.Context, accountID int64, recurringID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeactivateRecurring")
	defer span.End()
	span.SetAttributes(attribute.String("recurring.id", recurringID))

	return c.execute(ctx, func() error {
		// Verify the row exists within the account before patching, so
		// callers get a proper not-found instead of a silent no-op.
		path := fmt.Sprintf("recurring_transactions?account_id=eq.%d&id=eq.%s&select=id&limit=1", accountID, recurringID)
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			return resilience.NonRetryable(&domain.ErrNotFound{Resource: "recurring_transaction", ID: recurringID})
		}
		return c.doPatch(ctx, fmt.Sprintf("recurring_transactions?account_id=eq.%d&id=eq.%s", accountID, recurringID), map[string]any{
			"active": false,
		})
	})
}
