package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huishoudboekje/backend/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

type transactionRow struct {
	ID                  int64  `json:"id"`
	AccountID           int64  `json:"account_id"`
	Date                string `json:"date"`
	Description         string `json:"description"`
	Notes               string `json:"notes"`
	Tag                 string `json:"tag"`
	TransactionType     string `json:"transaction_type"`
	AmountCents         int64  `json:"amount_cents"`
	BalanceAfterCents   int64  `json:"balance_after_cents"`
	CategoryID          *int64 `json:"category_id"`
	SavingsAccountID    *int64 `json:"savings_account_id"`
	ParentTransactionID *int64 `json:"parent_transaction_id"`
}

func (r *transactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:                  r.ID,
		AccountID:           r.AccountID,
		Date:                r.Date,
		Description:         r.Description,
		Notes:               r.Notes,
		Tag:                 r.Tag,
		TransactionType:     domain.TransactionType(r.TransactionType),
		Amount:              domain.FromCents(r.AmountCents),
		BalanceAfter:        domain.FromCents(r.BalanceAfterCents),
		CategoryID:          r.CategoryID,
		SavingsAccountID:    r.SavingsAccountID,
		ParentTransactionID: r.ParentTransactionID,
	}
}

func (c *Client) listTransactions(ctx context.Context, path string) ([]domain.Transaction, error) {
	var rows []transactionRow
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

	out := make([]domain.Transaction, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// ListTransactions returns an account's full transaction history,
// oldest first.
func (c *Client) ListTransactions(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.Int64("account.id", accountID))

	return c.listTransactions(ctx,
		fmt.Sprintf("transactions?account_id=eq.%d&order=date.asc,id.asc", accountID))
}

// ListTransactionsByMonth returns one calendar month of transactions.
func (c *Client) ListTransactionsByMonth(ctx context.Context, accountID int64, monthYear string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactionsByMonth")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("account.id", accountID),
		attribute.String("month", monthYear),
	)

	from := monthYear + "-01"
	until := from
	if t, err := time.Parse(domain.DateLayout, from); err == nil {
		until = t.AddDate(0, 1, 0).Format(domain.DateLayout)
	}
	return c.listTransactions(ctx,
		fmt.Sprintf("transactions?account_id=eq.%d&date=gte.%s&date=lt.%s&order=date.asc,id.asc",
			accountID, from, until))
}

// ListTransactionsSince returns transactions dated on or after fromDate.
func (c *Client) ListTransactionsSince(ctx context.Context, accountID int64, fromDate string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactionsSince")
	defer span.End()
	span.SetAttributes(attribute.Int64("account.id", accountID))

	return c.listTransactions(ctx,
		fmt.Sprintf("transactions?account_id=eq.%d&date=gte.%s&order=date.asc,id.asc",
			accountID, fromDate))
}
