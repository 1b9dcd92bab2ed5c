package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/huishoudboekje/backend/internal/domain"
	"github.com/huishoudboekje/backend/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

type accountRow struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IBAN      string    `json:"iban"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *accountRow) toDomain() domain.Account {
	return domain.Account{
		ID:        r.ID,
		Name:      r.Name,
		IBAN:      r.IBAN,
		IsDefault: r.IsDefault,
		CreatedAt: r.CreatedAt,
	}
}

// ListAccounts returns all accounts, default first.
func (c *Client) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAccounts")
	defer span.End()

	var rows []accountRow
	err := c.execute(ctx, func() error {
		body, err := c.doGet(ctx, "accounts?order=is_default.desc,id.asc")
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

	out := make([]domain.Account, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// GetAccount fetches one account by id.
func (c *Client) GetAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAccount")
	defer span.End()
	span.SetAttributes(attribute.Int64("account.id", accountID))

	var account *domain.Account
	err := c.execute(ctx, func() error {
		body, err := c.doGet(ctx, fmt.Sprintf("accounts?id=eq.%d&limit=1", accountID))
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			return notFound("account", accountID)
		}
		var rows []accountRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return err
		}
		if len(rows) == 0 {
			return notFound("account", accountID)
		}
		a := rows[0].toDomain()
		account = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// SetDefaultAccount flips the default flag to the given account: the
// old default is cleared first so at most one row carries it.
func (c *Client) SetDefaultAccount(ctx context.Context, accountID int64) error {
	ctx, span := tracer.Start(ctx, "Supabase.SetDefaultAccount")
	defer span.End()
	span.SetAttributes(attribute.Int64("account.id", accountID))

	return c.execute(ctx, func() error {
		if err := c.doPatch(ctx, fmt.Sprintf("accounts?is_default=eq.true&id=neq.%d", accountID), map[string]any{
			"is_default": false,
		}); err != nil {
			return err
		}
		return c.doPatch(ctx, fmt.Sprintf("accounts?id=eq.%d", accountID), map[string]any{
			"is_default": true,
		})
	})
}

// notFound marks a missing row as permanent so the retry policy fails
// fast and handlers still see the domain error.
func notFound(resource string, id int64) error {
	return resilience.NonRetryable(&domain.ErrNotFound{Resource: resource, ID: strconv.FormatInt(id, 10)})
}
