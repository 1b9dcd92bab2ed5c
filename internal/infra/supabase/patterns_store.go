package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/huishoudboekje/backend/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

type patternRow struct {
	ID                   int64     `json:"id,omitempty"`
	AccountID            int64     `json:"account_id"`
	Description          string    `json:"description"`
	MatchTypeDescription string    `json:"match_type_description"`
	Notes                string    `json:"notes"`
	MatchTypeNotes       string    `json:"match_type_notes"`
	Tag                  string    `json:"tag"`
	TransactionType      string    `json:"transaction_type"`
	MinAmountCents       *int64    `json:"min_amount_cents"`
	MaxAmountCents       *int64    `json:"max_amount_cents"`
	StartDate            string    `json:"start_date"`
	EndDate              string    `json:"end_date"`
	Strict               bool      `json:"strict"`
	Enabled              bool      `json:"enabled"`
	CategoryID           *int64    `json:"category_id"`
	SavingsAccountID     *int64    `json:"savings_account_id"`
	UniqueHash           string    `json:"unique_hash"`
	CreatedAt            time.Time `json:"created_at,omitempty"`
}

func (r *patternRow) toDomain() domain.Pattern {
	p := domain.Pattern{
		ID:                   r.ID,
		AccountID:            r.AccountID,
		Description:          r.Description,
		MatchTypeDescription: domain.MatchType(r.MatchTypeDescription),
		Notes:                r.Notes,
		MatchTypeNotes:       domain.MatchType(r.MatchTypeNotes),
		Tag:                  r.Tag,
		TransactionType:      domain.TransactionType(r.TransactionType),
		StartDate:            r.StartDate,
		EndDate:              r.EndDate,
		Strict:               r.Strict,
		Enabled:              r.Enabled,
		CategoryID:           r.CategoryID,
		SavingsAccountID:     r.SavingsAccountID,
		UniqueHash:           r.UniqueHash,
		CreatedAt:            r.CreatedAt,
	}
	if r.MinAmountCents != nil {
		m := domain.FromCents(*r.MinAmountCents)
		p.MinAmount = &m
	}
	if r.MaxAmountCents != nil {
		m := domain.FromCents(*r.MaxAmountCents)
		p.MaxAmount = &m
	}
	return p
}

func patternToRow(p *domain.Pattern) patternRow {
	r := patternRow{
		AccountID:            p.AccountID,
		Description:          p.Description,
		MatchTypeDescription: string(p.MatchTypeDescription),
		Notes:                p.Notes,
		MatchTypeNotes:       string(p.MatchTypeNotes),
		Tag:                  p.Tag,
		TransactionType:      string(p.TransactionType),
		StartDate:            p.StartDate,
		EndDate:              p.EndDate,
		Strict:               p.Strict,
		Enabled:              p.Enabled,
		CategoryID:           p.CategoryID,
		SavingsAccountID:     p.SavingsAccountID,
		UniqueHash:           p.UniqueHash,
	}
	if p.MinAmount != nil {
		v := p.MinAmount.Cents()
		r.MinAmountCents = &v
	}
	if p.MaxAmount != nil {
		v := p.MaxAmount.Cents()
		r.MaxAmountCents = &v
	}
	return r
}

// ListPatterns returns an account's classification patterns.
func (c *Client) ListPatterns(ctx context.Context, accountID int64) ([]domain.Pattern, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPatterns")
	defer span.End()
	span.SetAttributes(attribute.Int64("account.id", accountID))

	var rows []patternRow
	err := c.execute(ctx, func() error {
		body, err := c.doGet(ctx, fmt.Sprintf("patterns?account_id=eq.%d&order=id.asc", accountID))
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

	out := make([]domain.Pattern, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// CreatePattern inserts a pattern and returns the stored row.
func (c *Client) CreatePattern(ctx context.Context, p *domain.Pattern) (*domain.Pattern, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreatePattern")
	defer span.End()
	span.SetAttributes(attribute.Int64("account.id", p.AccountID))

	var created *domain.Pattern
	err := c.execute(ctx, func() error {
		body, err := c.doPost(ctx, "patterns", patternToRow(p), "return=representation")
		if err != nil {
			return err
		}
		var rows []patternRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("supabase: pattern insert returned no row")
		}
		cp := rows[0].toDomain()
		created = &cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeletePattern removes a pattern scoped to its account.
func (c *Client) DeletePattern(ctx context.Context, accountID, patternID int64) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeletePattern")
	defer span.End()

	return c.execute(ctx, func() error {
		return c.doDelete(ctx, fmt.Sprintf("patterns?account_id=eq.%d&id=eq.%d", accountID, patternID))
	})
}

// PatternHashExists checks whether the account already stores a pattern
// with the given identity hash.
func (c *Client) PatternHashExists(ctx context.Context, accountID int64, uniqueHash string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Supabase.PatternHashExists")
	defer span.End()

	exists := false
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("patterns?account_id=eq.%d&unique_hash=eq.%s&select=id&limit=1",
			accountID, url.QueryEscape(uniqueHash))
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		exists = body != nil && string(body) != "[]"
		return nil
	})
	return exists, err
}
