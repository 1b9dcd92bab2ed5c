package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huishoudboekje/backend/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

type budgetRow struct {
	ID        int64  `json:"id"`
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Icon      string `json:"icon"`
	Active    bool   `json:"active"`
	// Embedded budget_categories rows via PostgREST resource embedding.
	Categories []struct {
		CategoryID int64 `json:"category_id"`
	} `json:"budget_categories"`
}

func (r *budgetRow) toDomain() domain.Budget {
	b := domain.Budget{
		ID:        r.ID,
		AccountID: r.AccountID,
		Name:      r.Name,
		Type:      domain.BudgetType(r.Type),
		Icon:      r.Icon,
		Active:    r.Active,
	}
	b.CategoryIDs = make([]int64, 0, len(r.Categories))
	for _, c := range r.Categories {
		b.CategoryIDs = append(b.CategoryIDs, c.CategoryID)
	}
	return b
}

type budgetVersionRow struct {
	ID                   int64  `json:"id"`
	BudgetID             int64  `json:"budget_id"`
	AllocatedAmountCents int64  `json:"allocated_amount_cents"`
	EffectiveFromMonth   string `json:"effective_from_month"`
	EffectiveUntilMonth  string `json:"effective_until_month"`
	IsCurrent            bool   `json:"is_current"`
}

func (r *budgetVersionRow) toDomain() domain.BudgetVersion {
	return domain.BudgetVersion{
		ID:                  r.ID,
		BudgetID:            r.BudgetID,
		AllocatedAmount:     domain.FromCents(r.AllocatedAmountCents),
		EffectiveFromMonth:  r.EffectiveFromMonth,
		EffectiveUntilMonth: r.EffectiveUntilMonth,
		IsCurrent:           r.IsCurrent,
	}
}

const budgetSelect = "select=*,budget_categories(category_id)"

// ListBudgets returns an account's budgets with their category links.
func (c *Client) ListBudgets(ctx context.Context, accountID int64) ([]domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBudgets")
	defer span.End()
	span.SetAttributes(attribute.Int64("account.id", accountID))

	var rows []budgetRow
	err := c.execute(ctx, func() error {
		body, err := c.doGet(ctx, fmt.Sprintf("budgets?account_id=eq.%d&%s&order=id.asc", accountID, budgetSelect))
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

	out := make([]domain.Budget, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// GetBudget fetches one budget scoped to its account.
func (c *Client) GetBudget(ctx context.Context, accountID, budgetID int64) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBudget")
	defer span.End()
	span.SetAttributes(attribute.Int64("budget.id", budgetID))

	var budget *domain.Budget
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("budgets?account_id=eq.%d&id=eq.%d&%s&limit=1", accountID, budgetID, budgetSelect)
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			return notFound("budget", budgetID)
		}
		var rows []budgetRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return err
		}
		if len(rows) == 0 {
			return notFound("budget", budgetID)
		}
		b := rows[0].toDomain()
		budget = &b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// ListBudgetVersions returns a budget's versions, oldest first.
func (c *Client) ListBudgetVersions(ctx context.Context, budgetID int64) ([]domain.BudgetVersion, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBudgetVersions")
	defer span.End()
	span.SetAttributes(attribute.Int64("budget.id", budgetID))

	var rows []budgetVersionRow
	err := c.execute(ctx, func() error {
		body, err := c.doGet(ctx, fmt.Sprintf("budget_versions?budget_id=eq.%d&order=effective_from_month.asc", budgetID))
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

	out := make([]domain.BudgetVersion, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}
