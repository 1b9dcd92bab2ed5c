package service

import (
	"context"

	"github.com/huishoudboekje/backend/internal/domain"
	"github.com/huishoudboekje/backend/internal/infra/observability"
	"github.com/huishoudboekje/backend/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var patternTracer = otel.Tracer("service/pattern")

// PatternService manages classification patterns: validation on create,
// hash-based dedup, transaction checking and suggestion generation.
type PatternService struct {
	store   port.FinanceStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewPatternService creates a new pattern service.
func NewPatternService(store port.FinanceStore, metrics *observability.Metrics, logger *zap.Logger) *PatternService {
	return &PatternService{store: store, metrics: metrics, logger: logger}
}

// List returns all patterns for an account.
func (s *PatternService) List(ctx context.Context, accountID int64) ([]domain.Pattern, error) {
	ctx, span := patternTracer.Start(ctx, "PatternService.List")
	defer span.End()
	span.SetAttributes(attribute.Int64("account.id", accountID))

	return s.store.ListPatterns(ctx, accountID)
}

// Create validates the pattern, computes its identity hash and stores
// it. A pattern whose hash already exists for the account is rejected
// with ErrDuplicate. The hash is computed once here and never updated.
func (s *PatternService) Create(ctx context.Context, p *domain.Pattern) (*domain.Pattern, error) {
	ctx, span := patternTracer.Start(ctx, "PatternService.Create")
	defer span.End()
	span.SetAttributes(attribute.Int64("account.id", p.AccountID))

	if err := ValidatePattern(p); err != nil {
		return nil, err
	}
	if p.CategoryID != nil && p.SavingsAccountID != nil {
		return nil, &domain.ErrInvalidPattern{Reason: "pattern cannot target both a category and a savings account"}
	}
	if p.CategoryID == nil && p.SavingsAccountID == nil {
		return nil, &domain.ErrInvalidPattern{Reason: "pattern must target a category or a savings account"}
	}

	p.UniqueHash = ComputeUniqueHash(p.AccountID, p.Description, p.Notes, p.CategoryID, p.SavingsAccountID)

	exists, err := s.store.PatternHashExists(ctx, p.AccountID, p.UniqueHash)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &domain.ErrDuplicate{Key: p.UniqueHash}
	}

	created, err := s.store.CreatePattern(ctx, p)
	if err != nil {
		return nil, err
	}

	s.logger.Info("pattern created",
		zap.Int64("account_id", created.AccountID),
		zap.Int64("pattern_id", created.ID),
		zap.String("target", string(created.Target())))
	return created, nil
}

// Delete removes a pattern. Already-classified transactions keep their
// assignment; deletion only stops future matches.
func (s *PatternService) Delete(ctx context.Context, accountID, patternID int64) error {
	ctx, span := patternTracer.Start(ctx, "PatternService.Delete")
	defer span.End()

	return s.store.DeletePattern(ctx, accountID, patternID)
}

// CheckTransaction evaluates a transaction against the account's
// enabled patterns and reports matches plus any same-target conflict.
func (s *PatternService) CheckTransaction(ctx context.Context, accountID int64, tx *domain.Transaction) (*domain.MatchResult, error) {
	ctx, span := patternTracer.Start(ctx, "PatternService.CheckTransaction")
	defer span.End()
	span.SetAttributes(attribute.Int64("account.id", accountID))

	patterns, err := s.store.ListPatterns(ctx, accountID)
	if err != nil {
		return nil, err
	}

	s.metrics.IncrPatternEval()
	result := FindConflicts(tx, patterns)
	if result.Conflict {
		s.metrics.IncrPatternConflict()
		s.logger.Info("ambiguous classification, leaving for review",
			zap.Int64("account_id", accountID),
			zap.Int64("transaction_id", tx.ID),
			zap.Int64s("pattern_ids", result.MatchedPatternIDs))
	}
	return &result, nil
}

// Suggestions derives pattern proposals from the account's active
// recurring transactions. Merchants already covered by an existing
// pattern (same normalized description) are filtered out, so accepting
// a suggestion and re-requesting the list converges.
func (s *PatternService) Suggestions(ctx context.Context, accountID int64) ([]domain.PatternSuggestion, error) {
	ctx, span := patternTracer.Start(ctx, "PatternService.Suggestions")
	defer span.End()
	span.SetAttributes(attribute.Int64("account.id", accountID))

	recurring, err := s.store.ListRecurring(ctx, accountID, true)
	if err != nil {
		return nil, err
	}
	patterns, err := s.store.ListPatterns(ctx, accountID)
	if err != nil {
		return nil, err
	}
	covered := make(map[string]struct{}, len(patterns))
	for i := range patterns {
		covered[normalizeText(patterns[i].Description)] = struct{}{}
	}

	var out []domain.PatternSuggestion
	for i := range recurring {
		rt := &recurring[i]
		if rt.CategoryID != nil {
			continue // already linked, nothing to suggest
		}
		if _, ok := covered[normalizeText(rt.MerchantKey)]; ok {
			continue // an accepted pattern already covers this merchant
		}
		out = append(out, domain.PatternSuggestion{
			AccountID:       accountID,
			Description:     rt.MerchantKey,
			MatchType:       domain.MatchLike,
			TransactionType: rt.TransactionType,
			UniqueHash:      ComputeUniqueHash(accountID, rt.MerchantKey, "", nil, nil),
			Confidence:      rt.Confidence,
			SampleCount:     rt.OccurrenceCount,
		})
	}

	s.logger.Debug("pattern suggestions computed",
		zap.Int64("account_id", accountID),
		zap.Int("count", len(out)))
	return out, nil
}
