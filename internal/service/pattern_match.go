// Package service provides the business logic layer (use cases):
// pattern matching, recurrence detection, budget resolution and
// summarization, and forecasting.
package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/huishoudboekje/backend/internal/domain"
)

// ValidatePattern rejects patterns that can never match meaningfully:
// zero criteria, or contradictory amount/date bounds. Callers validate
// at creation time; the matcher itself fails closed instead.
func ValidatePattern(p *domain.Pattern) error {
	if p.Description == "" && p.Notes == "" && p.Tag == "" &&
		p.TransactionType == "" && p.MinAmount == nil && p.MaxAmount == nil &&
		p.StartDate == "" && p.EndDate == "" {
		return &domain.ErrInvalidPattern{Reason: "no criteria set"}
	}
	if p.MinAmount != nil && p.MaxAmount != nil && *p.MinAmount > *p.MaxAmount {
		return &domain.ErrInvalidPattern{Reason: "min amount exceeds max amount"}
	}
	// YYYY-MM-DD compares correctly as a string.
	if p.StartDate != "" && p.EndDate != "" && p.StartDate > p.EndDate {
		return &domain.ErrInvalidPattern{Reason: "start date after end date"}
	}
	return nil
}

// Matches evaluates a single pattern against a transaction. Criteria
// present on the pattern are AND-ed; absent criteria are "don't care",
// never "must be empty". Invalid patterns never match (fail closed) so
// one bad row cannot break a batch evaluation.
func Matches(tx *domain.Transaction, p *domain.Pattern) bool {
	if ValidatePattern(p) != nil {
		return false
	}

	if p.Description != "" && !textMatches(tx.Description, p.Description, p.MatchTypeDescription, p.Strict) {
		return false
	}
	if p.Notes != "" && !textMatches(tx.Notes, p.Notes, p.MatchTypeNotes, p.Strict) {
		return false
	}
	if p.Tag != "" {
		if tx.Tag == "" && !p.Strict {
			// lenient mode: missing field on the transaction is skipped
		} else if !strings.EqualFold(strings.TrimSpace(tx.Tag), strings.TrimSpace(p.Tag)) {
			return false
		}
	}
	if p.TransactionType != "" && tx.TransactionType != p.TransactionType {
		return false
	}

	if p.MinAmount != nil || p.MaxAmount != nil {
		magnitude := tx.Amount.Abs()
		if p.MinAmount != nil && magnitude < p.MinAmount.Abs() {
			return false
		}
		if p.MaxAmount != nil && magnitude > p.MaxAmount.Abs() {
			return false
		}
	}

	if p.StartDate != "" || p.EndDate != "" {
		if _, ok := tx.ParsedDate(); !ok {
			return false
		}
		if p.StartDate != "" && tx.Date < p.StartDate {
			return false
		}
		if p.EndDate != "" && tx.Date > p.EndDate {
			return false
		}
	}

	return true
}

// textMatches compares a transaction field against a pattern criterion.
// EXACT compares whole trimmed fields case-insensitively; LIKE (the
// default) requires a case-insensitive substring. In lenient mode an
// empty transaction field skips the criterion; strict makes every set
// criterion required.
func textMatches(field, criterion string, mode domain.MatchType, strict bool) bool {
	field = strings.TrimSpace(field)
	criterion = strings.TrimSpace(criterion)
	if field == "" {
		return !strict
	}
	if mode == domain.MatchExact {
		return strings.EqualFold(field, criterion)
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(criterion))
}

// FindConflicts evaluates a transaction against all enabled candidate
// patterns. Conflict is raised when more than one pattern of the same
// target kind (category vs. savings account) matches; the tie is
// surfaced for user review, never auto-resolved.
func FindConflicts(tx *domain.Transaction, candidates []domain.Pattern) domain.MatchResult {
	result := domain.MatchResult{MatchedPatternIDs: []int64{}}
	perKind := map[domain.TargetKind]int{}

	for i := range candidates {
		p := &candidates[i]
		if !p.Enabled {
			continue
		}
		if Matches(tx, p) {
			result.MatchedPatternIDs = append(result.MatchedPatternIDs, p.ID)
			perKind[p.Target()]++
		}
	}

	for _, n := range perKind {
		if n > 1 {
			result.Conflict = true
			break
		}
	}
	return result
}

// ComputeUniqueHash derives the deterministic dedup hash for a pattern
// proposal from its identity fields. Computed once at creation;
// criteria edits afterwards do not change it.
func ComputeUniqueHash(accountID int64, description, notes string, categoryID, savingsAccountID *int64) string {
	catID := int64(0)
	if categoryID != nil {
		catID = *categoryID
	}
	savID := int64(0)
	if savingsAccountID != nil {
		savID = *savingsAccountID
	}
	payload := fmt.Sprintf("%d|%s|%s|%d|%d",
		accountID,
		normalizeText(description),
		normalizeText(notes),
		catID,
		savID,
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// normalizeText lower-cases and collapses internal whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
