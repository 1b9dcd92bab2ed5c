package service

import (
	"github.com/huishoudboekje/backend/internal/domain"
)

// ClassifyBudget resolves a budget's state relative to a reference
// month ("YYYY-MM"). Month strings compare lexicographically on
// purpose (see domain.MonthLayout).
//
// A budget is Active for a month when some version covers it, Future
// when every version starts later, Expired when every version ended
// earlier, and Indeterminate when there are no versions at all; callers
// treat Indeterminate as not-active.
func ClassifyBudget(versions []domain.BudgetVersion, referenceMonth string) domain.BudgetState {
	if len(versions) == 0 {
		return domain.BudgetStateIndeterminate
	}

	allFuture := true
	allExpired := true
	for i := range versions {
		v := &versions[i]
		if v.EffectiveFromMonth <= referenceMonth {
			allFuture = false
		}
		if v.EffectiveUntilMonth == "" || v.EffectiveUntilMonth >= referenceMonth {
			allExpired = false
		}
		if versionCoversMonth(v, referenceMonth) {
			return domain.BudgetStateActive
		}
	}

	if allFuture {
		return domain.BudgetStateFuture
	}
	if allExpired {
		return domain.BudgetStateExpired
	}
	// Gap between versions: neither future nor expired nor covered.
	// Treated the same as expired for the queried month.
	return domain.BudgetStateExpired
}

// versionCoversMonth reports whether a version's month range includes
// the reference month, until-bound inclusive and empty meaning open.
func versionCoversMonth(v *domain.BudgetVersion, referenceMonth string) bool {
	if v.EffectiveFromMonth > referenceMonth {
		return false
	}
	return v.EffectiveUntilMonth == "" || v.EffectiveUntilMonth >= referenceMonth
}

// ResolveVersion returns the version covering the reference month.
// Overlapping ranges are tolerated: the one with the latest
// EffectiveFromMonth wins, current-flagged versions breaking ties.
func ResolveVersion(versions []domain.BudgetVersion, referenceMonth string) (*domain.BudgetVersion, bool) {
	var best *domain.BudgetVersion
	for i := range versions {
		v := &versions[i]
		if !versionCoversMonth(v, referenceMonth) {
			continue
		}
		if best == nil ||
			v.EffectiveFromMonth > best.EffectiveFromMonth ||
			(v.EffectiveFromMonth == best.EffectiveFromMonth && v.IsCurrent && !best.IsCurrent) {
			best = v
		}
	}
	return best, best != nil
}

// IsCurrentlyActive reports present-moment activity via the current
// flag. Month-bounded queries must use ClassifyBudget instead: the flag
// reflects only the present.
func IsCurrentlyActive(versions []domain.BudgetVersion) bool {
	for i := range versions {
		if versions[i].IsCurrent {
			return true
		}
	}
	return false
}
