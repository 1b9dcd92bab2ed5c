package service

import (
	"github.com/huishoudboekje/backend/internal/domain"
	"github.com/huishoudboekje/backend/internal/stats"
)

// Status thresholds as percentage of allocation consumed.
const (
	statusExcellentBelowPct = 50.0
	statusGoodBelowPct      = 80.0
	statusWarningBelowPct   = 100.0
)

// trendStableBandPct is the ± band within which month-over-median spend
// counts as stable.
const trendStableBandPct = 10.0

// SumBudgetSpend totals the month's transactions that belong to any of
// the budget's categories, sign-normalized by budget type: EXPENSE and
// PROJECT budgets count debits, INCOME budgets count credits. The
// result is a magnitude, never negative.
func SumBudgetSpend(b *domain.Budget, txs []domain.Transaction) domain.Money {
	catSet := make(map[int64]struct{}, len(b.CategoryIDs))
	for _, id := range b.CategoryIDs {
		catSet[id] = struct{}{}
	}

	var total domain.Money
	for i := range txs {
		tx := &txs[i]
		if tx.CategoryID == nil {
			continue
		}
		if _, ok := catSet[*tx.CategoryID]; !ok {
			continue
		}
		if !countsForBudgetType(b.Type, tx.TransactionType) {
			continue
		}
		total = total.Add(tx.Amount.Abs())
	}
	return total
}

func countsForBudgetType(bt domain.BudgetType, tt domain.TransactionType) bool {
	switch bt {
	case domain.BudgetIncome:
		return tt == domain.TransactionCredit
	default: // EXPENSE, PROJECT
		return tt == domain.TransactionDebit
	}
}

// BuildBudgetSummary assembles one summary row from a resolved
// allocation, the month's spend and the trailing per-month spend
// history (cents, for the same category set). All ratio computations
// guard zero denominators and return 0 instead.
func BuildBudgetSummary(b *domain.Budget, allocated, spent domain.Money, history []int64, monthYear string) domain.BudgetSummary {
	remaining := allocated.Sub(spent)

	var spentPct float64
	if allocated > 0 {
		spentPct = float64(spent) / float64(allocated) * 100
	}

	median := stats.MedianCents(history)
	var trendPct float64
	if median > 0 {
		trendPct = (float64(spent) - float64(median)) / float64(median) * 100
	}

	direction := domain.TrendStable
	switch {
	case trendPct > trendStableBandPct:
		direction = domain.TrendIncreasing
	case trendPct < -trendStableBandPct:
		direction = domain.TrendDecreasing
	}

	return domain.BudgetSummary{
		BudgetID:         b.ID,
		BudgetName:       b.Name,
		BudgetType:       b.Type,
		AllocatedAmount:  allocated,
		SpentAmount:      spent,
		RemainingAmount:  remaining,
		SpentPercentage:  spentPct,
		MonthYear:        monthYear,
		IsOverspent:      b.Type == domain.BudgetExpense && spent > allocated,
		Status:           statusForPercentage(spentPct),
		TrendPercentage:  trendPct,
		TrendDirection:   direction,
		HistoricalMedian: domain.FromCents(median),
		CategoryCount:    len(b.CategoryIDs),
	}
}

func statusForPercentage(pct float64) domain.BudgetStatus {
	switch {
	case pct < statusExcellentBelowPct:
		return domain.StatusExcellent
	case pct < statusGoodBelowPct:
		return domain.StatusGood
	case pct < statusWarningBelowPct:
		return domain.StatusWarning
	default:
		return domain.StatusOver
	}
}

// UncategorizedForMonth reports the month's transactions attributed to
// no category and no savings account. Split children are excluded so a
// split parent is not double counted with its parts.
func UncategorizedForMonth(txs []domain.Transaction) domain.UncategorizedStats {
	var out domain.UncategorizedStats
	for i := range txs {
		tx := &txs[i]
		if tx.CategoryID != nil || tx.SavingsAccountID != nil || tx.ParentTransactionID != nil {
			continue
		}
		out.TotalAmount = out.TotalAmount.Add(tx.Amount.Abs())
		out.Count++
	}
	return out
}
