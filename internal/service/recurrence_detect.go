package service

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/huishoudboekje/backend/internal/domain"
	"github.com/huishoudboekje/backend/internal/stats"
)

// minOccurrences is the floor below which a merchant group is never
// considered, regardless of interval regularity.
const minOccurrences = 3

// confidenceSaturation is the occurrence count at which the confidence
// score stops growing with more occurrences.
const confidenceSaturation = 6.0

// frequencyPolicy describes one frequency bucket: the day-gap window
// that counts as "in rhythm", the minimum number of occurrences needed
// to claim the bucket, and the average interval used for prediction.
type frequencyPolicy struct {
	freq           domain.Frequency
	minDays        int
	maxDays        int
	minOccurrences int
	averageDays    int
}

var frequencyPolicies = []frequencyPolicy{
	{domain.FrequencyWeekly, 6, 8, 6, 7},
	{domain.FrequencyBiweekly, 13, 15, 4, 14},
	{domain.FrequencyMonthly, 28, 31, 3, 30},
	{domain.FrequencyQuarterly, 85, 95, 2, 90},
	{domain.FrequencyYearly, 360, 370, 2, 365},
}

// DetectOptions tunes a detector run.
type DetectOptions struct {
	// LookbackDays restricts the history window; 0 means all history.
	LookbackDays int
	// Now anchors the lookback cutoff; zero value means time.Now().
	Now time.Time
}

// occurrence is one dated charge inside a merchant group.
type occurrence struct {
	date   time.Time
	amount int64 // magnitude in cents
}

// merchantGroup collects a merchant's occurrences after normalization.
type merchantGroup struct {
	key         string
	displayName string
	txType      domain.TransactionType
	occurrences []occurrence
}

// DetectionStats reports what a detector run saw, for observability.
type DetectionStats struct {
	ConsideredGroups int // merchant groups with enough occurrences
	QualifiedGroups  int // groups that classified into a frequency
	SkippedRows      int // source rows dropped for malformed dates
}

// DetectRecurring runs the pure detection algorithm over an account's
// transaction history and returns the inferred recurring transactions
// plus run statistics. It never fails: an empty history yields an
// empty result.
func DetectRecurring(accountID int64, history []domain.Transaction, opts DetectOptions) ([]domain.RecurringTransaction, DetectionStats) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	var cutoff time.Time
	if opts.LookbackDays > 0 {
		cutoff = now.AddDate(0, 0, -opts.LookbackDays)
	}

	groups, skipped := groupByMerchant(accountID, history, cutoff)
	mergeNearDuplicateGroups(groups)

	st := DetectionStats{SkippedRows: skipped}
	var out []domain.RecurringTransaction
	for _, g := range groups {
		if len(g.occurrences) < minOccurrences {
			continue
		}
		st.ConsideredGroups++
		if rt, ok := classifyGroup(accountID, g); ok {
			st.QualifiedGroups++
			out = append(out, rt)
		}
	}

	// Deterministic output order for idempotent re-runs.
	sort.Slice(out, func(i, j int) bool {
		if out[i].MerchantKey != out[j].MerchantKey {
			return out[i].MerchantKey < out[j].MerchantKey
		}
		return out[i].TransactionType < out[j].TransactionType
	})
	return out, st
}

// groupByMerchant buckets history by (normalized description, type),
// excluding split children and rows outside the lookback window.
// Malformed dates are counted and skipped, never fatal.
func groupByMerchant(accountID int64, history []domain.Transaction, cutoff time.Time) ([]*merchantGroup, int) {
	byKey := map[string]*merchantGroup{}
	var order []string
	skipped := 0

	for i := range history {
		tx := &history[i]
		if tx.AccountID != accountID || tx.ParentTransactionID != nil {
			continue
		}
		date, ok := tx.ParsedDate()
		if !ok {
			skipped++
			continue
		}
		if !cutoff.IsZero() && date.Before(cutoff) {
			continue
		}

		key := NormalizeMerchantKey(tx.Description)
		if key == "" {
			continue
		}
		mapKey := key + "\x00" + string(tx.TransactionType)
		g, exists := byKey[mapKey]
		if !exists {
			g = &merchantGroup{
				key:         key,
				displayName: strings.TrimSpace(tx.Description),
				txType:      tx.TransactionType,
			}
			byKey[mapKey] = g
			order = append(order, mapKey)
		}
		g.occurrences = append(g.occurrences, occurrence{date: date, amount: tx.Amount.Abs().Cents()})
	}

	groups := make([]*merchantGroup, 0, len(order))
	for _, k := range order {
		groups = append(groups, byKey[k])
	}
	return groups, skipped
}

// mergeNearDuplicateGroups folds merchant keys that differ only by a
// character or two ("albert heijn 1273" vs "albert heyn 1273" after
// normalization) into the larger group. Only same-type groups merge.
func mergeNearDuplicateGroups(groups []*merchantGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].occurrences) > len(groups[j].occurrences)
	})
	for i, g := range groups {
		if g == nil || len(g.key) < 6 {
			continue
		}
		for j := i + 1; j < len(groups); j++ {
			o := groups[j]
			if o == nil || o.txType != g.txType || len(o.key) < 6 {
				continue
			}
			if levenshtein.ComputeDistance(g.key, o.key) <= 2 {
				g.occurrences = append(g.occurrences, o.occurrences...)
				groups[j] = nil
			}
		}
	}
	// compact in place
	w := 0
	for _, g := range groups {
		if g != nil {
			groups[w] = g
			w++
		}
	}
	for i := w; i < len(groups); i++ {
		groups[i] = nil
	}
}

// classifyGroup computes gaps, picks the best-fitting frequency bucket,
// and scores the group. Returns false when no bucket qualifies.
func classifyGroup(accountID int64, g *merchantGroup) (domain.RecurringTransaction, bool) {
	occ := g.occurrences
	sort.Slice(occ, func(i, j int) bool { return occ[i].date.Before(occ[j].date) })

	gaps := make([]int, 0, len(occ)-1)
	for i := 1; i < len(occ); i++ {
		gaps = append(gaps, daysBetween(occ[i-1].date, occ[i].date))
	}
	if len(gaps) == 0 {
		return domain.RecurringTransaction{}, false
	}

	meanGap := 0.0
	for _, d := range gaps {
		meanGap += float64(d)
	}
	meanGap /= float64(len(gaps))

	best := -1
	bestCount := 0
	for i, pol := range frequencyPolicies {
		if len(occ) < pol.minOccurrences {
			continue
		}
		count := 0
		for _, d := range gaps {
			if d >= pol.minDays && d <= pol.maxDays {
				count++
			}
		}
		if count == 0 {
			continue
		}
		switch {
		case count > bestCount:
			best, bestCount = i, count
		case count == bestCount && best >= 0:
			// tie: prefer the bucket whose average interval sits
			// closest to the observed mean gap
			if absFloat(float64(pol.averageDays)-meanGap) < absFloat(float64(frequencyPolicies[best].averageDays)-meanGap) {
				best = i
			}
		}
	}
	if best < 0 {
		return domain.RecurringTransaction{}, false
	}
	pol := frequencyPolicies[best]

	consistency := float64(bestCount) / float64(len(gaps))
	confidence := consistency * minFloat(1, float64(len(occ))/confidenceSaturation)
	if confidence > 1 {
		confidence = 1
	}

	amounts := make([]int64, len(occ))
	minAmt, maxAmt := occ[0].amount, occ[0].amount
	for i, o := range occ {
		amounts[i] = o.amount
		if o.amount < minAmt {
			minAmt = o.amount
		}
		if o.amount > maxAmt {
			maxAmt = o.amount
		}
	}
	predicted := stats.MeanCents(amounts)
	variancePct := 0.0
	if predicted != 0 && maxAmt != minAmt {
		variancePct = float64(maxAmt-minAmt) / float64(predicted) * 100
	}

	last := occ[len(occ)-1].date
	next := last.AddDate(0, 0, pol.averageDays)

	return domain.RecurringTransaction{
		AccountID:           accountID,
		MerchantKey:         g.key,
		DisplayName:         g.displayName,
		TransactionType:     g.txType,
		Frequency:           pol.freq,
		PredictedAmount:     domain.FromCents(predicted),
		AmountVariancePct:   variancePct,
		Confidence:          confidence,
		IntervalConsistency: consistency,
		OccurrenceCount:     len(occ),
		LastOccurrence:      last.Format(domain.DateLayout),
		NextExpected:        next.Format(domain.DateLayout),
		Active:              true,
	}, true
}

// expectedWindowExceeded reports whether an existing recurring charge
// has gone quiet: its next expected date plus the bucket's full window
// (and any configured extra grace days) has passed without a new
// occurrence.
func expectedWindowExceeded(rt *domain.RecurringTransaction, now time.Time, extraGraceDays int) bool {
	next, err := time.Parse(domain.DateLayout, rt.NextExpected)
	if err != nil {
		return false
	}
	grace := extraGraceDays
	for _, pol := range frequencyPolicies {
		if pol.freq == rt.Frequency {
			grace += pol.maxDays
			break
		}
	}
	return now.After(next.AddDate(0, 0, grace))
}

// NormalizeMerchantKey derives the grouping key from a raw bank
// statement description: lower-cased, whitespace collapsed, and
// trailing reference tokens (card numbers, IBANs, sequence numbers,
// dates) stripped so "Spotify AB 48213" and "Spotify AB 48991" land in
// the same group.
func NormalizeMerchantKey(description string) string {
	tokens := strings.Fields(strings.ToLower(strings.TrimSpace(description)))
	for len(tokens) > 1 && isReferenceToken(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// isReferenceToken reports whether a trailing token looks like a
// reference rather than part of the merchant name: all digits, a
// digit-dominated code (IBAN, terminal id), or a date.
func isReferenceToken(tok string) bool {
	if tok == "" {
		return false
	}
	digits := 0
	for _, r := range tok {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if digits == len(tok) {
		return true
	}
	// date-like: 01-03-2025, 2025/03/01
	stripped := strings.Map(func(r rune) rune {
		if r == '-' || r == '/' || r == '.' || r == ':' {
			return -1
		}
		return r
	}, tok)
	allDigits := true
	for _, r := range stripped {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits && len(stripped) >= 4 {
		return true
	}
	// digit-dominated codes such as NL12INGB0001234567
	return len(tok) >= 4 && digits*10 >= len(tok)*6
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
