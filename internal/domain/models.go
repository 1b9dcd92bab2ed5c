// Package domain defines the core entities of the huishoudboekje backend:
// transactions, classification patterns, budgets with their time-bounded
// versions, and inferred recurring transactions. Models are plain records
// keyed by integer id; relationship navigation happens through the store,
// never through in-memory object graphs.
package domain

import "time"

// DateLayout is the wire format for transaction and pattern dates.
const DateLayout = "2006-01-02"

// MonthLayout is the wire format for budget month boundaries ("YYYY-MM").
// Months compare lexicographically on purpose: parsing them into dates
// invites timezone off-by-one errors at month boundaries.
const MonthLayout = "2006-01"

// ============================================================
// Transactions
// ============================================================

// TransactionType distinguishes money leaving from money entering.
type TransactionType string

const (
	TransactionDebit  TransactionType = "debit"
	TransactionCredit TransactionType = "credit"
)

// Transaction is an immutable imported financial event. Dates arrive as
// strings from the import layer; consumers parse them and skip records
// whose dates do not parse.
type Transaction struct {
	ID                  int64           `json:"id"`
	AccountID           int64           `json:"account_id"`
	Date                string          `json:"date"` // YYYY-MM-DD
	Description         string          `json:"description"`
	Notes               string          `json:"notes,omitempty"`
	Tag                 string          `json:"tag,omitempty"`
	TransactionType     TransactionType `json:"transaction_type"`
	Amount              Money           `json:"amount_cents"`
	BalanceAfter        Money           `json:"balance_after_cents"`
	CategoryID          *int64          `json:"category_id,omitempty"`
	SavingsAccountID    *int64          `json:"savings_account_id,omitempty"`
	ParentTransactionID *int64          `json:"parent_transaction_id,omitempty"`
}

// ParsedDate parses the transaction date. ok is false for malformed dates.
func (t *Transaction) ParsedDate() (time.Time, bool) {
	d, err := time.Parse(DateLayout, t.Date)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Month returns the "YYYY-MM" prefix of the transaction date, or "" when
// the date is too short to carry one.
func (t *Transaction) Month() string {
	if len(t.Date) < len("2006-01") {
		return ""
	}
	return t.Date[:len("2006-01")]
}

// ============================================================
// Classification patterns
// ============================================================

// MatchType selects substring versus whole-field matching.
type MatchType string

const (
	MatchExact MatchType = "EXACT"
	MatchLike  MatchType = "LIKE"
)

// Pattern is a user- or suggestion-created rule that classifies matching
// transactions into a category or a savings account (mutually exclusive
// targets). The unique hash is computed once at creation and never
// changes; match criteria may be edited afterwards.
type Pattern struct {
	ID                   int64           `json:"id"`
	AccountID            int64           `json:"account_id"`
	Description          string          `json:"description,omitempty"`
	MatchTypeDescription MatchType       `json:"match_type_description,omitempty"`
	Notes                string          `json:"notes,omitempty"`
	MatchTypeNotes       MatchType       `json:"match_type_notes,omitempty"`
	Tag                  string          `json:"tag,omitempty"`
	TransactionType      TransactionType `json:"transaction_type,omitempty"`
	MinAmount            *Money          `json:"min_amount_cents,omitempty"`
	MaxAmount            *Money          `json:"max_amount_cents,omitempty"`
	StartDate            string          `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate              string          `json:"end_date,omitempty"`
	Strict               bool            `json:"strict"`
	Enabled              bool            `json:"enabled"`
	CategoryID           *int64          `json:"category_id,omitempty"`
	SavingsAccountID     *int64          `json:"savings_account_id,omitempty"`
	UniqueHash           string          `json:"unique_hash"`
	CreatedAt            time.Time       `json:"created_at"`
}

// TargetKind says which side a pattern classifies into.
type TargetKind string

const (
	TargetCategory TargetKind = "category"
	TargetSavings  TargetKind = "savings_account"
)

// Target returns the pattern's target kind. Patterns created through the
// API always have exactly one target; savings wins if data ever carries both.
func (p *Pattern) Target() TargetKind {
	if p.SavingsAccountID != nil {
		return TargetSavings
	}
	return TargetCategory
}

// MatchResult is the outcome of evaluating one transaction against a set
// of candidate patterns. Conflict is raised when more than one enabled
// pattern of the same target kind matched; ties are surfaced for user
// review, never auto-resolved.
type MatchResult struct {
	MatchedPatternIDs []int64 `json:"matched_pattern_ids"`
	Conflict          bool    `json:"conflict"`
}

// PatternSuggestion is a proposed pattern derived from a detected
// recurring merchant, pending user acceptance.
type PatternSuggestion struct {
	AccountID       int64           `json:"account_id"`
	Description     string          `json:"description"`
	MatchType       MatchType       `json:"match_type"`
	TransactionType TransactionType `json:"transaction_type"`
	UniqueHash      string          `json:"unique_hash"`
	Confidence      float64         `json:"confidence"`
	SampleCount     int             `json:"sample_count"`
}

// ============================================================
// Recurring transactions (inferred, not user-entered)
// ============================================================

// Frequency buckets for recurring charges.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// RecurringTransaction is a prediction of a periodic merchant charge
// derived from transaction history.
type RecurringTransaction struct {
	ID                  string          `json:"id"` // uuid, assigned at first detection
	AccountID           int64           `json:"account_id"`
	MerchantKey         string          `json:"merchant_key"` // normalized description
	DisplayName         string          `json:"display_name"`
	TransactionType     TransactionType `json:"transaction_type"`
	Frequency           Frequency       `json:"frequency"`
	PredictedAmount     Money           `json:"predicted_amount_cents"`
	AmountVariancePct   float64         `json:"amount_variance_pct"`
	Confidence          float64         `json:"confidence"`
	IntervalConsistency float64         `json:"interval_consistency"`
	OccurrenceCount     int             `json:"occurrence_count"`
	LastOccurrence      string          `json:"last_occurrence"` // YYYY-MM-DD
	NextExpected        string          `json:"next_expected"`
	Active              bool            `json:"active"`
	CategoryID          *int64          `json:"category_id,omitempty"`
}

// DetectionResult is the atomic output of one detector run: the full
// replacement set for the account, plus the number of source records
// skipped for malformed dates. The store diffs-and-upserts the set as a
// single logical transaction.
type DetectionResult struct {
	AccountID   int64                  `json:"account_id"`
	Recurring   []RecurringTransaction `json:"recurring"`
	SkippedRows int                    `json:"skipped_rows"`
}

// UpcomingTransaction projects a recurring charge expected within a
// requested horizon.
type UpcomingTransaction struct {
	RecurringID  string    `json:"recurring_id"`
	DisplayName  string    `json:"display_name"`
	ExpectedDate string    `json:"expected_date"`
	Amount       Money     `json:"amount_cents"`
	Frequency    Frequency `json:"frequency"`
	Confidence   float64   `json:"confidence"`
}

// ============================================================
// Budgets
// ============================================================

// BudgetType drives sign normalization when summarizing spend.
type BudgetType string

const (
	BudgetExpense BudgetType = "EXPENSE"
	BudgetIncome  BudgetType = "INCOME"
	BudgetProject BudgetType = "PROJECT"
)

// Budget groups categories under a named allocation.
type Budget struct {
	ID          int64      `json:"id"`
	AccountID   int64      `json:"account_id"`
	Name        string     `json:"name"`
	Type        BudgetType `json:"type"`
	Icon        string     `json:"icon,omitempty"`
	Active      bool       `json:"active"`
	CategoryIDs []int64    `json:"category_ids"`
}

// BudgetVersion is a time-bounded allocation record. EffectiveUntilMonth
// empty means open-ended. IsCurrent reflects present-moment state only;
// month-bounded queries must use the month range instead.
type BudgetVersion struct {
	ID                  int64  `json:"id"`
	BudgetID            int64  `json:"budget_id"`
	AllocatedAmount     Money  `json:"allocated_amount_cents"`
	EffectiveFromMonth  string `json:"effective_from_month"` // YYYY-MM
	EffectiveUntilMonth string `json:"effective_until_month,omitempty"`
	IsCurrent           bool   `json:"is_current"`
}

// BudgetState classifies a budget relative to a reference month.
type BudgetState string

const (
	BudgetStateFuture        BudgetState = "future"
	BudgetStateActive        BudgetState = "active"
	BudgetStateExpired       BudgetState = "expired"
	BudgetStateIndeterminate BudgetState = "indeterminate"
)

// TrendDirection for month-over-history spend comparison.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// BudgetStatus buckets how much of the allocation is consumed.
type BudgetStatus string

const (
	StatusExcellent BudgetStatus = "excellent"
	StatusGood      BudgetStatus = "good"
	StatusWarning   BudgetStatus = "warning"
	StatusOver      BudgetStatus = "over"
)

// BudgetSummary joins a resolved allocation against actual spend for one
// month.
type BudgetSummary struct {
	BudgetID         int64          `json:"budget_id"`
	BudgetName       string         `json:"budget_name"`
	BudgetType       BudgetType     `json:"budget_type"`
	AllocatedAmount  Money          `json:"allocated_amount_cents"`
	SpentAmount      Money          `json:"spent_amount_cents"`
	RemainingAmount  Money          `json:"remaining_amount_cents"`
	SpentPercentage  float64        `json:"spent_percentage"`
	MonthYear        string         `json:"month_year"`
	IsOverspent      bool           `json:"is_overspent"`
	Status           BudgetStatus   `json:"status"`
	TrendPercentage  float64        `json:"trend_percentage"`
	TrendDirection   TrendDirection `json:"trend_direction"`
	HistoricalMedian Money          `json:"historical_median_cents"`
	CategoryCount    int            `json:"category_count"`
}

// UncategorizedStats reports month transactions not attributed to any
// budget.
type UncategorizedStats struct {
	TotalAmount Money `json:"total_amount_cents"`
	Count       int   `json:"count"`
}

// MonthSummary is the full aggregator output for one account-month.
type MonthSummary struct {
	MonthYear     string             `json:"month_year"`
	Budgets       []BudgetSummary    `json:"budgets"`
	Uncategorized UncategorizedStats `json:"uncategorized"`
}

// ============================================================
// Forecast
// ============================================================

// ForecastItem is a planned income/expense line for a month. Actual is
// computed from the month's transactions when the item links to a budget
// or category.
type ForecastItem struct {
	ID             int64      `json:"id"`
	AccountID      int64      `json:"account_id"`
	MonthYear      string     `json:"month_year"`
	Type           BudgetType `json:"type"`
	BudgetID       *int64     `json:"budget_id,omitempty"`
	CategoryID     *int64     `json:"category_id,omitempty"`
	ExpectedAmount Money      `json:"expected_amount_cents"`
	ActualAmount   Money      `json:"actual_amount_cents"`
	Position       int        `json:"position"`
	DisplayName    string     `json:"display_name,omitempty"`
}

// ============================================================
// Accounts (tenant boundary)
// ============================================================

// Account is the ownership boundary: every entity above belongs to
// exactly one account, and the engine never works cross-account.
type Account struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IBAN      string    `json:"iban,omitempty"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}
