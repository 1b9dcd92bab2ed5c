package service

import (
	"context"
	"sort"
	"time"

	"github.com/huishoudboekje/backend/internal/domain"
	"github.com/huishoudboekje/backend/internal/infra/observability"
	"github.com/huishoudboekje/backend/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var recurTracer = otel.Tracer("service/recurrence")

// RecurrenceConfig tunes the detector orchestration.
type RecurrenceConfig struct {
	LookbackDays   int
	GraceDays      int
	AutoDeactivate bool
	MaxConcurrency int
}

// RecurrenceService runs recurring-transaction detection against stored
// history and keeps the persisted recurring set in sync with the latest
// run.
type RecurrenceService struct {
	store   port.FinanceStore
	cfg     RecurrenceConfig
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewRecurrenceService creates a new recurrence service.
func NewRecurrenceService(store port.FinanceStore, cfg RecurrenceConfig, metrics *observability.Metrics, logger *zap.Logger) *RecurrenceService {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	return &RecurrenceService{
		store:   store,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Detect runs detection for one account and persists the result as a
// full replacement set. Re-running against unchanged history produces
// the same set with the same ids: existing entries are matched by
// (merchant key, transaction type) and keep their id, category link and
// any manual deactivation. force recomputes even entries a user
// deactivated, reactivating those that still qualify.
func (s *RecurrenceService) Detect(ctx context.Context, accountID int64, force bool) (*domain.DetectionResult, error) {
	ctx, span := recurTracer.Start(ctx, "RecurrenceService.Detect")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("detect", time.Since(start)) }()
	span.SetAttributes(
		attribute.Int64("account.id", accountID),
		attribute.Bool("force", force),
	)

	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		s.metrics.IncrDetectorRun("error")
		return nil, err
	}

	history, err := s.store.ListTransactions(ctx, accountID)
	if err != nil {
		s.metrics.IncrDetectorRun("error")
		return nil, err
	}

	now := s.now()
	detected, st := DetectRecurring(accountID, history, DetectOptions{
		LookbackDays: s.cfg.LookbackDays,
		Now:          now,
	})
	s.metrics.AddSkippedRows(st.SkippedRows)
	s.metrics.RecordDetectorGroups(st.ConsideredGroups, st.QualifiedGroups)

	existing, err := s.store.ListRecurring(ctx, accountID, false)
	if err != nil {
		s.metrics.IncrDetectorRun("error")
		return nil, err
	}

	set := s.mergeWithExisting(detected, existing, force, now)

	if err := s.store.ReplaceRecurringSet(ctx, accountID, set); err != nil {
		s.metrics.IncrDetectorRun("error")
		return nil, err
	}

	s.metrics.IncrDetectorRun("ok")
	s.logger.Info("detector run complete",
		zap.Int64("account_id", accountID),
		zap.Int("recurring", len(set)),
		zap.Int("skipped_rows", st.SkippedRows),
		zap.Bool("force", force))

	return &domain.DetectionResult{
		AccountID:   accountID,
		Recurring:   set,
		SkippedRows: st.SkippedRows,
	}, nil
}

// DetectAll runs detection for every account with bounded concurrency.
// A failing account does not abort the others; the first error is
// returned after all runs finish.
func (s *RecurrenceService) DetectAll(ctx context.Context) (map[int64]*domain.DetectionResult, error) {
	ctx, span := recurTracer.Start(ctx, "RecurrenceService.DetectAll")
	defer span.End()

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	var (
		g, gctx = errgroup.WithContext(ctx)
		results = make([]*domain.DetectionResult, len(accounts))
		errs    = make([]error, len(accounts))
	)
	g.SetLimit(s.cfg.MaxConcurrency)

	for i := range accounts {
		i := i
		g.Go(func() error {
			res, derr := s.Detect(gctx, accounts[i].ID, false)
			if derr != nil {
				s.logger.Warn("detector run failed",
					zap.Int64("account_id", accounts[i].ID),
					zap.Error(derr))
				errs[i] = derr
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[int64]*domain.DetectionResult, len(accounts))
	var firstErr error
	for i := range accounts {
		if results[i] != nil {
			out[accounts[i].ID] = results[i]
		}
		if errs[i] != nil && firstErr == nil {
			firstErr = errs[i]
		}
	}
	return out, firstErr
}

// List returns the persisted recurring transactions for an account.
func (s *RecurrenceService) List(ctx context.Context, accountID int64, activeOnly bool) ([]domain.RecurringTransaction, error) {
	ctx, span := recurTracer.Start(ctx, "RecurrenceService.List")
	defer span.End()

	return s.store.ListRecurring(ctx, accountID, activeOnly)
}

// Deactivate marks one recurring transaction inactive. Subsequent
// detector runs keep it inactive unless force is used.
func (s *RecurrenceService) Deactivate(ctx context.Context, accountID int64, recurringID string) error {
	ctx, span := recurTracer.Start(ctx, "RecurrenceService.Deactivate")
	defer span.End()

	if _, err := uuid.Parse(recurringID); err != nil {
		return &domain.ErrValidation{Field: "recurring_id", Message: "must be a uuid"}
	}
	return s.store.DeactivateRecurring(ctx, accountID, recurringID)
}

// Upcoming projects active recurring charges whose next expected date
// falls within the next `days` days, ordered by date.
func (s *RecurrenceService) Upcoming(ctx context.Context, accountID int64, days int) ([]domain.UpcomingTransaction, error) {
	ctx, span := recurTracer.Start(ctx, "RecurrenceService.Upcoming")
	defer span.End()

	if days <= 0 {
		days = 30
	}

	active, err := s.store.ListRecurring(ctx, accountID, true)
	if err != nil {
		return nil, err
	}

	now := s.now()
	horizon := now.AddDate(0, 0, days)

	var out []domain.UpcomingTransaction
	for i := range active {
		rt := &active[i]
		next, perr := time.Parse(domain.DateLayout, rt.NextExpected)
		if perr != nil {
			continue
		}
		// Charges already overdue still show up until deactivation.
		if next.After(horizon) {
			continue
		}
		out = append(out, domain.UpcomingTransaction{
			RecurringID:  rt.ID,
			DisplayName:  rt.DisplayName,
			ExpectedDate: rt.NextExpected,
			Amount:       rt.PredictedAmount,
			Frequency:    rt.Frequency,
			Confidence:   rt.Confidence,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpectedDate != out[j].ExpectedDate {
			return out[i].ExpectedDate < out[j].ExpectedDate
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out, nil
}

// mergeWithExisting reconciles a fresh detection against the persisted
// set. Matching is by (merchant key, transaction type).
func (s *RecurrenceService) mergeWithExisting(detected, existing []domain.RecurringTransaction, force bool, now time.Time) []domain.RecurringTransaction {
	type key struct {
		merchant string
		txType   domain.TransactionType
	}
	prior := make(map[key]*domain.RecurringTransaction, len(existing))
	for i := range existing {
		prior[key{existing[i].MerchantKey, existing[i].TransactionType}] = &existing[i]
	}

	set := make([]domain.RecurringTransaction, 0, len(detected))
	for _, rt := range detected {
		if old, ok := prior[key{rt.MerchantKey, rt.TransactionType}]; ok {
			rt.ID = old.ID
			rt.CategoryID = old.CategoryID
			if !old.Active && !force {
				// Respect a manual deactivation across re-runs.
				rt.Active = false
			}
		} else {
			rt.ID = uuid.NewString()
		}
		if rt.Active && s.cfg.AutoDeactivate && expectedWindowExceeded(&rt, now, s.cfg.GraceDays) {
			rt.Active = false
			s.logger.Info("recurring charge went quiet, deactivating",
				zap.Int64("account_id", rt.AccountID),
				zap.String("merchant_key", rt.MerchantKey),
				zap.String("next_expected", rt.NextExpected))
		}
		set = append(set, rt)
	}
	return set
}
