package service

import (
	"context"

	"github.com/huishoudboekje/backend/internal/domain"
	"github.com/huishoudboekje/backend/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var accountTracer = otel.Tracer("service/accounts")

// AccountService exposes account listing and the single-default
// invariant.
type AccountService struct {
	store  port.FinanceStore
	logger *zap.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(store port.FinanceStore, logger *zap.Logger) *AccountService {
	return &AccountService{store: store, logger: logger}
}

// List returns all accounts.
func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	ctx, span := accountTracer.Start(ctx, "AccountService.List")
	defer span.End()

	return s.store.ListAccounts(ctx)
}

// Get returns one account.
func (s *AccountService) Get(ctx context.Context, accountID int64) (*domain.Account, error) {
	ctx, span := accountTracer.Start(ctx, "AccountService.Get")
	defer span.End()

	return s.store.GetAccount(ctx, accountID)
}

// SetDefault marks one account as the default. The store clears the
// previous default in the same operation so at most one account holds
// the flag.
func (s *AccountService) SetDefault(ctx context.Context, accountID int64) error {
	ctx, span := accountTracer.Start(ctx, "AccountService.SetDefault")
	defer span.End()
	span.SetAttributes(attribute.Int64("account.id", accountID))

	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return err
	}
	if err := s.store.SetDefaultAccount(ctx, accountID); err != nil {
		return err
	}
	s.logger.Info("default account changed", zap.Int64("account_id", accountID))
	return nil
}
