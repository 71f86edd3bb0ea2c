package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rinha-ledger/internal/domain"
	"rinha-ledger/internal/errors"
	"rinha-ledger/internal/metrics"
)

// LedgerService runs the ledger protocol against one storage connection.
type LedgerService struct {
	store   domain.LedgerStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewLedgerService(store domain.LedgerStore, logger *slog.Logger, m *metrics.Metrics) *LedgerService {
	return &LedgerService{
		store:   store,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Apply adds delta to the account balance and records it, unless the account is
// unknown or the result would fall below -limit. The check and the write happen in a
// single store call.
func (s *LedgerService) Apply(ctx context.Context, accountID, delta int64, description string) (domain.ApplyResult, error) {
	s.logger.Debug("Applying operation", "account_id", accountID, "delta", delta)

	result, err := s.store.ApplyOperation(ctx, accountID, delta, description)
	if err != nil {
		s.metrics.ObserveOutcome("error")
		return result, err
	}

	if !result.Outcome.Known() {
		s.metrics.ObserveOutcome("unknown")
		s.logger.Error("Unexpected apply outcome",
			"account_id", accountID,
			"delta", delta,
			"description", description,
			"outcome", int(result.Outcome))
		return result, errors.NewAppErrorf(errors.StoreProtocol, "unexpected apply outcome %d", int(result.Outcome)).
			WithDetails(fmt.Sprintf("account_id=%d delta=%d", accountID, delta))
	}

	s.metrics.ObserveOutcome(result.Outcome.String())
	switch result.Outcome {
	case domain.OutcomeNotFound:
		return result, errors.ErrAccountNotFound
	case domain.OutcomeLimitExceeded:
		return result, errors.ErrLimitExceeded
	}
	return result, nil
}
