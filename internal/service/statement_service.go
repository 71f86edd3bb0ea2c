package service

import (
	"context"

	"rinha-ledger/internal/domain"
	"rinha-ledger/internal/errors"
)

// ReadStatement returns the balance, limit and latest entries of an account from a
// single consistent snapshot.
func (s *LedgerService) ReadStatement(ctx context.Context, accountID int64) (*domain.Statement, error) {
	s.logger.Debug("Reading statement", "account_id", accountID)

	var statement domain.Statement
	err := s.store.WithSnapshot(ctx, func(r domain.LedgerReader) error {
		account, ok, err := r.ReadAccountState(ctx, accountID)
		if err != nil {
			return err
		}
		if !ok {
			return errors.ErrAccountNotFound
		}

		entries, err := r.ReadRecentHistory(ctx, accountID, domain.StatementSize)
		if err != nil {
			return err
		}

		statement.Balance = account.Balance
		statement.Limit = account.Limit
		statement.Entries = entries
		return nil
	})
	if err != nil {
		return nil, err
	}

	statement.GeneratedAt = s.now().UTC()
	return &statement, nil
}

// Ping checks the connection this service is bound to.
func (s *LedgerService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
