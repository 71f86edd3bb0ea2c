package repository

import (
	"context"

	"rinha-ledger/internal/domain"
	"rinha-ledger/internal/errors"
)

func (r reader) ReadRecentHistory(ctx context.Context, accountID int64, limit int) ([]domain.LedgerEntry, error) {
	rows, err := r.bind(ctx, r.stmts.history).QueryContext(ctx, accountID, limit)
	if err != nil {
		r.logger.Error("Failed to read history", "account_id", accountID, "error", err)
		return nil, storeError("read history", accountID, err)
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0, limit)
	for rows.Next() {
		var entry domain.LedgerEntry
		if err := rows.Scan(&entry.Amount, &entry.Description, &entry.OccurredAt); err != nil {
			r.logger.Error("Failed to scan history row", "account_id", accountID, "error", err)
			return nil, errors.NewAppError(errors.StoreProtocol, "unexpected history row").WithDetails(err.Error())
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to iterate history", "account_id", accountID, "error", err)
		return nil, storeError("read history", accountID, err)
	}

	return entries, nil
}
