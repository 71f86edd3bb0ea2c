package repository

import (
	"context"
	"database/sql"

	"rinha-ledger/internal/domain"
	"rinha-ledger/internal/errors"
)

// ApplyOperation runs criartransacao, which checks the limit and updates the balance
// and history in one statement.
func (c *Conn) ApplyOperation(ctx context.Context, accountID, delta int64, description string) (domain.ApplyResult, error) {
	var result domain.ApplyResult
	var outcome int

	err := c.stmts.apply.QueryRowContext(ctx, accountID, delta, description).Scan(
		&outcome,
		&result.Balance,
		&result.Limit,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.logger.Error("Apply returned no row",
				"account_id", accountID, "delta", delta, "description", description)
			return result, errors.NewAppError(errors.StoreProtocol, "apply returned no row")
		}
		c.logger.Error("Failed to apply operation",
			"account_id", accountID, "delta", delta, "description", description, "error", err)
		return result, storeError("apply operation", accountID, err)
	}

	result.Outcome = domain.Outcome(outcome)
	return result, nil
}

func (r reader) ReadAccountState(ctx context.Context, accountID int64) (domain.Account, bool, error) {
	account := domain.Account{ID: accountID}

	err := r.bind(ctx, r.stmts.account).QueryRowContext(ctx, accountID).Scan(
		&account.Balance,
		&account.Limit,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Account{}, false, nil
		}
		r.logger.Error("Failed to read account", "account_id", accountID, "error", err)
		return domain.Account{}, false, storeError("read account", accountID, err)
	}

	return account, true, nil
}
