package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"

	"rinha-ledger/internal/domain"
	"rinha-ledger/internal/errors"
)

// numericValueOutOfRange is raised when a balance leaves the INT column range.
const numericValueOutOfRange = "22003"

// Conn is one persistent storage connection. It is safe for concurrent use; calls are
// serialized on the underlying session.
type Conn struct {
	reader
	db *sql.DB
}

var _ domain.LedgerStore = (*Conn)(nil)

// NewConn prepares the ledger statements on db and wraps it as a storage connection.
func NewConn(ctx context.Context, db *sql.DB, logger *slog.Logger) (*Conn, error) {
	pinSingleSession(db)

	stmts, err := prepareStatements(ctx, db)
	if err != nil {
		return nil, err
	}

	return &Conn{
		reader: reader{
			stmts:  stmts,
			bind:   directStmt,
			logger: logger,
		},
		db: db,
	}, nil
}

// WithSnapshot runs fn inside a read-only repeatable-read transaction so every read
// sees the same committed state.
func (c *Conn) WithSnapshot(ctx context.Context, fn func(domain.LedgerReader) error) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		c.logger.Error("Failed to begin snapshot", "error", err)
		return storeError("begin snapshot", 0, err)
	}

	txReader := reader{
		stmts: c.stmts,
		bind: func(ctx context.Context, stmt *sql.Stmt) *sql.Stmt {
			return tx.StmtContext(ctx, stmt)
		},
		logger: c.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txReader); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		c.logger.Error("Failed to commit snapshot", "error", err)
		return storeError("commit snapshot", 0, err)
	}
	return nil
}

func (c *Conn) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return storeError("ping", 0, err)
	}
	return nil
}

func (c *Conn) Close() error {
	c.stmts.close()
	return c.db.Close()
}

// reader runs the read statements either directly on the session or inside a snapshot.
type reader struct {
	stmts  *statements
	bind   func(ctx context.Context, stmt *sql.Stmt) *sql.Stmt
	logger *slog.Logger
}

func directStmt(_ context.Context, stmt *sql.Stmt) *sql.Stmt {
	return stmt
}

// storeError classifies a driver failure. Postgres-reported errors mean the store
// answered but not as expected; anything else means it could not be reached.
func storeError(op string, accountID int64, err error) error {
	detail := pkgerrors.Wrapf(err, "%s account_id=%d", op, accountID).Error()

	var pqErr *pq.Error
	if pkgerrors.As(err, &pqErr) {
		if pqErr.Code == numericValueOutOfRange {
			return errors.ErrAmountOutOfRange.WithDetails(detail)
		}
		return errors.NewAppError(errors.StoreProtocol, fmt.Sprintf("%s failed", op)).WithDetails(detail)
	}
	return errors.ErrStoreUnavailable.WithDetails(detail)
}
