package repository

import (
	"context"
	"database/sql"
	"log/slog"

	_ "github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"

	"rinha-ledger/internal/domain"
)

const (
	applyOperationQuery = `SELECT result, saldo, limite FROM criartransacao($1, $2, $3)`

	accountStateQuery = `SELECT saldo, limite FROM cliente WHERE id = $1`

	recentHistoryQuery = `
		SELECT valor, descricao, realizadaem
		FROM transacao
		WHERE idcliente = $1
		ORDER BY id DESC
		LIMIT $2
	`
)

// OpenDB opens a handle restricted to a single Postgres session. database/sql queues
// callers on that session, so it carries one in-flight call at a time.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	pinSingleSession(db)
	return db, nil
}

func pinSingleSession(db *sql.DB) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
}

// Dial establishes one storage connection and prepares its statements.
func Dial(ctx context.Context, dsn string, logger *slog.Logger) (*Conn, error) {
	db, err := OpenDB(dsn)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open store")
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, pkgerrors.Wrap(err, "ping store")
	}

	conn, err := NewConn(ctx, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return conn, nil
}

// PostgresFactory returns a pool factory dialing dsn for every slot.
func PostgresFactory(dsn string, logger *slog.Logger) Factory {
	return func(ctx context.Context) (domain.LedgerStore, error) {
		conn, err := Dial(ctx, dsn, logger)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// statements are prepared once per connection and shared read-only afterwards.
type statements struct {
	apply   *sql.Stmt
	account *sql.Stmt
	history *sql.Stmt
}

func prepareStatements(ctx context.Context, db *sql.DB) (*statements, error) {
	var s statements
	var err error

	if s.apply, err = db.PrepareContext(ctx, applyOperationQuery); err != nil {
		return nil, pkgerrors.Wrap(err, "prepare apply statement")
	}
	if s.account, err = db.PrepareContext(ctx, accountStateQuery); err != nil {
		s.close()
		return nil, pkgerrors.Wrap(err, "prepare account statement")
	}
	if s.history, err = db.PrepareContext(ctx, recentHistoryQuery); err != nil {
		s.close()
		return nil, pkgerrors.Wrap(err, "prepare history statement")
	}
	return &s, nil
}

func (s *statements) close() {
	for _, stmt := range []*sql.Stmt{s.apply, s.account, s.history} {
		if stmt != nil {
			stmt.Close()
		}
	}
}
