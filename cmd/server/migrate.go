package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"rinha-ledger/internal/repository"
	"rinha-ledger/migrations"
)

// dbWaitTimeout bounds how long migrate waits for Postgres to accept connections.
const dbWaitTimeout = 30 * time.Second

func migrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the ledger schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations, including the seed accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.migrate(cmd.Context(), "up", migrations.Up)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.migrate(cmd.Context(), "down", migrations.Down)
		},
	})

	return cmd
}

func (a *app) migrate(ctx context.Context, direction string, run func(*sql.DB) (int, error)) error {
	if a.cfg.UsesMemoryStore() {
		return fmt.Errorf("migrate %s: CONNECTION_STRING must point at Postgres", direction)
	}

	db, err := repository.OpenDB(a.cfg.GetDBConnectionString())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := waitForDB(ctx, db, a.logger); err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}

	n, err := run(db)
	if err != nil {
		a.logger.Error("Migration failed", "direction", direction, "error", err)
		return fmt.Errorf("migrate %s: %w", direction, err)
	}

	a.logger.Info("Migrations applied", "direction", direction, "count", n)
	return nil
}

func waitForDB(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = dbWaitTimeout

	return backoff.RetryNotify(
		func() error { return db.PingContext(ctx) },
		backoff.WithContext(b, ctx),
		func(err error, next time.Duration) {
			logger.Warn("Database not ready", "error", err, "retry_in", next)
		},
	)
}
