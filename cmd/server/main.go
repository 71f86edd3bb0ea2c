package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rinha-ledger/internal/config"
	"rinha-ledger/internal/server"
)

const shutdownTimeout = 30 * time.Second

type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:               "rinha-ledger",
		Short:             "Ledger API with per-account overdraft limits",
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
		RunE:              a.serve,
	}
	cmd.AddCommand(migrateCommand(a))

	return cmd
}

func (a *app) load(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := server.NewLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}

// serve runs until SIGINT or SIGTERM, then drains in-flight requests and closes the pool.
func (a *app) serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, port, err := server.StartServer(ctx, a.cfg, a.logger)
	if err != nil {
		a.logger.Error("Failed to start server", "error", err)
		return fmt.Errorf("start server: %w", err)
	}

	a.logger.Info("Server started successfully", "port", port)

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-srv.Err():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		a.logger.Error("Server shutdown failed", "error", err)
		return err
	}

	a.logger.Info("Server stopped")
	return serveErr
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
