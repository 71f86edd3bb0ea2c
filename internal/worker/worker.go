package worker

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"

	"rinha-ledger/internal/domain"
	"rinha-ledger/internal/metrics"
	"rinha-ledger/internal/repository"
	"rinha-ledger/internal/service"
)

// Worker serves the requests of one HTTP connection, one at a time, against the storage
// connection it was bound to when the connection was accepted.
type Worker struct {
	ID     uint64
	Conn   domain.LedgerStore
	Ledger *service.LedgerService
}

type ctxKey struct{}

func NewContext(ctx context.Context, w *Worker) context.Context {
	return context.WithValue(ctx, ctxKey{}, w)
}

func FromContext(ctx context.Context) (*Worker, bool) {
	w, ok := ctx.Value(ctxKey{}).(*Worker)
	return w, ok && w != nil
}

// Binder assigns sequential worker ids and binds each worker to pool.Get(id).
type Binder struct {
	pool    *repository.Pool
	logger  *slog.Logger
	metrics *metrics.Metrics
	next    atomic.Uint64
}

func NewBinder(pool *repository.Pool, logger *slog.Logger, m *metrics.Metrics) *Binder {
	return &Binder{
		pool:    pool,
		logger:  logger,
		metrics: m,
	}
}

// Bind creates the next worker.
func (b *Binder) Bind() *Worker {
	id := b.next.Add(1) - 1
	conn := b.pool.Get(id)
	return &Worker{
		ID:     id,
		Conn:   conn,
		Ledger: service.NewLedgerService(conn, b.logger.With("worker_id", id), b.metrics),
	}
}

// ConnContext is installed as http.Server.ConnContext.
func (b *Binder) ConnContext(ctx context.Context, _ net.Conn) context.Context {
	return NewContext(ctx, b.Bind())
}

// ConnState is installed as http.Server.ConnState to track live workers.
func (b *Binder) ConnState(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		b.metrics.WorkerStarted()
	case http.StateClosed, http.StateHijacked:
		b.metrics.WorkerStopped()
	}
}
