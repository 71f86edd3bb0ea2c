package repository

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"rinha-ledger/internal/domain"
)

// Factory establishes one storage connection.
type Factory func(ctx context.Context) (domain.LedgerStore, error)

// Pool is a fixed set of storage connections shared by affinity. There is no checkout:
// Get always maps the same worker id to the same connection.
type Pool struct {
	conns []domain.LedgerStore
}

// NewPool opens size connections concurrently and fails as a whole if any of them
// fails; connections that did open are closed before returning the error.
func NewPool(ctx context.Context, factory Factory, size int) (*Pool, error) {
	if factory == nil {
		return nil, fmt.Errorf("connection factory is required")
	}
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}

	conns := make([]domain.LedgerStore, size)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < size; i++ {
		i := i
		g.Go(func() error {
			conn, err := factory(gctx)
			if err != nil {
				return fmt.Errorf("connection %d: %w", i, err)
			}
			conns[i] = conn
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, conn := range conns {
			if conn != nil {
				conn.Close()
			}
		}
		return nil, err
	}

	return &Pool{conns: conns}, nil
}

// Get returns the connection bound to workerID.
func (p *Pool) Get(workerID uint64) domain.LedgerStore {
	return p.conns[workerID%uint64(len(p.conns))]
}

func (p *Pool) Size() int {
	return len(p.conns)
}

// Close closes every connection and returns the first error.
func (p *Pool) Close() error {
	var first error
	for _, conn := range p.conns {
		if err := conn.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
