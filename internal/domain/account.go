package domain

import (
	"context"
	"time"
)

// Account is a pre-provisioned ledger account. Balance never goes below -Limit.
type Account struct {
	ID      int64 `json:"id"`
	Balance int64 `json:"balance"`
	Limit   int64 `json:"limit"`
}

// Statement is the read view of an account: current position plus its latest entries.
type Statement struct {
	Balance     int64
	Limit       int64
	GeneratedAt time.Time
	Entries     []LedgerEntry
}

// StatementSize is how many entries a statement carries.
const StatementSize = 10

// LedgerReader reads account state without mutating it.
type LedgerReader interface {
	// ReadAccountState returns ok=false when the account does not exist.
	ReadAccountState(ctx context.Context, accountID int64) (account Account, ok bool, err error)
	// ReadRecentHistory returns up to limit entries, newest first by append order.
	ReadRecentHistory(ctx context.Context, accountID int64, limit int) ([]LedgerEntry, error)
}

// LedgerStore is one storage connection. Implementations must run ApplyOperation as a
// single atomic, isolated unit.
type LedgerStore interface {
	LedgerReader
	ApplyOperation(ctx context.Context, accountID, delta int64, description string) (ApplyResult, error)
	// WithSnapshot runs fn against a consistent read-only view of the store.
	WithSnapshot(ctx context.Context, fn func(LedgerReader) error) error
	Ping(ctx context.Context) error
	Close() error
}
