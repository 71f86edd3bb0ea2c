package memory

import (
	"context"
	"math"
	"sync"
	"time"

	"rinha-ledger/internal/domain"
	"rinha-ledger/internal/errors"
	"rinha-ledger/internal/repository"
)

// DefaultAccounts mirrors the seed migration.
var DefaultAccounts = []domain.Account{
	{ID: 1, Limit: 100000},
	{ID: 2, Limit: 80000},
	{ID: 3, Limit: 1000000},
	{ID: 4, Limit: 10000000},
	{ID: 5, Limit: 500000},
}

// Store keeps the ledger in process. The account set is fixed at construction, so the
// map needs no lock; each account serializes its own applies.
type Store struct {
	accounts map[int64]*account
	now      func() time.Time
}

type account struct {
	mu      sync.Mutex
	balance int64
	limit   int64
	entries []domain.LedgerEntry
}

var _ domain.LedgerStore = (*Store)(nil)

func New(accounts ...domain.Account) *Store {
	s := &Store{
		accounts: make(map[int64]*account, len(accounts)),
		now:      time.Now,
	}
	for _, a := range accounts {
		s.accounts[a.ID] = &account{balance: a.Balance, limit: a.Limit}
	}
	return s
}

// Factory hands the same store to every pool slot.
func (s *Store) Factory() repository.Factory {
	return func(context.Context) (domain.LedgerStore, error) {
		return s, nil
	}
}

func (s *Store) ApplyOperation(_ context.Context, accountID, delta int64, description string) (domain.ApplyResult, error) {
	a, ok := s.accounts[accountID]
	if !ok {
		return domain.ApplyResult{Outcome: domain.OutcomeNotFound}, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.balance + delta
	if next < -a.limit {
		return domain.ApplyResult{Outcome: domain.OutcomeLimitExceeded}, nil
	}
	if next > math.MaxInt32 || next < math.MinInt32 {
		return domain.ApplyResult{}, errors.ErrAmountOutOfRange
	}

	a.balance = next
	a.entries = append(a.entries, domain.LedgerEntry{
		Amount:      delta,
		Description: description,
		OccurredAt:  s.now().UTC(),
	})

	return domain.ApplyResult{
		Outcome: domain.OutcomeOK,
		Balance: a.balance,
		Limit:   a.limit,
	}, nil
}

func (s *Store) ReadAccountState(_ context.Context, accountID int64) (domain.Account, bool, error) {
	a, ok := s.accounts[accountID]
	if !ok {
		return domain.Account{}, false, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return domain.Account{ID: accountID, Balance: a.balance, Limit: a.limit}, true, nil
}

func (s *Store) ReadRecentHistory(_ context.Context, accountID int64, limit int) ([]domain.LedgerEntry, error) {
	a, ok := s.accounts[accountID]
	if !ok {
		return []domain.LedgerEntry{}, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return newestFirst(a.entries, limit), nil
}

// history returns the entries appended so far. Entries are never modified once
// appended, so the returned prefix stays valid without holding a.mu.
func (a *account) history() []domain.LedgerEntry {
	return a.entries[:len(a.entries):len(a.entries)]
}

func newestFirst(entries []domain.LedgerEntry, limit int) []domain.LedgerEntry {
	n := min(limit, len(entries))
	out := make([]domain.LedgerEntry, 0, n)
	for i := len(entries) - 1; i >= len(entries)-n; i-- {
		out = append(out, entries[i])
	}
	return out
}

// WithSnapshot gives fn a view in which each account is captured whole, balance and
// history together, on first access.
func (s *Store) WithSnapshot(_ context.Context, fn func(domain.LedgerReader) error) error {
	return fn(&snapshot{store: s, seen: make(map[int64]capture)})
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}

type capture struct {
	account domain.Account
	found   bool
	entries []domain.LedgerEntry
}

type snapshot struct {
	store *Store
	seen  map[int64]capture
}

func (v *snapshot) load(accountID int64) capture {
	if c, ok := v.seen[accountID]; ok {
		return c
	}

	var c capture
	if a, ok := v.store.accounts[accountID]; ok {
		a.mu.Lock()
		c = capture{
			account: domain.Account{ID: accountID, Balance: a.balance, Limit: a.limit},
			found:   true,
			entries: a.history(),
		}
		a.mu.Unlock()
	}
	v.seen[accountID] = c
	return c
}

func (v *snapshot) ReadAccountState(_ context.Context, accountID int64) (domain.Account, bool, error) {
	c := v.load(accountID)
	return c.account, c.found, nil
}

func (v *snapshot) ReadRecentHistory(_ context.Context, accountID int64, limit int) ([]domain.LedgerEntry, error) {
	return newestFirst(v.load(accountID).entries, limit), nil
}
