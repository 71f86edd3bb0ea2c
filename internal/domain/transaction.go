package domain

import (
	"fmt"
	"time"
)

type Kind string

const (
	Debit  Kind = "d"
	Credit Kind = "c"
)

// Operation is a validated debit or credit request. Amount is always positive.
type Operation struct {
	Amount      int64
	Kind        Kind
	Description string
}

// Delta is the signed change the operation applies to the balance.
func (o Operation) Delta() int64 {
	if o.Kind == Debit {
		return -o.Amount
	}
	return o.Amount
}

// LedgerEntry is one persisted, immutable history record.
type LedgerEntry struct {
	Amount      int64
	Description string
	OccurredAt  time.Time
}

// Kind is derived from the sign of the stored amount; zero counts as a debit.
func (e LedgerEntry) Kind() Kind {
	if e.Amount > 0 {
		return Credit
	}
	return Debit
}

func (e LedgerEntry) Magnitude() int64 {
	if e.Amount < 0 {
		return -e.Amount
	}
	return e.Amount
}

// Outcome is the result code returned by the store for an apply attempt.
type Outcome int

const (
	OutcomeOK            Outcome = 0
	OutcomeNotFound      Outcome = -1
	OutcomeLimitExceeded Outcome = -2
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeLimitExceeded:
		return "limit_exceeded"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// Known reports whether the code is one of the three defined outcomes.
func (o Outcome) Known() bool {
	return o == OutcomeOK || o == OutcomeNotFound || o == OutcomeLimitExceeded
}

// ApplyResult carries the new balance and the limit when Outcome is OutcomeOK.
type ApplyResult struct {
	Outcome Outcome
	Balance int64
	Limit   int64
}
