// Package store defines the persistence contract consumed by the
// ingestion and reporting layers. The contract is dependency-injected
// so the processing code can run against either the Postgres-backed
// implementation or the in-memory one used in tests and ad-hoc runs.
//
// Ledger entries are append-only and keyed by a natural external
// identifier; the ingestion layer performs a read-then-insert novelty
// check, which is not atomic across concurrent writers. Sequential
// invocation is assumed.
package store

import (
	"context"
	"time"

	"broker-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// Range is an optional closed date range for queries. The zero value
// means unbounded.
type Range struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the range places no bounds on a query.
func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if r.IsZero() {
		return true
	}
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// Store is the persistence contract for ledger entries and the account
// reference list.
type Store interface {
	// ExistingKeys returns the natural keys already present across
	// the given ledger kinds, for novelty checks before insert.
	ExistingKeys(ctx context.Context, kinds ...models.EntryKind) (map[string]struct{}, error)

	// BulkInsert persists the entries in one transaction: commit on
	// success, full rollback on any failure.
	BulkInsert(ctx context.Context, entries []models.LedgerEntry) error

	// Entries returns a kind's entries within the range, in stored order.
	Entries(ctx context.Context, kind models.EntryKind, r Range) ([]models.LedgerEntry, error)

	// CountEntries counts a kind's entries within the range.
	CountEntries(ctx context.Context, kind models.EntryKind, r Range) (int64, error)

	// SumAmount sums a kind's amounts within the range.
	SumAmount(ctx context.Context, kind models.EntryKind, r Range) (decimal.Decimal, error)

	// SumTierFee sums a kind's tier fees within the range.
	SumTierFee(ctx context.Context, kind models.EntryKind, r Range) (decimal.Decimal, error)

	// SumAmountForAccounts sums a kind's amounts within the range,
	// restricted to the given trading accounts.
	SumAmountForAccounts(ctx context.Context, kind models.EntryKind, accounts []string, r Range) (decimal.Decimal, error)

	// SumAmountByMethod sums a kind's amounts within the range,
	// restricted to entries whose payment method contains the given
	// fragment (case-insensitive).
	SumAmountByMethod(ctx context.Context, kind models.EntryKind, methodContains string, r Range) (decimal.Decimal, error)

	// DeleteEntry removes one entry by kind and store identifier.
	// Used by discrepancy confirmation.
	DeleteEntry(ctx context.Context, kind models.EntryKind, id string) error

	// ReplaceAccounts replaces the whole account reference list and
	// its derived welcome-bonus subset. Prior contents are discarded,
	// not merged.
	ReplaceAccounts(ctx context.Context, accounts []models.Account) error

	// Accounts returns the current account reference list.
	Accounts(ctx context.Context) ([]models.Account, error)

	// WelcomeBonusLogins returns the logins flagged as welcome-bonus
	// accounts by the last reference list load.
	WelcomeBonusLogins(ctx context.Context) ([]string, error)

	// DateSpan returns the earliest and latest entry times across all
	// ledgers, or zero times when the store is empty.
	DateSpan(ctx context.Context) (time.Time, time.Time, error)
}
