// Package memstore provides an in-memory implementation of the store
// contract. It is used in tests and for runs where no database is
// configured.
package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"broker-reconciliation-service/internal/models"
	"broker-reconciliation-service/internal/store"
	"broker-reconciliation-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store keeps all ledger entries and the account reference list in
// memory, guarded by a mutex.
type Store struct {
	mu       sync.RWMutex
	entries  map[models.EntryKind][]models.LedgerEntry
	accounts []models.Account
	welcome  []string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		entries: make(map[models.EntryKind][]models.LedgerEntry),
	}
}

var _ store.Store = (*Store)(nil)

// ExistingKeys returns natural keys across the given kinds.
func (s *Store) ExistingKeys(_ context.Context, kinds ...models.EntryKind) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make(map[string]struct{})
	for _, kind := range kinds {
		for _, e := range s.entries[kind] {
			keys[strings.ToUpper(strings.TrimSpace(e.NaturalKey))] = struct{}{}
		}
	}
	return keys, nil
}

// BulkInsert appends entries atomically. Entries failing validation
// cause the whole batch to be rejected.
func (s *Store) BulkInsert(_ context.Context, entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	staged := make([]models.LedgerEntry, len(entries))
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return errors.PersistenceError(errors.CodeTransactionFailed, "bulk insert", err)
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		staged[i] = e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range staged {
		s.entries[e.Kind] = append(s.entries[e.Kind], e)
	}
	return nil
}

// Entries returns a kind's entries within the range.
func (s *Store) Entries(_ context.Context, kind models.EntryKind, r store.Range) ([]models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.LedgerEntry
	for _, e := range s.entries[kind] {
		if r.Contains(e.EntryTime) {
			out = append(out, e)
		}
	}
	return out, nil
}

// CountEntries counts a kind's entries within the range.
func (s *Store) CountEntries(ctx context.Context, kind models.EntryKind, r store.Range) (int64, error) {
	rows, err := s.Entries(ctx, kind, r)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// SumAmount sums a kind's amounts within the range.
func (s *Store) SumAmount(ctx context.Context, kind models.EntryKind, r store.Range) (decimal.Decimal, error) {
	return s.sum(ctx, kind, r, func(e models.LedgerEntry) bool { return true }, false)
}

// SumTierFee sums a kind's tier fees within the range.
func (s *Store) SumTierFee(ctx context.Context, kind models.EntryKind, r store.Range) (decimal.Decimal, error) {
	return s.sum(ctx, kind, r, func(e models.LedgerEntry) bool { return true }, true)
}

// SumAmountForAccounts sums amounts restricted to the given accounts.
func (s *Store) SumAmountForAccounts(ctx context.Context, kind models.EntryKind, accounts []string, r store.Range) (decimal.Decimal, error) {
	wanted := make(map[string]struct{}, len(accounts))
	for _, a := range accounts {
		wanted[strings.TrimSpace(a)] = struct{}{}
	}
	return s.sum(ctx, kind, r, func(e models.LedgerEntry) bool {
		_, ok := wanted[strings.TrimSpace(e.Account)]
		return ok
	}, false)
}

// SumAmountByMethod sums amounts whose payment method contains the
// fragment, case-insensitively.
func (s *Store) SumAmountByMethod(ctx context.Context, kind models.EntryKind, methodContains string, r store.Range) (decimal.Decimal, error) {
	frag := strings.ToLower(methodContains)
	return s.sum(ctx, kind, r, func(e models.LedgerEntry) bool {
		return strings.Contains(strings.ToLower(e.PaymentMethod), frag)
	}, false)
}

func (s *Store) sum(_ context.Context, kind models.EntryKind, r store.Range, keep func(models.LedgerEntry) bool, tierFee bool) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, e := range s.entries[kind] {
		if !r.Contains(e.EntryTime) || !keep(e) {
			continue
		}
		if tierFee {
			total = total.Add(e.TierFee)
		} else {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

// DeleteEntry removes one entry by kind and identifier.
func (s *Store) DeleteEntry(_ context.Context, kind models.EntryKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.entries[kind]
	for i, e := range rows {
		if e.ID == id {
			s.entries[kind] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return errors.PersistenceError(errors.CodeRecordNotFound, "delete entry", nil).
		WithContext("id", id)
}

// ReplaceAccounts replaces the account reference list and its derived
// welcome-bonus subset.
func (s *Store) ReplaceAccounts(_ context.Context, accounts []models.Account) error {
	welcome := make([]string, 0)
	stored := make([]models.Account, len(accounts))
	copy(stored, accounts)
	for _, a := range stored {
		if a.IsWelcomeBonus() {
			welcome = append(welcome, a.Login)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = stored
	s.welcome = welcome
	return nil
}

// Accounts returns the current account reference list.
func (s *Store) Accounts(_ context.Context) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Account, len(s.accounts))
	copy(out, s.accounts)
	return out, nil
}

// WelcomeBonusLogins returns the welcome-bonus logins.
func (s *Store) WelcomeBonusLogins(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.welcome))
	copy(out, s.welcome)
	return out, nil
}

// DateSpan returns the earliest and latest entry times across all
// ledgers.
func (s *Store) DateSpan(_ context.Context) (time.Time, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var earliest, latest time.Time
	for _, rows := range s.entries {
		for _, e := range rows {
			if e.EntryTime.IsZero() {
				continue
			}
			if earliest.IsZero() || e.EntryTime.Before(earliest) {
				earliest = e.EntryTime
			}
			if latest.IsZero() || e.EntryTime.After(latest) {
				latest = e.EntryTime
			}
		}
	}
	return earliest, latest, nil
}
