// Package pgstore provides the Postgres-backed implementation of the
// store contract, built on GORM.
package pgstore

import (
	"context"
	"time"

	"broker-reconciliation-service/internal/models"
	"broker-reconciliation-service/internal/store"
	"broker-reconciliation-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ledgerRecord is the persisted form of a ledger entry. Amounts are
// stored as numeric columns and read back into decimals.
type ledgerRecord struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	Kind          string    `gorm:"index;not null"`
	NaturalKey    string    `gorm:"index;not null"`
	EntryTime     time.Time `gorm:"index"`
	Account       string
	Amount        decimal.Decimal `gorm:"type:numeric"`
	PaymentMethod string
	TierFee       decimal.Decimal `gorm:"type:numeric"`
	CreatedAt     time.Time
}

func (ledgerRecord) TableName() string { return "ledger_entries" }

// accountRecord is one row of the account reference list.
type accountRecord struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	Login        string `gorm:"index;not null"`
	Name         string
	AccountGroup string
	WelcomeBonus bool `gorm:"index"`
	CreatedAt    time.Time
}

func (accountRecord) TableName() string { return "accounts" }

// Store implements the store contract against Postgres.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to Postgres using the given DSN and migrates the
// schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.PersistenceError(errors.CodeStoreUnavailable, "connect", err)
	}
	if err := db.AutoMigrate(&ledgerRecord{}, &accountRecord{}); err != nil {
		return nil, errors.PersistenceError(errors.CodeStoreUnavailable, "schema migration", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing GORM handle. The caller is responsible
// for migration.
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

func toRecord(e models.LedgerEntry) ledgerRecord {
	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}
	return ledgerRecord{
		ID:            id,
		Kind:          string(e.Kind),
		NaturalKey:    e.NaturalKey,
		EntryTime:     e.EntryTime,
		Account:       e.Account,
		Amount:        e.Amount,
		PaymentMethod: e.PaymentMethod,
		TierFee:       e.TierFee,
	}
}

func fromRecord(r ledgerRecord) models.LedgerEntry {
	return models.LedgerEntry{
		ID:            r.ID,
		Kind:          models.EntryKind(r.Kind),
		NaturalKey:    r.NaturalKey,
		EntryTime:     r.EntryTime,
		Account:       r.Account,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		TierFee:       r.TierFee,
	}
}

func kindStrings(kinds []models.EntryKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

func (s *Store) rangeScope(q *gorm.DB, r store.Range) *gorm.DB {
	if !r.Start.IsZero() {
		q = q.Where("entry_time >= ?", r.Start)
	}
	if !r.End.IsZero() {
		q = q.Where("entry_time <= ?", r.End)
	}
	return q
}

// ExistingKeys returns natural keys across the given kinds.
func (s *Store) ExistingKeys(ctx context.Context, kinds ...models.EntryKind) (map[string]struct{}, error) {
	var keys []string
	err := s.db.WithContext(ctx).
		Model(&ledgerRecord{}).
		Where("kind IN ?", kindStrings(kinds)).
		Pluck("UPPER(TRIM(natural_key))", &keys).Error
	if err != nil {
		return nil, errors.PersistenceError(errors.CodeStoreUnavailable, "load existing keys", err)
	}
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out, nil
}

// BulkInsert persists entries in one transaction.
func (s *Store) BulkInsert(ctx context.Context, entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	records := make([]ledgerRecord, 0, len(entries))
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return errors.PersistenceError(errors.CodeTransactionFailed, "bulk insert", err)
		}
		records = append(records, toRecord(e))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(records, 500).Error
	})
	if err != nil {
		return errors.PersistenceError(errors.CodeTransactionFailed, "bulk insert", err)
	}
	return nil
}

// Entries returns a kind's entries within the range, in insertion
// order.
func (s *Store) Entries(ctx context.Context, kind models.EntryKind, r store.Range) ([]models.LedgerEntry, error) {
	var records []ledgerRecord
	q := s.db.WithContext(ctx).Where("kind = ?", string(kind))
	err := s.rangeScope(q, r).Order("created_at, id").Find(&records).Error
	if err != nil {
		return nil, errors.PersistenceError(errors.CodeStoreUnavailable, "load entries", err)
	}
	out := make([]models.LedgerEntry, len(records))
	for i, rec := range records {
		out[i] = fromRecord(rec)
	}
	return out, nil
}

// CountEntries counts a kind's entries within the range.
func (s *Store) CountEntries(ctx context.Context, kind models.EntryKind, r store.Range) (int64, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&ledgerRecord{}).Where("kind = ?", string(kind))
	if err := s.rangeScope(q, r).Count(&count).Error; err != nil {
		return 0, errors.PersistenceError(errors.CodeStoreUnavailable, "count entries", err)
	}
	return count, nil
}

func (s *Store) sumColumn(ctx context.Context, kind models.EntryKind, r store.Range, column string, scope func(*gorm.DB) *gorm.DB) (decimal.Decimal, error) {
	var total decimal.Decimal
	q := s.db.WithContext(ctx).Model(&ledgerRecord{}).Where("kind = ?", string(kind))
	q = s.rangeScope(q, r)
	if scope != nil {
		q = scope(q)
	}
	err := q.Select("COALESCE(SUM(" + column + "), 0)").Scan(&total).Error
	if err != nil {
		return decimal.Zero, errors.PersistenceError(errors.CodeStoreUnavailable, "sum "+column, err)
	}
	return total, nil
}

// SumAmount sums a kind's amounts within the range.
func (s *Store) SumAmount(ctx context.Context, kind models.EntryKind, r store.Range) (decimal.Decimal, error) {
	return s.sumColumn(ctx, kind, r, "amount", nil)
}

// SumTierFee sums a kind's tier fees within the range.
func (s *Store) SumTierFee(ctx context.Context, kind models.EntryKind, r store.Range) (decimal.Decimal, error) {
	return s.sumColumn(ctx, kind, r, "tier_fee", nil)
}

// SumAmountForAccounts sums amounts restricted to the given accounts.
func (s *Store) SumAmountForAccounts(ctx context.Context, kind models.EntryKind, accounts []string, r store.Range) (decimal.Decimal, error) {
	if len(accounts) == 0 {
		return decimal.Zero, nil
	}
	return s.sumColumn(ctx, kind, r, "amount", func(q *gorm.DB) *gorm.DB {
		return q.Where("account IN ?", accounts)
	})
}

// SumAmountByMethod sums amounts whose payment method contains the
// fragment, case-insensitively.
func (s *Store) SumAmountByMethod(ctx context.Context, kind models.EntryKind, methodContains string, r store.Range) (decimal.Decimal, error) {
	return s.sumColumn(ctx, kind, r, "amount", func(q *gorm.DB) *gorm.DB {
		return q.Where("payment_method ILIKE ?", "%"+methodContains+"%")
	})
}

// DeleteEntry removes one entry by kind and identifier.
func (s *Store) DeleteEntry(ctx context.Context, kind models.EntryKind, id string) error {
	res := s.db.WithContext(ctx).
		Where("kind = ? AND id = ?", string(kind), id).
		Delete(&ledgerRecord{})
	if res.Error != nil {
		return errors.PersistenceError(errors.CodeTransactionFailed, "delete entry", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.PersistenceError(errors.CodeRecordNotFound, "delete entry", nil).WithContext("id", id)
	}
	return nil
}

// ReplaceAccounts replaces the account reference list in one
// transaction.
func (s *Store) ReplaceAccounts(ctx context.Context, accounts []models.Account) error {
	records := make([]accountRecord, len(accounts))
	for i, a := range accounts {
		records[i] = accountRecord{
			ID:           uuid.NewString(),
			Login:        a.Login,
			Name:         a.Name,
			AccountGroup: a.Group,
			WelcomeBonus: a.IsWelcomeBonus(),
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&accountRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 500).Error
	})
	if err != nil {
		return errors.PersistenceError(errors.CodeTransactionFailed, "replace accounts", err)
	}
	return nil
}

// Accounts returns the current account reference list.
func (s *Store) Accounts(ctx context.Context) ([]models.Account, error) {
	var records []accountRecord
	err := s.db.WithContext(ctx).Order("created_at, id").Find(&records).Error
	if err != nil {
		return nil, errors.PersistenceError(errors.CodeStoreUnavailable, "load accounts", err)
	}
	out := make([]models.Account, len(records))
	for i, rec := range records {
		out[i] = models.Account{Login: rec.Login, Name: rec.Name, Group: rec.AccountGroup}
	}
	return out, nil
}

// WelcomeBonusLogins returns the welcome-bonus logins.
func (s *Store) WelcomeBonusLogins(ctx context.Context) ([]string, error) {
	var logins []string
	err := s.db.WithContext(ctx).
		Model(&accountRecord{}).
		Where("welcome_bonus = ?", true).
		Pluck("login", &logins).Error
	if err != nil {
		return nil, errors.PersistenceError(errors.CodeStoreUnavailable, "load welcome bonus logins", err)
	}
	return logins, nil
}

// DateSpan returns the earliest and latest entry times across all
// ledgers.
func (s *Store) DateSpan(ctx context.Context) (time.Time, time.Time, error) {
	var bounds struct {
		Earliest *time.Time
		Latest   *time.Time
	}
	err := s.db.WithContext(ctx).
		Model(&ledgerRecord{}).
		Select("MIN(entry_time) AS earliest, MAX(entry_time) AS latest").
		Scan(&bounds).Error
	if err != nil {
		return time.Time{}, time.Time{}, errors.PersistenceError(errors.CodeStoreUnavailable, "resolve date span", err)
	}
	var earliest, latest time.Time
	if bounds.Earliest != nil {
		earliest = *bounds.Earliest
	}
	if bounds.Latest != nil {
		latest = *bounds.Latest
	}
	return earliest, latest, nil
}
