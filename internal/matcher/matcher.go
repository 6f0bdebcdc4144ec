// Package matcher pairs CRM deposit entries against payment gateway
// deposit entries and reports the leftovers as discrepancies.
//
// The matching is greedy: for each CRM entry in stored order the first
// not-yet-consumed gateway entry satisfying all tolerances wins. A
// match requires the timestamps to lie within a configurable window,
// the CRM account text to be a substring of the gateway account text,
// and the amounts to differ by at most a configurable tolerance.
//
// The pass is O(n*m) over the two ledgers, which is acceptable for the
// expected batch sizes of a daily export.
package matcher

import (
	"fmt"
	"strings"
	"time"

	"broker-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// Config holds the matching tolerances.
type Config struct {
	// TimeTolerance is the maximum distance between the CRM request
	// time and the gateway booking time.
	TimeTolerance time.Duration

	// AmountTolerance is the maximum absolute difference between the
	// two amounts, in major currency units.
	AmountTolerance decimal.Decimal

	// SuppressedMethod names a CRM payment method whose unmatched
	// entries are not reported (case-insensitive equality).
	SuppressedMethod string
}

// DefaultConfig returns the production tolerances: a three and a half
// hour window, one currency unit of slack, and suppression of the
// TopChange aggregator.
func DefaultConfig() *Config {
	return &Config{
		TimeTolerance:    3*time.Hour + 30*time.Minute,
		AmountTolerance:  decimal.NewFromInt(1),
		SuppressedMethod: "topchange",
	}
}

// Validate checks that the tolerances are usable.
func (c *Config) Validate() error {
	if c.TimeTolerance < 0 {
		return fmt.Errorf("time tolerance must not be negative")
	}
	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("amount tolerance must not be negative")
	}
	return nil
}

// Result carries the outcome of one matching pass.
type Result struct {
	// Matched pairs, CRM entry first.
	Matched []Pair

	// Discrepancies lists unmatched entries from both ledgers, CRM
	// entries first in stored order, then gateway entries.
	Discrepancies []models.Discrepancy
}

// Pair is one matched CRM/gateway entry couple.
type Pair struct {
	CRM     models.LedgerEntry
	Gateway models.LedgerEntry
}

// DepositMatcher runs the greedy pairing between the two deposit
// ledgers.
type DepositMatcher struct {
	config *Config
}

// NewDepositMatcher creates a matcher; a nil config selects the
// defaults.
func NewDepositMatcher(config *Config) (*DepositMatcher, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &DepositMatcher{config: config}, nil
}

// Reconcile pairs the CRM deposits against the gateway deposits and
// reports the unmatched remainder of both sides.
func (m *DepositMatcher) Reconcile(crm, gateway []models.LedgerEntry) *Result {
	result := &Result{}
	consumed := make([]bool, len(gateway))

	for _, c := range crm {
		matched := false
		for i, g := range gateway {
			if consumed[i] || !m.matches(c, g) {
				continue
			}
			consumed[i] = true
			matched = true
			result.Matched = append(result.Matched, Pair{CRM: c, Gateway: g})
			break
		}
		if !matched && !m.suppressed(c) {
			result.Discrepancies = append(result.Discrepancies, discrepancyFor("CRM", c))
		}
	}

	for i, g := range gateway {
		if !consumed[i] {
			result.Discrepancies = append(result.Discrepancies, discrepancyFor("M2p", g))
		}
	}

	return result
}

// matches applies the three tolerances. Account comparison is a plain
// substring check on the stored text, case-sensitive.
func (m *DepositMatcher) matches(c, g models.LedgerEntry) bool {
	diff := c.EntryTime.Sub(g.EntryTime)
	if diff < 0 {
		diff = -diff
	}
	if diff > m.config.TimeTolerance {
		return false
	}
	if c.Account == "" || !strings.Contains(g.Account, c.Account) {
		return false
	}
	return c.Amount.Sub(g.Amount).Abs().LessThanOrEqual(m.config.AmountTolerance)
}

func (m *DepositMatcher) suppressed(c models.LedgerEntry) bool {
	if m.config.SuppressedMethod == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(c.PaymentMethod), m.config.SuppressedMethod)
}

func discrepancyFor(source string, e models.LedgerEntry) models.Discrepancy {
	return models.Discrepancy{
		Source:         source,
		Date:           e.EntryTime,
		ClientID:       e.NaturalKey,
		TradingAccount: e.Account,
		Amount:         e.Amount,
		RowID:          e.ID,
	}
}
