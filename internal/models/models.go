// Package models defines the domain types shared across the
// reconciliation service: persisted ledger entries, account reference
// data, per-book aggregates and the parsing helpers that normalize the
// loosely structured values found in broker exports.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind identifies the ledger a persisted entry belongs to.
type EntryKind string

const (
	// KindRebate is an IB rebate export row, keyed by transaction id.
	KindRebate EntryKind = "ib_rebate"
	// KindCRMWithdrawal is a CRM withdrawal request, keyed by request id.
	KindCRMWithdrawal EntryKind = "crm_withdrawal"
	// KindCRMDeposit is a CRM deposit request, keyed by request id.
	KindCRMDeposit EntryKind = "crm_deposit"
	// KindM2pDeposit is a payment-gateway deposit outside settlement.
	KindM2pDeposit EntryKind = "m2p_deposit"
	// KindSettlementDeposit is a payment-gateway deposit through a
	// settlement gateway.
	KindSettlementDeposit EntryKind = "settlement_deposit"
	// KindM2pWithdraw is a payment-gateway withdrawal outside settlement.
	KindM2pWithdraw EntryKind = "m2p_withdraw"
	// KindSettlementWithdraw is a payment-gateway withdrawal through a
	// settlement gateway.
	KindSettlementWithdraw EntryKind = "settlement_withdraw"
)

// String returns the string representation of the kind.
func (k EntryKind) String() string {
	return string(k)
}

// IsValid checks if the entry kind is one of the known ledgers.
func (k EntryKind) IsValid() bool {
	switch k {
	case KindRebate, KindCRMWithdrawal, KindCRMDeposit,
		KindM2pDeposit, KindSettlementDeposit, KindM2pWithdraw, KindSettlementWithdraw:
		return true
	}
	return false
}

// GatewayKinds lists the four payment-gateway ledgers. The novelty
// check for gateway imports spans all of them.
func GatewayKinds() []EntryKind {
	return []EntryKind{KindM2pDeposit, KindSettlementDeposit, KindM2pWithdraw, KindSettlementWithdraw}
}

// LedgerEntry is a durable row in one of the payment ledgers. Entries
// are append-only: they are created by file ingestion, never updated,
// and deleted only by an explicit discrepancy confirmation.
type LedgerEntry struct {
	// ID is the store-assigned identifier, used for deletion.
	ID string `json:"id"`
	// Kind names the ledger this entry belongs to.
	Kind EntryKind `json:"kind"`
	// NaturalKey is the external transaction or request identifier.
	// It is unique within the store, enforced by a novelty check
	// before insert.
	NaturalKey string `json:"natural_key"`
	// EntryTime is the rebate/review/request/created timestamp, UTC.
	EntryTime time.Time `json:"entry_time"`
	// Account is the trading account reference as exported.
	Account string `json:"account"`
	// Amount is the entry amount in USD major units.
	Amount decimal.Decimal `json:"amount"`
	// PaymentMethod is set for CRM deposits only.
	PaymentMethod string `json:"payment_method,omitempty"`
	// TierFee is set for payment-gateway entries only.
	TierFee decimal.Decimal `json:"tier_fee"`
}

// Validate performs basic validation on the entry.
func (e *LedgerEntry) Validate() error {
	if !e.Kind.IsValid() {
		return fmt.Errorf("invalid entry kind: %s", e.Kind)
	}
	if strings.TrimSpace(e.NaturalKey) == "" {
		return fmt.Errorf("entry natural key cannot be empty")
	}
	if e.EntryTime.IsZero() {
		return fmt.Errorf("entry time cannot be zero")
	}
	return nil
}

// String returns a string representation of the entry.
func (e *LedgerEntry) String() string {
	return fmt.Sprintf("LedgerEntry{Kind: %s, Key: %s, Account: %s, Amount: %s, Time: %s}",
		e.Kind, e.NaturalKey, e.Account, e.Amount.String(), e.EntryTime.Format(time.RFC3339))
}

// Account is one row of the account reference list. The list is
// replaced wholesale on every reload.
type Account struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// WelcomeBonusGroup is the group-name fragment that flags an account
// as a welcome-bonus account. Matched case-insensitively.
const WelcomeBonusGroup = `WELCOME\WELCOME BBOOK`

// IsWelcomeBonus reports whether the account's group marks it as a
// welcome-bonus account.
func (a Account) IsWelcomeBonus() bool {
	return strings.Contains(strings.ToUpper(a.Group), WelcomeBonusGroup)
}

// SummaryLogin is the login of the synthetic totals row appended to
// every aggregate table.
const SummaryLogin = "Summary"

// AccountAggregate holds per-account sums for one book, or the
// synthetic Summary row with column-wise totals.
type AccountAggregate struct {
	Login        string          `json:"login"`
	Volume       decimal.Decimal `json:"total_volume"`
	TraderProfit decimal.Decimal `json:"trader_profit"`
	Swaps        decimal.Decimal `json:"swaps"`
	Commission   decimal.Decimal `json:"commission"`
	TPProfit     decimal.Decimal `json:"tp_profit"`
	BrokerProfit decimal.Decimal `json:"broker_profit"`
	Net          decimal.Decimal `json:"net"`
}

// IsSummary reports whether this is the synthetic totals row.
func (a AccountAggregate) IsSummary() bool {
	return a.Login == SummaryLogin
}

// Add accumulates another aggregate's numeric columns into this one.
func (a *AccountAggregate) Add(other AccountAggregate) {
	a.Volume = a.Volume.Add(other.Volume)
	a.TraderProfit = a.TraderProfit.Add(other.TraderProfit)
	a.Swaps = a.Swaps.Add(other.Swaps)
	a.Commission = a.Commission.Add(other.Commission)
	a.TPProfit = a.TPProfit.Add(other.TPProfit)
	a.BrokerProfit = a.BrokerProfit.Add(other.BrokerProfit)
	a.Net = a.Net.Add(other.Net)
}

// Rounded returns a copy with every numeric column rounded to the
// 4-decimal reporting precision.
func (a AccountAggregate) Rounded() AccountAggregate {
	return AccountAggregate{
		Login:        a.Login,
		Volume:       Round4(a.Volume),
		TraderProfit: Round4(a.TraderProfit),
		Swaps:        Round4(a.Swaps),
		Commission:   Round4(a.Commission),
		TPProfit:     Round4(a.TPProfit),
		BrokerProfit: Round4(a.BrokerProfit),
		Net:          Round4(a.Net),
	}
}

// Summarize returns the synthetic Summary row holding the column-wise
// totals of the given rows (any existing Summary rows are skipped).
func Summarize(rows []AccountAggregate) AccountAggregate {
	total := AccountAggregate{Login: SummaryLogin}
	for _, row := range rows {
		if row.IsSummary() {
			continue
		}
		total.Add(row)
	}
	return total.Rounded()
}

// Discrepancy is one unmatched entry from a two-ledger reconciliation
// pass. It is a reporting view over a live LedgerEntry: deleting the
// underlying row (by RowID) removes the discrepancy.
type Discrepancy struct {
	Source         string          `json:"source"`
	Date           time.Time       `json:"date"`
	ClientID       string          `json:"client_id"`
	TradingAccount string          `json:"trading_account"`
	Amount         decimal.Decimal `json:"amount"`
	RowID          string          `json:"row_id"`
}

// CalculationRow is one line of the final calculations table.
// Section headings and spacer lines carry empty values.
type CalculationRow struct {
	Source      string `json:"source"`
	Description string `json:"description"`
	Value       string `json:"value"`
}

// MetricRow is one line of the payment summary report.
type MetricRow struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
}

// Round4 rounds a value to the 4-decimal reporting precision.
func Round4(d decimal.Decimal) decimal.Decimal {
	return d.Round(4)
}

// FormatValue renders a decimal for report output at reporting
// precision, without trailing zeros.
func FormatValue(d decimal.Decimal) string {
	return Round4(d).String()
}
