// Package ingest loads CRM, payment gateway, and account list exports
// into the persisted ledger. Each file is processed in a single
// transaction: rows already known by their natural key are skipped,
// and a failed transaction reports zero rows added.
package ingest

import (
	"context"
	"strings"

	"broker-reconciliation-service/internal/dedup"
	"broker-reconciliation-service/internal/models"
	"broker-reconciliation-service/internal/store"
	"broker-reconciliation-service/internal/tabular"
	"broker-reconciliation-service/pkg/errors"
	"broker-reconciliation-service/pkg/logger"
)

// Column names of the CRM exports, matched after header
// canonicalization.
const (
	colTransactionID    = "Transaction ID"
	colRebateTime       = "Rebate Time"
	colRebateAmount     = "Rebate"
	colReviewTime       = "Review Time"
	colTradingAccount   = "Trading Account"
	colWithdrawalAmount = "Withdrawal Amount"
	colRequestID        = "Request ID"
	colRequestTime      = "Request Time"
	colTradingAmount    = "Trading Amount"
	colPaymentMethod    = "Payment Method"
	colLogin            = "Login"
	colName             = "Name"
	colGroup            = "Group"
)

// Column names of the payment gateway export.
const (
	colGatewayTxID    = "TXID"
	colGatewayAmount  = "FINALAMOUNT"
	colGatewayTierFee = "TIERFEE"
	colGatewayCreated = "CREATED"
	colGatewayStatus  = "STATUS"
	colGatewayType    = "TYPE"
	colGatewayName    = "PAYMENTGATEWAYNAME"
	colGatewayAccount = "TRADINGACCOUNT"
)

// Processor runs file ingestion against an injected store.
type Processor struct {
	store store.Store
	log   logger.Logger
}

// NewProcessor creates an ingestion processor bound to the given store.
func NewProcessor(s store.Store) *Processor {
	return &Processor{
		store: s,
		log:   logger.WithComponent("ingest"),
	}
}

// Rebates ingests an IB rebate export. Returns the number of rows
// added; rows whose transaction id is already stored add nothing.
func (p *Processor) Rebates(ctx context.Context, path string) (int, error) {
	t := tabular.ReadFile(path)
	if t.Empty() {
		return 0, nil
	}
	if missing := t.MissingColumns(colTransactionID, colRebateTime); len(missing) > 0 {
		return 0, errors.MissingColumnError(path, strings.Join(missing, ", "))
	}

	existing, err := p.existingKeys(ctx, models.KindRebate)
	if err != nil {
		return 0, err
	}

	var entries []models.LedgerEntry
	for _, row := range t.Rows {
		txID := strings.TrimSpace(t.Field(row, colTransactionID))
		if !existing.Add(txID) {
			continue
		}
		when := models.ParseFlexibleTime(t.Field(row, colRebateTime))
		if when.IsZero() {
			p.log.WithField("transaction_id", txID).Warn("skipping rebate row with invalid date")
			continue
		}
		entries = append(entries, models.LedgerEntry{
			Kind:       models.KindRebate,
			NaturalKey: txID,
			EntryTime:  when,
			Amount:     models.SanitizeDecimal(t.Field(row, colRebateAmount)),
		})
	}

	return p.commit(ctx, path, entries)
}

// CRMWithdrawals ingests a CRM withdrawal export keyed by request id.
func (p *Processor) CRMWithdrawals(ctx context.Context, path string) (int, error) {
	t := tabular.ReadFile(path)
	if t.Empty() {
		return 0, nil
	}
	required := []string{colReviewTime, colTradingAccount, colWithdrawalAmount, colRequestID}
	if missing := t.MissingColumns(required...); len(missing) > 0 {
		return 0, errors.MissingColumnError(path, strings.Join(missing, ", "))
	}

	existing, err := p.existingKeys(ctx, models.KindCRMWithdrawal)
	if err != nil {
		return 0, err
	}

	var entries []models.LedgerEntry
	for _, row := range t.Rows {
		reqID := strings.TrimSpace(t.Field(row, colRequestID))
		if !existing.Add(reqID) {
			continue
		}
		when := models.ParseFlexibleTime(t.Field(row, colReviewTime))
		if when.IsZero() {
			continue
		}
		entries = append(entries, models.LedgerEntry{
			Kind:       models.KindCRMWithdrawal,
			NaturalKey: reqID,
			EntryTime:  when,
			Account:    strings.TrimSpace(t.Field(row, colTradingAccount)),
			Amount:     models.ParseAmountWithUnit(t.Field(row, colWithdrawalAmount)),
		})
	}

	return p.commit(ctx, path, entries)
}

// CRMDeposits ingests a CRM deposit export keyed by request id. The
// payment method column is optional and preserved for later routing.
func (p *Processor) CRMDeposits(ctx context.Context, path string) (int, error) {
	t := tabular.ReadFile(path)
	if t.Empty() {
		return 0, nil
	}
	required := []string{colRequestTime, colTradingAccount, colTradingAmount, colRequestID}
	if missing := t.MissingColumns(required...); len(missing) > 0 {
		return 0, errors.MissingColumnError(path, strings.Join(missing, ", "))
	}

	existing, err := p.existingKeys(ctx, models.KindCRMDeposit)
	if err != nil {
		return 0, err
	}

	var entries []models.LedgerEntry
	for _, row := range t.Rows {
		reqID := strings.TrimSpace(t.Field(row, colRequestID))
		if !existing.Add(reqID) {
			continue
		}
		when := models.ParseFlexibleTime(t.Field(row, colRequestTime))
		if when.IsZero() {
			continue
		}
		entries = append(entries, models.LedgerEntry{
			Kind:          models.KindCRMDeposit,
			NaturalKey:    reqID,
			EntryTime:     when,
			Account:       strings.TrimSpace(t.Field(row, colTradingAccount)),
			Amount:        models.ParseAmountWithUnit(t.Field(row, colTradingAmount)),
			PaymentMethod: strings.TrimSpace(t.Field(row, colPaymentMethod)),
		})
	}

	return p.commit(ctx, path, entries)
}

// Accounts ingests an account list export, replacing the whole
// reference list. Returns account and welcome-bonus counts.
func (p *Processor) Accounts(ctx context.Context, path string) (int, int, error) {
	t := tabular.ReadFile(path)
	if t.Empty() {
		return 0, 0, nil
	}
	t = skipMetadataRow(t)
	if missing := t.MissingColumns(colLogin, colName, colGroup); len(missing) > 0 {
		return 0, 0, errors.MissingColumnError(path, strings.Join(missing, ", "))
	}

	var accounts []models.Account
	welcome := 0
	for _, row := range t.Rows {
		login := strings.TrimSpace(t.Field(row, colLogin))
		if login == "" {
			continue
		}
		a := models.Account{
			Login: login,
			Name:  strings.TrimSpace(t.Field(row, colName)),
			Group: strings.TrimSpace(t.Field(row, colGroup)),
		}
		if a.IsWelcomeBonus() {
			welcome++
		}
		accounts = append(accounts, a)
	}

	if err := p.store.ReplaceAccounts(ctx, accounts); err != nil {
		p.log.WithError(err).WithField("file", path).Error("account list replace failed")
		return 0, 0, nil
	}
	return len(accounts), welcome, nil
}

// Payments ingests a payment gateway export, routing each row to one
// of four ledgers by TYPE and gateway name. Rows whose STATUS is not
// DONE and rows on the internal BALANCE gateway are dropped.
func (p *Processor) Payments(ctx context.Context, path string) (int, error) {
	t := tabular.ReadFile(path)
	if t.Empty() {
		return 0, nil
	}
	// Some gateway exports label the transaction id column
	// "Transaction ID" instead of TXID.
	txCol := colGatewayTxID
	if t.ColumnIndex(txCol) < 0 {
		txCol = colTransactionID
	}
	if t.ColumnIndex(txCol) < 0 {
		return 0, errors.MissingColumnError(path, colGatewayTxID)
	}

	existing, err := p.existingKeys(ctx, models.GatewayKinds()...)
	if err != nil {
		return 0, err
	}

	var entries []models.LedgerEntry
	for _, row := range t.Rows {
		txID := strings.TrimSpace(t.Field(row, txCol))
		if txID == "" || existing.Has(txID) {
			continue
		}

		status := strings.ToUpper(strings.TrimSpace(t.Field(row, colGatewayStatus)))
		gateway := strings.ToUpper(strings.TrimSpace(t.Field(row, colGatewayName)))
		if status != "DONE" || gateway == "BALANCE" {
			continue
		}

		kind, ok := routeGatewayRow(strings.ToUpper(strings.TrimSpace(t.Field(row, colGatewayType))), gateway)
		if !ok {
			continue
		}

		when := models.ParseFlexibleTime(t.Field(row, colGatewayCreated))
		if when.IsZero() {
			continue
		}

		entries = append(entries, models.LedgerEntry{
			Kind:       kind,
			NaturalKey: txID,
			EntryTime:  when,
			Account:    strings.TrimSpace(t.Field(row, colGatewayAccount)),
			Amount:     models.SanitizeDecimal(t.Field(row, colGatewayAmount)),
			TierFee:    models.SanitizeDecimal(t.Field(row, colGatewayTierFee)),
		})
		existing.Add(txID)
	}

	return p.commit(ctx, path, entries)
}

// routeGatewayRow maps a payment row's TYPE and gateway name to a
// destination ledger.
func routeGatewayRow(rowType, gateway string) (models.EntryKind, bool) {
	settlement := strings.Contains(gateway, "SETTLEMENT")
	switch rowType {
	case "DEPOSIT":
		if settlement {
			return models.KindSettlementDeposit, true
		}
		return models.KindM2pDeposit, true
	case "WITHDRAW":
		if settlement {
			return models.KindSettlementWithdraw, true
		}
		return models.KindM2pWithdraw, true
	}
	return "", false
}

// skipMetadataRow drops a leading platform banner row some account
// exports carry before the data.
func skipMetadataRow(t tabular.Table) tabular.Table {
	if len(t.Rows) == 0 {
		return t
	}
	joined := strings.ToUpper(strings.Join(t.Rows[0], " "))
	if strings.Contains(joined, "METATRADER") {
		t.Rows = t.Rows[1:]
	}
	return t
}

func (p *Processor) existingKeys(ctx context.Context, kinds ...models.EntryKind) (dedup.KeySet, error) {
	keys, err := p.store.ExistingKeys(ctx, kinds...)
	if err != nil {
		return nil, errors.PersistenceError(errors.CodeStoreUnavailable, "load existing keys", err)
	}
	return dedup.KeySet(keys), nil
}

// commit writes the staged entries in one transaction. Persistence
// failures roll back and report zero rows, leaving other files'
// commits untouched.
func (p *Processor) commit(ctx context.Context, path string, entries []models.LedgerEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	if err := p.store.BulkInsert(ctx, entries); err != nil {
		p.log.WithError(err).WithField("file", path).Error("ingestion transaction failed")
		return 0, nil
	}
	return len(entries), nil
}
