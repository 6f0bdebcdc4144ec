package report

import (
	"context"
	"testing"
	"time"

	"broker-reconciliation-service/internal/models"
	"broker-reconciliation-service/internal/store"
	"broker-reconciliation-service/internal/store/memstore"

	"github.com/shopspring/decimal"
)

func ledgerEntry(kind models.EntryKind, key, account, method string, amount, tierFee float64, at time.Time) models.LedgerEntry {
	return models.LedgerEntry{
		Kind:          kind,
		NaturalKey:    key,
		EntryTime:     at,
		Account:       account,
		PaymentMethod: method,
		Amount:        decimal.NewFromFloat(amount),
		TierFee:       decimal.NewFromFloat(tierFee),
	}
}

func metricValue(t *testing.T, rows []models.MetricRow, metric string) string {
	t.Helper()
	for _, row := range rows {
		if row.Metric == metric {
			return row.Value
		}
	}
	t.Fatalf("metric %q not found in %+v", metric, rows)
	return ""
}

func TestAdvancedSummary(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	entries := []models.LedgerEntry{
		ledgerEntry(models.KindRebate, "tx1", "", "", 10, 0, base),
		ledgerEntry(models.KindRebate, "tx2", "", "", 5, 0, base),
		ledgerEntry(models.KindM2pDeposit, "T1", "12345", "", 100, 1.5, base),
		ledgerEntry(models.KindSettlementDeposit, "T2", "12345", "", 200, 0.5, base),
		ledgerEntry(models.KindM2pWithdraw, "T3", "67890", "", 50, 0.25, base),
		ledgerEntry(models.KindSettlementWithdraw, "T4", "67890", "", 75, 0, base),
		ledgerEntry(models.KindCRMDeposit, "D1", "12345", "TopChange", 300, 0, base),
		ledgerEntry(models.KindCRMDeposit, "D2", "12345", "bank wire", 100, 0, base),
		ledgerEntry(models.KindCRMWithdrawal, "W1", "1002", "", 40, 0, base),
		ledgerEntry(models.KindCRMWithdrawal, "W2", "67890", "", 60, 0, base),
	}
	if err := s.BulkInsert(ctx, entries); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	err := s.ReplaceAccounts(ctx, []models.Account{
		{Login: "1002", Name: "Bob", Group: `WELCOME\WELCOME BBOOK`},
	})
	if err != nil {
		t.Fatalf("account replace failed: %v", err)
	}

	rows, err := AdvancedSummary(ctx, s, store.Range{})
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if len(rows) != 11 {
		t.Fatalf("expected 11 metrics, got %d", len(rows))
	}

	expected := map[string]string{
		"Total Rebate":              "2",
		"M2p Deposit":               "100",
		"Settlement Deposit":        "200",
		"M2p Withdrawal":            "50",
		"Settlement Withdrawal":     "75",
		"CRM Deposit Total":         "400",
		"Tier Fee Deposit":          "2",
		"Tier Fee Withdraw":         "0.25",
		"Welcome Bonus Withdrawals": "40",
		"CRM TopChange Total":       "300",
		"CRM Withdraw Total":        "100",
	}
	for metric, want := range expected {
		if got := metricValue(t, rows, metric); got != want {
			t.Errorf("%s: expected %s, got %s", metric, want, got)
		}
	}

	// The first metric stays the rebate count.
	if rows[0].Metric != "Total Rebate" {
		t.Errorf("expected Total Rebate first, got %q", rows[0].Metric)
	}
}

func TestAdvancedSummaryRespectsDateRange(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	jan := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)
	err := s.BulkInsert(ctx, []models.LedgerEntry{
		ledgerEntry(models.KindM2pDeposit, "T1", "12345", "", 100, 0, jan),
		ledgerEntry(models.KindM2pDeposit, "T2", "12345", "", 900, 0, feb),
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	janOnly := store.Range{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
	}
	rows, err := AdvancedSummary(ctx, s, janOnly)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if got := metricValue(t, rows, "M2p Deposit"); got != "100" {
		t.Errorf("expected January-only total 100, got %s", got)
	}
}
