package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"broker-reconciliation-service/internal/models"
	"broker-reconciliation-service/internal/store"
	"broker-reconciliation-service/internal/store/memstore"
	"broker-reconciliation-service/pkg/errors"

	"github.com/shopspring/decimal"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestRebatesIngestion(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	p := NewProcessor(s)

	path := writeCSV(t, "rebates.csv",
		"Transaction ID,Rebate Time,Rebate\n"+
			"TX1,2024-01-15 10:30:00,12.50\n"+
			"TX2,2024-01-16 11:00:00,3.75\n"+
			"TX3,not a date,5.00\n")

	added, err := p.Rebates(ctx, path)
	if err != nil {
		t.Fatalf("ingestion failed: %v", err)
	}
	if added != 2 {
		t.Errorf("expected 2 rows added, got %d", added)
	}

	total, err := s.SumAmount(ctx, models.KindRebate, store.Range{})
	if err != nil {
		t.Fatalf("sum failed: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("16.25")) {
		t.Errorf("expected total 16.25, got %s", total)
	}
}

func TestRebatesIngestionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := NewProcessor(memstore.New())

	path := writeCSV(t, "rebates.csv",
		"Transaction ID,Rebate Time,Rebate\n"+
			"TX1,2024-01-15 10:30:00,12.50\n")

	added, err := p.Rebates(ctx, path)
	if err != nil {
		t.Fatalf("first ingestion failed: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected 1 row added on first run, got %d", added)
	}

	added, err = p.Rebates(ctx, path)
	if err != nil {
		t.Fatalf("second ingestion failed: %v", err)
	}
	if added != 0 {
		t.Errorf("expected 0 rows added on second run, got %d", added)
	}
}

func TestRebatesMissingColumn(t *testing.T) {
	p := NewProcessor(memstore.New())

	path := writeCSV(t, "rebates.csv",
		"Transaction ID,Rebate\nTX1,12.50\n")

	_, err := p.Rebates(context.Background(), path)
	if err == nil {
		t.Fatal("expected missing column error")
	}
	if !errors.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestCRMWithdrawalsIngestion(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	p := NewProcessor(s)

	path := writeCSV(t, "withdrawals.csv",
		"Request ID,Review Time,Trading Account,Withdrawal Amount\n"+
			"W1,2024-01-15 09:00:00,12345,USC 12345\n"+
			"W2,2024-01-15 10:00:00,67890,250.00\n")

	added, err := p.CRMWithdrawals(ctx, path)
	if err != nil {
		t.Fatalf("ingestion failed: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 rows added, got %d", added)
	}

	rows, err := s.Entries(ctx, models.KindCRMWithdrawal, store.Range{})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	byKey := make(map[string]models.LedgerEntry)
	for _, e := range rows {
		byKey[e.NaturalKey] = e
	}
	if !byKey["W1"].Amount.Equal(decimal.RequireFromString("123.45")) {
		t.Errorf("expected subunit amount converted to 123.45, got %s", byKey["W1"].Amount)
	}
	if byKey["W2"].Account != "67890" {
		t.Errorf("expected trading account preserved, got %q", byKey["W2"].Account)
	}
}

func TestCRMDepositsKeepPaymentMethod(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	p := NewProcessor(s)

	path := writeCSV(t, "deposits.csv",
		"Request ID,Request Time,Trading Account,Trading Amount,Payment Method\n"+
			"D1,2024-01-15 09:00:00,12345,100.00,TopChange\n")

	added, err := p.CRMDeposits(ctx, path)
	if err != nil {
		t.Fatalf("ingestion failed: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected 1 row added, got %d", added)
	}

	topChange, err := s.SumAmountByMethod(ctx, models.KindCRMDeposit, "topchange", store.Range{})
	if err != nil {
		t.Fatalf("sum failed: %v", err)
	}
	if !topChange.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected topchange sum 100, got %s", topChange)
	}
}

func TestAccountsIngestion(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	p := NewProcessor(s)

	path := writeCSV(t, "accounts.csv",
		"Login,Name,Group\n"+
			"MetaTrader 5 export,,\n"+
			"1001,Alice,real\\Standard\n"+
			`1002,Bob,WELCOME\WELCOME BBOOK`+"\n"+
			",,empty login dropped\n")

	count, welcome, err := p.Accounts(ctx, path)
	if err != nil {
		t.Fatalf("ingestion failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 accounts, got %d", count)
	}
	if welcome != 1 {
		t.Errorf("expected 1 welcome-bonus account, got %d", welcome)
	}

	logins, err := s.WelcomeBonusLogins(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(logins) != 1 || logins[0] != "1002" {
		t.Errorf("expected welcome logins [1002], got %v", logins)
	}
}

func TestAccountsReplaceWholeList(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	p := NewProcessor(s)

	first := writeCSV(t, "first.csv", "Login,Name,Group\n1001,Alice,real\\Standard\n")
	second := writeCSV(t, "second.csv", "Login,Name,Group\n2001,Carol,real\\Pro\n")

	if _, _, err := p.Accounts(ctx, first); err != nil {
		t.Fatalf("first ingestion failed: %v", err)
	}
	if _, _, err := p.Accounts(ctx, second); err != nil {
		t.Fatalf("second ingestion failed: %v", err)
	}

	accounts, err := s.Accounts(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Login != "2001" {
		t.Errorf("expected list replaced with [2001], got %+v", accounts)
	}
}

func TestPaymentsRouting(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	p := NewProcessor(s)

	path := writeCSV(t, "payments.csv",
		"TXID,TYPE,STATUS,PAYMENTGATEWAYNAME,FINALAMOUNT,TIERFEE,CREATED,TRADINGACCOUNT\n"+
			"T1,DEPOSIT,DONE,M2p,100.00,1.50,2024-01-15 10:00:00,12345\n"+
			"T2,DEPOSIT,DONE,Settlement Gateway,200.00,0,2024-01-15 10:05:00,12345\n"+
			"T3,WITHDRAW,DONE,M2p,50.00,0.75,2024-01-15 10:10:00,67890\n"+
			"T4,WITHDRAW,DONE,settlement,75.00,0,2024-01-15 10:15:00,67890\n"+
			"T5,DEPOSIT,PENDING,M2p,999.00,0,2024-01-15 10:20:00,12345\n"+
			"T6,DEPOSIT,DONE,Balance,999.00,0,2024-01-15 10:25:00,12345\n"+
			"T7,TRANSFER,DONE,M2p,999.00,0,2024-01-15 10:30:00,12345\n")

	added, err := p.Payments(ctx, path)
	if err != nil {
		t.Fatalf("ingestion failed: %v", err)
	}
	if added != 4 {
		t.Fatalf("expected 4 rows added, got %d", added)
	}

	counts := map[models.EntryKind]int64{}
	for _, kind := range models.GatewayKinds() {
		n, err := s.CountEntries(ctx, kind, store.Range{})
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		counts[kind] = n
	}
	for _, kind := range models.GatewayKinds() {
		if counts[kind] != 1 {
			t.Errorf("expected 1 entry in %s, got %d", kind, counts[kind])
		}
	}

	fee, err := s.SumTierFee(ctx, models.KindM2pDeposit, store.Range{})
	if err != nil {
		t.Fatalf("tier fee sum failed: %v", err)
	}
	if !fee.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("expected deposit tier fee 1.5, got %s", fee)
	}
}

func TestPaymentsAcceptTransactionIDHeader(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	p := NewProcessor(s)

	path := writeCSV(t, "payments.csv",
		"Transaction ID,TYPE,STATUS,PAYMENTGATEWAYNAME,FINALAMOUNT,TIERFEE,CREATED,TRADINGACCOUNT\n"+
			"T1,DEPOSIT,DONE,M2p,100.00,0,2024-01-15 10:00:00,12345\n")

	added, err := p.Payments(ctx, path)
	if err != nil {
		t.Fatalf("ingestion failed: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected 1 row added, got %d", added)
	}

	rows, err := s.Entries(ctx, models.KindM2pDeposit, store.Range{})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(rows) != 1 || rows[0].NaturalKey != "T1" {
		t.Errorf("expected transaction id keyed from alternate header, got %+v", rows)
	}
}

func TestPaymentsMissingTransactionColumn(t *testing.T) {
	p := NewProcessor(memstore.New())

	path := writeCSV(t, "payments.csv",
		"TYPE,STATUS,PAYMENTGATEWAYNAME,FINALAMOUNT\nDEPOSIT,DONE,M2p,100.00\n")

	_, err := p.Payments(context.Background(), path)
	if !errors.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestPaymentsSkipKnownTransactions(t *testing.T) {
	ctx := context.Background()
	p := NewProcessor(memstore.New())

	path := writeCSV(t, "payments.csv",
		"TXID,TYPE,STATUS,PAYMENTGATEWAYNAME,FINALAMOUNT,TIERFEE,CREATED,TRADINGACCOUNT\n"+
			"T1,DEPOSIT,DONE,M2p,100.00,0,2024-01-15 10:00:00,12345\n")

	if _, err := p.Payments(ctx, path); err != nil {
		t.Fatalf("first ingestion failed: %v", err)
	}
	added, err := p.Payments(ctx, path)
	if err != nil {
		t.Fatalf("second ingestion failed: %v", err)
	}
	if added != 0 {
		t.Errorf("expected 0 rows added on second run, got %d", added)
	}
}

func TestMissingFileAddsNothing(t *testing.T) {
	p := NewProcessor(memstore.New())

	added, err := p.Rebates(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	if err != nil {
		t.Fatalf("expected missing file tolerated, got %v", err)
	}
	if added != 0 {
		t.Errorf("expected 0 rows added, got %d", added)
	}
}
