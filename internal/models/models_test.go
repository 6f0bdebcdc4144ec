package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestEntryKindIsValid(t *testing.T) {
	for _, kind := range []EntryKind{
		KindRebate, KindCRMWithdrawal, KindCRMDeposit,
		KindM2pDeposit, KindSettlementDeposit,
		KindM2pWithdraw, KindSettlementWithdraw,
	} {
		if !kind.IsValid() {
			t.Errorf("expected %s to be valid", kind)
		}
	}

	if EntryKind("bogus").IsValid() {
		t.Error("expected bogus kind to be invalid")
	}
}

func TestLedgerEntryValidate(t *testing.T) {
	entry := LedgerEntry{
		Kind:       KindCRMDeposit,
		NaturalKey: "REQ-1",
		EntryTime:  time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		Amount:     decimal.NewFromInt(100),
	}
	if err := entry.Validate(); err != nil {
		t.Errorf("expected valid entry, got %v", err)
	}

	entry.NaturalKey = ""
	if err := entry.Validate(); err == nil {
		t.Error("expected error for missing natural key")
	}

	entry.NaturalKey = "REQ-1"
	entry.Kind = "bogus"
	if err := entry.Validate(); err == nil {
		t.Error("expected error for invalid kind")
	}
}

func TestAccountIsWelcomeBonus(t *testing.T) {
	tests := []struct {
		group    string
		expected bool
	}{
		{`WELCOME\WELCOME BBOOK`, true},
		{`welcome\welcome bbook`, true},
		{`real\WELCOME\WELCOME BBOOK\usd`, true},
		{`real\Standard`, false},
		{"", false},
	}

	for _, tt := range tests {
		a := Account{Login: "100", Group: tt.group}
		if a.IsWelcomeBonus() != tt.expected {
			t.Errorf("IsWelcomeBonus(%q) = %v, expected %v", tt.group, !tt.expected, tt.expected)
		}
	}
}

func TestSummarize(t *testing.T) {
	rows := []AccountAggregate{
		{
			Login:        "100",
			Volume:       decimal.NewFromInt(1000),
			TraderProfit: decimal.NewFromInt(50),
			Swaps:        decimal.NewFromInt(-5),
			Commission:   decimal.NewFromInt(3),
			Net:          decimal.NewFromInt(42),
		},
		{
			Login:        "200",
			Volume:       decimal.NewFromInt(500),
			TraderProfit: decimal.NewFromInt(-20),
			Swaps:        decimal.NewFromInt(1),
			Commission:   decimal.NewFromInt(2),
			Net:          decimal.NewFromInt(-21),
		},
		// Prior Summary rows must not be double-counted.
		{Login: SummaryLogin, Volume: decimal.NewFromInt(9999)},
	}

	summary := Summarize(rows)
	if !summary.IsSummary() {
		t.Fatalf("expected Summary login, got %q", summary.Login)
	}
	if !summary.Volume.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("expected volume 1500, got %s", summary.Volume)
	}
	if !summary.TraderProfit.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected trader profit 30, got %s", summary.TraderProfit)
	}
	if !summary.Net.Equal(decimal.NewFromInt(21)) {
		t.Errorf("expected net 21, got %s", summary.Net)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2.05", "2.05"},
		{"0.123456", "0.1235"},
		{"100.0000", "100"},
		{"-3.14159", "-3.1416"},
	}

	for _, tt := range tests {
		got := FormatValue(decimal.RequireFromString(tt.input))
		if got != tt.expected {
			t.Errorf("FormatValue(%s) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
