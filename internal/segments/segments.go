// Package segments derives client-segment summaries from enriched
// per-book deal tables and persisted reference lists: the
// nationality-prefix segment, the cross-book client summary and the
// VIP volume scalar.
package segments

import (
	"strings"

	"broker-reconciliation-service/internal/books"
	"broker-reconciliation-service/internal/dedup"
	"broker-reconciliation-service/internal/models"
	"broker-reconciliation-service/internal/tabular"

	"github.com/shopspring/decimal"
)

// chinesePrefixes are the group-name prefixes that place an account in
// the Chinese client segment. Matched case-sensitively against the
// Group column.
var chinesePrefixes = []string{`real\Chines`, `BBOOK\Chines`}

// ChineseClients scans enriched book rows for accounts whose group
// carries a Chinese prefix, excluding accounts on the exclusion list,
// and sums their numeric columns per account across all books. Books
// missing any required column are skipped. The result ends with a
// Summary row; it is empty (not nil-row) when no account qualifies.
func ChineseClients(enriched map[books.Book]tabular.Table, excluded dedup.KeySet) []models.AccountAggregate {
	sums := make(map[string]*models.AccountAggregate)
	var order []string

	for _, book := range books.Order() {
		t := enriched[book]
		if t.Empty() {
			continue
		}

		required := []string{books.ColLogin, books.ColGroup, books.ColVolume, books.ColTraderProfit,
			books.ColSwaps, books.ColCommission, books.ColTPProfit, books.ColBrokerProfit}
		if len(t.MissingColumns(required...)) > 0 {
			continue
		}

		for _, row := range t.Rows {
			login, ok := models.NormalizeLogin(t.Field(row, books.ColLogin))
			if !ok || excluded.Has(login) {
				continue
			}

			group := t.Field(row, books.ColGroup)
			if !hasChinesePrefix(group) {
				continue
			}

			agg, exists := sums[login]
			if !exists {
				agg = &models.AccountAggregate{Login: login}
				sums[login] = agg
				order = append(order, login)
			}

			agg.Volume = agg.Volume.Add(models.SanitizeDecimal(t.Field(row, books.ColVolume)))
			agg.TraderProfit = agg.TraderProfit.Add(models.SanitizeDecimal(t.Field(row, books.ColTraderProfit)))
			agg.Swaps = agg.Swaps.Add(models.SanitizeDecimal(t.Field(row, books.ColSwaps)))
			agg.Commission = agg.Commission.Add(models.SanitizeDecimal(t.Field(row, books.ColCommission)))
			agg.TPProfit = agg.TPProfit.Add(models.SanitizeDecimal(t.Field(row, books.ColTPProfit)))
			agg.BrokerProfit = agg.BrokerProfit.Add(models.SanitizeDecimal(t.Field(row, books.ColBrokerProfit)))
		}
	}

	if len(order) == 0 {
		return nil
	}

	out := make([]models.AccountAggregate, 0, len(order)+1)
	for _, login := range order {
		agg := *sums[login]
		agg.Net = agg.TraderProfit.Add(agg.Swaps).Sub(agg.Commission)
		out = append(out, agg.Rounded())
	}
	out = append(out, models.Summarize(out))
	return out
}

func hasChinesePrefix(group string) bool {
	for _, prefix := range chinesePrefixes {
		if strings.HasPrefix(group, prefix) {
			return true
		}
	}
	return false
}

// ClientSummary merges every book's non-Summary aggregates into one
// cross-book per-account table, summing shared columns, and appends a
// Summary row. Nil when there are no account rows at all.
func ClientSummary(results map[books.Book][]models.AccountAggregate) []models.AccountAggregate {
	sums := make(map[string]*models.AccountAggregate)
	var order []string

	for _, book := range books.Order() {
		for _, row := range results[book] {
			if row.IsSummary() {
				continue
			}

			agg, exists := sums[row.Login]
			if !exists {
				agg = &models.AccountAggregate{Login: row.Login}
				sums[row.Login] = agg
				order = append(order, row.Login)
			}
			agg.Add(row)
		}
	}

	if len(order) == 0 {
		return nil
	}

	out := make([]models.AccountAggregate, 0, len(order)+1)
	for _, login := range order {
		out = append(out, sums[login].Rounded())
	}
	out = append(out, models.Summarize(out))
	return out
}

// VIPVolume returns the total notional volume of VIP accounts across
// all enriched books, excluding accounts on the exclusion list.
func VIPVolume(enriched map[books.Book]tabular.Table, vip, excluded dedup.KeySet) decimal.Decimal {
	total := decimal.Zero

	for _, book := range books.Order() {
		t := enriched[book]
		if t.Empty() || t.ColumnIndex(books.ColLogin) == -1 || t.ColumnIndex(books.ColVolume) == -1 {
			continue
		}

		for _, row := range t.Rows {
			login, ok := models.NormalizeLogin(t.Field(row, books.ColLogin))
			if !ok || !vip.Has(login) || excluded.Has(login) {
				continue
			}
			total = total.Add(models.SanitizeDecimal(t.Field(row, books.ColVolume)))
		}
	}

	return total
}
