// Package books implements the trade classification and aggregation
// engine. Deal rows are partitioned into mutually exclusive books by
// their processing rule, enriched and deduplicated, then aggregated
// per account with book-specific exclusion policy.
package books

import (
	"sort"
	"strconv"

	"broker-reconciliation-service/internal/dedup"
	"broker-reconciliation-service/internal/models"
	"broker-reconciliation-service/internal/tabular"
	"broker-reconciliation-service/pkg/errors"

	"github.com/shopspring/decimal"
)

var zero = decimal.Zero

// aggregateSums accumulates the numeric columns for one account.
type aggregateSums struct {
	volume, profit, swaps, commission, tp, broker decimal.Decimal
}

// Book is a trade classification bucket.
type Book string

const (
	BookA     Book = "A Book"
	BookB     Book = "B Book"
	BookMulti Book = "Multi Book"
)

// Order returns the books in their canonical reporting order.
func Order() []Book {
	return []Book{BookA, BookB, BookMulti}
}

// Processing rule values that route deals into the A and B books.
// Every other rule lands in the Multi book.
const (
	RuleABook = "Pipwise"
	RuleBBook = "Retail B-book"
)

// Deal table columns required for aggregation. A missing column is a
// configuration error for the whole call.
const (
	ColProcessingRule = "Processing rule"
	ColLogin          = "Login"
	ColVolume         = "Notional volume in USD"
	ColTraderProfit   = "Trader profit"
	ColSwaps          = "Swaps"
	ColCommission     = "Commission"
	ColTPProfit       = "TP broker profit"
	ColBrokerProfit   = "Total broker profit"
	ColGroup          = "Group"
)

func requiredAggregateColumns() []string {
	return []string{ColLogin, ColVolume, ColTraderProfit, ColSwaps, ColCommission, ColTPProfit, ColBrokerProfit}
}

// Split converts subunit currency across the whole deals table and
// partitions rows by processing rule. The partition is total and
// disjoint: every row lands in exactly one book. A deals table without
// the processing-rule column is a configuration error.
func Split(deals tabular.Table) (map[Book]tabular.Table, error) {
	converted := tabular.ConvertSubunitTable(deals)

	out := map[Book]tabular.Table{
		BookA:     {Headers: converted.Headers},
		BookB:     {Headers: converted.Headers},
		BookMulti: {Headers: converted.Headers},
	}

	if converted.Empty() {
		return out, nil
	}

	ruleIdx := converted.ColumnIndex(ColProcessingRule)
	if ruleIdx == -1 {
		return nil, errors.MissingColumnError("deals", ColProcessingRule)
	}

	for _, row := range converted.Rows {
		book := BookMulti
		switch tabular.Cell(row, ruleIdx) {
		case RuleABook:
			book = BookA
		case RuleBBook:
			book = BookB
		}
		t := out[book]
		t.Rows = append(t.Rows, row)
		out[book] = t
	}

	return out, nil
}

// Enriched columns appended by EnrichDedupe.
const (
	ColProfitValue = "Profit Value"
	ColProfitUnit  = "Profit Unit"
	ColDate        = "Date"
	ColTime        = "Time"
)

// Positional columns of the raw deals export: the deal identifier,
// the mixed profit value+unit cell and the deal timestamp.
const (
	dealIDColumn   = 0
	profitColumn   = 6
	dealTimeColumn = 7
)

// EnrichDedupe drops repeated deal identifiers (first column,
// first-seen wins) and appends the derived Profit Value, Profit Unit,
// Date and Time columns. The operation is idempotent: re-running it on
// its own output yields the same table.
func EnrichDedupe(t tabular.Table) tabular.Table {
	if t.Empty() {
		return t
	}

	enrichedAlready := t.ColumnIndex(ColProfitValue) != -1

	out := tabular.Table{
		Headers: append([]string{}, t.Headers...),
	}
	if !enrichedAlready {
		out.Headers = append(out.Headers, ColProfitValue, ColProfitUnit, ColDate, ColTime)
	}

	seen := dedup.NewKeySet()
	for _, row := range t.Rows {
		if !seen.Add(tabular.Cell(row, dealIDColumn)) {
			continue
		}

		if enrichedAlready {
			out.Rows = append(out.Rows, append([]string{}, row...))
			continue
		}

		value, unit := models.SplitValueUnit(tabular.Cell(row, profitColumn))

		ts := models.ParseFlexibleTime(tabular.Cell(row, dealTimeColumn))
		dateStr, timeStr := "", ""
		if !ts.IsZero() {
			dateStr = ts.Format("2006-01-02")
			timeStr = ts.Format("15:04:05")
		}

		out.Rows = append(out.Rows, append(append([]string{}, row...),
			models.FormatValue(value), unit, dateStr, timeStr))
	}

	return out
}

// Aggregate groups a book's enriched rows by account and sums the
// numeric columns, applying the book's exclusion policy:
//
//   - B book, excluded account: the account is dropped entirely.
//   - A or Multi book, excluded account: Commission, TP Profit and
//     Broker Profit are zeroed; volume, profit and swaps are kept.
//
// Net = Trader Profit + Swaps - Commission, computed after zeroing.
// Rows whose login cannot be parsed are skipped. The returned slice
// ends with the synthetic Summary row. A missing required column is a
// configuration error.
func Aggregate(t tabular.Table, excluded dedup.KeySet, book Book) ([]models.AccountAggregate, error) {
	if t.Empty() {
		return nil, nil
	}

	if missing := t.MissingColumns(requiredAggregateColumns()...); len(missing) > 0 {
		return nil, errors.MissingColumnError("deals", missing[0])
	}

	loginIdx := t.ColumnIndex(ColLogin)
	volumeIdx := t.ColumnIndex(ColVolume)
	profitIdx := t.ColumnIndex(ColTraderProfit)
	swapsIdx := t.ColumnIndex(ColSwaps)
	commissionIdx := t.ColumnIndex(ColCommission)
	tpIdx := t.ColumnIndex(ColTPProfit)
	brokerIdx := t.ColumnIndex(ColBrokerProfit)

	grouped := make(map[string]*aggregateSums)
	var order []string

	for _, row := range t.Rows {
		login, ok := models.NormalizeLogin(tabular.Cell(row, loginIdx))
		if !ok {
			continue
		}

		sums, exists := grouped[login]
		if !exists {
			sums = &aggregateSums{}
			grouped[login] = sums
			order = append(order, login)
		}

		sums.volume = sums.volume.Add(models.SanitizeDecimal(tabular.Cell(row, volumeIdx)))
		sums.profit = sums.profit.Add(models.SanitizeDecimal(tabular.Cell(row, profitIdx)))
		sums.swaps = sums.swaps.Add(models.SanitizeDecimal(tabular.Cell(row, swapsIdx)))
		sums.commission = sums.commission.Add(models.SanitizeDecimal(tabular.Cell(row, commissionIdx)))
		sums.tp = sums.tp.Add(models.SanitizeDecimal(tabular.Cell(row, tpIdx)))
		sums.broker = sums.broker.Add(models.SanitizeDecimal(tabular.Cell(row, brokerIdx)))
	}

	sortLogins(order)

	var out []models.AccountAggregate
	for _, login := range order {
		isExcluded := excluded.Has(login)
		if book == BookB && isExcluded {
			continue
		}

		sums := grouped[login]
		agg := models.AccountAggregate{
			Login:        login,
			Volume:       sums.volume,
			TraderProfit: sums.profit,
			Swaps:        sums.swaps,
			Commission:   sums.commission,
			TPProfit:     sums.tp,
			BrokerProfit: sums.broker,
		}
		if isExcluded {
			agg.Commission = zero
			agg.TPProfit = zero
			agg.BrokerProfit = zero
		}
		agg.Net = agg.TraderProfit.Add(agg.Swaps).Sub(agg.Commission)
		out = append(out, agg)
	}

	if len(out) > 0 {
		out = append(out, models.Summarize(out))
	}
	return out, nil
}

// sortLogins orders account identifiers numerically where possible,
// lexically otherwise, matching the grouped output order of the
// exports this replaces.
func sortLogins(logins []string) {
	sort.SliceStable(logins, func(i, j int) bool {
		a, errA := strconv.ParseInt(logins[i], 10, 64)
		b, errB := strconv.ParseInt(logins[j], 10, 64)
		if errA == nil && errB == nil {
			return a < b
		}
		if errA == nil {
			return true
		}
		if errB == nil {
			return false
		}
		return logins[i] < logins[j]
	})
}
