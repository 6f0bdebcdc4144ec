package report

import (
	"broker-reconciliation-service/internal/books"
	"broker-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// lotDivisor converts notional USD volume to lots.
var lotDivisor = decimal.NewFromInt(200000)

// summaryOf returns a book's Summary aggregate, or a zero aggregate
// when the book is missing or empty.
func summaryOf(results map[books.Book][]models.AccountAggregate, book books.Book) models.AccountAggregate {
	for _, row := range results[book] {
		if row.IsSummary() {
			return row
		}
	}
	return models.AccountAggregate{Login: models.SummaryLogin}
}

// segmentSummary returns a segment table's Summary row, or a zero
// aggregate when the segment is empty.
func segmentSummary(rows []models.AccountAggregate) models.AccountAggregate {
	for _, row := range rows {
		if row.IsSummary() {
			return row
		}
	}
	return models.AccountAggregate{Login: models.SummaryLogin}
}

// FinalCalculations derives the fixed summary table from the book
// aggregates, the Chinese clients segment, and the VIP volume scalar.
// A missing book contributes zeros. The optional date range label is
// prepended when filtering was applied.
func FinalCalculations(results map[books.Book][]models.AccountAggregate, chinese []models.AccountAggregate, vipVolume decimal.Decimal, dateRange string) []models.CalculationRow {
	a := summaryOf(results, books.BookA)
	b := summaryOf(results, books.BookB)
	multi := summaryOf(results, books.BookMulti)
	chineseSum := segmentSummary(chinese)

	aBookTotal := a.TPProfit.Add(a.Commission).Add(multi.TPProfit).Add(multi.Commission)
	bBookTSM := b.Net.Neg()
	bBookExtra := multi.BrokerProfit.Sub(multi.TPProfit)
	bBookTotal := bBookTSM.Add(bBookExtra)
	totalSwaps := a.Swaps.Add(multi.Swaps)

	aBookLot := a.Volume.Add(multi.Volume).Div(lotDivisor)
	bBookLot := b.Volume.Div(lotDivisor)
	chineseLot := chineseSum.Volume.Div(lotDivisor)
	vipLot := vipVolume.Div(lotDivisor)
	retailLot := aBookLot.Add(bBookLot).Sub(chineseLot).Sub(vipLot)
	totalLot := aBookLot.Add(bBookLot)

	var rows []models.CalculationRow
	add := func(source, description string, value string) {
		rows = append(rows, models.CalculationRow{Source: source, Description: description, Value: value})
	}
	addValue := func(source, description string, value decimal.Decimal) {
		add(source, description, models.FormatValue(models.Round4(value)))
	}

	if dateRange != "" {
		add("DATE RANGE", "", dateRange)
		add("", "", "")
	}

	add("A BOOK SUMMARY", "", "")
	add("Source", "Description", "Value")
	addValue("A Book Result", "Sum of TP Broker Profit + Commission", a.TPProfit.Add(a.Commission))
	addValue("Multi Book Result", "Sum of TP Broker Profit + Commission", multi.TPProfit.Add(multi.Commission))
	addValue("Total A Book", "Sum of above two values", aBookTotal)
	add("", "", "")

	add("B BOOK SUMMARY", "", "")
	add("Source", "Description", "Value")
	addValue("B Book Result", "(-1) * Sum of (Trader + Swaps - Commission)", bBookTSM)
	addValue("Multi Book Result", "Total Broker Profit - TP Broker Profit", bBookExtra)
	addValue("Total B Book", "Sum of above two values", bBookTotal)
	add("", "", "")

	add("EXTRA SUMMARY DATA", "", "")
	addValue("A Book", "Client's Spread (TP Broker Profit)", a.TPProfit.Add(multi.TPProfit))
	addValue("A Book", "Client's Commission", a.Commission.Add(multi.Commission))
	addValue("Total Swap", "Sum of all Swaps", totalSwaps)
	addValue("A Book", "Volume (Lot)", aBookLot)
	addValue("B Book", "Volume (Lot)", bBookLot)
	addValue("Chinese Clients", "Volume (Lot)", chineseLot)
	addValue("VIP Clients", "Volume (Lot)", vipLot)
	addValue("Retail Clients", "Volume (Lot)", retailLot)
	addValue("Total Volume", "A Book + B Book", totalLot)

	return rows
}
