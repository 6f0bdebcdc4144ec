// Package report builds the trading report from a deals export and
// the segment inputs, and the advanced summary from the persisted
// ledgers.
package report

import (
	"fmt"
	"time"

	"broker-reconciliation-service/internal/books"
	"broker-reconciliation-service/internal/dedup"
	"broker-reconciliation-service/internal/models"
	"broker-reconciliation-service/internal/segments"
	"broker-reconciliation-service/internal/tabular"
	"broker-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// Options controls a report run. Zero dates disable date filtering.
type Options struct {
	StartDate time.Time
	EndDate   time.Time
}

// TradeReport is the full output of one report run: the enriched raw
// tables, the per-book aggregates, the segment tables, and the final
// calculations.
type TradeReport struct {
	Raw               map[books.Book]tabular.Table
	Results           map[books.Book][]models.AccountAggregate
	ChineseClients    []models.AccountAggregate
	ClientSummary     []models.AccountAggregate
	VIPVolume         decimal.Decimal
	FinalCalculations []models.CalculationRow
	DateRange         string
}

// Run executes the full pipeline: split the deals into books, enrich
// and dedupe, optionally filter by date, aggregate per book, compute
// the segment tables, and derive the final calculations.
//
// The exclusion and VIP lists are plain account identifier lists.
// Missing required columns in the deals table surface as a
// configuration error; an empty deals table yields an empty report.
func Run(deals tabular.Table, exclusionList, vipList []string, opts Options) (*TradeReport, error) {
	log := logger.WithComponent("report")

	excluded := dedup.NewKeySet(exclusionList...)
	vip := dedup.NewKeySet(vipList...)

	split, err := books.Split(deals)
	if err != nil {
		return nil, err
	}

	enriched := make(map[books.Book]tabular.Table, len(split))
	for book, t := range split {
		enriched[book] = books.EnrichDedupe(t)
	}

	dateRange := ""
	if !opts.StartDate.IsZero() && !opts.EndDate.IsZero() {
		dateRange = fmt.Sprintf("From %s to %s",
			opts.StartDate.Format("2006-01-02"), opts.EndDate.Format("2006-01-02"))
		for book, t := range enriched {
			enriched[book] = tabular.FilterByDateRange(t, opts.StartDate, opts.EndDate, tabular.DateTimeColumn)
		}
	}

	results := make(map[books.Book][]models.AccountAggregate, len(enriched))
	for book, t := range enriched {
		rows, err := books.Aggregate(t, excluded, book)
		if err != nil {
			return nil, err
		}
		results[book] = rows
	}

	chinese := segments.ChineseClients(enriched, excluded)
	summary := segments.ClientSummary(results)
	vipVolume := segments.VIPVolume(enriched, vip, excluded)

	report := &TradeReport{
		Raw:            enriched,
		Results:        results,
		ChineseClients: chinese,
		ClientSummary:  summary,
		VIPVolume:      vipVolume,
		DateRange:      dateRange,
	}
	report.FinalCalculations = FinalCalculations(results, chinese, vipVolume, dateRange)

	log.WithFields(logger.Fields{
		"a_book_rows":     len(results[books.BookA]),
		"b_book_rows":     len(results[books.BookB]),
		"multi_book_rows": len(results[books.BookMulti]),
		"date_range":      dateRange,
	}).Info("trade report generated")

	return report, nil
}
