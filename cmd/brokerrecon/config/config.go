// Package config wires CLI flags and environment settings into the
// stores and services the commands run against.
package config

import (
	"time"

	"broker-reconciliation-service/internal/matcher"
	"broker-reconciliation-service/internal/reporter"
	"broker-reconciliation-service/internal/store"
	"broker-reconciliation-service/internal/store/memstore"
	"broker-reconciliation-service/internal/store/pgstore"
	"broker-reconciliation-service/pkg/errors"

	"github.com/shopspring/decimal"
)

// OpenStore returns the configured store: Postgres when a DSN is set,
// otherwise an in-memory store. The in-memory store is empty per
// process, so ingestion and reporting against it only make sense
// within a single invocation or in tests.
func OpenStore(dsn string) (store.Store, error) {
	if dsn == "" {
		return memstore.New(), nil
	}
	return pgstore.Open(dsn)
}

// CreateMatcherConfig builds the matching tolerances from CLI
// overrides. Zero values select the defaults.
func CreateMatcherConfig(timeToleranceHours float64, amountTolerance float64) *matcher.Config {
	config := matcher.DefaultConfig()
	if timeToleranceHours > 0 {
		config.TimeTolerance = time.Duration(timeToleranceHours * float64(time.Hour))
	}
	if amountTolerance > 0 {
		config.AmountTolerance = decimal.NewFromFloat(amountTolerance)
	}
	return config
}

// CreateReporter builds the output renderer for the requested format.
func CreateReporter(format string) (*reporter.Reporter, error) {
	r, err := reporter.NewReporter(reporter.OutputFormat(format))
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", format, err)
	}
	return r, nil
}

// ParseDateRange converts the optional start and end date strings
// (YYYY-MM-DD) into a query range. Both must be given together.
func ParseDateRange(startDate, endDate string) (store.Range, error) {
	var r store.Range
	if startDate == "" && endDate == "" {
		return r, nil
	}
	if startDate == "" || endDate == "" {
		return r, errors.ConfigurationError(errors.CodeInvalidConfig, "date range",
			startDate+".."+endDate, nil).
			WithSuggestion("provide both --start-date and --end-date, or neither")
	}

	start, err := time.ParseInLocation("2006-01-02", startDate, time.UTC)
	if err != nil {
		return r, errors.ConfigurationError(errors.CodeInvalidConfig, "start-date", startDate, err)
	}
	end, err := time.ParseInLocation("2006-01-02", endDate, time.UTC)
	if err != nil {
		return r, errors.ConfigurationError(errors.CodeInvalidConfig, "end-date", endDate, err)
	}
	if end.Before(start) {
		return r, errors.ConfigurationError(errors.CodeInvalidConfig, "date range",
			startDate+".."+endDate, nil).
			WithSuggestion("end date must not precede start date")
	}

	// Make the end bound inclusive of the whole day.
	r.Start = start
	r.End = end.Add(24*time.Hour - time.Second)
	return r, nil
}
