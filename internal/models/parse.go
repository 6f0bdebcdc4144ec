package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// flexibleTimeLayouts are tried in order by ParseFlexibleTime. The
// day-first dotted form used by the trading platform comes first.
var flexibleTimeLayouts = []string{
	"02.01.2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// fallbackTimeLayouts are the best-effort layouts tried after the
// literal patterns fail.
var fallbackTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006.01.02 15:04:05",
}

// ParseFlexibleTime parses a timestamp in any of the supported export
// formats and returns it in UTC. It never fails: unparseable input
// yields the zero time, which callers check with IsZero.
func ParseFlexibleTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	for _, layout := range flexibleTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC()
		}
	}

	for _, layout := range fallbackTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC()
		}
	}

	return time.Time{}
}

// SanitizeDecimal coerces free text to a decimal value. Every
// character except digits, '.' and '-' is stripped; an empty result or
// unparseable remainder coerces to zero. It never fails.
func SanitizeDecimal(s string) decimal.Decimal {
	stripped := StripNonNumeric(s)
	if stripped == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(stripped)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// StripNonNumeric removes every character except digits, '.' and '-'.
func StripNonNumeric(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if (ch >= '0' && ch <= '9') || ch == '.' || ch == '-' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// ParseAmountWithUnit parses amount text that may carry a USC or USD
// unit, in either order: "USC 12345", "100.50 USC", "120.50 USD". The
// whole string is sanitized for digits, so the unit position does not
// matter. Subunit (USC) amounts are converted to major units.
func ParseAmountWithUnit(s string) decimal.Decimal {
	upper := strings.ToUpper(strings.TrimSpace(s))
	if upper == "" {
		return decimal.Zero
	}

	amount := SanitizeDecimal(upper)
	if strings.Contains(upper, "USC") {
		return amount.Div(decimal.NewFromInt(100))
	}
	return amount
}

// NormalizeLogin canonicalizes an account identifier cell. Exports
// variously render logins as integers or floats ("100", "100.0");
// both normalize to the integer string. Returns false for empty or
// non-numeric input, which callers treat as a skippable row.
func NormalizeLogin(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", false
	}

	return d.Truncate(0).String(), true
}

// SplitValueUnit splits a mixed numeric+unit string into its numeric
// value and the upper-trimmed unit remainder, e.g. "2.5 usd" into
// (2.5, "USD").
func SplitValueUnit(s string) (decimal.Decimal, string) {
	var num, unit strings.Builder
	for _, ch := range s {
		if (ch >= '0' && ch <= '9') || ch == '.' || ch == '-' {
			num.WriteRune(ch)
		} else {
			unit.WriteRune(ch)
		}
	}

	return SanitizeDecimal(num.String()), strings.ToUpper(strings.TrimSpace(unit.String()))
}
