package tabular

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// subunitPattern matches "<number> USC" (case-insensitive, optional
// whitespace before the unit) anywhere in a cell.
var subunitPattern = regexp.MustCompile(`(?i)(\d[\d.\-]*)\s*usc`)

var hundred = decimal.NewFromInt(100)

// ConvertSubunitCurrency rewrites every "<number> USC" occurrence in a
// cell to "<number/100> USD" with four decimal places. Numbers that
// fail to parse are left untouched.
func ConvertSubunitCurrency(s string) string {
	return subunitPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := subunitPattern.FindStringSubmatch(match)
		value, err := decimal.NewFromString(sub[1])
		if err != nil {
			return match
		}
		return value.Div(hundred).StringFixed(4) + " USD"
	})
}

// ConvertSubunitTable applies ConvertSubunitCurrency to every cell of
// the table, returning a new table.
func ConvertSubunitTable(t Table) Table {
	out := Table{
		Headers: append([]string{}, t.Headers...),
		Rows:    make([][]string, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		converted := make([]string, len(row))
		for i, cell := range row {
			converted[i] = ConvertSubunitCurrency(cell)
		}
		out.Rows = append(out.Rows, converted)
	}
	return out
}
