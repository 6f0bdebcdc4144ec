// Package reporter renders trade reports, advanced summaries, and
// discrepancy tables for the terminal or as CSV.
//
// Two formats are supported: console output with fixed-width tables
// for human review, and CSV for spreadsheet consumption. Rendering is
// presentation only; the tables arrive fully computed.
package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"broker-reconciliation-service/internal/books"
	"broker-reconciliation-service/internal/models"
	"broker-reconciliation-service/internal/report"
)

// OutputFormat selects the rendering.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatCSV:
		return true
	default:
		return false
	}
}

// Reporter writes report tables to an output stream.
type Reporter struct {
	format OutputFormat
}

// NewReporter creates a reporter for the given format.
func NewReporter(format OutputFormat) (*Reporter, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("invalid output format: %s", format)
	}
	return &Reporter{format: format}, nil
}

var aggregateHeader = []string{
	"Login", "Total Volume", "Trader Profit", "Swaps",
	"Commission", "TP Profit", "Broker Profit", "Net",
}

func aggregateRow(a models.AccountAggregate) []string {
	r := a.Rounded()
	return []string{
		r.Login,
		models.FormatValue(r.Volume),
		models.FormatValue(r.TraderProfit),
		models.FormatValue(r.Swaps),
		models.FormatValue(r.Commission),
		models.FormatValue(r.TPProfit),
		models.FormatValue(r.BrokerProfit),
		models.FormatValue(r.Net),
	}
}

// WriteTradeReport renders the whole trade report: one table per book
// result, the segment tables, and the final calculations.
func (r *Reporter) WriteTradeReport(w io.Writer, tr *report.TradeReport) error {
	sections := []struct {
		title string
		rows  []models.AccountAggregate
	}{
		{"A Book Result", tr.Results[books.BookA]},
		{"B Book Result", tr.Results[books.BookB]},
		{"Multi Book Result", tr.Results[books.BookMulti]},
		{"Chinese Clients", tr.ChineseClients},
		{"Client Summary", tr.ClientSummary},
	}

	for _, section := range sections {
		if err := r.writeAggregates(w, section.title, section.rows); err != nil {
			return err
		}
	}

	if err := r.writeTable(w, "VIP Volume", []string{"Value"},
		[][]string{{models.FormatValue(models.Round4(tr.VIPVolume))}}); err != nil {
		return err
	}

	return r.WriteCalculations(w, tr.FinalCalculations)
}

// WriteCalculations renders the final calculations table.
func (r *Reporter) WriteCalculations(w io.Writer, rows []models.CalculationRow) error {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = []string{row.Source, row.Description, row.Value}
	}
	return r.writeTable(w, "Final Calculations", []string{"Source", "Description", "Value"}, out)
}

// WriteMetrics renders the advanced summary metric table.
func (r *Reporter) WriteMetrics(w io.Writer, rows []models.MetricRow, dateRange string) error {
	out := make([][]string, 0, len(rows)+1)
	for _, row := range rows {
		out = append(out, []string{row.Metric, row.Value})
	}
	if dateRange != "" {
		out = append(out, []string{"Date Range", dateRange})
	}
	return r.writeTable(w, "Advanced Summary", []string{"Metric", "Value"}, out)
}

// WriteDiscrepancies renders the reconciliation discrepancy table.
func (r *Reporter) WriteDiscrepancies(w io.Writer, rows []models.Discrepancy) error {
	out := make([][]string, len(rows))
	for i, d := range rows {
		date := ""
		if !d.Date.IsZero() {
			date = d.Date.Format("2006-01-02 15:04:05")
		}
		out[i] = []string{
			d.Source, date, d.ClientID, d.TradingAccount,
			models.FormatValue(d.Amount), d.RowID,
		}
	}
	return r.writeTable(w, "Discrepancies",
		[]string{"Source", "Date", "Client ID", "Trading Account", "Amount", "Row ID"}, out)
}

func (r *Reporter) writeAggregates(w io.Writer, title string, rows []models.AccountAggregate) error {
	out := make([][]string, len(rows))
	for i, a := range rows {
		out[i] = aggregateRow(a)
	}
	return r.writeTable(w, title, aggregateHeader, out)
}

func (r *Reporter) writeTable(w io.Writer, title string, header []string, rows [][]string) error {
	switch r.format {
	case FormatCSV:
		return writeCSVTable(w, title, header, rows)
	default:
		return writeConsoleTable(w, title, header, rows)
	}
}

func writeCSVTable(w io.Writer, title string, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{title}); err != nil {
		return err
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeConsoleTable(w io.Writer, title string, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n")
	writePaddedRow(&b, header, widths)
	writePaddedRow(&b, dashes(widths), widths)
	for _, row := range rows {
		writePaddedRow(&b, row, widths)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writePaddedRow(b *strings.Builder, cells []string, widths []int) {
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(cell + strings.Repeat(" ", width-len(cell)))
	}
	b.WriteString("\n")
}

func dashes(widths []int) []string {
	out := make([]string, len(widths))
	for i, w := range widths {
		out[i] = strings.Repeat("-", w)
	}
	return out
}
