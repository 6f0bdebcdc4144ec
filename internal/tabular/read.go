package tabular

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"broker-reconciliation-service/pkg/logger"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// ReadFile reads a CSV or XLSX export with automatic format detection
// and returns its contents. The first row becomes the header. Any
// failure - missing file, undecodable bytes, corrupt workbook - yields
// an empty Table; read errors are logged, never surfaced, because
// downstream treats an empty table as "no data".
func ReadFile(path string) Table {
	rows := readRows(path)
	if len(rows) == 0 {
		return Table{}
	}
	return Table{Headers: rows[0], Rows: rows[1:]}
}

// ReadColumnList reads a headerless single-column export (exclusion
// and VIP lists) and returns the trimmed first-column values.
func ReadColumnList(path string) []string {
	var values []string
	for _, row := range readRows(path) {
		if v := Cell(row, 0); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func readRows(path string) [][]string {
	log := logger.WithComponent("tabular").WithField("file_path", path)

	if path == "" {
		return nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		rows, err := readWorkbook(path)
		if err != nil {
			log.WithError(err).Warn("Failed to read spreadsheet, treating as empty")
			return nil
		}
		return rows
	default:
		rows, err := readDelimited(path)
		if err != nil {
			log.WithError(err).Warn("Failed to read delimited file, treating as empty")
			return nil
		}
		return rows
	}
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	return f.GetRows(sheets[0])
}

func readDelimited(path string) ([][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = detectSeparator(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// decodeText decodes file bytes as UTF-8 (BOM tolerated), falling back
// to Latin-1 when the bytes are not valid UTF-8. Latin-1 maps every
// byte, so the fallback cannot fail.
func decodeText(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	if utf8.Valid(raw) {
		return string(raw), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// detectSeparator compares tab, semicolon and comma counts in the
// header line. Ties break toward tab, then semicolon.
func detectSeparator(text string) rune {
	header := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		header = text[:i]
	}

	tabs := strings.Count(header, "\t")
	semis := strings.Count(header, ";")
	commas := strings.Count(header, ",")

	switch {
	case tabs >= semis && tabs >= commas && tabs > 0:
		return '\t'
	case semis >= commas && semis > 0:
		return ';'
	default:
		return ','
	}
}
