// Package ledger turns carrier-supplied freight ledgers (CSV or XLSX) into invoice lines
package ledger

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/amirphl/freightdesk/freight"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Format identifies the ledger file layout
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatXLSX
}

var (
	ErrUnsupportedFormat = errors.New("unsupported ledger format")
	ErrMissingColumn     = errors.New("required ledger column not found")
	ErrEmptyLedger       = errors.New("ledger has no header row")
)

// Accepted header spellings, compared after normalizeHeader
var (
	invoiceNumberHeaders = []string{"numero_nf", "nf", "nota_fiscal", "numero_nota_fiscal", "invoice_number", "invoice"}
	freightValueHeaders  = []string{"valor_frete", "frete", "invoice_freight_value", "freight_value", "freight"}
)

// MaxInvoiceNumberLength matches the width of the stored invoice number column
const MaxInvoiceNumberLength = 100

// SkippedRow reports a data row that could not be read. Row is 1-based; file ledgers count the header.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result holds the parsed lines and the rows that were dropped
type Result struct {
	Lines   []freight.InvoiceLine `json:"lines"`
	Skipped []SkippedRow          `json:"skipped,omitempty"`
}

// Parse dispatches on format
func Parse(data []byte, format Format) (*Result, error) {
	switch format {
	case FormatCSV:
		return ParseCSV(bytes.NewReader(data))
	case FormatXLSX:
		return ParseXLSX(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ParseCSV reads a comma or semicolon separated ledger.
// Input that is not valid UTF-8 is decoded as Windows-1252.
func ParseCSV(r io.Reader) (*Result, error) {
	raw, err := io.ReadAll(SkipBOM(r))
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	if !utf8.Valid(raw) {
		decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode ledger charset: %w", err)
		}
		raw = decoded
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = detectDelimiter(raw)
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
			return nil, fmt.Errorf("failed to read ledger row: %w", err)
		}
		rows = append(rows, record)
	}

	return parseRows(rows)
}

// ParseXLSX reads the first sheet of a workbook
func ParseXLSX(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyLedger
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	return parseRows(rows)
}

func parseRows(rows [][]string) (*Result, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyLedger
	}

	numberCol, valueCol, err := locateColumns(rows[0])
	if err != nil {
		return nil, err
	}

	result := &Result{Lines: make([]freight.InvoiceLine, 0, len(rows)-1)}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlankRow(row) {
			continue
		}

		number := strings.TrimSpace(cell(row, numberCol))
		if number == "" {
			continue
		}
		if err := checkInvoiceNumber(number); err != nil {
			log.Printf("WARN: ledger row %d skipped: %v", rowNum, err)
			result.Skipped = append(result.Skipped, SkippedRow{Row: rowNum, Reason: err.Error()})
			continue
		}

		value, err := ParseAmount(cell(row, valueCol))
		if err != nil {
			log.Printf("WARN: ledger row %d skipped: %v", rowNum, err)
			result.Skipped = append(result.Skipped, SkippedRow{Row: rowNum, Reason: err.Error()})
			continue
		}

		result.Lines = append(result.Lines, freight.InvoiceLine{
			InvoiceNumber:        number,
			DeclaredFreightValue: value,
		})
	}

	return result, nil
}

func locateColumns(header []string) (int, int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := normalizeHeader(name)
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	numberCol, ok := firstColumn(index, invoiceNumberHeaders)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrMissingColumn, invoiceNumberHeaders[0])
	}
	valueCol, ok := firstColumn(index, freightValueHeaders)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrMissingColumn, freightValueHeaders[0])
	}
	return numberCol, valueCol, nil
}

func firstColumn(index map[string]int, names []string) (int, bool) {
	for _, name := range names {
		if i, ok := index[name]; ok {
			return i, true
		}
	}
	return 0, false
}

// normalizeHeader lowercases, strips accents and joins words with underscores,
// so "Número NF" and "numero_nf" compare equal
func normalizeHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	stripped = strings.ToLower(strings.TrimSpace(stripped))
	return strings.Join(strings.FieldsFunc(stripped, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '.'
	}), "_")
}

func detectDelimiter(raw []byte) rune {
	firstLine, _, _ := bufio.NewReader(bytes.NewReader(raw)).ReadLine()
	if bytes.Count(firstLine, []byte{';'}) > bytes.Count(firstLine, []byte{','}) {
		return ';'
	}
	return ','
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// SkipBOM drops a leading UTF-8 byte order mark
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	peeked, err := br.Peek(3)
	if err == nil && bytes.Equal(peeked, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	return br
}
