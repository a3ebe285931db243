// =============================================================================
// Shipment Report - CSV Parser Module
// =============================================================================
//
// This module turns an order export (delimited text) into an ordered list of
// field names and an ordered list of field-named records.
//
// CONTRACT:
//   - The first row is the header.
//   - Row order is preserved.
//   - Fields missing from a short row are present with an empty value; an
//     empty value is never collapsed into "absent".
//   - Rows with no non-blank value are skipped.
//
// ENCODINGS:
//   The text is decoded through golang.org/x/text before CSV parsing, so
//   exports saved as Big5 or with a UTF-8 byte order mark parse the same as
//   plain UTF-8.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/shipment-report/internal/config"
	"github.com/ginjaninja78/shipment-report/internal/model"
)

// ErrEmptyFile is returned when the source has no header row.
var ErrEmptyFile = eris.New("csv: file is empty")

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents one parsed source file.
type CSVData struct {
	// Headers contains the column headers in file order.
	Headers []string

	// Rows contains the data rows as field-named records.
	Rows []model.Record

	// SourceFile is the base name of the source.
	SourceFile string

	// RowCount is the number of data rows (excluding the header).
	RowCount int
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseFile opens and parses a CSV file.
func ParseFile(filePath string, settings config.CSVSettings) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: open %s", filePath)
	}
	defer file.Close()

	return Parse(bufio.NewReader(file), filepath.Base(filePath), settings)
}

// Parse reads delimited text from r.
//
// PARAMETERS:
//   - r: The raw bytes of the export.
//   - name: The source name recorded on the result (used in logs and stats).
//   - settings: Delimiter, encoding and trimming options.
//
// RETURNS:
//   - The parsed data.
//   - ErrEmptyFile if there is no header row, or a wrapped read error for
//     malformed text.
func Parse(r io.Reader, name string, settings config.CSVSettings) (*CSVData, error) {
	decoded, err := decodeReader(r, settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(decoded)
	if err := configureReader(csvReader, settings); err != nil {
		return nil, err
	}

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "csv: read %s", name)
	}

	if len(allRows) == 0 {
		return nil, eris.Wrapf(ErrEmptyFile, "csv: %s", name)
	}

	headers := cleanHeaders(allRows[0])
	rows := extractDataRows(allRows[1:], headers, settings.TrimSpace)

	return &CSVData{
		Headers:    headers,
		Rows:       rows,
		SourceFile: name,
		RowCount:   len(rows),
	}, nil
}

// decodeReader wraps r with a decoder for the configured encoding. A byte
// order mark, when present, overrides the configured encoding.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	label := strings.ToLower(strings.TrimSpace(encoding))
	if label == "" || label == "utf-8" || label == "utf8" {
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: unsupported encoding %q", encoding)
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// configureReader applies the delimiter and leniency settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) error {
	switch settings.Delimiter {
	case "", ",":
		reader.Comma = ','
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		runes := []rune(settings.Delimiter)
		if len(runes) != 1 {
			return eris.Errorf("csv: delimiter %q must be a single character", settings.Delimiter)
		}
		reader.Comma = runes[0]
	}

	// Exports are not always rectangular; short rows are padded later.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	return nil
}

// cleanHeaders trims header names and names blank columns by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}

// extractDataRows converts raw rows to records keyed by header.
func extractDataRows(rawRows [][]string, headers []string, trim bool) []model.Record {
	rows := make([]model.Record, 0, len(rawRows))

	for _, raw := range rawRows {
		if isRowEmpty(raw) {
			continue
		}

		record := make(model.Record, len(headers))
		for col, header := range headers {
			value := ""
			if col < len(raw) {
				value = raw[col]
				if trim {
					value = strings.TrimSpace(value)
				}
			}
			record[header] = value
		}

		rows = append(rows, record)
	}

	return rows
}

// isRowEmpty checks if a row contains only blank values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
