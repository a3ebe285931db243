// =============================================================================
// Shipment Report - Existing Report Loader
// =============================================================================
//
// This module re-loads a report produced by an earlier run so that a new batch
// can be merged into it. Every sheet is returned as its header row plus the
// remaining rows as raw positional arrays, in workbook order.
//
// REPORT STRUCTURE (as written by reportwriter):
//
//   | Sheet    | Contents                                        |
//   |----------|-------------------------------------------------|
//   | 宅配      | export header + mother/child rows               |
//   | 7-11     | export header + mother/child rows               |
//   | 全家      | export header + mother/child rows               |
//   | 未分類    | export header + unclassified rows               |
//   | 統計      | aggregate header + one row per period           |
//
// Sheet names double as bucket names. Deciding which sheets matter is left to
// the engine; the loader keeps them all.
//
// =============================================================================

package reportloader

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/shipment-report/internal/model"
)

// ErrNoSheets is returned when a workbook has no sheet with a header row.
var ErrNoSheets = eris.New("report: workbook has no data sheets")

// =============================================================================
// LOADER FUNCTIONS
// =============================================================================

// Load opens an XLSX report from disk.
//
// PARAMETERS:
//   - reportPath: The path to the report workbook.
//
// RETURNS:
//   - The loaded report.
//   - An error if the file cannot be opened or read, or has no data sheets.
func Load(reportPath string) (*model.ExistingReport, error) {
	f, err := excelize.OpenFile(reportPath)
	if err != nil {
		return nil, eris.Wrapf(err, "report: open %s", reportPath)
	}
	defer f.Close()

	report, err := LoadFile(f)
	if err != nil {
		return nil, eris.Wrapf(err, "report: load %s", reportPath)
	}
	report.SourceFile = reportPath
	return report, nil
}

// LoadReader reads an XLSX report from an arbitrary stream.
func LoadReader(r io.Reader, name string) (*model.ExistingReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, eris.Wrapf(err, "report: open %s", name)
	}
	defer f.Close()

	report, err := LoadFile(f)
	if err != nil {
		return nil, eris.Wrapf(err, "report: load %s", name)
	}
	report.SourceFile = name
	return report, nil
}

// LoadFile reads every sheet of an already opened workbook.
func LoadFile(f *excelize.File) (*model.ExistingReport, error) {
	report := &model.ExistingReport{
		Sheets: make(map[string]*model.ExistingSheet),
	}

	for _, sheetName := range f.GetSheetList() {
		sheet, err := loadSheet(f, sheetName)
		if err != nil {
			return nil, err
		}
		if sheet == nil {
			continue
		}
		report.SheetNames = append(report.SheetNames, sheetName)
		report.Sheets[sheetName] = sheet
	}

	if len(report.SheetNames) == 0 {
		return nil, ErrNoSheets
	}

	return report, nil
}

// loadSheet returns nil for a sheet without any rows.
func loadSheet(f *excelize.File, sheetName string) (*model.ExistingSheet, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, eris.Wrapf(err, "report: read sheet %q", sheetName)
	}

	// Leading blank rows are not a header.
	start := 0
	for start < len(rows) && isRowEmpty(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, nil
	}

	header := rows[start]
	width := len(header)

	data := make([][]string, 0, len(rows)-start-1)
	for _, row := range rows[start+1:] {
		// Blank rows carry no order data.
		if isRowEmpty(row) {
			continue
		}
		data = append(data, padRow(row, width))
	}

	return &model.ExistingSheet{
		Name:   sheetName,
		Header: header,
		Rows:   data,
	}, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// padRow extends rows that excelize returned without their trailing empty
// cells, so every row is at least as wide as the header.
func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
