// =============================================================================
// Shipment Report - Report Writer Module
// =============================================================================
//
// This module renders the result of a run as an XLSX workbook. The workbook
// is also the input of the next run (see reportloader), so sheet names and
// header rows must round-trip.
//
// WORKBOOK STRUCTURE:
//
//   | Sheet            | Written when                    | Contents                       |
//   |------------------|---------------------------------|--------------------------------|
//   | one per carrier  | the bucket has rows             | header + merged rows           |
//   | unclassified     | the session has unclassified    | header + rows                  |
//   | summary          | always                          | aggregate header + one row per |
//   |                  |                                 | period, most recent first      |
//
// Carrier sheets follow the configured bucket order. Order rows are written
// as text, exactly as read; aggregate cells are written as numbers.
//
// =============================================================================

package reportwriter

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/shipment-report/internal/engine"
	"github.com/ginjaninja78/shipment-report/internal/model"
)

// ErrNothingToWrite is returned for a result without any row.
var ErrNothingToWrite = eris.New("report: nothing to write")

// =============================================================================
// WRITE OPTIONS
// =============================================================================

// WriteOptions controls the layout of the workbook.
type WriteOptions struct {
	// ColumnWidths sets the width of order-sheet columns by header name.
	ColumnWidths map[string]float64

	// DefaultWidth applies to order-sheet columns not in ColumnWidths.
	DefaultWidth float64

	// SummaryWidth applies to every column of the summary sheet.
	SummaryWidth float64

	// BoldHeader styles the header row of every sheet.
	BoldHeader bool
}

// DefaultWriteOptions returns the layout used for every report.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{
		ColumnWidths: map[string]float64{
			"Paid at":       20,
			"Created at":    20,
			"Fulfilled at":  20,
			"Lineitem name": 30,
			"Email":         30,
		},
		DefaultWidth: 12,
		SummaryWidth: 12,
		BoldHeader:   true,
	}
}

// widthOf returns the width of an order-sheet column.
func (o WriteOptions) widthOf(header string) float64 {
	if w, ok := o.ColumnWidths[header]; ok {
		return w
	}
	return o.DefaultWidth
}

// =============================================================================
// WRITE FUNCTIONS
// =============================================================================

// WriteFile writes the report to path, creating the parent directory.
func WriteFile(path string, result *engine.Result, options WriteOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "report: create directory for %s", path)
	}

	f, err := Build(result, options)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

// Write streams the report to w.
func Write(w io.Writer, result *engine.Result, options WriteOptions) error {
	f, err := Build(result, options)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write workbook")
	}
	return nil
}

// Build creates the workbook in memory.
//
// PARAMETERS:
//   - result: The output of engine.Run.
//   - options: Layout options.
//
// RETURNS:
//   - The workbook; the caller must Close it.
//   - ErrNothingToWrite when no bucket, unclassified or summary row exists.
func Build(result *engine.Result, options WriteOptions) (*excelize.File, error) {
	var sheets []*engine.BucketData
	for _, data := range result.Buckets {
		if len(data.Rows) > 0 {
			sheets = append(sheets, data)
		}
	}
	if result.Unclassified != nil && len(result.Unclassified.Rows) > 0 {
		sheets = append(sheets, result.Unclassified)
	}
	if len(sheets) == 0 && len(result.Summary) == 0 {
		return nil, ErrNothingToWrite
	}

	w := &workbook{
		f:       excelize.NewFile(),
		options: options,
		first:   true,
	}
	if options.BoldHeader {
		style, err := w.f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true},
		})
		if err != nil {
			w.f.Close()
			return nil, eris.Wrap(err, "report: header style")
		}
		w.headerStyle = style
	}

	for _, data := range sheets {
		if err := w.writeBucket(data); err != nil {
			w.f.Close()
			return nil, err
		}
	}
	if err := w.writeSummary(result.SummarySheet, result.Schema, result.Summary); err != nil {
		w.f.Close()
		return nil, err
	}

	w.f.SetActiveSheet(0)
	return w.f, nil
}

// =============================================================================
// SHEET WRITERS
// =============================================================================

type workbook struct {
	f           *excelize.File
	options     WriteOptions
	headerStyle int

	// first is true until the default sheet has been claimed.
	first bool
}

// addSheet claims the default "Sheet1" for the first sheet and creates the
// others.
func (w *workbook) addSheet(name string) error {
	if w.first {
		w.first = false
		if err := w.f.SetSheetName("Sheet1", name); err != nil {
			return eris.Wrapf(err, "report: name sheet %q", name)
		}
		return nil
	}
	if _, err := w.f.NewSheet(name); err != nil {
		return eris.Wrapf(err, "report: add sheet %q", name)
	}
	return nil
}

func (w *workbook) writeBucket(data *engine.BucketData) error {
	name := string(data.Name)
	if err := w.addSheet(name); err != nil {
		return err
	}

	if err := w.writeRow(name, 1, stringCells(data.Header)); err != nil {
		return err
	}
	for i, rec := range data.Rows {
		if err := w.writeRow(name, i+2, stringCells(rec.Values(data.Header))); err != nil {
			return err
		}
	}

	if err := w.styleHeader(name, len(data.Header)); err != nil {
		return err
	}
	for i, h := range data.Header {
		if err := w.setWidth(name, i+1, w.options.widthOf(h)); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) writeSummary(name string, schema []model.SummaryColumn, summaries []*model.PeriodSummary) error {
	if err := w.addSheet(name); err != nil {
		return err
	}

	header := make([]interface{}, len(schema))
	for i, c := range schema {
		header[i] = c.Header
	}
	if err := w.writeRow(name, 1, header); err != nil {
		return err
	}

	for r, s := range summaries {
		cells := make([]interface{}, len(schema))
		for i, c := range schema {
			cells[i] = c.Value(s)
		}
		if err := w.writeRow(name, r+2, cells); err != nil {
			return err
		}
	}

	if err := w.styleHeader(name, len(schema)); err != nil {
		return err
	}
	for i := range schema {
		if err := w.setWidth(name, i+1, w.options.SummaryWidth); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (w *workbook) writeRow(sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return eris.Wrapf(err, "report: row %d", row)
	}
	if err := w.f.SetSheetRow(sheet, cell, &cells); err != nil {
		return eris.Wrapf(err, "report: write %s!%s", sheet, cell)
	}
	return nil
}

func (w *workbook) styleHeader(sheet string, width int) error {
	if w.headerStyle == 0 || width == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(width, 1)
	if err != nil {
		return eris.Wrap(err, "report: header range")
	}
	if err := w.f.SetCellStyle(sheet, "A1", last, w.headerStyle); err != nil {
		return eris.Wrapf(err, "report: style header of %s", sheet)
	}
	return nil
}

func (w *workbook) setWidth(sheet string, col int, width float64) error {
	if width <= 0 {
		return nil
	}
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return eris.Wrapf(err, "report: column %d", col)
	}
	if err := w.f.SetColWidth(sheet, name, name, width); err != nil {
		return eris.Wrapf(err, "report: width of %s!%s", sheet, name)
	}
	return nil
}

// stringCells converts values to cells. Order data is kept as text so that
// ids such as "0012" survive the round trip.
func stringCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
