// =============================================================================
// Shipment Report - Shared Types
// =============================================================================
//
// This package contains the types shared by the parser, the engine, the
// existing-report loader and the report writer. Keeping them here avoids
// import cycles between those packages.
//
//   Record         one physical source row, field name -> value
//   Order          all rows of one order id, split into mother and children
//   Bucket         carrier label an order is filed under
//   ExistingReport a previously produced report, re-loaded as raw sheets
//   PeriodSummary  aggregate metrics for one day or month
//
// =============================================================================

package model

// =============================================================================
// RECORD
// =============================================================================

// Record is one physical source row keyed by field name. Field order is
// carried separately by the field-name list of the file it came from.
// Records are never mutated after parsing.
type Record map[string]string

// Values returns the record's values in the order of the given header.
// Missing fields become empty strings.
func (r Record) Values(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = r[h]
	}
	return out
}

// =============================================================================
// BUCKET
// =============================================================================

// Bucket is a carrier label, or the unclassified catch-all.
type Bucket string

// =============================================================================
// ORDER
// =============================================================================

// Order is every row sharing one order identifier within the session.
//
// At most one record is the mother (the one carrying a payment identifier);
// the rest are children in their original relative order. An order without a
// mother is valid but cannot be classified or contribute order counts.
type Order struct {
	// ID is the order identifier (the "Name" column of the export).
	ID string

	// Mother is the row carrying payment and shipping fields, or nil.
	Mother Record

	// Children are the remaining line-item rows.
	Children []Record

	// FieldNames is the header of the source file the order came from.
	FieldNames []string

	// SourceFile is the name of the file the order was first seen in.
	SourceFile string
}

// HasMother reports whether the order has a mother row.
func (o *Order) HasMother() bool {
	return o.Mother != nil
}

// Field returns a field of the mother row, or "" for a motherless order.
func (o *Order) Field(name string) string {
	if o.Mother == nil {
		return ""
	}
	return o.Mother[name]
}

// Rows returns the order's rows, mother first.
func (o *Order) Rows() []Record {
	rows := make([]Record, 0, len(o.Children)+1)
	if o.Mother != nil {
		rows = append(rows, o.Mother)
	}
	return append(rows, o.Children...)
}

// RowCount returns the number of physical rows in the order.
func (o *Order) RowCount() int {
	n := len(o.Children)
	if o.Mother != nil {
		n++
	}
	return n
}

// Clone returns a copy whose slices can be modified independently.
// The records themselves are shared; they are immutable.
func (o *Order) Clone() *Order {
	c := *o
	c.Children = append([]Record(nil), o.Children...)
	c.FieldNames = append([]string(nil), o.FieldNames...)
	return &c
}

// =============================================================================
// EXISTING REPORT
// =============================================================================

// ExistingSheet is one sheet of a previously produced report: its header row
// and the remaining rows as raw positional arrays.
type ExistingSheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// ColumnIndex returns the position of a header column, or -1.
func (s *ExistingSheet) ColumnIndex(name string) int {
	for i, h := range s.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns row[col], or "" when the row is shorter than the header.
func (s *ExistingSheet) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// Record converts a raw row to a field-named record using the sheet header.
func (s *ExistingSheet) Record(row []string) Record {
	rec := make(Record, len(s.Header))
	for i, h := range s.Header {
		rec[h] = s.Cell(row, i)
	}
	return rec
}

// ExistingReport is a prior report re-loaded per sheet. Sheet names double as
// bucket names. It is used read-only.
type ExistingReport struct {
	// SourceFile is the path the report was loaded from.
	SourceFile string

	// SheetNames preserves the workbook's sheet order.
	SheetNames []string

	// Sheets maps sheet name to its contents.
	Sheets map[string]*ExistingSheet
}

// Sheet returns the named sheet. A nil report has no sheets.
func (r *ExistingReport) Sheet(name string) (*ExistingSheet, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.Sheets[name]
	return s, ok
}
