package model

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// BucketMetrics holds the per-carrier counters of a period.
type BucketMetrics struct {
	// WithShipping and WithoutShipping count non-refund orders split by
	// whether a positive shipping fee was charged.
	WithShipping    int
	WithoutShipping int

	Units   int
	Revenue decimal.Decimal

	// AvgPrice is Revenue / Units rounded half-up to two places.
	AvgPrice decimal.Decimal
}

// PeriodSummary accumulates metrics for one period key ("YYYY-MM-DD" or
// "YYYY-MM"). It is created lazily during aggregation and never mutated
// after Finalize.
type PeriodSummary struct {
	Period string

	Revenue decimal.Decimal
	Orders  int
	Units   int

	RefundOrders  int
	RefundUnits   int
	RefundRevenue decimal.Decimal

	Buckets map[Bucket]*BucketMetrics

	// AUP is revenue per unit, UPT units per order, AOV revenue per order.
	AUP decimal.Decimal
	UPT decimal.Decimal
	AOV decimal.Decimal

	// CarriedOver marks a period copied from an existing summary sheet
	// rather than recomputed from rows.
	CarriedOver bool
}

// NewPeriodSummary returns an empty summary with zeroed metrics for every
// bucket.
func NewPeriodSummary(period string, buckets []Bucket) *PeriodSummary {
	s := &PeriodSummary{
		Period:  period,
		Buckets: make(map[Bucket]*BucketMetrics, len(buckets)),
	}
	for _, b := range buckets {
		s.Buckets[b] = &BucketMetrics{}
	}
	return s
}

// Bucket returns the metrics of b, creating them if needed.
func (s *PeriodSummary) Bucket(b Bucket) *BucketMetrics {
	m, ok := s.Buckets[b]
	if !ok {
		m = &BucketMetrics{}
		s.Buckets[b] = m
	}
	return m
}

// Finalize derives the averages. It must be called once, after the last row
// has been accumulated.
func (s *PeriodSummary) Finalize() {
	for _, m := range s.Buckets {
		m.AvgPrice = RoundedRatio(m.Revenue, decimal.NewFromInt(int64(m.Units)))
	}
	s.AUP = RoundedRatio(s.Revenue, decimal.NewFromInt(int64(s.Units)))
	s.UPT = RoundedRatio(decimal.NewFromInt(int64(s.Units)), decimal.NewFromInt(int64(s.Orders)))
	s.AOV = RoundedRatio(s.Revenue, decimal.NewFromInt(int64(s.Orders)))
}

// RoundedRatio returns num/den rounded half-up to two decimal places, or zero
// when den is zero.
func RoundedRatio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den).Round(2)
}

// =============================================================================
// AGGREGATE SECTION SCHEMA
// =============================================================================

// SummaryColumn is one column of the aggregate section. The column order of
// the rendered section is the order of the slice returned by SummaryColumns,
// never the iteration order of a map.
type SummaryColumn struct {
	Header string

	// Value returns the cell value: string, int or float64.
	Value func(*PeriodSummary) any

	// Set parses a cell loaded from an existing report back into s.
	Set func(s *PeriodSummary, raw string)
}

// SummaryColumns builds the fixed aggregate schema: period, totals, refund
// metrics, per-bucket breakdown in bucket order, then derived KPIs.
func SummaryColumns(periodHeader string, buckets []Bucket) []SummaryColumn {
	cols := []SummaryColumn{
		{
			Header: periodHeader,
			Value:  func(s *PeriodSummary) any { return s.Period },
			Set:    func(s *PeriodSummary, raw string) { s.Period = raw },
		},
		decimalColumn("總業績", func(s *PeriodSummary) *decimal.Decimal { return &s.Revenue }),
		intColumn("總訂單數", func(s *PeriodSummary) *int { return &s.Orders }),
		intColumn("總雙數", func(s *PeriodSummary) *int { return &s.Units }),
		intColumn("退貨訂單數", func(s *PeriodSummary) *int { return &s.RefundOrders }),
		intColumn("退貨總雙數", func(s *PeriodSummary) *int { return &s.RefundUnits }),
		decimalColumn("退貨業績", func(s *PeriodSummary) *decimal.Decimal { return &s.RefundRevenue }),
	}

	for _, b := range buckets {
		label := string(b)
		cols = append(cols,
			intColumn(label+"有運費", func(s *PeriodSummary) *int { return &s.Bucket(b).WithShipping }),
			intColumn(label+"無運費", func(s *PeriodSummary) *int { return &s.Bucket(b).WithoutShipping }),
			intColumn(label+"總雙數", func(s *PeriodSummary) *int { return &s.Bucket(b).Units }),
			decimalColumn(label+"業績", func(s *PeriodSummary) *decimal.Decimal { return &s.Bucket(b).Revenue }),
			decimalColumn(label+"平均金額", func(s *PeriodSummary) *decimal.Decimal { return &s.Bucket(b).AvgPrice }),
		)
	}

	return append(cols,
		decimalColumn("AUP", func(s *PeriodSummary) *decimal.Decimal { return &s.AUP }),
		decimalColumn("UPT", func(s *PeriodSummary) *decimal.Decimal { return &s.UPT }),
		decimalColumn("AOV", func(s *PeriodSummary) *decimal.Decimal { return &s.AOV }),
	)
}

func intColumn(header string, field func(*PeriodSummary) *int) SummaryColumn {
	return SummaryColumn{
		Header: header,
		Value:  func(s *PeriodSummary) any { return *field(s) },
		Set: func(s *PeriodSummary, raw string) {
			// Cells written by spreadsheet tools may come back as "3.0".
			d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
			if err != nil {
				return
			}
			*field(s) = int(d.IntPart())
		},
	}
}

func decimalColumn(header string, field func(*PeriodSummary) *decimal.Decimal) SummaryColumn {
	return SummaryColumn{
		Header: header,
		Value: func(s *PeriodSummary) any {
			f, _ := field(s).Float64()
			return f
		},
		Set: func(s *PeriodSummary, raw string) {
			d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
			if err != nil {
				return
			}
			*field(s) = d
		},
	}
}

// FormatValue renders a column value as text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}
