// =============================================================================
// Shipment Report - Merge Engine
// =============================================================================
//
// This package turns the orders of a session into the content of a report.
//
// PIPELINE:
//
//   Accumulator.AddFile (per source file, concurrent)
//     GroupOrders -> Classifier.Classify -> merge under the session lock
//
//   Run (once per preview or export, pure)
//     PaymentIDSet -> Dedupe -> MergeBucket -> Aggregate -> summary carry-over
//
// Run reads a Snapshot and an optional existing report and returns a Result.
// It never mutates its inputs, holds no lock, and returns the same Result
// for the same inputs, so a preview and the export that follows it agree.
//
// =============================================================================

package engine

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ginjaninja78/shipment-report/internal/config"
	"github.com/ginjaninja78/shipment-report/internal/model"
)

// Period column headers of the aggregate section.
const (
	DailyHeader   = "日期"
	MonthlyHeader = "月份"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a run.
type Options struct {
	Fields config.Fields

	// BucketOrder is the output and aggregation order of the carrier buckets.
	BucketOrder []model.Bucket

	Unclassified  model.Bucket
	UnknownPeriod string

	Period PeriodMode

	// SummarySheet names the aggregate section. Rows of an existing sheet of
	// that name are carried over for periods the run does not compute.
	SummarySheet string

	// Logger receives debug output. Nil disables logging.
	Logger *zap.Logger
}

// OptionsFromConfig builds run options for a period mode.
func OptionsFromConfig(cfg *config.Config, mode PeriodMode) Options {
	sheet := cfg.Output.DailySheet
	if mode == PeriodMonthly {
		sheet = cfg.Output.MonthlySheet
	}
	return Options{
		Fields:        cfg.Fields,
		BucketOrder:   BucketsOf(cfg.BucketOrder),
		Unclassified:  model.Bucket(cfg.UnclassifiedLabel),
		UnknownPeriod: cfg.UnknownPeriod,
		Period:        mode,
		SummarySheet:  sheet,
	}
}

// PeriodHeader returns the header of the period column.
func (o Options) PeriodHeader() string {
	if o.Period == PeriodMonthly {
		return MonthlyHeader
	}
	return DailyHeader
}

func (o Options) validate() error {
	if !o.Period.Valid() {
		return eris.Errorf("engine: unknown period mode %q", o.Period)
	}
	if len(o.BucketOrder) == 0 {
		return eris.New("engine: no buckets configured")
	}
	if o.UnknownPeriod == "" {
		return eris.New("engine: unknown period key is empty")
	}
	if o.SummarySheet == "" {
		return eris.New("engine: summary sheet name is empty")
	}
	return nil
}

// =============================================================================
// RESULT
// =============================================================================

// RunStats are the counts a user must be able to check before exporting.
type RunStats struct {
	// NewOrders is the number of session orders in carrier buckets.
	NewOrders int

	// SkippedDuplicates is the number of orders dropped because their
	// payment id is already in the existing report.
	SkippedDuplicates int

	UnclassifiedOrders int
	MotherlessOrders   int

	// ExistingRows is the number of bucket rows taken from the existing report.
	ExistingRows int

	Periods        int
	CarriedPeriods int
}

// Result is the full content of a report.
type Result struct {
	SessionID uuid.UUID

	// Buckets holds one entry per carrier bucket, in bucket order. Empty
	// buckets are included.
	Buckets []*BucketData

	// Unclassified holds the session's unclassified orders.
	Unclassified *BucketData

	// Summary is sorted by period, descending.
	Summary []*model.PeriodSummary

	// Schema is the column layout of the aggregate section.
	Schema       []model.SummaryColumn
	SummarySheet string

	Stats RunStats
}

// =============================================================================
// RUN
// =============================================================================

// Run merges a session snapshot with an optional existing report.
//
// PARAMETERS:
//   - snap: The session orders. Not modified.
//   - existing: A previously produced report, or nil.
//   - opts: Run options.
//
// RETURNS:
//   - The report content.
//   - An error only for invalid options; data problems never fail a run.
func Run(snap *Snapshot, existing *model.ExistingReport, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if snap == nil {
		snap = &Snapshot{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	result := &Result{
		SessionID:    snap.SessionID,
		Schema:       model.SummaryColumns(opts.PeriodHeader(), opts.BucketOrder),
		SummarySheet: opts.SummarySheet,
	}

	seen := PaymentIDSet(existing, opts.BucketOrder, opts.Fields)
	kept, skipped := Dedupe(snap.Buckets, seen, opts.Fields)
	result.Stats.SkippedDuplicates = skipped

	for _, bucket := range opts.BucketOrder {
		result.Stats.MotherlessOrders += countMotherless(snap.Buckets[bucket])

		var sheet *model.ExistingSheet
		if s, ok := existing.Sheet(string(bucket)); ok {
			sheet = s
		}
		data := MergeBucket(bucket, kept[bucket], sheet, opts.Fields)
		result.Buckets = append(result.Buckets, data)

		result.Stats.NewOrders += data.NewOrders
		result.Stats.ExistingRows += data.ExistingRows

		logger.Debug("bucket merged",
			zap.String("bucket", string(bucket)),
			zap.Int("new_orders", data.NewOrders),
			zap.Int("existing_rows", data.ExistingRows),
			zap.Int("skipped", len(snap.Buckets[bucket])-len(kept[bucket])),
		)
	}

	result.Unclassified = MergeBucket(opts.Unclassified, snap.Unclassified, nil, opts.Fields)
	result.Stats.UnclassifiedOrders = len(snap.Unclassified)
	result.Stats.MotherlessOrders += countMotherless(snap.Unclassified)

	result.Summary = Aggregate(result.Buckets, opts.BucketOrder, opts.Period.Func(), opts.Fields, opts.UnknownPeriod)

	if sheet, ok := existing.Sheet(opts.SummarySheet); ok {
		carried := CarryOver(result.Summary, sheet, result.Schema, opts.BucketOrder)
		result.Stats.CarriedPeriods = len(carried)
		if len(carried) > 0 {
			result.Summary = append(result.Summary, carried...)
			SortSummaries(result.Summary)
		}
	}
	result.Stats.Periods = len(result.Summary)

	logger.Debug("run complete",
		zap.String("session", snap.SessionID.String()),
		zap.Int("periods", result.Stats.Periods),
		zap.Int("carried", result.Stats.CarriedPeriods),
	)

	return result, nil
}

// CarryOver reads the rows of an existing summary sheet and returns those
// whose period is not in computed. Columns are matched by header; a column
// the sheet lacks reads as zero. Carried rows are taken as loaded and are
// not finalized again.
func CarryOver(computed []*model.PeriodSummary, sheet *model.ExistingSheet, schema []model.SummaryColumn, buckets []model.Bucket) []*model.PeriodSummary {
	if len(schema) == 0 {
		return nil
	}
	periodCol := sheet.ColumnIndex(schema[0].Header)
	if periodCol < 0 {
		return nil
	}

	have := make(map[string]bool, len(computed))
	for _, s := range computed {
		have[s.Period] = true
	}

	cols := make([]int, len(schema))
	for i, c := range schema {
		cols[i] = sheet.ColumnIndex(c.Header)
	}

	var out []*model.PeriodSummary
	for _, row := range sheet.Rows {
		period := sheet.Cell(row, periodCol)
		if period == "" || have[period] {
			continue
		}
		have[period] = true

		s := model.NewPeriodSummary(period, buckets)
		for i, c := range schema[1:] {
			if col := cols[i+1]; col >= 0 {
				c.Set(s, sheet.Cell(row, col))
			}
		}
		s.CarriedOver = true
		out = append(out, s)
	}

	return out
}

func countMotherless(orders []*model.Order) int {
	n := 0
	for _, o := range orders {
		if !o.HasMother() {
			n++
		}
	}
	return n
}
