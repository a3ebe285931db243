package reportwriter

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/shipment-report/internal/engine"
	"github.com/ginjaninja78/shipment-report/internal/model"
)

// =============================================================================
// TEXT PREVIEW
// =============================================================================

// RenderSummary prints the aggregate section as an aligned text table, in
// the same column order as the summary sheet. Amounts are rounded to whole
// units with thousands separators; averages keep two decimals.
func RenderSummary(w io.Writer, summaries []*model.PeriodSummary, schema []model.SummaryColumn) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	for i, c := range schema {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c.Header)
	}
	fmt.Fprintln(tw, "\t")

	for _, s := range summaries {
		for i, c := range schema {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, previewCell(c, s))
		}
		if s.CarriedOver {
			fmt.Fprint(tw, "\t*")
		} else {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

func previewCell(c model.SummaryColumn, s *model.PeriodSummary) string {
	switch v := c.Value(s).(type) {
	case int:
		return humanize.Comma(int64(v))
	case float64:
		d := decimal.NewFromFloat(v)
		if isAverage(c.Header) {
			return d.StringFixed(2)
		}
		return humanize.Comma(d.Round(0).IntPart())
	default:
		return model.FormatValue(v)
	}
}

// isAverage reports whether a summary column holds a ratio.
func isAverage(header string) bool {
	switch header {
	case "AUP", "UPT", "AOV":
		return true
	}
	r := []rune(header)
	return len(r) >= 4 && string(r[len(r)-4:]) == "平均金額"
}

// RenderStats prints the counts that decide whether a report can be trusted:
// files used or skipped, orders skipped as duplicates, unclassified and
// motherless orders.
func RenderStats(w io.Writer, result *engine.Result, files []engine.FileInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "FILE\tROWS\tORDERS\tADDED\tMERGED\tROWS MERGED\tUNCLASSIFIED\tSTATUS")
	for _, f := range files {
		status := "ok"
		if f.Err != nil {
			status = "skipped: " + f.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			f.Name, f.Rows, f.Orders, f.Added, f.Merged, f.RowsMerged, f.Unclassified, status)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "BUCKET\tNEW ORDERS\tEXISTING ROWS\tTOTAL ROWS")
	for _, b := range result.Buckets {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", b.Name, b.NewOrders, b.ExistingRows, len(b.Rows))
	}
	if result.Unclassified != nil {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n",
			result.Unclassified.Name, result.Unclassified.NewOrders, 0, len(result.Unclassified.Rows))
	}
	fmt.Fprintln(tw)

	st := result.Stats
	fmt.Fprintf(tw, "Skipped duplicates:\t%d\n", st.SkippedDuplicates)
	fmt.Fprintf(tw, "Unclassified orders:\t%d\n", st.UnclassifiedOrders)
	fmt.Fprintf(tw, "Orders without mother row:\t%d\n", st.MotherlessOrders)
	fmt.Fprintf(tw, "Periods:\t%d (%d carried over)\n", st.Periods, st.CarriedPeriods)

	return tw.Flush()
}

// RenderExisting prints the row count of every sheet of an existing report.
func RenderExisting(w io.Writer, report *model.ExistingReport) error {
	if report == nil {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Existing report: %s\n", report.SourceFile)
	for _, name := range report.SheetNames {
		fmt.Fprintf(tw, "  %s\t%d rows\n", name, len(report.Sheets[name].Rows))
	}
	return tw.Flush()
}
