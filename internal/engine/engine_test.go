package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/shipment-report/internal/model"
)

func dailyOptions() Options {
	return OptionsFromConfig(testCfg, PeriodDaily)
}

func runOnce(t *testing.T, existing *model.ExistingReport, files ...[]model.Record) *Result {
	t.Helper()
	acc := NewAccumulator(testCfg, nil)
	for i, rows := range files {
		acc.AddFile("f"+string(rune('a'+i))+".csv", testHeader, rows)
	}
	res, err := Run(acc.Snapshot(), existing, dailyOptions())
	require.NoError(t, err)
	return res
}

// asExisting turns a result into the report a later run would load.
func asExisting(res *Result) *model.ExistingReport {
	var sheets []*model.ExistingSheet
	for _, b := range res.Buckets {
		if len(b.Rows) > 0 {
			sheets = append(sheets, sheetOf(string(b.Name), b.Header, b.Rows...))
		}
	}
	summary := &model.ExistingSheet{Name: res.SummarySheet}
	for _, c := range res.Schema {
		summary.Header = append(summary.Header, c.Header)
	}
	for _, s := range res.Summary {
		row := make([]string, len(res.Schema))
		for i, c := range res.Schema {
			row[i] = model.FormatValue(c.Value(s))
		}
		summary.Rows = append(summary.Rows, row)
	}
	return reportOf(append(sheets, summary)...)
}

func TestRunEndToEnd(t *testing.T) {
	res := runOnce(t, nil, scenarioRows())

	require.Len(t, res.Buckets, 3)
	home := res.Buckets[0]
	assert.Equal(t, model.Bucket("宅配"), home.Name)
	require.Len(t, home.Rows, 2)
	assert.Equal(t, "P1", home.Rows[0]["Payment ID"], "mother first")
	assert.Equal(t, "", home.Rows[1]["Payment ID"])
	assert.Equal(t, model.Bucket("7-11"), res.Buckets[1].Name)
	assert.Equal(t, model.Bucket("全家"), res.Buckets[2].Name)

	require.Len(t, res.Summary, 1)
	s := res.Summary[0]
	assert.Equal(t, "2024-01-02", s.Period)
	assert.Equal(t, "100", s.Revenue.String())
	assert.Equal(t, 1, s.Orders)
	assert.Equal(t, 2, s.Units)
	assert.Equal(t, 1, s.Bucket("宅配").WithoutShipping)
	assert.Zero(t, s.Bucket("宅配").WithShipping)

	assert.Equal(t, "日期", res.Schema[0].Header)
	assert.Equal(t, "統計", res.SummarySheet)
	assert.Equal(t, RunStats{NewOrders: 1, Periods: 1}, res.Stats)
}

func TestRunReimportSkipsDuplicates(t *testing.T) {
	first := runOnce(t, nil, scenarioRows())
	existing := asExisting(first)

	second := runOnce(t, existing, scenarioRows())

	assert.Equal(t, 1, second.Stats.SkippedDuplicates)
	assert.Zero(t, second.Stats.NewOrders)
	assert.Equal(t, 2, second.Stats.ExistingRows)
	require.Len(t, second.Summary, 1)
	assert.Equal(t, first.Summary[0].Revenue.String(), second.Summary[0].Revenue.String())
	assert.Equal(t, first.Summary[0].Orders, second.Summary[0].Orders)
	assert.Equal(t, first.Summary[0].Units, second.Summary[0].Units)
	assert.Equal(t, first.Buckets[0].Rows, second.Buckets[0].Rows)
}

func TestRunReimportWithExtraPaymentRow(t *testing.T) {
	rows := append(scenarioRows(),
		item(mother("A1", "P2", "宅配", "2024-01-02 10:05", "", "", "paid"), "Cap", "25", "1"),
	)
	first := runOnce(t, nil, rows)
	second := runOnce(t, asExisting(first), rows)

	assert.Equal(t, 1, second.Stats.SkippedDuplicates)
	require.Len(t, second.Summary, 1, "no unknown-period row")
	assert.Equal(t, "2024-01-02", second.Summary[0].Period)
	assert.Equal(t, first.Summary[0].Orders, second.Summary[0].Orders)
	assert.Equal(t, first.Summary[0].Units, second.Summary[0].Units)
	assert.True(t, first.Summary[0].Revenue.Equal(second.Summary[0].Revenue))
	assert.Equal(t, first.Buckets[0].Mothers, second.Buckets[0].Mothers)
}

func TestRunNewDataGoesFirst(t *testing.T) {
	existing := asExisting(runOnce(t, nil, scenarioRows()))

	res := runOnce(t, existing, []model.Record{
		mother("B2", "P2", "宅配", "2023-12-31 10:00", "40", "60", "paid"),
	})

	home := res.Buckets[0]
	require.Len(t, home.Rows, 3)
	assert.Equal(t, "B2", home.Rows[0]["Name"], "new rows precede existing even when older")
	assert.Equal(t, "A1", home.Rows[1]["Name"])
	assert.Len(t, res.Summary, 2)
	assert.Equal(t, "2024-01-02", res.Summary[0].Period)
}

func TestRunUnclassified(t *testing.T) {
	res := runOnce(t, nil, []model.Record{
		mother("U1", "P9", "VIP", "2024-01-02", "500", "0", "paid"),
		child("U1", "a", "500", "1"),
		child("U2", "b", "10", "1"),
	})

	require.NotNil(t, res.Unclassified)
	assert.Equal(t, model.Bucket("未分類"), res.Unclassified.Name)
	assert.Len(t, res.Unclassified.Rows, 3)
	assert.Equal(t, 2, res.Stats.UnclassifiedOrders)
	assert.Equal(t, 1, res.Stats.MotherlessOrders)
	assert.Empty(t, res.Summary, "unclassified orders are not aggregated")
}

func TestRunCarriesOverSummaryRows(t *testing.T) {
	old := &model.ExistingSheet{
		Name:   "統計",
		Header: []string{"日期", "總業績", "總訂單數", "宅配總雙數", "Unknown"},
		Rows: [][]string{
			{"2023-11-30", "900", "3", "7", "x"},
			{"2024-01-02", "1", "1", "1", ""},
			{"", "5", "5", "5", ""},
		},
	}
	existing := reportOf(old)

	res := runOnce(t, existing, scenarioRows())

	require.Len(t, res.Summary, 2)
	assert.Equal(t, 1, res.Stats.CarriedPeriods)

	fresh := res.Summary[0]
	assert.Equal(t, "2024-01-02", fresh.Period)
	assert.False(t, fresh.CarriedOver)
	assert.Equal(t, "100", fresh.Revenue.String(), "computed periods win")

	carried := res.Summary[1]
	assert.Equal(t, "2023-11-30", carried.Period)
	assert.True(t, carried.CarriedOver)
	assert.Equal(t, "900", carried.Revenue.String())
	assert.Equal(t, 3, carried.Orders)
	assert.Equal(t, 7, carried.Bucket("宅配").Units)
}

func TestRunMonthlyUsesMonthlySheet(t *testing.T) {
	acc := NewAccumulator(testCfg, nil)
	acc.AddFile("a.csv", testHeader, scenarioRows())

	res, err := Run(acc.Snapshot(), nil, OptionsFromConfig(testCfg, PeriodMonthly))
	require.NoError(t, err)

	assert.Equal(t, "月份統計", res.SummarySheet)
	assert.Equal(t, "月份", res.Schema[0].Header)
	require.Len(t, res.Summary, 1)
	assert.Equal(t, "2024-01", res.Summary[0].Period)
	assert.Equal(t, "50.00", res.Summary[0].AUP.StringFixed(2))
}

func TestRunInvalidOptions(t *testing.T) {
	opts := dailyOptions()
	opts.Period = "weekly"
	_, err := Run(nil, nil, opts)
	assert.Error(t, err)

	opts = dailyOptions()
	opts.BucketOrder = nil
	_, err = Run(nil, nil, opts)
	assert.Error(t, err)
}

func TestRunEmptySnapshot(t *testing.T) {
	res, err := Run(nil, nil, dailyOptions())
	require.NoError(t, err)
	assert.Len(t, res.Buckets, 3)
	assert.Empty(t, res.Summary)
	assert.Empty(t, res.Unclassified.Rows)
}

func TestRunDoesNotMutateSnapshot(t *testing.T) {
	acc := NewAccumulator(testCfg, nil)
	acc.AddFile("a.csv", testHeader, []model.Record{
		mother("A1", "P1", "宅配", "2024-01-01", "100", "0", "paid"),
		mother("A2", "P2", "宅配", "2024-01-03", "100", "0", "paid"),
	})
	snap := acc.Snapshot()
	before := snap.Buckets["宅配"][0].ID

	_, err := Run(snap, nil, dailyOptions())
	require.NoError(t, err)
	assert.Equal(t, before, snap.Buckets["宅配"][0].ID)
}
