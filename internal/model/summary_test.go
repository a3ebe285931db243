package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBuckets = []Bucket{"宅配", "7-11", "全家"}

func TestRoundedRatio(t *testing.T) {
	tests := []struct {
		num, den string
		want     string
	}{
		{"1000", "3", "333.33"},
		{"2000", "3", "666.67"},
		{"1", "8", "0.13"}, // 0.125 rounds half up
		{"100", "0", "0"},
		{"0", "5", "0"},
	}
	for _, tt := range tests {
		got := RoundedRatio(decimal.RequireFromString(tt.num), decimal.RequireFromString(tt.den))
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "%s/%s = %s", tt.num, tt.den, got)
	}
}

func TestFinalize(t *testing.T) {
	s := NewPeriodSummary("2024-01-02", testBuckets)
	s.Revenue = decimal.NewFromInt(1000)
	s.Units = 3
	s.Orders = 2
	s.Bucket("宅配").Revenue = decimal.NewFromInt(1000)
	s.Bucket("宅配").Units = 3

	s.Finalize()

	assert.Equal(t, "333.33", s.Bucket("宅配").AvgPrice.StringFixed(2))
	assert.True(t, s.Bucket("7-11").AvgPrice.IsZero())
	assert.Equal(t, "333.33", s.AUP.StringFixed(2))
	assert.Equal(t, "1.50", s.UPT.StringFixed(2))
	assert.Equal(t, "500.00", s.AOV.StringFixed(2))
}

func TestSummaryColumnsOrder(t *testing.T) {
	cols := SummaryColumns("日期", testBuckets)

	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Header
	}

	want := []string{
		"日期", "總業績", "總訂單數", "總雙數", "退貨訂單數", "退貨總雙數", "退貨業績",
		"宅配有運費", "宅配無運費", "宅配總雙數", "宅配業績", "宅配平均金額",
		"7-11有運費", "7-11無運費", "7-11總雙數", "7-11業績", "7-11平均金額",
		"全家有運費", "全家無運費", "全家總雙數", "全家業績", "全家平均金額",
		"AUP", "UPT", "AOV",
	}
	assert.Equal(t, want, headers)
}

func TestSummaryColumnsValueAndSet(t *testing.T) {
	cols := SummaryColumns("月份", testBuckets)
	byHeader := make(map[string]SummaryColumn, len(cols))
	for _, c := range cols {
		byHeader[c.Header] = c
	}

	s := NewPeriodSummary("", testBuckets)
	byHeader["月份"].Set(s, "2024-01")
	byHeader["總業績"].Set(s, "1,280.5")
	byHeader["總訂單數"].Set(s, "3.0")
	byHeader["7-11總雙數"].Set(s, "4")
	byHeader["AOV"].Set(s, "not a number")

	assert.Equal(t, "2024-01", s.Period)
	assert.Equal(t, "1280.5", s.Revenue.String())
	assert.Equal(t, 3, s.Orders)
	assert.Equal(t, 4, s.Bucket("7-11").Units)
	assert.True(t, s.AOV.IsZero())

	assert.Equal(t, "2024-01", byHeader["月份"].Value(s))
	assert.Equal(t, 1280.5, byHeader["總業績"].Value(s))
	assert.Equal(t, 3, byHeader["總訂單數"].Value(s))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "x", FormatValue("x"))
	assert.Equal(t, "12", FormatValue(12))
	assert.Equal(t, "333.33", FormatValue(333.33))
	assert.Equal(t, "", FormatValue(nil))
}

func TestOrderRows(t *testing.T) {
	o := &Order{
		ID:       "#1",
		Mother:   Record{"Name": "#1", "Payment ID": "P1"},
		Children: []Record{{"Name": "#1"}, {"Name": "#1", "Lineitem name": "b"}},
	}
	require.True(t, o.HasMother())
	assert.Equal(t, 3, o.RowCount())
	assert.Equal(t, "P1", o.Rows()[0]["Payment ID"])
	assert.Equal(t, "P1", o.Field("Payment ID"))

	c := o.Clone()
	c.Children = append(c.Children, Record{})
	assert.Len(t, o.Children, 2)

	motherless := &Order{ID: "#2", Children: []Record{{"Name": "#2"}}}
	assert.False(t, motherless.HasMother())
	assert.Equal(t, "", motherless.Field("Payment ID"))
	assert.Equal(t, 1, motherless.RowCount())
}

func TestExistingSheet(t *testing.T) {
	s := &ExistingSheet{Header: []string{"Name", "Payment ID"}, Rows: [][]string{{"#1"}}}
	assert.Equal(t, 1, s.ColumnIndex("Payment ID"))
	assert.Equal(t, -1, s.ColumnIndex("Tags"))
	assert.Equal(t, "", s.Cell(s.Rows[0], 1))
	assert.Equal(t, Record{"Name": "#1", "Payment ID": ""}, s.Record(s.Rows[0]))

	var r *ExistingReport
	_, ok := r.Sheet("宅配")
	assert.False(t, ok)
}
