package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/shipment-report/internal/model"
)

func orderOf(rows ...model.Record) *model.Order {
	return GroupOrders(rows, testHeader, "t.csv", testFields).Orders()[0]
}

func TestPaymentIDSet(t *testing.T) {
	report := reportOf(
		sheetOf("宅配", testHeader,
			mother("#1", "P1", "宅配", "", "", "", ""),
			child("#1", "Sock", "0", "1"),
		),
		sheetOf("全家", testHeader, mother("#2", "P2", "全家", "", "", "", "")),
		sheetOf("統計", []string{"日期", "Payment ID"}, model.Record{"日期": "x", "Payment ID": "PX"}),
		sheetOf("7-11", []string{"Name"}, model.Record{"Name": "#3"}),
	)

	seen := PaymentIDSet(report, testOrder, testFields)
	assert.Equal(t, map[string]struct{}{"P1": {}, "P2": {}}, seen)

	assert.Empty(t, PaymentIDSet(nil, testOrder, testFields))
}

func TestDedupe(t *testing.T) {
	dup := orderOf(mother("#1", "P1", "宅配", "", "", "", ""), child("#1", "Sock", "1", "1"))
	fresh := orderOf(mother("#2", "P2", "宅配", "", "", "", ""))
	motherless := orderOf(child("#3", "Hat", "1", "1"))
	emptyPayment := &model.Order{ID: "#4", Mother: model.Record{"Name": "#4", "Payment ID": ""}}
	crossBucket := orderOf(mother("#5", "P1", "全家", "", "", "", ""))

	buckets := map[model.Bucket][]*model.Order{
		"宅配": {dup, fresh, motherless, emptyPayment},
		"全家": {crossBucket},
	}
	seen := map[string]struct{}{"P1": {}}

	kept, skipped := Dedupe(buckets, seen, testFields)

	assert.Equal(t, 2, skipped, "duplicates dropped in every bucket")
	assert.Equal(t, []*model.Order{fresh, motherless, emptyPayment}, kept["宅配"])
	assert.Empty(t, kept["全家"])
	assert.Len(t, buckets["宅配"], 4, "input untouched")
}

func TestMergeBucketOrdering(t *testing.T) {
	older := orderOf(
		mother("#1", "P1", "宅配", "2024-01-01 09:00", "100", "0", "paid"),
		child("#1", "a", "10", "1"),
		child("#1", "b", "10", "1"),
	)
	newer := orderOf(
		mother("#2", "P2", "宅配", "2024-01-03 09:00", "100", "0", "paid"),
		child("#2", "c", "10", "1"),
	)
	motherless := orderOf(child("#9", "z", "10", "1"))

	existing := sheetOf("宅配", []string{"Name", "Payment ID", "Note"},
		model.Record{"Name": "#0", "Payment ID": "P0", "Note": "kept"},
		model.Record{"Name": "#0", "Payment ID": "", "Note": ""},
	)

	data := MergeBucket("宅配", []*model.Order{older, motherless, newer}, existing, testFields)

	var names []string
	for _, r := range data.Rows {
		names = append(names, r["Name"]+"/"+r["Lineitem name"])
	}
	assert.Equal(t, []string{
		"#2/", "#2/c",
		"#1/", "#1/a", "#1/b",
		"#9/z",
		"#0/", "#0/",
	}, names)
	assert.Equal(t, []bool{true, false, true, false, false, false, true, false}, data.Mothers)

	assert.Equal(t, append(append([]string(nil), testHeader...), "Note"), data.Header)
	assert.Equal(t, "kept", data.Rows[6]["Note"])
	assert.Equal(t, 3, data.NewOrders)
	assert.Equal(t, 2, data.ExistingRows)
}

func TestMergeBucketExistingOnly(t *testing.T) {
	existing := sheetOf("全家", testHeader, mother("#1", "P1", "全家", "", "", "", ""))
	data := MergeBucket("全家", nil, existing, testFields)

	assert.Equal(t, testHeader, data.Header)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "P1", data.Rows[0]["Payment ID"])
}

func TestSortOrdersTieBreak(t *testing.T) {
	a := orderOf(mother("B", "P1", "", "2024-01-01", "", "", ""))
	b := orderOf(mother("A", "P2", "", "2024-01-01", "", "", ""))
	orders := []*model.Order{a, b}
	SortOrders(orders, testFields)
	assert.Equal(t, "A", orders[0].ID)
}

func TestMergeBucketExistingExtraPaymentRow(t *testing.T) {
	existing := sheetOf("宅配", testHeader,
		mother("#1", "P1", "宅配", "2024-01-02", "100", "0", "paid"),
		child("#1", "a", "50", "1"),
		item(mother("#1", "P1b", "宅配", "2024-01-02", "", "", "paid"), "b", "50", "1"),
		mother("#2", "P2", "宅配", "2024-01-01", "80", "0", "paid"),
		mother("#3", "P3", "宅配", "2024-01-01", "80", "0", "paid"),
	)

	data := MergeBucket("宅配", nil, existing, testFields)

	assert.Equal(t, []bool{true, false, false, true, true}, data.Mothers,
		"a second payment row of the same order reads back as a child")
}

func TestMergeBucketExtraPaymentRowRoundTrip(t *testing.T) {
	o := orderOf(
		mother("#1", "P1", "宅配", "2024-01-02", "100", "0", "paid"),
		item(mother("#1", "P1b", "宅配", "2024-01-02", "", "", "paid"), "b", "50", "1"),
	)
	first := MergeBucket("宅配", []*model.Order{o}, nil, testFields)

	reloaded := MergeBucket("宅配", nil, sheetOf("宅配", first.Header, first.Rows...), testFields)

	assert.Equal(t, first.Mothers, reloaded.Mothers)
}

func TestMergeBucketExistingOrderAlreadyMothered(t *testing.T) {
	fresh := orderOf(mother("#1", "P9", "宅配", "2024-01-03", "100", "0", "paid"))
	existing := sheetOf("宅配", testHeader,
		mother("#1", "P1", "宅配", "2024-01-01", "100", "0", "paid"),
		mother("#2", "P2", "宅配", "2024-01-01", "80", "0", "paid"),
	)

	data := MergeBucket("宅配", []*model.Order{fresh}, existing, testFields)
	assert.Equal(t, []bool{true, false, true}, data.Mothers)

	// Written and merged again, the flags are unchanged.
	reloaded := MergeBucket("宅配", nil, sheetOf("宅配", data.Header, data.Rows...), testFields)
	assert.Equal(t, data.Mothers, reloaded.Mothers)
}
