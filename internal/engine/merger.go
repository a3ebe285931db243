package engine

import (
	"sort"

	"github.com/ginjaninja78/shipment-report/internal/config"
	"github.com/ginjaninja78/shipment-report/internal/model"
)

// BucketData is the merged content of one bucket: a header and field-named
// rows, new rows first.
type BucketData struct {
	Name   model.Bucket
	Header []string
	Rows   []model.Record

	// Mothers[i] reports whether Rows[i] is the mother row of its order.
	Mothers []bool

	// NewOrders and ExistingRows count where the rows came from.
	NewOrders    int
	ExistingRows int
}

// SortOrders sorts orders by the mother's paid-at text, most recent first.
// Motherless orders compare as an empty timestamp. Equal timestamps fall
// back to the order id so the result does not depend on arrival order.
func SortOrders(orders []*model.Order, fields config.Fields) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i].Field(fields.PaidAt), orders[j].Field(fields.PaidAt)
		if a != b {
			return a > b
		}
		return orders[i].ID < orders[j].ID
	})
}

// MergeBucket builds the row stream of one bucket.
//
// The new orders are sorted (see SortOrders) and emitted mother first, then
// children in their original order. The existing sheet's rows follow
// verbatim, converted to records with the sheet's own header. Every mother
// therefore precedes its children and every new row precedes every existing
// row, which the aggregator relies on.
//
// PARAMETERS:
//   - name: The bucket being merged.
//   - orders: The kept new orders of the bucket. The slice is not modified.
//   - existing: The bucket's sheet in the existing report, or nil.
//   - fields: The configured column names.
func MergeBucket(name model.Bucket, orders []*model.Order, existing *model.ExistingSheet, fields config.Fields) *BucketData {
	sorted := append([]*model.Order(nil), orders...)
	SortOrders(sorted, fields)

	data := &BucketData{
		Name:      name,
		NewOrders: len(sorted),
	}

	// mothered holds the order ids that already have a mother in the stream.
	mothered := make(map[string]bool, len(sorted))

	for _, o := range sorted {
		data.Header = unionHeader(data.Header, o.FieldNames)
		if o.HasMother() {
			data.add(o.Mother, true)
			mothered[o.ID] = true
		}
		for _, child := range o.Children {
			data.add(child, false)
		}
	}

	// A saved report has lost the grouping. As in GroupOrders, the first
	// row of an order carrying a payment id is its mother and any later
	// payment row of that order is a child, so a written report reads back
	// with the flags it was written with.
	if existing != nil {
		data.Header = unionHeader(data.Header, existing.Header)
		for _, row := range existing.Rows {
			rec := existing.Record(row)
			id := rec[fields.OrderID]
			mother := rec[fields.PaymentID] != "" && (id == "" || !mothered[id])
			if mother && id != "" {
				mothered[id] = true
			}
			data.add(rec, mother)
		}
		data.ExistingRows = len(existing.Rows)
	}

	return data
}

func (d *BucketData) add(rec model.Record, mother bool) {
	d.Rows = append(d.Rows, rec)
	d.Mothers = append(d.Mothers, mother)
}

// unionHeader appends the columns of next missing from base, keeping the
// order of both.
func unionHeader(base, next []string) []string {
	if len(base) == 0 {
		return append([]string(nil), next...)
	}
	present := make(map[string]bool, len(base))
	for _, h := range base {
		present[h] = true
	}
	for _, h := range next {
		if !present[h] {
			present[h] = true
			base = append(base, h)
		}
	}
	return base
}
