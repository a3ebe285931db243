package engine

import (
	"github.com/ginjaninja78/shipment-report/internal/config"
	"github.com/ginjaninja78/shipment-report/internal/model"
)

// PaymentIDSet collects the payment ids already recorded in an existing
// report. Only sheets named after a known bucket are scanned, and the ids of
// all of them are pooled: a payment id is unique across carriers. A nil
// report, or a sheet without the payment-id column, contributes nothing.
func PaymentIDSet(report *model.ExistingReport, known []model.Bucket, fields config.Fields) map[string]struct{} {
	seen := make(map[string]struct{})

	for _, bucket := range known {
		sheet, ok := report.Sheet(string(bucket))
		if !ok {
			continue
		}
		col := sheet.ColumnIndex(fields.PaymentID)
		if col < 0 {
			continue
		}
		for _, row := range sheet.Rows {
			if id := sheet.Cell(row, col); id != "" {
				seen[id] = struct{}{}
			}
		}
	}

	return seen
}

// Dedupe drops every order whose mother carries a payment id already in
// seen. The whole order goes, children included. Orders without a mother,
// or whose mother has an empty payment id, are always kept.
//
// RETURNS:
//   - kept: the surviving orders per bucket, in input order.
//   - skipped: the number of orders dropped.
func Dedupe(buckets map[model.Bucket][]*model.Order, seen map[string]struct{}, fields config.Fields) (map[model.Bucket][]*model.Order, int) {
	kept := make(map[model.Bucket][]*model.Order, len(buckets))
	skipped := 0

	for bucket, orders := range buckets {
		out := make([]*model.Order, 0, len(orders))
		for _, o := range orders {
			if isDuplicate(o, seen, fields) {
				skipped++
				continue
			}
			out = append(out, o)
		}
		kept[bucket] = out
	}

	return kept, skipped
}

func isDuplicate(o *model.Order, seen map[string]struct{}, fields config.Fields) bool {
	id := o.Field(fields.PaymentID)
	if id == "" {
		return false
	}
	_, ok := seen[id]
	return ok
}
