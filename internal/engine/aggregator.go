package engine

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/shipment-report/internal/config"
	"github.com/ginjaninja78/shipment-report/internal/model"
)

// =============================================================================
// FOLD STATE
// =============================================================================

// foldState is carried from row to row within one bucket. A mother row
// resets it; every other row is attributed to it. Child rows have no date
// or status of their own, so they inherit the nearest preceding mother's.
type foldState struct {
	period string
	refund bool
}

// isRefund reports whether a financial status marks a refunded order.
func isRefund(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	return s == "refunded" || s == "partially_refunded"
}

// =============================================================================
// AGGREGATION
// =============================================================================

// Aggregate folds the merged rows of every bucket into per-period summaries.
//
// Buckets are walked in bucketOrder; a bucket missing from merged is
// skipped. The fold state starts over for each bucket, at the unknown
// period, so rows before the first mother are attributed there.
//
// Per period and row:
//   - mother rows add to revenue and order count, to the refund counters when
//     refunded, and otherwise to the with/without shipping fee counters;
//   - every row whose line-item price is strictly positive adds its quantity
//     to the units (and to the refund units when the carried status is a
//     refund).
//
// PARAMETERS:
//   - merged: Output of MergeBucket, one entry per bucket.
//   - bucketOrder: The walk order and the buckets of every summary.
//   - keyFn: Maps paid-at text to a period key.
//   - fields: The configured column names.
//   - unknown: The period key used when keyFn yields "".
//
// RETURNS:
//   - Finalized summaries sorted by period key, descending.
func Aggregate(merged []*BucketData, bucketOrder []model.Bucket, keyFn PeriodFunc, fields config.Fields, unknown string) []*model.PeriodSummary {
	byName := make(map[model.Bucket]*BucketData, len(merged))
	for _, data := range merged {
		byName[data.Name] = data
	}

	periods := make(map[string]*model.PeriodSummary)
	summaryFor := func(key string) *model.PeriodSummary {
		s, ok := periods[key]
		if !ok {
			s = model.NewPeriodSummary(key, bucketOrder)
			periods[key] = s
		}
		return s
	}

	for _, bucket := range bucketOrder {
		data, ok := byName[bucket]
		if !ok {
			continue
		}

		state := foldState{period: unknown}
		for i, row := range data.Rows {
			mother := i < len(data.Mothers) && data.Mothers[i]
			if mother {
				state.period = keyFn(row[fields.PaidAt])
				if state.period == "" {
					state.period = unknown
				}
				state.refund = isRefund(row[fields.FinancialStatus])
			}

			s := summaryFor(state.period)
			m := s.Bucket(bucket)

			if mother {
				subtotal := ParseAmount(row[fields.Subtotal])
				s.Revenue = s.Revenue.Add(subtotal)
				s.Orders++
				m.Revenue = m.Revenue.Add(subtotal)

				if state.refund {
					s.RefundRevenue = s.RefundRevenue.Add(subtotal)
					s.RefundOrders++
				} else if ParseAmount(row[fields.Shipping]).GreaterThan(decimal.Zero) {
					m.WithShipping++
				} else {
					m.WithoutShipping++
				}
			}

			if ParseAmount(row[fields.LineitemPrice]).GreaterThan(decimal.Zero) {
				qty := ParseQuantity(row[fields.LineitemQuantity])
				m.Units += qty
				s.Units += qty
				if state.refund {
					s.RefundUnits += qty
				}
			}
		}
	}

	out := make([]*model.PeriodSummary, 0, len(periods))
	for _, s := range periods {
		s.Finalize()
		out = append(out, s)
	}
	SortSummaries(out)

	return out
}

// SortSummaries sorts by period key, descending.
func SortSummaries(summaries []*model.PeriodSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Period > summaries[j].Period
	})
}
