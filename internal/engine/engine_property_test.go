package engine

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ginjaninja78/shipment-report/internal/model"
)

var propertyTags = []string{"宅配", "全家", "7-11", "711", "VIP"}

// rowsFromSeeds builds an export with one order per seed. The seed decides
// the carrier tag, paid-at day, amounts, refund status and line items;
// every fifth seed also gets a second payment row.
func rowsFromSeeds(seeds []int) []model.Record {
	var rows []model.Record
	for i, v := range seeds {
		id := fmt.Sprintf("#%d", i)
		status := "paid"
		if v%7 == 0 {
			status = "refunded"
		}
		rows = append(rows, mother(
			id,
			fmt.Sprintf("P%d", i),
			propertyTags[v%len(propertyTags)],
			fmt.Sprintf("2024-%02d-%02d 10:00", v%12+1, v%28+1),
			fmt.Sprintf("%d", v*10),
			fmt.Sprintf("%d", v%2*60),
			status,
		))
		for c := 0; c < v%4; c++ {
			rows = append(rows, child(id, fmt.Sprintf("item%d", c), fmt.Sprintf("%d", (v+c)%3*100), fmt.Sprintf("%d", c+1)))
		}
		if v%5 == 0 {
			// A second payment row on the same order.
			extra := mother(id, fmt.Sprintf("Q%d", i), propertyTags[v%len(propertyTags)], "", "", "", status)
			rows = append(rows, item(extra, "extra", fmt.Sprintf("%d", v%3*10), "1"))
		}
	}
	return rows
}

// summaryTable renders summaries as text for comparison.
func summaryTable(res *Result) [][]string {
	var out [][]string
	for _, s := range res.Summary {
		row := make([]string, len(res.Schema))
		for i, c := range res.Schema {
			row[i] = model.FormatValue(c.Value(s))
		}
		out = append(out, row)
	}
	return out
}

func TestRunIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("same snapshot, same result", prop.ForAll(
		func(seeds []int) bool {
			acc := NewAccumulator(testCfg, nil)
			acc.AddFile("a.csv", testHeader, rowsFromSeeds(seeds))
			snap := acc.Snapshot()

			r1, err1 := Run(snap, nil, dailyOptions())
			r2, err2 := Run(snap, nil, dailyOptions())
			if err1 != nil || err2 != nil {
				return false
			}
			return reflect.DeepEqual(summaryTable(r1), summaryTable(r2)) &&
				reflect.DeepEqual(r1.Buckets, r2.Buckets) &&
				r1.Stats == r2.Stats
		},
		gen.SliceOf(gen.IntRange(0, 500)),
	))

	properties.TestingRun(t)
}

func TestReimportIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("merging a file already in the report changes nothing", prop.ForAll(
		func(seeds []int) bool {
			rows := rowsFromSeeds(seeds)

			acc := NewAccumulator(testCfg, nil)
			acc.AddFile("a.csv", testHeader, rows)
			first, err := Run(acc.Snapshot(), nil, dailyOptions())
			if err != nil {
				return false
			}

			second, err := Run(acc.Snapshot(), asExisting(first), dailyOptions())
			if err != nil {
				return false
			}

			return second.Stats.NewOrders == 0 &&
				second.Stats.SkippedDuplicates == first.Stats.NewOrders &&
				reflect.DeepEqual(summaryTable(first), summaryTable(second))
		},
		gen.SliceOf(gen.IntRange(0, 500)),
	))

	properties.TestingRun(t)
}

func TestUnitsReconcile(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("period units add up to the bucket units", prop.ForAll(
		func(seeds []int) bool {
			acc := NewAccumulator(testCfg, nil)
			acc.AddFile("a.csv", testHeader, rowsFromSeeds(seeds))
			res, err := Run(acc.Snapshot(), nil, dailyOptions())
			if err != nil {
				return false
			}
			for _, s := range res.Summary {
				sum := 0
				for _, b := range testOrder {
					sum += s.Bucket(b).Units
				}
				if sum != s.Units || s.RefundUnits > s.Units || s.RefundOrders > s.Orders {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 500)),
	))

	properties.TestingRun(t)
}
