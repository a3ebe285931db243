package engine

import (
	"github.com/ginjaninja78/shipment-report/internal/config"
	"github.com/ginjaninja78/shipment-report/internal/model"
)

var (
	testCfg    = config.Default()
	testFields = testCfg.Fields
	testOrder  = BucketsOf(testCfg.BucketOrder)
)

var testHeader = []string{
	"Name", "Payment ID", "Tags", "Paid at", "Subtotal", "Shipping",
	"Financial Status", "Lineitem price", "Lineitem quantity", "Lineitem name",
}

// mother builds a mother row.
func mother(id, payment, tags, paidAt, subtotal, shipping, status string) model.Record {
	return model.Record{
		"Name":              id,
		"Payment ID":        payment,
		"Tags":              tags,
		"Paid at":           paidAt,
		"Subtotal":          subtotal,
		"Shipping":          shipping,
		"Financial Status":  status,
		"Lineitem price":    "",
		"Lineitem quantity": "",
		"Lineitem name":     "",
	}
}

// item adds line-item fields to a copy of rec.
func item(rec model.Record, name, price, qty string) model.Record {
	out := make(model.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	out["Lineitem name"] = name
	out["Lineitem price"] = price
	out["Lineitem quantity"] = qty
	return out
}

// child builds a child row with only line-item data.
func child(id, name, price, qty string) model.Record {
	return item(model.Record{
		"Name":             id,
		"Payment ID":       "",
		"Tags":             "",
		"Paid at":          "",
		"Subtotal":         "",
		"Shipping":         "",
		"Financial Status": "",
	}, name, price, qty)
}

// scenarioRows is a mother "A1" and one child.
func scenarioRows() []model.Record {
	return []model.Record{
		mother("A1", "P1", "宅配", "2024-01-02 10:00", "100", "0", "paid"),
		child("A1", "Sneaker", "50", "2"),
	}
}

// sheetOf renders records as an existing-report sheet.
func sheetOf(name string, header []string, rows ...model.Record) *model.ExistingSheet {
	s := &model.ExistingSheet{Name: name, Header: header}
	for _, r := range rows {
		s.Rows = append(s.Rows, r.Values(header))
	}
	return s
}

// reportOf builds an existing report from sheets.
func reportOf(sheets ...*model.ExistingSheet) *model.ExistingReport {
	r := &model.ExistingReport{Sheets: make(map[string]*model.ExistingSheet)}
	for _, s := range sheets {
		r.SheetNames = append(r.SheetNames, s.Name)
		r.Sheets[s.Name] = s
	}
	return r
}

func summaryFor(summaries []*model.PeriodSummary, period string) *model.PeriodSummary {
	for _, s := range summaries {
		if s.Period == period {
			return s
		}
	}
	return nil
}
