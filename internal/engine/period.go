package engine

import (
	"strings"
	"time"
)

// PeriodFunc maps a paid-at value to a period key. It returns "" when the
// value has no usable date; the aggregator substitutes the unknown-period
// sentinel.
type PeriodFunc func(paidAt string) string

// PeriodMode selects the aggregation granularity.
type PeriodMode string

const (
	PeriodDaily   PeriodMode = "daily"
	PeriodMonthly PeriodMode = "monthly"
)

// dateLayouts are the date forms seen in exports and in hand-edited reports.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-1-2",
	"2006/1/2",
}

// DailyPeriod returns the "YYYY-MM-DD" date of a timestamp such as
// "2024-01-02 10:00:00 +0800" or "2024-01-02T10:00:00Z".
func DailyPeriod(paidAt string) string {
	fields := strings.Fields(paidAt)
	if len(fields) == 0 {
		return ""
	}
	token, _, _ := strings.Cut(fields[0], "T")

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, token); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// MonthlyPeriod returns the "YYYY-MM" month of a timestamp.
func MonthlyPeriod(paidAt string) string {
	day := DailyPeriod(paidAt)
	if day == "" {
		return ""
	}
	return day[:7]
}

// Func returns the period function of the mode.
func (m PeriodMode) Func() PeriodFunc {
	if m == PeriodMonthly {
		return MonthlyPeriod
	}
	return DailyPeriod
}

// Valid reports whether m is a known mode.
func (m PeriodMode) Valid() bool {
	return m == PeriodDaily || m == PeriodMonthly
}
