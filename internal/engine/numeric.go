package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount and quantity cells come from hand-maintained exports, so parsing
// takes the leading numeric prefix ("1,280.00 TWD" -> 1280) and falls back to
// zero instead of failing.
var (
	amountPrefix   = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	quantityPrefix = regexp.MustCompile(`^[+-]?\d+`)
)

// ParseAmount parses a money value, stripping thousands separators.
// Unparseable input yields zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	m := amountPrefix.FindString(s)
	if m == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseQuantity parses the integer prefix of a quantity. Thousands
// separators are not stripped: "1,000" reads as 1.
func ParseQuantity(s string) int {
	m := quantityPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
