package validate

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"tallybot/internal/dates"
)

// TodayToken is the literal a user may type instead of a date.
const TodayToken = "today"

// Date accepts the today token or a strict day-first date string.
func Date(s string) (dates.Date, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, TodayToken) {
		return dates.Today(), true
	}
	d, err := dates.Parse(s)
	if err != nil {
		return dates.Date{}, false
	}
	return d, true
}

// PositiveInt parses a strictly positive integer.
func PositiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// PositiveDecimal parses a strictly positive decimal amount. A comma is
// accepted as the fractional separator alongside the dot.
func PositiveDecimal(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, false
	}
	return d, true
}

// Text accepts any non-empty free text and case-folds it so that equal item
// attributes group together regardless of how they were typed.
func Text(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return strings.ToLower(s), true
}
