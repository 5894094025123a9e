package discount

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal converts clerk input to a decimal, accepting a comma as the
// decimal separator. Empty or malformed input yields zero with ok=false so
// callers can distinguish "zero" from "invalid" without exceptions.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// SanitizePercent resets negative or above-100 percentages to zero. The
// reset (rather than clamp) mirrors the entry form behaviour: an absurd
// percentage clears the field.
func SanitizePercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return decimal.Zero
	}
	return p
}

// ClampAmount forces an absolute discount into [0, total].
func ClampAmount(total, a decimal.Decimal) decimal.Decimal {
	if a.IsNegative() {
		return decimal.Zero
	}
	if a.GreaterThan(total) {
		return total
	}
	return a
}
