// Package discount implements the quotation discount engine: percentage and
// amount conversion, seller and per-item limit validation, proportional
// distribution across lines and password-gated overrides.
package discount

import "github.com/shopspring/decimal"

// Policy is the discount configuration snapshot used for one calculation.
// It is resolved once per negotiation and injected; the engine never reads
// configuration on its own.
type Policy struct {
	// Enabled switches the whole discount feature off when false.
	Enabled bool
	// OverridePassword is the daily release password computed from the
	// configured formula. Compared verbatim, case sensitive.
	OverridePassword string
	// PasswordFormula is the raw formula the password was derived from,
	// kept for diagnostics.
	PasswordFormula string
	// DefaultLimitPercent is the fallback ceiling used when no seller or
	// item level limit is resolvable.
	DefaultLimitPercent decimal.Decimal
}

// Line is one quotation line as seen by the engine. Lines are never
// mutated; allocations are returned separately.
type Line struct {
	ProductCode string
	// Subtotal is quantity times unit price, before discount.
	Subtotal decimal.Decimal
	// MaxDiscountPercent is the per-item cap. Zero means no discount
	// allowed for the item.
	MaxDiscountPercent decimal.Decimal
}

// Request is the clerk input: a percentage or an absolute amount. The two
// are kept in sync by conversion; only one needs to be provided.
type Request struct {
	Percent *decimal.Decimal
	Amount  *decimal.Decimal
}

// LineAllocation is the engine output for a single line.
type LineAllocation struct {
	ProductCode string
	// Amount is the discount allocated to this line.
	Amount decimal.Decimal
	// MaxAmount is the cap the line could absorb at most.
	MaxAmount decimal.Decimal
}

// Allocation is the result of a discount computation.
type Allocation struct {
	// Amount is the aggregate discount value.
	Amount decimal.Decimal
	// Percent is the aggregate discount expressed against the total.
	Percent decimal.Decimal
	// FinalValue is total minus Amount.
	FinalValue decimal.Decimal
	// Lines carries the per-line breakdown in line-aware mode, nil in
	// seller-limit mode.
	Lines []LineAllocation
}

var (
	hundred = decimal.NewFromInt(100)
	// centTolerance is the convergence tolerance for distribution, one
	// cent in the smallest currency unit.
	centTolerance = decimal.RequireFromString("0.01")
	// softTolerance is the looser bound under which a shortfall is still
	// offered to the caller as an acceptable reduced discount.
	softTolerance = decimal.RequireFromString("0.50")
)

// percentOf converts an aggregate amount back to a percentage of total.
// Returns zero when total is zero.
func percentOf(total, amount decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return amount.Div(total).Mul(hundred)
}

// amountOf converts a percentage of total to an absolute amount.
func amountOf(total, percent decimal.Decimal) decimal.Decimal {
	return total.Mul(percent).Div(hundred)
}
