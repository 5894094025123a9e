package discount

import (
	"context"

	"github.com/shopspring/decimal"
)

// Calculator runs discount computations under a fixed policy snapshot.
type Calculator struct {
	policy Policy
	gate   *Gate
}

// NewCalculator builds a Calculator. The gate may be nil when the caller
// guarantees the computation cannot exceed any limit (e.g. previews).
func NewCalculator(policy Policy, gate *Gate) *Calculator {
	return &Calculator{policy: policy, gate: gate}
}

// Policy returns the snapshot the calculator was built with.
func (c *Calculator) Policy() Policy { return c.policy }

// Resolve normalises a clerk request into an aggregate amount and percent.
// Invalid percentages reset to zero, amounts clamp into [0, total].
func Resolve(total decimal.Decimal, req Request) (amount, percent decimal.Decimal) {
	switch {
	case req.Percent != nil:
		percent = SanitizePercent(*req.Percent)
		amount = amountOf(total, percent)
	case req.Amount != nil:
		amount = ClampAmount(total, *req.Amount)
		percent = percentOf(total, amount)
	}
	return amount, percent
}

// Compute validates a requested discount against the seller limit. A zero
// discount needs no authorization. Within the limit it is auto approved;
// above it the gate is consulted. A nil limit means no seller row matched:
// the engine rejects rather than silently approving.
func (c *Calculator) Compute(ctx context.Context, total decimal.Decimal, req Request, limitPercent *decimal.Decimal) (Allocation, error) {
	if !c.policy.Enabled {
		return Allocation{}, ErrDisabled
	}

	amount, percent := Resolve(total, req)
	alloc := Allocation{
		Amount:     amount,
		Percent:    percent,
		FinalValue: total.Sub(amount),
	}
	if amount.IsZero() {
		return alloc, nil
	}

	if limitPercent == nil {
		return Allocation{}, ErrNoLimitConfigured
	}
	if percent.LessThanOrEqual(*limitPercent) {
		return alloc, nil
	}

	if err := c.authorize(ctx, Challenge{
		RequestedPercent: percent,
		LimitPercent:     *limitPercent,
	}); err != nil {
		return Allocation{}, err
	}
	return alloc, nil
}

func (c *Calculator) authorize(ctx context.Context, ch Challenge) error {
	if c.gate == nil {
		return ErrAuthorizationCancelled
	}
	return c.gate.Authorize(ctx, ch)
}
