package discount

import (
	"github.com/shopspring/decimal"
)

// maxRedistributePasses bounds the headroom redistribution loop. One pass is
// enough mathematically; the bound guards against precision residues keeping
// a shortfall alive forever.
const maxRedistributePasses = 16

// Distribute apportions an aggregate discount across lines with
// heterogeneous per-item caps. Each line first receives its proportional
// share, capped at its own maximum; any shortfall is then redistributed
// proportionally to the remaining headroom until it drops under one cent or
// every line is saturated.
//
// A shortfall within the soft tolerance is returned as a soft
// LimitExceededError carrying the reduced allocation, leaving the decision
// to apply it to the caller. A larger shortfall is a hard failure reporting
// the weighted-average achievable percentage and the capped items.
func Distribute(total, requestedPercent decimal.Decimal, lines []Line) (Allocation, error) {
	if total.IsZero() {
		return Allocation{FinalValue: total}, nil
	}
	if len(lines) == 0 {
		return Allocation{}, ErrNoLines
	}

	requestedPercent = SanitizePercent(requestedPercent)
	desired := amountOf(total, requestedPercent)
	if desired.IsZero() {
		return Allocation{FinalValue: total}, nil
	}

	caps := make([]decimal.Decimal, len(lines))
	allocated := make([]decimal.Decimal, len(lines))
	for i, line := range lines {
		caps[i] = amountOf(line.Subtotal, line.MaxDiscountPercent)
		share := desired.Mul(line.Subtotal).Div(total)
		allocated[i] = decimal.Min(share, caps[i])
	}

	shortfall := desired.Sub(sum(allocated))
	for pass := 0; pass < maxRedistributePasses && shortfall.GreaterThan(centTolerance); pass++ {
		headroom := make([]decimal.Decimal, len(lines))
		totalHeadroom := decimal.Zero
		for i := range lines {
			headroom[i] = caps[i].Sub(allocated[i])
			totalHeadroom = totalHeadroom.Add(headroom[i])
		}
		if !totalHeadroom.IsPositive() {
			break
		}
		if shortfall.GreaterThanOrEqual(totalHeadroom) {
			// Everything saturates; no further pass can help.
			copy(allocated, caps)
		} else {
			for i := range lines {
				if headroom[i].IsPositive() {
					extra := shortfall.Mul(headroom[i]).Div(totalHeadroom)
					allocated[i] = decimal.Min(allocated[i].Add(extra), caps[i])
				}
			}
		}
		shortfall = desired.Sub(sum(allocated))
	}

	achieved := sum(allocated)
	alloc := Allocation{
		Amount:     achieved,
		Percent:    percentOf(total, achieved),
		FinalValue: total.Sub(achieved),
		Lines:      lineBreakdown(lines, allocated, caps),
	}

	if shortfall.LessThanOrEqual(centTolerance) {
		return alloc, nil
	}

	return Allocation{}, &LimitExceededError{
		RequestedAmount:   desired,
		AchievableAmount:  achieved,
		AchievablePercent: percentOf(total, achieved).Round(2),
		LimitingItems:     saturatedItems(lines, allocated, caps),
		Soft:              shortfall.LessThanOrEqual(softTolerance),
		Allocation:        alloc,
	}
}

func sum(values []decimal.Decimal) decimal.Decimal {
	s := decimal.Zero
	for _, v := range values {
		s = s.Add(v)
	}
	return s
}

func lineBreakdown(lines []Line, allocated, caps []decimal.Decimal) []LineAllocation {
	out := make([]LineAllocation, len(lines))
	for i, line := range lines {
		out[i] = LineAllocation{
			ProductCode: line.ProductCode,
			Amount:      allocated[i],
			MaxAmount:   caps[i],
		}
	}
	return out
}

func saturatedItems(lines []Line, allocated, caps []decimal.Decimal) []string {
	var items []string
	for i, line := range lines {
		if caps[i].Sub(allocated[i]).LessThanOrEqual(centTolerance) {
			items = append(items, line.ProductCode)
		}
	}
	return items
}
