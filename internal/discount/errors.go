package discount

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrDisabled is returned when the discount feature is switched off.
	ErrDisabled = errors.New("discount system disabled")
	// ErrNoLimitConfigured indicates no seller or default limit could be
	// resolved. The engine never silently approves in that case.
	ErrNoLimitConfigured = errors.New("discount limit not configured")
	// ErrNoLines is returned by line-aware distribution on an empty quotation.
	ErrNoLines = errors.New("quotation has no items")
	// ErrAuthorizationCancelled indicates the clerk dismissed the password prompt.
	ErrAuthorizationCancelled = errors.New("authorization cancelled")
	// ErrAuthorizationDenied indicates a wrong release password.
	ErrAuthorizationDenied = errors.New("incorrect password, discount not authorized")
	// ErrNegotiationOpen indicates another discount negotiation is already
	// in flight for the quotation.
	ErrNegotiationOpen = errors.New("a discount negotiation is already open")
)

// LimitExceededError reports a distribution that could not reach the
// requested amount because of per-item caps.
type LimitExceededError struct {
	// RequestedAmount is what the clerk asked for.
	RequestedAmount decimal.Decimal
	// AchievableAmount is the best the caps allow.
	AchievableAmount decimal.Decimal
	// AchievablePercent is AchievableAmount expressed against the total,
	// the weighted average of the line caps.
	AchievablePercent decimal.Decimal
	// LimitingItems holds the product codes of lines saturated at their cap.
	LimitingItems []string
	// Soft marks a shortfall within the loose tolerance: the caller may
	// accept the reduced allocation instead of aborting.
	Soft bool
	// Allocation is the best allocation reached. Only meaningful for soft
	// failures; the caller may apply it as-is.
	Allocation Allocation
}

func (e *LimitExceededError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "discount limited to %s%% (requested %s, achievable %s)",
		e.AchievablePercent.StringFixed(2), e.RequestedAmount.StringFixed(2), e.AchievableAmount.StringFixed(2))
	if len(e.LimitingItems) > 0 {
		b.WriteString("; limited by ")
		b.WriteString(e.LimitingSummary())
	}
	return b.String()
}

// LimitingSummary renders at most five limiting items plus a count of the rest.
func (e *LimitExceededError) LimitingSummary() string {
	const maxShown = 5
	items := e.LimitingItems
	extra := 0
	if len(items) > maxShown {
		extra = len(items) - maxShown
		items = items[:maxShown]
	}
	s := strings.Join(items, ", ")
	if extra > 0 {
		s += fmt.Sprintf(" and %d more", extra)
	}
	return s
}
