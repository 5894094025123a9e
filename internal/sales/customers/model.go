package customers

import "github.com/shopspring/decimal"

// Customer is one buyer record from the legacy registry. Walk-in sales carry
// no customer at all; the quotation then stores a free-typed name instead.
type Customer struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	TradeName string `json:"trade_name,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	// CreditLimit is the approved ceiling; zero means no credit sales.
	CreditLimit decimal.Decimal `json:"credit_limit"`
	// OpenBalance is the sum of unpaid documents.
	OpenBalance decimal.Decimal `json:"open_balance"`
	Active      bool            `json:"active"`
}

// CreditAvailable returns how much room is left under the limit. Negative
// when the customer is already past it.
func (c Customer) CreditAvailable() decimal.Decimal {
	return c.CreditLimit.Sub(c.OpenBalance)
}

// CreditExceededBy returns how far a prospective charge lands past the
// limit, zero when it fits.
func (c Customer) CreditExceededBy(charge decimal.Decimal) decimal.Decimal {
	over := c.OpenBalance.Add(charge).Sub(c.CreditLimit)
	if over.IsNegative() {
		return decimal.Zero
	}
	return over
}
