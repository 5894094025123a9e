package sellers

import "github.com/shopspring/decimal"

// Seller is one salesperson from the legacy registry.
type Seller struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	// MaxDiscountPercent is the negotiation ceiling granted to this seller,
	// nil when no ceiling row exists.
	MaxDiscountPercent *decimal.Decimal `json:"max_discount_percent,omitempty"`
}
