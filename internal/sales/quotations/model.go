package quotations

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status mirrors the single-character situation codes carried over from the
// legacy document table.
type Status string

const (
	// StatusDraft marks a quotation still being typed.
	StatusDraft Status = "8"
	// StatusConverted marks a quotation turned into a sale. Converted
	// documents are frozen.
	StatusConverted Status = "1"
	// StatusCancelled marks a discarded quotation.
	StatusCancelled Status = "9"
)

// Quotation is one order quotation document. Document numbers are six
// digits, scoped per terminal.
type Quotation struct {
	ID        int64  `json:"id"`
	DocNumber string `json:"doc_number"`
	Terminal  string `json:"terminal"`
	// CustomerCode is nil for walk-in sales; CustomerName then carries the
	// free-typed buyer name.
	CustomerCode *string         `json:"customer_code,omitempty"`
	CustomerName string          `json:"customer_name"`
	SellerCode   string          `json:"seller_code"`
	PayTermCode  string          `json:"pay_term_code"`
	Status       Status          `json:"status"`
	IssuedAt     time.Time       `json:"issued_at"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	// DiscountAmount is the negotiated aggregate discount already spread
	// over the items.
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Total           decimal.Decimal `json:"total"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []Item          `json:"items,omitempty"`
}

// Item is one quotation line.
type Item struct {
	ID          int64           `json:"id"`
	QuotationID int64           `json:"quotation_id"`
	LineNo      int             `json:"line_no"`
	ProductCode string          `json:"product_code"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	// Subtotal is quantity times unit price, before discount.
	Subtotal decimal.Decimal `json:"subtotal"`
	// DiscountAmount is this line's share of the aggregate discount.
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
}

// Editable reports whether the document still accepts changes.
func (q *Quotation) Editable() bool {
	return q.Status == StatusDraft
}
