package quotations

import "time"

// CreateQuotationRequest opens a new draft. Prices and descriptions default
// from the item master when omitted. Monetary figures travel as strings so
// legacy comma decimals survive the trip.
type CreateQuotationRequest struct {
	CustomerCode *string            `json:"customer_code,omitempty"`
	CustomerName string             `json:"customer_name" validate:"omitempty,max=60"`
	SellerCode   string             `json:"seller_code" validate:"required,max=10"`
	PayTermCode  string             `json:"pay_term_code" validate:"required,max=10"`
	Notes        *string            `json:"notes,omitempty"`
	Items        []ItemRequest      `json:"items" validate:"required,min=1,dive"`
}

// ItemRequest is one line as typed by the clerk.
type ItemRequest struct {
	ProductCode string `json:"product_code" validate:"required,max=20"`
	Quantity    string `json:"quantity" validate:"required"`
	// UnitPrice overrides the list price when non-empty.
	UnitPrice string `json:"unit_price,omitempty"`
}

// UpdateQuotationRequest replaces the item set and optionally the header
// fields of a draft.
type UpdateQuotationRequest struct {
	CustomerCode *string        `json:"customer_code,omitempty"`
	CustomerName *string        `json:"customer_name,omitempty" validate:"omitempty,max=60"`
	PayTermCode  *string        `json:"pay_term_code,omitempty" validate:"omitempty,max=10"`
	Notes        *string        `json:"notes,omitempty"`
	Items        *[]ItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

// ApplyDiscountRequest starts a discount negotiation on a draft. Exactly one
// of Percent or Amount should be set; both empty clears the discount.
type ApplyDiscountRequest struct {
	Percent *string `json:"percent,omitempty"`
	Amount  *string `json:"amount,omitempty"`
	// Password is the release password typed by the clerk when prompted.
	// Nil means the prompt was dismissed.
	Password *string `json:"password,omitempty"`
	// AcceptReduced accepts the best achievable allocation when per-item
	// caps leave a small shortfall.
	AcceptReduced bool `json:"accept_reduced"`
}

// ConvertRequest closes a draft into a sale. The credit password releases a
// save past the customer credit limit.
type ConvertRequest struct {
	CreditPassword *string `json:"credit_password,omitempty"`
}

// ListQuotationsRequest filters the quotation listing.
type ListQuotationsRequest struct {
	Terminal     string     `json:"terminal"`
	Status       *Status    `json:"status,omitempty"`
	CustomerCode *string    `json:"customer_code,omitempty"`
	DateFrom     *time.Time `json:"date_from,omitempty"`
	DateTo       *time.Time `json:"date_to,omitempty"`
	Limit        int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset       int        `json:"offset" validate:"gte=0"`
}
