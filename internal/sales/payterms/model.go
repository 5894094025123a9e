package payterms

// Kind classifies a payment term.
type Kind string

const (
	// KindCash settles on the spot.
	KindCash Kind = "CASH"
	// KindInstallment spreads the total over future due dates.
	KindInstallment Kind = "INSTALLMENT"
	// KindBankSlip bills through boleto collection.
	KindBankSlip Kind = "BANKSLIP"
	// KindCheque settles by post-dated cheque.
	KindCheque Kind = "CHEQUE"
	// KindCard settles by debit or credit card.
	KindCard Kind = "CARD"
	// KindTransfer settles by bank transfer.
	KindTransfer Kind = "TRANSFER"
	// KindDigital settles by instant digital payment.
	KindDigital Kind = "DIGITAL"
)

// PayTerm is one payment condition offered on the entry form.
type PayTerm struct {
	Code         string `json:"code"`
	Description  string `json:"description"`
	Kind         Kind   `json:"kind"`
	Installments int    `json:"installments"`
	// AllowsWithoutCustomer permits walk-in sales with no customer record.
	// Anything on credit requires an identified customer.
	AllowsWithoutCustomer bool `json:"allows_without_customer"`
	Active                bool `json:"active"`
}

// RequiresCustomer reports whether the term demands an identified customer.
func (p PayTerm) RequiresCustomer() bool {
	return !p.AllowsWithoutCustomer
}
