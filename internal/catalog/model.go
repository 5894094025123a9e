package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk/internal/shared"
)

// Product is one sellable item as exposed to the entry form.
type Product struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	// MaxDiscountPercent is the per-item negotiation ceiling. Zero means the
	// item admits no discount.
	MaxDiscountPercent decimal.Decimal `json:"max_discount_percent"`
	Active             bool            `json:"active"`
}

// Subtotal returns quantity times unit price.
func (p Product) Subtotal(quantity decimal.Decimal) decimal.Decimal {
	return p.Price.Mul(quantity)
}

// unitAbbreviations maps the verbose unit names still stored in the legacy
// item master to the short forms printed on documents.
var unitAbbreviations = map[string]string{
	"unidade": "UN",
	"caixa":   "CX",
	"pacote":  "PCT",
	"peca":    "PC",
	"quilo":   "KG",
	"grama":   "GR",
	"litro":   "LT",
	"metro":   "MT",
	"par":     "PR",
	"duzia":   "DZ",
	"rolo":    "RL",
	"saco":    "SC",
}

// AbbreviateUnit shortens a unit name for printing. Unknown units pass
// through unchanged, already short codes are uppercased.
func AbbreviateUnit(unit string) string {
	if abbr, ok := unitAbbreviations[shared.Fold(unit)]; ok {
		return abbr
	}
	if len(unit) <= 3 {
		return strings.ToUpper(unit)
	}
	return unit
}
