package report

import (
	"bytes"
	"html/template"
	"time"
)

// QuotationDocument carries everything the printout template needs. Figures
// arrive pre-formatted so the template stays dumb.
type QuotationDocument struct {
	CompanyName  string
	DocNumber    string
	Terminal     string
	IssuedAt     time.Time
	CustomerName string
	SellerName   string
	PayTerm      string
	Items        []QuotationDocumentItem
	Subtotal     string
	Discount     string
	Total        string
	Notes        string
}

// QuotationDocumentItem is one printed line.
type QuotationDocumentItem struct {
	LineNo      int
	ProductCode string
	Description string
	Unit        string
	Quantity    string
	UnitPrice   string
	Total       string
}

var quotationTemplate = template.Must(template.New("quotation").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: "Courier New", monospace; font-size: 11px; margin: 24px; }
  h1 { font-size: 14px; text-align: center; margin-bottom: 2px; }
  .doc { text-align: center; margin-bottom: 12px; }
  table { width: 100%; border-collapse: collapse; margin-top: 8px; }
  th, td { border-bottom: 1px dashed #333; padding: 2px 4px; text-align: left; }
  td.num, th.num { text-align: right; }
  .totals { margin-top: 10px; text-align: right; }
  .totals div { margin: 2px 0; }
  .notes { margin-top: 14px; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>{{.CompanyName}}</h1>
<div class="doc">Orcamento {{.DocNumber}} &middot; Terminal {{.Terminal}} &middot; {{.IssuedAt.Format "02/01/2006 15:04"}}</div>
<div>Cliente: {{.CustomerName}}</div>
<div>Vendedor: {{.SellerName}}</div>
<div>Condicao: {{.PayTerm}}</div>
<table>
<tr><th>#</th><th>Codigo</th><th>Descricao</th><th>Un</th><th class="num">Qtde</th><th class="num">Preco</th><th class="num">Total</th></tr>
{{range .Items}}<tr><td>{{.LineNo}}</td><td>{{.ProductCode}}</td><td>{{.Description}}</td><td>{{.Unit}}</td><td class="num">{{.Quantity}}</td><td class="num">{{.UnitPrice}}</td><td class="num">{{.Total}}</td></tr>
{{end}}</table>
<div class="totals">
<div>Subtotal: {{.Subtotal}}</div>
{{if .Discount}}<div>Desconto: {{.Discount}}</div>{{end}}
<div><strong>Total: {{.Total}}</strong></div>
</div>
{{if .Notes}}<div class="notes">{{.Notes}}</div>{{end}}
</body>
</html>`))

// RenderQuotationHTML produces the HTML handed to Gotenberg.
func RenderQuotationHTML(doc QuotationDocument) (string, error) {
	var buf bytes.Buffer
	if err := quotationTemplate.Execute(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
