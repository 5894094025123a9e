package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/quotedesk/quotedesk/internal/sales/payterms"
	"github.com/quotedesk/quotedesk/internal/sales/quotations"
	"github.com/quotedesk/quotedesk/internal/sales/sellers"
	"github.com/quotedesk/quotedesk/report"
)

// QuotationSource loads quotations for printing.
type QuotationSource interface {
	Get(ctx context.Context, id int64) (*quotations.Quotation, error)
}

// SellerSource resolves seller names.
type SellerSource interface {
	Get(ctx context.Context, code string) (sellers.Seller, error)
}

// PayTermSource resolves payment term descriptions.
type PayTermSource interface {
	Get(ctx context.Context, code string) (payterms.PayTerm, error)
}

// HTMLRenderer converts HTML to PDF bytes.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// QuotationPDFJob renders one quotation to PDF and archives it in the
// printout directory.
type QuotationPDFJob struct {
	Quotations QuotationSource
	Sellers    SellerSource
	PayTerms   PayTermSource
	Renderer   HTMLRenderer
	OutputDir  string
	Company    string
	Logger     *slog.Logger
}

// Handle processes TaskTypeQuotationPDF tasks.
func (j *QuotationPDFJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload QuotationPDFPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	q, err := j.Quotations.Get(ctx, payload.QuotationID)
	if err != nil {
		return fmt.Errorf("load quotation %d: %w", payload.QuotationID, err)
	}

	doc := report.QuotationDocument{
		CompanyName:  j.Company,
		DocNumber:    q.DocNumber,
		Terminal:     q.Terminal,
		IssuedAt:     q.IssuedAt,
		CustomerName: q.CustomerName,
		PayTerm:      q.PayTermCode,
		Subtotal:     q.Subtotal.StringFixed(2),
		Total:        q.Total.StringFixed(2),
	}
	if q.DiscountAmount.IsPositive() {
		doc.Discount = q.DiscountAmount.StringFixed(2)
	}
	if q.Notes != nil {
		doc.Notes = *q.Notes
	}
	if seller, err := j.Sellers.Get(ctx, q.SellerCode); err == nil {
		doc.SellerName = seller.Name
	} else {
		doc.SellerName = q.SellerCode
	}
	if term, err := j.PayTerms.Get(ctx, q.PayTermCode); err == nil {
		doc.PayTerm = term.Description
	}
	for _, item := range q.Items {
		doc.Items = append(doc.Items, report.QuotationDocumentItem{
			LineNo:      item.LineNo,
			ProductCode: item.ProductCode,
			Description: item.Description,
			Unit:        item.Unit,
			Quantity:    item.Quantity.String(),
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Total:       item.Total.StringFixed(2),
		})
	}

	html, err := report.RenderQuotationHTML(doc)
	if err != nil {
		return fmt.Errorf("render quotation %s: %w", q.DocNumber, err)
	}
	pdf, err := j.Renderer.RenderHTML(ctx, html)
	if err != nil {
		return fmt.Errorf("convert quotation %s: %w", q.DocNumber, err)
	}

	path, err := report.Archive(j.OutputDir, q.Terminal, q.DocNumber, pdf)
	if err != nil {
		return fmt.Errorf("archive quotation %s: %w", q.DocNumber, err)
	}
	j.Logger.Info("quotation printed", slog.String("doc", q.DocNumber), slog.String("path", path))
	return nil
}
