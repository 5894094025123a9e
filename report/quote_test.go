package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderQuotationHTML(t *testing.T) {
	html, err := RenderQuotationHTML(QuotationDocument{
		CompanyName:  "Comercial Aurora",
		DocNumber:    "000123",
		Terminal:     "01",
		IssuedAt:     time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC),
		CustomerName: "Oficina Silva",
		SellerName:   "Ana",
		PayTerm:      "A vista",
		Items: []QuotationDocumentItem{
			{LineNo: 1, ProductCode: "P600", Description: "Bancada de aco", Unit: "UN", Quantity: "1", UnitPrice: "600.00", Total: "570.00"},
		},
		Subtotal: "600.00",
		Discount: "30.00",
		Total:    "570.00",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "Orcamento 000123")
	assert.Contains(t, html, "Oficina Silva")
	assert.Contains(t, html, "Desconto: 30.00")
	assert.Contains(t, html, "15/03/2025 10:30")
}

func TestRenderQuotationHTMLNoDiscount(t *testing.T) {
	html, err := RenderQuotationHTML(QuotationDocument{DocNumber: "000001", IssuedAt: time.Now()})
	require.NoError(t, err)
	assert.NotContains(t, html, "Desconto")
}

func TestArchive(t *testing.T) {
	dir := t.TempDir()
	path, err := Archive(filepath.Join(dir, "impressao"), "01", "000123", []byte("%PDF-"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "orc_01_000123.pdf"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-"), data)
}
