package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	products []Product
	byCode   map[string]Product
	err      error
}

func newMockRepository(products ...Product) *mockRepository {
	byCode := make(map[string]Product, len(products))
	for _, p := range products {
		byCode[p.Code] = p
	}
	return &mockRepository{products: products, byCode: byCode}
}

func (m *mockRepository) Get(_ context.Context, code string) (Product, error) {
	if m.err != nil {
		return Product{}, m.err
	}
	p, ok := m.byCode[code]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *mockRepository) Search(_ context.Context, _ string, limit int) ([]Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.products) > limit {
		return m.products[:limit], nil
	}
	return m.products, nil
}

func TestSearchRanksExactCodeFirst(t *testing.T) {
	repo := newMockRepository(
		Product{Code: "1001", Description: "Parafuso 10mm", Active: true},
		Product{Code: "10", Description: "Arruela lisa", Active: true},
		Product{Code: "555", Description: "Chave 10", Active: true},
	)
	svc := NewService(repo)

	got, err := svc.Search(context.Background(), "10", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "10", got[0].Code)
	assert.Equal(t, "1001", got[1].Code)
}

func TestSearchEmptyTermReturnsNothing(t *testing.T) {
	svc := NewService(newMockRepository())
	got, err := svc.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetUnknownCode(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Get(context.Background(), "999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetBlankCode(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Get(context.Background(), "  ")
	assert.Error(t, err)
}

func TestAbbreviateUnit(t *testing.T) {
	assert.Equal(t, "UN", AbbreviateUnit("UNIDADE"))
	assert.Equal(t, "PC", AbbreviateUnit("Peça"))
	assert.Equal(t, "KG", AbbreviateUnit("quilo"))
	assert.Equal(t, "CX", AbbreviateUnit("cx"))
	assert.Equal(t, "Tambor", AbbreviateUnit("Tambor"))
}

func TestProductSubtotal(t *testing.T) {
	p := Product{Price: decimal.RequireFromString("12.50")}
	assert.True(t, p.Subtotal(decimal.NewFromInt(4)).Equal(decimal.RequireFromString("50")))
}
