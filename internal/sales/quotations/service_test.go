package quotations

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotedesk/quotedesk/internal/catalog"
	"github.com/quotedesk/quotedesk/internal/discount"
	"github.com/quotedesk/quotedesk/internal/sales/customers"
	"github.com/quotedesk/quotedesk/internal/sales/payterms"
	"github.com/quotedesk/quotedesk/internal/shared"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ----------------------------------------------------------------------------
// mocks
// ----------------------------------------------------------------------------

type mockRepo struct {
	quotations map[int64]*Quotation
	nextID     int64
	nextItemID int64
	seq        map[string]int64
	txErr      error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		quotations: map[int64]*Quotation{},
		nextID:     1,
		nextItemID: 1,
		seq:        map[string]int64{},
	}
}

func (m *mockRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(ctx, m)
}

func (m *mockRepo) Get(_ context.Context, id int64) (*Quotation, error) {
	q, ok := m.quotations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *q
	cp.Items = append([]Item(nil), q.Items...)
	return &cp, nil
}

func (m *mockRepo) GetByNumber(ctx context.Context, terminal, docNumber string) (*Quotation, error) {
	for id, q := range m.quotations {
		if q.Terminal == terminal && q.DocNumber == docNumber {
			return m.Get(ctx, id)
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(_ context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	var out []Quotation
	for _, q := range m.quotations {
		if q.Terminal == req.Terminal {
			out = append(out, *q)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) Create(_ context.Context, q Quotation) (int64, error) {
	id := m.nextID
	m.nextID++
	q.ID = id
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	m.quotations[id] = &q
	return id, nil
}

func (m *mockRepo) InsertItem(_ context.Context, item Item) (int64, error) {
	q, ok := m.quotations[item.QuotationID]
	if !ok {
		return 0, ErrNotFound
	}
	item.ID = m.nextItemID
	m.nextItemID++
	q.Items = append(q.Items, item)
	return item.ID, nil
}

func (m *mockRepo) DeleteItems(_ context.Context, quotationID int64) error {
	if q, ok := m.quotations[quotationID]; ok {
		q.Items = nil
	}
	return nil
}

func (m *mockRepo) UpdateHeader(_ context.Context, id int64, q Quotation) error {
	stored, ok := m.quotations[id]
	if !ok {
		return ErrNotFound
	}
	stored.CustomerCode = q.CustomerCode
	stored.CustomerName = q.CustomerName
	stored.PayTermCode = q.PayTermCode
	stored.Subtotal = q.Subtotal
	stored.DiscountAmount = q.DiscountAmount
	stored.DiscountPercent = q.DiscountPercent
	stored.Total = q.Total
	stored.Notes = q.Notes
	return nil
}

func (m *mockRepo) UpdateDiscount(_ context.Context, id int64, amount, percent, total decimal.Decimal) error {
	q, ok := m.quotations[id]
	if !ok {
		return ErrNotFound
	}
	q.DiscountAmount = amount
	q.DiscountPercent = percent
	q.Total = total
	return nil
}

func (m *mockRepo) UpdateItemDiscount(_ context.Context, itemID int64, amount, total decimal.Decimal) error {
	for _, q := range m.quotations {
		for i := range q.Items {
			if q.Items[i].ID == itemID {
				q.Items[i].DiscountAmount = amount
				q.Items[i].Total = total
				return nil
			}
		}
	}
	return ErrNotFound
}

func (m *mockRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	q, ok := m.quotations[id]
	if !ok {
		return ErrNotFound
	}
	q.Status = status
	return nil
}

func (m *mockRepo) GenerateNumber(_ context.Context, terminal string) (string, error) {
	m.seq[terminal]++
	return decimal.NewFromInt(m.seq[terminal]).StringFixed(0), nil
}

type mockCatalog struct {
	products map[string]catalog.Product
}

func (m *mockCatalog) Get(_ context.Context, code string) (catalog.Product, error) {
	p, ok := m.products[code]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

type mockCustomers struct {
	customers map[string]customers.Customer
}

func (m *mockCustomers) Get(_ context.Context, code string) (customers.Customer, error) {
	c, ok := m.customers[code]
	if !ok {
		return customers.Customer{}, customers.ErrNotFound
	}
	return c, nil
}

type mockPayTerms struct {
	terms map[string]payterms.PayTerm
}

func (m *mockPayTerms) Get(_ context.Context, code string) (payterms.PayTerm, error) {
	t, ok := m.terms[code]
	if !ok {
		return payterms.PayTerm{}, payterms.ErrNotFound
	}
	return t, nil
}

type mockLimits struct {
	sellerLimit *decimal.Decimal
	caps        map[string]decimal.Decimal
}

func (m *mockLimits) SellerLimit(_ context.Context, _, _ string) (*decimal.Decimal, error) {
	return m.sellerLimit, nil
}

func (m *mockLimits) ProductCap(_ context.Context, code string) (*decimal.Decimal, error) {
	c, ok := m.caps[code]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

type mockPolicies struct {
	policy discount.Policy
}

func (m *mockPolicies) Resolve(_ context.Context) (discount.Policy, error) {
	return m.policy, nil
}

type mockGuard struct {
	open   map[string]bool
	begun  int
	ended  int
	reject bool
}

func (m *mockGuard) Begin(_ context.Context, terminal, doc string) error {
	if m.reject {
		return shared.ErrNegotiationOpen
	}
	if m.open == nil {
		m.open = map[string]bool{}
	}
	key := terminal + "/" + doc
	if m.open[key] {
		return shared.ErrNegotiationOpen
	}
	m.open[key] = true
	m.begun++
	return nil
}

func (m *mockGuard) End(_ context.Context, terminal, doc string) error {
	delete(m.open, terminal+"/"+doc)
	m.ended++
	return nil
}

type mockOverrides struct {
	logs []shared.OverrideLog
}

func (m *mockOverrides) Record(_ context.Context, log shared.OverrideLog) error {
	m.logs = append(m.logs, log)
	return nil
}

type mockPDFs struct {
	enqueued []int64
}

func (m *mockPDFs) EnqueueQuotationPDF(_ context.Context, id int64) error {
	m.enqueued = append(m.enqueued, id)
	return nil
}

// ----------------------------------------------------------------------------
// fixtures
// ----------------------------------------------------------------------------

type fixture struct {
	repo      *mockRepo
	limits    *mockLimits
	policies  *mockPolicies
	guard     *mockGuard
	overrides *mockOverrides
	pdfs      *mockPDFs
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMockRepo()
	limits := &mockLimits{
		caps: map[string]decimal.Decimal{
			"P600": dec("5"),
			"P400": dec("20"),
		},
	}
	policies := &mockPolicies{policy: discount.Policy{
		Enabled:             true,
		OverridePassword:    "15",
		PasswordFormula:     "Dia",
		DefaultLimitPercent: dec("5"),
	}}
	guard := &mockGuard{}
	overrides := &mockOverrides{}
	pdfs := &mockPDFs{}

	svc := NewService(ServiceConfig{
		Repo: repo,
		Products: &mockCatalog{products: map[string]catalog.Product{
			"P600": {Code: "P600", Description: "Bancada de aco", Unit: "UNIDADE", Price: dec("600"), Active: true},
			"P400": {Code: "P400", Description: "Morsa 5 pol", Unit: "UNIDADE", Price: dec("400"), Active: true},
		}},
		Customers: &mockCustomers{customers: map[string]customers.Customer{
			"C1": {Code: "C1", Name: "Oficina Silva", CreditLimit: dec("2000"), Active: true},
			"C2": {Code: "C2", Name: "Sem Credito", CreditLimit: dec("100"), OpenBalance: dec("90"), Active: true},
		}},
		PayTerms: &mockPayTerms{terms: map[string]payterms.PayTerm{
			"AV": {Code: "AV", Description: "A vista", Kind: payterms.KindCash, AllowsWithoutCustomer: true, Active: true},
			"30": {Code: "30", Description: "30 dias", Kind: payterms.KindInstallment, Installments: 1, Active: true},
		}},
		Limits:    limits,
		Policies:  policies,
		Guard:     guard,
		Overrides: overrides,
		PDFs:      pdfs,
		Logger:    slog.Default(),
		Terminal:  "01",
	})

	return &fixture{
		repo:      repo,
		limits:    limits,
		policies:  policies,
		guard:     guard,
		overrides: overrides,
		pdfs:      pdfs,
		svc:       svc,
	}
}

func (f *fixture) draft(t *testing.T) *Quotation {
	t.Helper()
	q, err := f.svc.Create(context.Background(), CreateQuotationRequest{
		CustomerCode: strPtr("C1"),
		SellerCode:   "V1",
		PayTermCode:  "AV",
		Items: []ItemRequest{
			{ProductCode: "P600", Quantity: "1"},
			{ProductCode: "P400", Quantity: "1"},
		},
	}, "clerk1")
	require.NoError(t, err)
	return q
}

func strPtr(s string) *string { return &s }

// ----------------------------------------------------------------------------
// create / update
// ----------------------------------------------------------------------------

func TestCreateDefaultsFromCatalog(t *testing.T) {
	f := newFixture(t)
	q := f.draft(t)

	assert.Equal(t, StatusDraft, q.Status)
	assert.Equal(t, "Oficina Silva", q.CustomerName)
	require.Len(t, q.Items, 2)
	assert.Equal(t, "Bancada de aco", q.Items[0].Description)
	assert.Equal(t, "UN", q.Items[0].Unit)
	assert.True(t, q.Subtotal.Equal(dec("1000")))
	assert.True(t, q.Total.Equal(dec("1000")))
}

func TestCreateWalkInNeedsPermissiveTerm(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), CreateQuotationRequest{
		CustomerName: "Balcao",
		SellerCode:   "V1",
		PayTermCode:  "30",
		Items:        []ItemRequest{{ProductCode: "P600", Quantity: "1"}},
	}, "clerk1")
	assert.ErrorIs(t, err, ErrCustomerRequired)
}

func TestCreateWalkInOnCash(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Create(context.Background(), CreateQuotationRequest{
		CustomerName: "Balcao",
		SellerCode:   "V1",
		PayTermCode:  "AV",
		Items:        []ItemRequest{{ProductCode: "P600", Quantity: "2"}},
	}, "clerk1")
	require.NoError(t, err)
	assert.Nil(t, q.CustomerCode)
	assert.Equal(t, "Balcao", q.CustomerName)
	assert.True(t, q.Subtotal.Equal(dec("1200")))
}

func TestCreateCommaDecimalQuantity(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Create(context.Background(), CreateQuotationRequest{
		CustomerCode: strPtr("C1"),
		SellerCode:   "V1",
		PayTermCode:  "AV",
		Items:        []ItemRequest{{ProductCode: "P400", Quantity: "2,5"}},
	}, "clerk1")
	require.NoError(t, err)
	assert.True(t, q.Subtotal.Equal(dec("1000")))
}

func TestCreateRejectsBadQuantity(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), CreateQuotationRequest{
		CustomerCode: strPtr("C1"),
		SellerCode:   "V1",
		PayTermCode:  "AV",
		Items:        []ItemRequest{{ProductCode: "P400", Quantity: "abc"}},
	}, "clerk1")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNumbersAreTerminalScoped(t *testing.T) {
	f := newFixture(t)
	first := f.draft(t)
	second := f.draft(t)
	assert.NotEqual(t, first.DocNumber, second.DocNumber)
}

func TestUpdateRespreadsDiscount(t *testing.T) {
	f := newFixture(t)
	q := f.draft(t)

	// Negotiate 10% first, then swap the items: the percentage survives.
	_, err := f.svc.ApplyDiscount(context.Background(), q.ID, ApplyDiscountRequest{
		Percent: strPtr("10"), Password: strPtr("15"),
	}, "clerk1")
	require.NoError(t, err)

	updated, err := f.svc.Update(context.Background(), q.ID, UpdateQuotationRequest{
		Items: &[]ItemRequest{{ProductCode: "P400", Quantity: "1"}},
	})
	require.NoError(t, err)
	assert.True(t, updated.Subtotal.Equal(dec("400")))
	assert.True(t, updated.DiscountAmount.Equal(dec("40")))
	assert.True(t, updated.Total.Equal(dec("360")))
	require.Len(t, updated.Items, 1)
	assert.True(t, updated.Items[0].DiscountAmount.Equal(dec("40")))
}

func TestUpdateConvertedRejected(t *testing.T) {
	f := newFixture(t)
	q := f.draft(t)
	_, err := f.svc.Convert(context.Background(), q.ID, ConvertRequest{}, "clerk1")
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), q.ID, UpdateQuotationRequest{})
	assert.ErrorIs(t, err, ErrNotEditable)
}

// ----------------------------------------------------------------------------
// discount negotiation
// ----------------------------------------------------------------------------

func TestApplyDiscountWithinCapsSpreadsProportionally(t *testing.T) {
	f := newFixture(t)
	limit := dec("15")
	f.limits.sellerLimit = &limit
	q := f.draft(t)

	got, err := f.svc.ApplyDiscount(context.Background(), q.ID, ApplyDiscountRequest{
		Percent: strPtr("10"),
	}, "clerk1")
	require.NoError(t, err)

	// 600 line caps at 5% (30); the 400 line absorbs the remaining 70.
	assert.True(t, got.DiscountAmount.Equal(dec("100")), got.DiscountAmount.String())
	assert.True(t, got.Total.Equal(dec("900")))
	require.Len(t, got.Items, 2)
	assert.True(t, got.Items[0].DiscountAmount.Equal(dec("30")), got.Items[0].DiscountAmount.String())
	assert.True(t, got.Items[1].DiscountAmount.Equal(dec("70")), got.Items[1].DiscountAmount.String())
	assert.Empty(t, f.overrides.logs)
}

func TestApplyDiscountOverLimitWrongPassword(t *testing.T) {
	f := newFixture(t)
	limit := dec("5")
	f.limits.sellerLimit = &limit
	q := f.draft(t)

	_, err := f.svc.ApplyDiscount(context.Background(), q.ID, ApplyDiscountRequest{
		Percent: strPtr("10"), Password: strPtr("42"),
	}, "clerk1")
	assert.ErrorIs(t, err, discount.ErrAuthorizationDenied)
	assert.Empty(t, f.overrides.logs)
}

func TestApplyDiscountOverLimitNoPassword(t *testing.T) {
	f := newFixture(t)
	limit := dec("5")
	f.limits.sellerLimit = &limit
	q := f.draft(t)

	_, err := f.svc.ApplyDiscount(context.Background(), q.ID, ApplyDiscountRequest{
		Percent: strPtr("10"),
	}, "clerk1")
	assert.ErrorIs(t, err, discount.ErrAuthorizationCancelled)
}

func TestApplyDiscountOverLimitReleased(t *testing.T) {
	f := newFixture(t)
	limit := dec("5")
	f.limits.sellerLimit = &limit
	q := f.draft(t)

	got, err := f.svc.ApplyDiscount(context.Background(), q.ID, ApplyDiscountRequest{
		Percent: strPtr("10"), Password: strPtr("15"),
	}, "clerk1")
	require.NoError(t, err)
	assert.True(t, got.DiscountAmount.Equal(dec("100")))

	require.Len(t, f.overrides.logs, 1)
	assert.Equal(t, shared.OverrideDiscount, f.overrides.logs[0].Kind)
	assert.Equal(t, "clerk1", f.overrides.logs[0].UserCode)
}

func TestApplyDiscountCapsBlockHardFailure(t *testing.T) {
	f := newFixture(t)
	limit := dec("60")
	f.limits.sellerLimit = &limit
	q := f.draft(t)

	// 50% of 1000 is 500; caps allow 30 + 80 = 110 at most.
	_, err := f.svc.ApplyDiscount(context.Background(), q.ID, ApplyDiscountRequest{
		Percent: strPtr("50"),
	}, "clerk1")

	var limErr *discount.LimitExceededError
	require.ErrorAs(t, err, &limErr)
	assert.False(t, limErr.Soft)
	assert.True(t, limErr.AchievableAmount.Equal(dec("110")))
	assert.True(t, limErr.AchievablePercent.Equal(dec("11")))
}

func TestApplyDiscountCapsBlockedButReleased(t *testing.T) {
	f := newFixture(t)
	limit := dec("60")
	f.limits.sellerLimit = &limit
	q := f.draft(t)

	got, err := f.svc.ApplyDiscount(context.Background(), q.ID, ApplyDiscountRequest{
		Percent: strPtr("50"), Password: strPtr("15"),
	}, "clerk1")
	require.NoError(t, err)

	// Password release ignores the per-item caps; the full 500 spreads
	// proportionally: 300 on the 600 line, 200 on the 400 line.
	assert.True(t, got.DiscountAmount.Equal(dec("500")))
	require.Len(t, got.Items, 2)
	assert.True(t, got.Items[0].DiscountAmount.Equal(dec("300")))
	assert.True(t, got.Items[1].DiscountAmount.Equal(dec("200")))
	require.Len(t, f.overrides.logs, 1)
}

func TestApplyDiscountAmountInput(t *testing.T) {
	f := newFixture(t)
	limit := dec("15")
	f.limits.sellerLimit = &limit
	q := f.draft(t)

	got, err := f.svc.ApplyDiscount(context.Background(), q.ID, ApplyDiscountRequest{
		Amount: strPtr("100,00"),
	}, "clerk1")
	require.NoError(t, err)
	assert.True(t, got.DiscountPercent.Equal(dec("10")))
}

func TestApplyDiscountClears(t *testing.T) {
	f := newFixture(t)
	limit := dec("15")
	f.limits.sellerLimit = &limit
	q := f.draft(t)

	_, err := f.svc.ApplyDiscount(context.Background(), q.ID, ApplyDiscountRequest{Percent: strPtr("10")}, "clerk1")
	require.NoError(t, err)

	got, err := f.svc.ApplyDiscount(context.Background(), q.ID, ApplyDiscountRequest{}, "clerk1")
	require.NoError(t, err)
	assert.True(t, got.DiscountAmount.IsZero())
	assert.True(t, got.Total.Equal(dec("1000")))
	assert.True(t, got.Items[0].DiscountAmount.IsZero())
}

func TestApplyDiscountSecondNegotiationRejected(t *testing.T) {
	f := newFixture(t)
	f.guard.reject = true
	q := f.draft(t)

	_, err := f.svc.ApplyDiscount(context.Background(), q.ID, ApplyDiscountRequest{Percent: strPtr("3")}, "clerk1")
	assert.ErrorIs(t, err, shared.ErrNegotiationOpen)
}

func TestApplyDiscountReleasesFlagAfterFailure(t *testing.T) {
	f := newFixture(t)
	limit := dec("5")
	f.limits.sellerLimit = &limit
	q := f.draft(t)

	_, err := f.svc.ApplyDiscount(context.Background(), q.ID, ApplyDiscountRequest{Percent: strPtr("10")}, "clerk1")
	require.Error(t, err)
	assert.Equal(t, f.guard.begun, f.guard.ended)
}

func TestApplyDiscountDisabledPolicy(t *testing.T) {
	f := newFixture(t)
	f.policies.policy.Enabled = false
	q := f.draft(t)

	_, err := f.svc.ApplyDiscount(context.Background(), q.ID, ApplyDiscountRequest{Percent: strPtr("3")}, "clerk1")
	assert.ErrorIs(t, err, discount.ErrDisabled)
}

// ----------------------------------------------------------------------------
// conversion and credit gate
// ----------------------------------------------------------------------------

func TestConvertEnqueuesPrintout(t *testing.T) {
	f := newFixture(t)
	q := f.draft(t)

	got, err := f.svc.Convert(context.Background(), q.ID, ConvertRequest{}, "clerk1")
	require.NoError(t, err)
	assert.Equal(t, StatusConverted, got.Status)
	assert.Equal(t, []int64{q.ID}, f.pdfs.enqueued)
}

func TestConvertBlockedByCreditLimit(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Create(context.Background(), CreateQuotationRequest{
		CustomerCode: strPtr("C2"),
		SellerCode:   "V1",
		PayTermCode:  "AV",
		Items:        []ItemRequest{{ProductCode: "P400", Quantity: "1"}},
	}, "clerk1")
	require.NoError(t, err)

	_, err = f.svc.Convert(context.Background(), q.ID, ConvertRequest{}, "clerk1")
	var credErr *CreditLimitError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, "C2", credErr.CustomerCode)
	assert.True(t, credErr.ExceededBy.Equal(dec("390")))
}

func TestConvertCreditReleasedByPassword(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Create(context.Background(), CreateQuotationRequest{
		CustomerCode: strPtr("C2"),
		SellerCode:   "V1",
		PayTermCode:  "AV",
		Items:        []ItemRequest{{ProductCode: "P400", Quantity: "1"}},
	}, "clerk1")
	require.NoError(t, err)

	got, err := f.svc.Convert(context.Background(), q.ID, ConvertRequest{CreditPassword: strPtr("15")}, "clerk1")
	require.NoError(t, err)
	assert.Equal(t, StatusConverted, got.Status)

	require.Len(t, f.overrides.logs, 1)
	assert.Equal(t, shared.OverrideCreditLimit, f.overrides.logs[0].Kind)
}

func TestConvertCreditWrongPassword(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Create(context.Background(), CreateQuotationRequest{
		CustomerCode: strPtr("C2"),
		SellerCode:   "V1",
		PayTermCode:  "AV",
		Items:        []ItemRequest{{ProductCode: "P400", Quantity: "1"}},
	}, "clerk1")
	require.NoError(t, err)

	_, err = f.svc.Convert(context.Background(), q.ID, ConvertRequest{CreditPassword: strPtr("nope")}, "clerk1")
	assert.ErrorIs(t, err, discount.ErrAuthorizationDenied)
}

func TestCancelDraft(t *testing.T) {
	f := newFixture(t)
	q := f.draft(t)

	got, err := f.svc.Cancel(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	_, err = f.svc.Cancel(context.Background(), q.ID)
	assert.ErrorIs(t, err, ErrNotEditable)
}
