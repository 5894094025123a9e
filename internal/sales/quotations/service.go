package quotations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/quotedesk/quotedesk/internal/catalog"
	"github.com/quotedesk/quotedesk/internal/discount"
	"github.com/quotedesk/quotedesk/internal/sales/customers"
	"github.com/quotedesk/quotedesk/internal/sales/payterms"
	"github.com/quotedesk/quotedesk/internal/shared"
)

var (
	// ErrNotEditable rejects changes to converted or cancelled documents.
	ErrNotEditable = errors.New("only draft quotations can be changed")
	// ErrCustomerRequired rejects credit terms without an identified customer.
	ErrCustomerRequired = errors.New("payment term requires an identified customer")
	// ErrInvalidInput wraps malformed numeric input.
	ErrInvalidInput = errors.New("invalid input")
)

// CreditLimitError reports a conversion blocked by the customer credit limit.
type CreditLimitError struct {
	CustomerCode string
	ExceededBy   decimal.Decimal
}

func (e *CreditLimitError) Error() string {
	return fmt.Sprintf("customer %s exceeds credit limit by %s", e.CustomerCode, e.ExceededBy.StringFixed(2))
}

// ProductCatalog is the slice of the item master the service needs.
type ProductCatalog interface {
	Get(ctx context.Context, code string) (catalog.Product, error)
}

// CustomerDirectory resolves customers for credit checks.
type CustomerDirectory interface {
	Get(ctx context.Context, code string) (customers.Customer, error)
}

// PayTermDirectory resolves payment terms for walk-in validation.
type PayTermDirectory interface {
	Get(ctx context.Context, code string) (payterms.PayTerm, error)
}

// NegotiationGuard serialises discount dialogs per quotation.
type NegotiationGuard interface {
	Begin(ctx context.Context, terminal, docNumber string) error
	End(ctx context.Context, terminal, docNumber string) error
}

// OverrideRecorder persists password-released overrides.
type OverrideRecorder interface {
	Record(ctx context.Context, log shared.OverrideLog) error
}

// PDFEnqueuer queues quotation printouts.
type PDFEnqueuer interface {
	EnqueueQuotationPDF(ctx context.Context, quotationID int64) error
}

// Service drives the quotation entry workflow.
type Service struct {
	repo      Repository
	products  ProductCatalog
	customers CustomerDirectory
	payterms  PayTermDirectory
	limits    discount.LimitResolver
	policies  discount.PolicyResolver
	guard     NegotiationGuard
	overrides OverrideRecorder
	pdfs      PDFEnqueuer
	logger    *slog.Logger
	terminal  string
}

// ServiceConfig collects the service dependencies.
type ServiceConfig struct {
	Repo      Repository
	Products  ProductCatalog
	Customers CustomerDirectory
	PayTerms  PayTermDirectory
	Limits    discount.LimitResolver
	Policies  discount.PolicyResolver
	Guard     NegotiationGuard
	Overrides OverrideRecorder
	PDFs      PDFEnqueuer
	Logger    *slog.Logger
	Terminal  string
}

func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:      cfg.Repo,
		products:  cfg.Products,
		customers: cfg.Customers,
		payterms:  cfg.PayTerms,
		limits:    cfg.Limits,
		policies:  cfg.Policies,
		guard:     cfg.Guard,
		overrides: cfg.Overrides,
		pdfs:      cfg.PDFs,
		logger:    cfg.Logger,
		terminal:  cfg.Terminal,
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	if req.Terminal == "" {
		req.Terminal = s.terminal
	}
	return s.repo.List(ctx, req)
}

// Create opens a draft quotation. Prices and descriptions default from the
// item master; an explicit unit price on the line wins.
func (s *Service) Create(ctx context.Context, req CreateQuotationRequest, userCode string) (*Quotation, error) {
	customerName, err := s.resolveBuyer(ctx, req.CustomerCode, req.CustomerName, req.PayTermCode)
	if err != nil {
		return nil, err
	}

	items, subtotal, err := s.buildItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	q := Quotation{
		Terminal:     s.terminal,
		CustomerCode: req.CustomerCode,
		CustomerName: customerName,
		SellerCode:   req.SellerCode,
		PayTermCode:  req.PayTermCode,
		Status:       StatusDraft,
		IssuedAt:     time.Now(),
		Subtotal:     subtotal,
		Total:        subtotal,
		Notes:        req.Notes,
		CreatedBy:    userCode,
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		docNumber, err := repo.GenerateNumber(ctx, s.terminal)
		if err != nil {
			return fmt.Errorf("generate doc number: %w", err)
		}
		q.DocNumber = docNumber

		id, err = repo.Create(ctx, q)
		if err != nil {
			return fmt.Errorf("create quotation: %w", err)
		}
		for i := range items {
			items[i].QuotationID = id
			if _, err := repo.InsertItem(ctx, items[i]); err != nil {
				return fmt.Errorf("insert item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Update replaces the items and header fields of a draft. A previously
// negotiated discount percentage is re-spread over the new item set.
func (s *Service) Update(ctx context.Context, id int64, req UpdateQuotationRequest) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.Editable() {
		return nil, ErrNotEditable
	}

	next := *existing
	if req.CustomerCode != nil {
		next.CustomerCode = req.CustomerCode
	}
	if req.CustomerName != nil {
		next.CustomerName = *req.CustomerName
	}
	if req.PayTermCode != nil {
		next.PayTermCode = *req.PayTermCode
	}
	if req.Notes != nil {
		next.Notes = req.Notes
	}

	name, err := s.resolveBuyer(ctx, next.CustomerCode, next.CustomerName, next.PayTermCode)
	if err != nil {
		return nil, err
	}
	next.CustomerName = name

	items := existing.Items
	if req.Items != nil {
		items, next.Subtotal, err = s.buildItems(ctx, *req.Items)
		if err != nil {
			return nil, err
		}
	}

	// Keep the negotiated percentage across edits: the aggregate amount is
	// recomputed against the new subtotal and spread again.
	next.DiscountAmount = next.Subtotal.Mul(existing.DiscountPercent).Div(decimal.NewFromInt(100)).Round(2)
	next.Total = next.Subtotal.Sub(next.DiscountAmount)
	spreadDiscount(items, next.DiscountAmount)

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateHeader(ctx, id, next); err != nil {
			return fmt.Errorf("update header: %w", err)
		}
		if req.Items != nil {
			if err := repo.DeleteItems(ctx, id); err != nil {
				return fmt.Errorf("delete items: %w", err)
			}
			for i := range items {
				items[i].QuotationID = id
				if _, err := repo.InsertItem(ctx, items[i]); err != nil {
					return fmt.Errorf("insert item: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// ApplyDiscount runs one discount negotiation on a draft: seller limit
// check, password gate when over the limit, line-aware distribution against
// per-item caps, then proportional persistence. Only one negotiation may be
// open per quotation at a time.
func (s *Service) ApplyDiscount(ctx context.Context, id int64, req ApplyDiscountRequest, userCode string) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.Editable() {
		return nil, ErrNotEditable
	}

	if req.Percent == nil && req.Amount == nil {
		return s.clearDiscount(ctx, q)
	}

	if err := s.guard.Begin(ctx, q.Terminal, q.DocNumber); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.guard.End(ctx, q.Terminal, q.DocNumber); err != nil {
			s.logger.Warn("close negotiation flag", "error", err, "doc", q.DocNumber)
		}
	}()

	policy, err := s.policies.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve discount policy: %w", err)
	}

	dreq, err := parseDiscountRequest(req)
	if err != nil {
		return nil, err
	}

	limit, err := s.limits.SellerLimit(ctx, userCode, q.SellerCode)
	if err != nil {
		return nil, fmt.Errorf("resolve seller limit: %w", err)
	}
	if limit == nil {
		limit = &policy.DefaultLimitPercent
	}

	gate := discount.NewGate(policy, prompterFor(req.Password))
	calc := discount.NewCalculator(policy, gate)

	alloc, err := calc.Compute(ctx, q.Subtotal, dreq, limit)
	if err != nil {
		return nil, err
	}
	overrode := alloc.Percent.GreaterThan(*limit)

	lines, err := s.engineLines(ctx, q.Items)
	if err != nil {
		return nil, err
	}

	final, derr := discount.Distribute(q.Subtotal, alloc.Percent, lines)
	if derr != nil {
		var limErr *discount.LimitExceededError
		switch {
		case errors.As(derr, &limErr) && limErr.Soft && req.AcceptReduced:
			final = limErr.Allocation
		case errors.As(derr, &limErr):
			// Per-item caps block the request; the release password lets
			// the clerk push it through ignoring the caps.
			authErr := gate.Authorize(ctx, discount.Challenge{
				RequestedPercent: alloc.Percent,
				LimitPercent:     limErr.AchievablePercent,
				LimitingItems:    limErr.LimitingItems,
			})
			if authErr != nil {
				if errors.Is(authErr, discount.ErrAuthorizationCancelled) {
					return nil, derr
				}
				return nil, authErr
			}
			final = forcedAllocation(q.Subtotal, alloc, q.Items)
			overrode = true
		default:
			return nil, derr
		}
	}

	if err := s.persistDiscount(ctx, q, final); err != nil {
		return nil, err
	}

	if overrode {
		s.recordOverride(ctx, q, shared.OverrideDiscount, userCode,
			fmt.Sprintf("discount %s%% released over limit %s%%", final.Percent.StringFixed(2), limit.StringFixed(2)))
	}
	return s.repo.Get(ctx, id)
}

// Convert closes a draft into a sale. A customer past the credit limit
// needs the daily release password; the override is recorded.
func (s *Service) Convert(ctx context.Context, id int64, req ConvertRequest, userCode string) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.Editable() {
		return nil, ErrNotEditable
	}

	if q.CustomerCode != nil {
		cust, err := s.customers.Get(ctx, *q.CustomerCode)
		if err != nil {
			return nil, fmt.Errorf("verify customer: %w", err)
		}
		// A zero limit means credit control is not configured for the
		// customer.
		if over := cust.CreditExceededBy(q.Total); cust.CreditLimit.IsPositive() && over.IsPositive() {
			if err := s.releaseCredit(ctx, q, req.CreditPassword, userCode, over); err != nil {
				return nil, err
			}
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusConverted); err != nil {
		return nil, fmt.Errorf("convert quotation: %w", err)
	}
	s.enqueuePrint(ctx, id)
	return s.repo.Get(ctx, id)
}

// Cancel discards a draft.
func (s *Service) Cancel(ctx context.Context, id int64) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.Editable() {
		return nil, ErrNotEditable
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Print queues a PDF printout of the quotation.
func (s *Service) Print(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if s.pdfs == nil {
		return errors.New("printing not configured")
	}
	return s.pdfs.EnqueueQuotationPDF(ctx, id)
}

func (s *Service) resolveBuyer(ctx context.Context, customerCode *string, customerName, payTermCode string) (string, error) {
	term, err := s.payterms.Get(ctx, payTermCode)
	if err != nil {
		return "", fmt.Errorf("verify payment term: %w", err)
	}
	if customerCode == nil {
		if term.RequiresCustomer() {
			return "", ErrCustomerRequired
		}
		return customerName, nil
	}
	cust, err := s.customers.Get(ctx, *customerCode)
	if err != nil {
		return "", fmt.Errorf("verify customer: %w", err)
	}
	if customerName == "" {
		customerName = cust.Name
	}
	return customerName, nil
}

func (s *Service) buildItems(ctx context.Context, reqs []ItemRequest) ([]Item, decimal.Decimal, error) {
	items := make([]Item, 0, len(reqs))
	subtotal := decimal.Zero
	for i, lineReq := range reqs {
		product, err := s.products.Get(ctx, lineReq.ProductCode)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("verify product %s: %w", lineReq.ProductCode, err)
		}

		quantity, ok := discount.ParseDecimal(lineReq.Quantity)
		if !ok || !quantity.IsPositive() {
			return nil, decimal.Zero, fmt.Errorf("%w: quantity %q on line %d", ErrInvalidInput, lineReq.Quantity, i+1)
		}

		price := product.Price
		if lineReq.UnitPrice != "" {
			price, ok = discount.ParseDecimal(lineReq.UnitPrice)
			if !ok || price.IsNegative() {
				return nil, decimal.Zero, fmt.Errorf("%w: unit price %q on line %d", ErrInvalidInput, lineReq.UnitPrice, i+1)
			}
		}

		lineSubtotal := quantity.Mul(price).Round(2)
		items = append(items, Item{
			LineNo:      i + 1,
			ProductCode: product.Code,
			Description: product.Description,
			Unit:        catalog.AbbreviateUnit(product.Unit),
			Quantity:    quantity,
			UnitPrice:   price,
			Subtotal:    lineSubtotal,
			Total:       lineSubtotal,
		})
		subtotal = subtotal.Add(lineSubtotal)
	}
	return items, subtotal, nil
}

// engineLines resolves the per-item caps for the distribution engine. Caps
// are fetched concurrently; line order is preserved.
func (s *Service) engineLines(ctx context.Context, items []Item) ([]discount.Line, error) {
	lines := make([]discount.Line, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, item := range items {
		g.Go(func() error {
			itemCap, err := s.limits.ProductCap(ctx, item.ProductCode)
			if err != nil {
				return fmt.Errorf("resolve cap for %s: %w", item.ProductCode, err)
			}
			maxPct := decimal.Zero
			if itemCap != nil {
				maxPct = *itemCap
			}
			lines[i] = discount.Line{
				ProductCode:        item.ProductCode,
				Subtotal:           item.Subtotal,
				MaxDiscountPercent: maxPct,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *Service) clearDiscount(ctx context.Context, q *Quotation) (*Quotation, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for _, item := range q.Items {
			if err := repo.UpdateItemDiscount(ctx, item.ID, decimal.Zero, item.Subtotal); err != nil {
				return err
			}
		}
		return repo.UpdateDiscount(ctx, q.ID, decimal.Zero, decimal.Zero, q.Subtotal)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, q.ID)
}

func (s *Service) persistDiscount(ctx context.Context, q *Quotation, alloc discount.Allocation) error {
	amounts := make([]decimal.Decimal, len(q.Items))
	for i, la := range alloc.Lines {
		if i < len(amounts) {
			amounts[i] = la.Amount
		}
	}
	roundAmounts(amounts, alloc.Amount.Round(2))

	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for i, item := range q.Items {
			total := item.Subtotal.Sub(amounts[i])
			if err := repo.UpdateItemDiscount(ctx, item.ID, amounts[i], total); err != nil {
				return err
			}
		}
		aggregate := alloc.Amount.Round(2)
		return repo.UpdateDiscount(ctx, q.ID, aggregate, alloc.Percent.Round(2), q.Subtotal.Sub(aggregate))
	})
}

func (s *Service) releaseCredit(ctx context.Context, q *Quotation, password *string, userCode string, over decimal.Decimal) error {
	policy, err := s.policies.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve discount policy: %w", err)
	}
	if password == nil {
		return &CreditLimitError{CustomerCode: deref(q.CustomerCode), ExceededBy: over}
	}
	if *password != policy.OverridePassword {
		return discount.ErrAuthorizationDenied
	}
	s.recordOverride(ctx, q, shared.OverrideCreditLimit, userCode,
		fmt.Sprintf("credit limit exceeded by %s", over.StringFixed(2)))
	return nil
}

func (s *Service) recordOverride(ctx context.Context, q *Quotation, kind shared.OverrideKind, userCode, note string) {
	if s.overrides == nil {
		return
	}
	err := s.overrides.Record(ctx, shared.OverrideLog{
		Kind:      kind,
		UserCode:  userCode,
		DocNumber: q.DocNumber,
		Terminal:  q.Terminal,
		Note:      note,
	})
	if err != nil {
		s.logger.Error("record override", "error", err, "doc", q.DocNumber)
	}
}

func (s *Service) enqueuePrint(ctx context.Context, id int64) {
	if s.pdfs == nil {
		return
	}
	if err := s.pdfs.EnqueueQuotationPDF(ctx, id); err != nil {
		s.logger.Error("enqueue quotation pdf", "error", err, "id", id)
	}
}

func parseDiscountRequest(req ApplyDiscountRequest) (discount.Request, error) {
	var dreq discount.Request
	if req.Percent != nil {
		pct, ok := discount.ParseDecimal(*req.Percent)
		if !ok {
			return dreq, fmt.Errorf("%w: percent %q", ErrInvalidInput, *req.Percent)
		}
		dreq.Percent = &pct
	} else if req.Amount != nil {
		amt, ok := discount.ParseDecimal(*req.Amount)
		if !ok {
			return dreq, fmt.Errorf("%w: amount %q", ErrInvalidInput, *req.Amount)
		}
		dreq.Amount = &amt
	}
	return dreq, nil
}

// prompterFor answers every password prompt with the value supplied on the
// request. A nil password behaves like a dismissed dialog.
func prompterFor(password *string) discount.PrompterFunc {
	return func(ctx context.Context, message string) (*string, error) {
		return password, nil
	}
}

// forcedAllocation spreads the full requested discount proportionally over
// the items, ignoring per-item caps. Used after a password release.
func forcedAllocation(subtotal decimal.Decimal, alloc discount.Allocation, items []Item) discount.Allocation {
	out := discount.Allocation{
		Amount:     alloc.Amount,
		Percent:    alloc.Percent,
		FinalValue: subtotal.Sub(alloc.Amount),
		Lines:      make([]discount.LineAllocation, len(items)),
	}
	for i, item := range items {
		share := decimal.Zero
		if subtotal.IsPositive() {
			share = alloc.Amount.Mul(item.Subtotal).Div(subtotal)
		}
		out.Lines[i] = discount.LineAllocation{ProductCode: item.ProductCode, Amount: share}
	}
	return out
}

// spreadDiscount apportions an aggregate amount over items by subtotal,
// pushing the rounding residue into the last line.
func spreadDiscount(items []Item, amount decimal.Decimal) {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal)
	}
	if !subtotal.IsPositive() || len(items) == 0 {
		return
	}

	assigned := decimal.Zero
	for i := range items {
		share := amount.Mul(items[i].Subtotal).Div(subtotal).Round(2)
		if i == len(items)-1 {
			share = amount.Sub(assigned)
		}
		items[i].DiscountAmount = share
		items[i].Total = items[i].Subtotal.Sub(share)
		assigned = assigned.Add(share)
	}
}

// roundAmounts rounds each line amount to cents and forces the sum to match
// the aggregate by adjusting the last non-zero line.
func roundAmounts(amounts []decimal.Decimal, aggregate decimal.Decimal) {
	if len(amounts) == 0 {
		return
	}
	sum := decimal.Zero
	for i := range amounts {
		amounts[i] = amounts[i].Round(2)
		sum = sum.Add(amounts[i])
	}
	residue := aggregate.Sub(sum)
	if residue.IsZero() {
		return
	}
	for i := len(amounts) - 1; i >= 0; i-- {
		if amounts[i].IsPositive() || i == 0 {
			amounts[i] = amounts[i].Add(residue)
			return
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
