package quotations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk/internal/platform/db"
)

// ErrNotFound is returned when no quotation matches.
var ErrNotFound = errors.New("quotation not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Quotation, error)
	GetByNumber(ctx context.Context, terminal, docNumber string) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error)
	Create(ctx context.Context, q Quotation) (int64, error)
	InsertItem(ctx context.Context, item Item) (int64, error)
	DeleteItems(ctx context.Context, quotationID int64) error
	UpdateHeader(ctx context.Context, id int64, q Quotation) error
	UpdateDiscount(ctx context.Context, id int64, discountAmount, discountPercent, total decimal.Decimal) error
	UpdateItemDiscount(ctx context.Context, itemID int64, discountAmount, total decimal.Decimal) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	GenerateNumber(ctx context.Context, terminal string) (string, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const headerColumns = `id, doc_number, terminal, customer_code, customer_name, seller_code,
	pay_term_code, status, issued_at, subtotal, discount_amount, discount_percent, total,
	notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Quotation, error) {
	return r.fetch(ctx, `SELECT `+headerColumns+` FROM orcamentos WHERE id = $1`, id)
}

func (r *repository) GetByNumber(ctx context.Context, terminal, docNumber string) (*Quotation, error) {
	return r.fetch(ctx, `SELECT `+headerColumns+` FROM orcamentos WHERE terminal = $1 AND doc_number = $2`,
		terminal, docNumber)
}

func (r *repository) fetch(ctx context.Context, query string, args ...interface{}) (*Quotation, error) {
	var q Quotation
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&q.ID, &q.DocNumber, &q.Terminal, &q.CustomerCode, &q.CustomerName, &q.SellerCode,
		&q.PayTermCode, &q.Status, &q.IssuedAt, &q.Subtotal, &q.DiscountAmount, &q.DiscountPercent,
		&q.Total, &q.Notes, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	items, err := r.items(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return &q, nil
}

func (r *repository) items(ctx context.Context, quotationID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT id, quotation_id, line_no, product_code, description,
		unit, quantity, unit_price, subtotal, discount_amount, total
		FROM orcamento_itens WHERE quotation_id = $1 ORDER BY line_no`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		err := rows.Scan(&it.ID, &it.QuotationID, &it.LineNo, &it.ProductCode, &it.Description,
			&it.Unit, &it.Quantity, &it.UnitPrice, &it.Subtotal, &it.DiscountAmount, &it.Total)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	conditions := []string{"terminal = $1"}
	args := []interface{}{req.Terminal}
	argPos := 2

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.CustomerCode != nil {
		conditions = append(conditions, fmt.Sprintf("customer_code = $%d", argPos))
		args = append(args, *req.CustomerCode)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("issued_at >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("issued_at <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM orcamentos "+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT `+headerColumns+` FROM orcamentos %s
		ORDER BY issued_at DESC, id DESC LIMIT $%d OFFSET $%d`, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Quotation
	for rows.Next() {
		var q Quotation
		err := rows.Scan(
			&q.ID, &q.DocNumber, &q.Terminal, &q.CustomerCode, &q.CustomerName, &q.SellerCode,
			&q.PayTermCode, &q.Status, &q.IssuedAt, &q.Subtotal, &q.DiscountAmount, &q.DiscountPercent,
			&q.Total, &q.Notes, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, q)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, q Quotation) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO orcamentos
		(doc_number, terminal, customer_code, customer_name, seller_code, pay_term_code,
		 status, issued_at, subtotal, discount_amount, discount_percent, total, notes,
		 created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,NOW(),NOW())
		RETURNING id`,
		q.DocNumber, q.Terminal, q.CustomerCode, q.CustomerName, q.SellerCode, q.PayTermCode,
		q.Status, touchIssuedAt(q.IssuedAt), q.Subtotal, q.DiscountAmount, q.DiscountPercent, q.Total, q.Notes,
		q.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) InsertItem(ctx context.Context, item Item) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO orcamento_itens
		(quotation_id, line_no, product_code, description, unit, quantity, unit_price,
		 subtotal, discount_amount, total)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id`,
		item.QuotationID, item.LineNo, item.ProductCode, item.Description, item.Unit,
		item.Quantity, item.UnitPrice, item.Subtotal, item.DiscountAmount, item.Total,
	).Scan(&id)
	return id, err
}

func (r *repository) DeleteItems(ctx context.Context, quotationID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM orcamento_itens WHERE quotation_id = $1`, quotationID)
	return err
}

func (r *repository) UpdateHeader(ctx context.Context, id int64, q Quotation) error {
	_, err := r.db.Exec(ctx, `UPDATE orcamentos SET customer_code = $1, customer_name = $2,
		pay_term_code = $3, subtotal = $4, discount_amount = $5, discount_percent = $6,
		total = $7, notes = $8, updated_at = NOW() WHERE id = $9`,
		q.CustomerCode, q.CustomerName, q.PayTermCode, q.Subtotal, q.DiscountAmount,
		q.DiscountPercent, q.Total, q.Notes, id)
	return err
}

func (r *repository) UpdateDiscount(ctx context.Context, id int64, discountAmount, discountPercent, total decimal.Decimal) error {
	_, err := r.db.Exec(ctx, `UPDATE orcamentos SET discount_amount = $1, discount_percent = $2,
		total = $3, updated_at = NOW() WHERE id = $4`,
		discountAmount, discountPercent, total, id)
	return err
}

func (r *repository) UpdateItemDiscount(ctx context.Context, itemID int64, discountAmount, total decimal.Decimal) error {
	_, err := r.db.Exec(ctx, `UPDATE orcamento_itens SET discount_amount = $1, total = $2
		WHERE id = $3`, discountAmount, total, itemID)
	return err
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	_, err := r.db.Exec(ctx, `UPDATE orcamentos SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

// GenerateNumber hands out the next six digit document number for the
// terminal, wrapping back to 000001 after 999999.
func (r *repository) GenerateNumber(ctx context.Context, terminal string) (string, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `INSERT INTO orcamento_numeracao (terminal, seq)
		VALUES ($1, 1)
		ON CONFLICT (terminal)
		DO UPDATE SET seq = (orcamento_numeracao.seq % 999999) + 1
		RETURNING seq`, terminal).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", seq), nil
}

// touchIssuedAt keeps zero times out of the insert path.
func touchIssuedAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
