package sellers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no seller matches the code.
var ErrNotFound = errors.New("seller not found")

type Repository interface {
	Get(ctx context.Context, code string) (Seller, error)
	List(ctx context.Context) ([]Seller, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const sellerColumns = `v.codvendedor, v.nome, v.ativo, d.percentmax_gud`

func (r *repository) Get(ctx context.Context, code string) (Seller, error) {
	query := `SELECT ` + sellerColumns + `
		FROM ge_vendedores v
		LEFT JOIN ge_usuarios_descontovendedor d ON d.codvendedor_gud = v.codvendedor
		WHERE v.codvendedor = $1`
	var s Seller
	err := r.db.QueryRow(ctx, query, code).Scan(&s.Code, &s.Name, &s.Active, &s.MaxDiscountPercent)
	if errors.Is(err, pgx.ErrNoRows) {
		return Seller{}, ErrNotFound
	}
	return s, err
}

func (r *repository) List(ctx context.Context) ([]Seller, error) {
	query := `SELECT ` + sellerColumns + `
		FROM ge_vendedores v
		LEFT JOIN ge_usuarios_descontovendedor d ON d.codvendedor_gud = v.codvendedor
		WHERE v.ativo
		ORDER BY v.nome`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Seller
	for rows.Next() {
		var s Seller
		if err := rows.Scan(&s.Code, &s.Name, &s.Active, &s.MaxDiscountPercent); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
