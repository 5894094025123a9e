package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no product matches the code.
var ErrNotFound = errors.New("product not found")

type Repository interface {
	Get(ctx context.Context, code string) (Product, error)
	Search(ctx context.Context, term string, limit int) ([]Product, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const productColumns = `p.codreduzido, p.descricao, p.unidade, p.precovenda, p.precocusto,
	COALESCE(pa.descontomaximo, 0), p.ativo`

func (r *repository) Get(ctx context.Context, code string) (Product, error) {
	query := `SELECT ` + productColumns + `
		FROM ce_produtos p
		LEFT JOIN ce_produtos_adicionais pa ON pa.codreduzido = p.codreduzido
		WHERE p.codreduzido = $1`
	var p Product
	err := r.db.QueryRow(ctx, query, code).Scan(
		&p.Code, &p.Description, &p.Unit, &p.Price, &p.Cost, &p.MaxDiscountPercent, &p.Active,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// Search does an accent-insensitive containment match on code and
// description. Ranking happens in the service; the query only narrows the
// candidate set.
func (r *repository) Search(ctx context.Context, term string, limit int) ([]Product, error) {
	query := `SELECT ` + productColumns + `
		FROM ce_produtos p
		LEFT JOIN ce_produtos_adicionais pa ON pa.codreduzido = p.codreduzido
		WHERE p.ativo AND (p.codreduzido ILIKE $1 OR unaccent(p.descricao) ILIKE unaccent($1))
		ORDER BY p.descricao
		LIMIT $2`
	rows, err := r.db.Query(ctx, query, "%"+term+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		err := rows.Scan(&p.Code, &p.Description, &p.Unit, &p.Price, &p.Cost, &p.MaxDiscountPercent, &p.Active)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
