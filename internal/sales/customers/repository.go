package customers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no customer matches the code.
var ErrNotFound = errors.New("customer not found")

type Repository interface {
	Get(ctx context.Context, code string) (Customer, error)
	Search(ctx context.Context, term string, limit int) ([]Customer, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const customerColumns = `codcliente, nome, COALESCE(fantasia, ''), COALESCE(cidade, ''),
	COALESCE(uf, ''), COALESCE(limitecredito, 0), COALESCE(saldodevedor, 0), ativo`

func (r *repository) Get(ctx context.Context, code string) (Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM ge_clientes WHERE codcliente = $1`
	var c Customer
	err := r.db.QueryRow(ctx, query, code).Scan(
		&c.Code, &c.Name, &c.TradeName, &c.City, &c.State, &c.CreditLimit, &c.OpenBalance, &c.Active,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}

func (r *repository) Search(ctx context.Context, term string, limit int) ([]Customer, error) {
	query := `SELECT ` + customerColumns + `
		FROM ge_clientes
		WHERE ativo AND (codcliente ILIKE $1
			OR unaccent(nome) ILIKE unaccent($1)
			OR unaccent(fantasia) ILIKE unaccent($1))
		ORDER BY nome
		LIMIT $2`
	rows, err := r.db.Query(ctx, query, "%"+term+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		err := rows.Scan(&c.Code, &c.Name, &c.TradeName, &c.City, &c.State, &c.CreditLimit, &c.OpenBalance, &c.Active)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
