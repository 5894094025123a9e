package payterms

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no payment term matches the code.
var ErrNotFound = errors.New("payment term not found")

type Repository interface {
	Get(ctx context.Context, code string) (PayTerm, error)
	ListActive(ctx context.Context) ([]PayTerm, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const payTermColumns = `codcondicao, descricao, tipo, parcelas, permitesemcliente, ativo`

func (r *repository) Get(ctx context.Context, code string) (PayTerm, error) {
	query := `SELECT ` + payTermColumns + ` FROM ge_condicoespagamento WHERE codcondicao = $1`
	var p PayTerm
	err := r.db.QueryRow(ctx, query, code).Scan(
		&p.Code, &p.Description, &p.Kind, &p.Installments, &p.AllowsWithoutCustomer, &p.Active,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return PayTerm{}, ErrNotFound
	}
	return p, err
}

func (r *repository) ListActive(ctx context.Context) ([]PayTerm, error) {
	query := `SELECT ` + payTermColumns + ` FROM ge_condicoespagamento WHERE ativo ORDER BY codcondicao`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PayTerm
	for rows.Next() {
		var p PayTerm
		if err := rows.Scan(&p.Code, &p.Description, &p.Kind, &p.Installments, &p.AllowsWithoutCustomer, &p.Active); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
