package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotedesk/quotedesk/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByCode fetches a clerk by user code.
func (r *PGRepository) FindByCode(ctx context.Context, code string) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `SELECT codusuario, nome, senha_hash, ativo, created_at, updated_at
		FROM ge_usuarios WHERE codusuario = $1`, code).Scan(
		&u.Code, &u.Name, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

var _ Repository = (*PGRepository)(nil)
