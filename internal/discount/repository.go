package discount

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LimitResolver supplies per-seller and per-item discount ceilings. A nil
// percentage means no row matched; resolution failures degrade to nil as
// well, which is the most restrictive outcome (authorization always
// required).
type LimitResolver interface {
	SellerLimit(ctx context.Context, userCode, sellerCode string) (*decimal.Decimal, error)
	ProductCap(ctx context.Context, productCode string) (*decimal.Decimal, error)
}

// PolicyResolver loads the discount policy snapshot for one negotiation.
type PolicyResolver interface {
	Resolve(ctx context.Context) (Policy, error)
}

// defaultLimitCeiling caps the derived fallback limit.
var defaultLimitCeiling = decimal.NewFromInt(15)

// fallbackLimit applies when nothing at all is configured.
var fallbackLimit = decimal.NewFromInt(5)

type repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	now    func() time.Time
}

// NewRepository builds the resolver backed by the legacy parameter tables.
func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) interface {
	LimitResolver
	PolicyResolver
} {
	return &repository{pool: pool, logger: logger, now: time.Now}
}

// SellerLimit reads the maximum discount for a user/seller pair from the
// legacy GE_USUARIOS_DESCONTOVENDEDOR table. Either code may match.
func (r *repository) SellerLimit(ctx context.Context, userCode, sellerCode string) (*decimal.Decimal, error) {
	if sellerCode == "" {
		sellerCode = userCode
	}
	var limit decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(percentmax_gud, 0)
FROM ge_usuarios_descontovendedor
WHERE codusuario_gud = $1 OR codvendedor_gud = $2`, userCode, sellerCode).Scan(&limit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Warn("seller limit lookup failed, treating as not configured", slog.Any("error", err))
		return nil, nil
	}
	return &limit, nil
}

// ProductCap reads the per-item maximum discount from the product extras
// table. Absent or zero rows mean the item admits no discount in line-aware
// mode.
func (r *repository) ProductCap(ctx context.Context, productCode string) (*decimal.Decimal, error) {
	var maxPct decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(descontomaximo, 0)
FROM ce_produtos_adicionais WHERE codreduzido = $1`, productCode).Scan(&maxPct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Warn("product cap lookup failed, treating as not configured", slog.Any("error", err))
		return nil, nil
	}
	return &maxPct, nil
}

// Resolve assembles the policy snapshot: enabled flag and password formula
// from the parameter table, fallback ceiling derived from the average of
// the configured item caps, clamped to 15%. Lookup failures keep the
// defaults so a broken parameter table never widens what is allowed.
func (r *repository) Resolve(ctx context.Context) (Policy, error) {
	now := r.now()
	policy := Policy{
		Enabled:             true,
		PasswordFormula:     "Dia",
		DefaultLimitPercent: fallbackLimit,
	}

	var formula *string
	if err := r.pool.QueryRow(ctx, `SELECT bi_pge FROM aparamge WHERE bi_pge IS NOT NULL`).Scan(&formula); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("password formula lookup failed, using default", slog.Any("error", err))
		}
	} else if formula != nil && *formula != "" {
		policy.PasswordFormula = *formula
	}
	policy.OverridePassword = ComputePassword(policy.PasswordFormula, now)

	var enabledFlag *string
	if err := r.pool.QueryRow(ctx, `SELECT descontoarquivo_pge FROM aparamge`).Scan(&enabledFlag); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("discount enabled flag lookup failed, keeping enabled", slog.Any("error", err))
		}
	} else if enabledFlag != nil {
		policy.Enabled = *enabledFlag == "S"
	}

	var avgCap *decimal.Decimal
	if err := r.pool.QueryRow(ctx, `SELECT AVG(descontomaximo)
FROM ce_produtos_adicionais
WHERE descontomaximo IS NOT NULL AND descontomaximo > 0`).Scan(&avgCap); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("default limit lookup failed, using fallback", slog.Any("error", err))
		}
	} else if avgCap != nil && avgCap.IsPositive() {
		policy.DefaultLimitPercent = decimal.Min(*avgCap, defaultLimitCeiling)
	}

	return policy, nil
}
