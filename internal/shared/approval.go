package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OverrideKind enumerates password-gated override events.
type OverrideKind string

const (
	// OverrideDiscount marks an above-limit discount release.
	OverrideDiscount OverrideKind = "DISCOUNT"
	// OverrideCreditLimit marks a save past the customer credit limit.
	OverrideCreditLimit OverrideKind = "CREDIT_LIMIT"
)

// OverrideLog is a single override audit record.
type OverrideLog struct {
	ID        int64
	RefID     uuid.UUID
	Kind      OverrideKind
	UserCode  string
	DocNumber string
	Terminal  string
	Note      string
	At        time.Time
}

// OverrideRecorder persists override history. Recording failures are logged
// but never block the business action that was already authorized.
type OverrideRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewOverrideRecorder constructs OverrideRecorder.
func NewOverrideRecorder(pool *pgxpool.Pool, logger *slog.Logger) *OverrideRecorder {
	return &OverrideRecorder{pool: pool, logger: logger}
}

// Record writes an override entry.
func (r *OverrideRecorder) Record(ctx context.Context, log OverrideLog) error {
	if r == nil {
		return errors.New("override recorder not initialised")
	}
	if log.Kind == "" {
		return errors.New("override kind required")
	}
	if log.RefID == uuid.Nil {
		log.RefID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO override_log (ref_id, kind, user_code, doc_number, terminal, note, at)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE(NULLIF($7, '0001-01-01 00:00:00+00'::timestamptz), NOW()))`,
		log.RefID, string(log.Kind), log.UserCode, log.DocNumber, log.Terminal, log.Note, log.At)
	if err != nil {
		r.logger.Error("record override", slog.Any("error", err))
		return err
	}
	return nil
}

// List returns overrides recorded for a document, oldest first.
func (r *OverrideRecorder) List(ctx context.Context, terminal, docNumber string) ([]OverrideLog, error) {
	if r == nil {
		return nil, errors.New("override recorder not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, ref_id, kind, user_code, doc_number, terminal, note, at
FROM override_log WHERE terminal=$1 AND doc_number=$2 ORDER BY at ASC`, terminal, docNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []OverrideLog
	for rows.Next() {
		var l OverrideLog
		var kind string
		if err := rows.Scan(&l.ID, &l.RefID, &kind, &l.UserCode, &l.DocNumber, &l.Terminal, &l.Note, &l.At); err != nil {
			return nil, err
		}
		l.Kind = OverrideKind(kind)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
