package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/and161185/peakflow/internal/errs"
	"github.com/and161185/peakflow/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ResetCodeRepo implements ResetCodeRepository using PostgreSQL.
type ResetCodeRepo struct{ db *DB }

// NewResetCodeRepo constructs a reset code repository.
func NewResetCodeRepo(db *DB) *ResetCodeRepo { return &ResetCodeRepo{db: db} }

// Insert stores a new unused code.
func (r *ResetCodeRepo) Insert(ctx context.Context, rc *model.ResetCode) error {
	const q = `
INSERT INTO password_reset_codes (id, email, code, used, expires_at)
VALUES ($1, $2, $3, false, $4)`
	_, err := r.db.Pool.Exec(ctx, q, rc.ID, rc.Email, rc.Code, rc.ExpiresAt)
	return err
}

// FindValid returns the newest unused, unexpired code matching email and code.
func (r *ResetCodeRepo) FindValid(ctx context.Context, email, code string, now time.Time) (*model.ResetCode, error) {
	const q = `
SELECT id, email, code, used, expires_at, created_at
FROM password_reset_codes
WHERE email=$1 AND code=$2 AND used=false AND expires_at > $3
ORDER BY created_at DESC
LIMIT 1`
	var rc model.ResetCode
	err := r.db.Pool.QueryRow(ctx, q, email, code, now).
		Scan(&rc.ID, &rc.Email, &rc.Code, &rc.Used, &rc.ExpiresAt, &rc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &rc, nil
}

// MarkUsed sets used=true only if the code is still unused.
func (r *ResetCodeRepo) MarkUsed(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE password_reset_codes SET used=true WHERE id=$1 AND used=false`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
