package postgres

import (
	"context"
	"errors"

	"github.com/and161185/peakflow/internal/errs"
	"github.com/and161185/peakflow/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// SettingsRepo implements SettingsRepository using PostgreSQL.
type SettingsRepo struct{ db *DB }

// NewSettingsRepo constructs a settings repository.
func NewSettingsRepo(db *DB) *SettingsRepo { return &SettingsRepo{db: db} }

// Get loads the settings row of the user.
func (r *SettingsRepo) Get(ctx context.Context, userID uuid.UUID) (*model.Settings, error) {
	const q = `
SELECT threshold, default_morning_dose, default_evening_dose, name
FROM settings WHERE user_id=$1`
	var s model.Settings
	err := r.db.Pool.QueryRow(ctx, q, userID).
		Scan(&s.Threshold, &s.DefaultMorningDose, &s.DefaultEveningDose, &s.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Upsert replaces the settings row in full.
func (r *SettingsRepo) Upsert(ctx context.Context, userID uuid.UUID, s model.Settings) error {
	const q = `
INSERT INTO settings (user_id, threshold, default_morning_dose, default_evening_dose, name, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (user_id) DO UPDATE SET
  threshold = EXCLUDED.threshold,
  default_morning_dose = EXCLUDED.default_morning_dose,
  default_evening_dose = EXCLUDED.default_evening_dose,
  name = EXCLUDED.name,
  updated_at = now()`
	_, err := r.db.Pool.Exec(ctx, q, userID, s.Threshold, s.DefaultMorningDose, s.DefaultEveningDose, s.Name)
	return err
}
