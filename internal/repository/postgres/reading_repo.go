package postgres

import (
	"context"

	"github.com/and161185/peakflow/internal/errs"
	"github.com/and161185/peakflow/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

const insertReading = `
INSERT INTO readings (id, user_id, value, day, time_of_day, ts, condition, morning_dose, evening_dose)
VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9)`

const deleteDay = `DELETE FROM readings WHERE user_id=$1 AND day=$2::date RETURNING id`

// ReadingRepo implements ReadingRepository using PostgreSQL.
type ReadingRepo struct{ db *DB }

// NewReadingRepo constructs a reading repository.
func NewReadingRepo(db *DB) *ReadingRepo { return &ReadingRepo{db: db} }

// Insert stores a new reading row.
func (r *ReadingRepo) Insert(ctx context.Context, rd *model.Reading) error {
	_, err := r.db.Pool.Exec(ctx, insertReading,
		rd.ID, rd.UserID, rd.Value, rd.Date, rd.Time, rd.Timestamp,
		rd.Condition, rd.MorningDose, rd.EveningDose,
	)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Delete removes a single reading owned by the user.
func (r *ReadingRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	const q = `DELETE FROM readings WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// DeleteByDate removes all readings of the user for one calendar day.
func (r *ReadingRepo) DeleteByDate(ctx context.Context, userID uuid.UUID, date string) ([]uuid.UUID, error) {
	rows, err := r.db.Pool.Query(ctx, deleteDay, userID, date)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

// ReplaceDay deletes the day's readings and inserts rd in one transaction.
func (r *ReadingRepo) ReplaceDay(ctx context.Context, rd *model.Reading) (removed []uuid.UUID, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			removed, err = nil, e
		}
	}()

	rows, err := tx.Query(ctx, deleteDay, rd.UserID, rd.Date)
	if err != nil {
		return nil, err
	}
	if removed, err = scanIDs(rows); err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, insertReading,
		rd.ID, rd.UserID, rd.Value, rd.Date, rd.Time, rd.Timestamp,
		rd.Condition, rd.MorningDose, rd.EveningDose,
	)
	if isUniqueViolation(err) {
		return nil, errs.ErrAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func scanIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByUser returns all readings of the user ordered newest first.
func (r *ReadingRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Reading, error) {
	const q = `
SELECT id, user_id, value, to_char(day, 'YYYY-MM-DD'), time_of_day, ts, condition, morning_dose, evening_dose
FROM readings
WHERE user_id=$1
ORDER BY ts DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reading
	for rows.Next() {
		var rd model.Reading
		if err := rows.Scan(
			&rd.ID, &rd.UserID, &rd.Value, &rd.Date, &rd.Time, &rd.Timestamp,
			&rd.Condition, &rd.MorningDose, &rd.EveningDose,
		); err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}
