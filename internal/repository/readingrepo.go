package repository

import (
	"context"

	"github.com/and161185/peakflow/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ReadingRepository persists peak-flow readings.
type ReadingRepository interface {
	// Insert stores a new reading.
	Insert(ctx context.Context, r *model.Reading) error
	// Delete removes a reading of the user; errs.ErrNotFound if absent.
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// DeleteByDate removes all readings of the user for a calendar date and returns their ids.
	DeleteByDate(ctx context.Context, userID uuid.UUID, date string) ([]uuid.UUID, error)
	// ReplaceDay atomically removes the user's readings dated r.Date and stores r.
	// It returns the removed ids; on error nothing is changed.
	ReplaceDay(ctx context.Context, r *model.Reading) ([]uuid.UUID, error)
	// ListByUser returns all readings of the user, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Reading, error)
}

// SettingsRepository persists per-user settings.
type SettingsRepository interface {
	// Get returns saved settings; errs.ErrNotFound if the user never saved any.
	Get(ctx context.Context, userID uuid.UUID) (*model.Settings, error)
	// Upsert replaces the settings of the user.
	Upsert(ctx context.Context, userID uuid.UUID, s model.Settings) error
}
