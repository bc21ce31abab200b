package kv

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/and161185/peakflow/internal/errs"
	"github.com/and161185/peakflow/internal/model"
	"github.com/go-redis/redis/v8"
	"github.com/gofrs/uuid/v5"
)

type settingsRecord struct {
	Threshold          int    `json:"threshold"`
	DefaultMorningDose *int   `json:"default_morning_dose,omitempty"`
	DefaultEveningDose *int   `json:"default_evening_dose,omitempty"`
	Name               string `json:"name"`
}

// SettingsRepo implements SettingsRepository on a Redis string per user.
type SettingsRepo struct{ s *Store }

// NewSettingsRepo constructs a settings repository.
func NewSettingsRepo(s *Store) *SettingsRepo { return &SettingsRepo{s: s} }

// Get loads the stored settings.
func (r *SettingsRepo) Get(ctx context.Context, userID uuid.UUID) (*model.Settings, error) {
	raw, err := r.s.rdb.Get(ctx, r.s.settingsKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	var rec settingsRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &model.Settings{
		Threshold:          rec.Threshold,
		DefaultMorningDose: rec.DefaultMorningDose,
		DefaultEveningDose: rec.DefaultEveningDose,
		Name:               rec.Name,
	}, nil
}

// Upsert overwrites the stored settings.
func (r *SettingsRepo) Upsert(ctx context.Context, userID uuid.UUID, s model.Settings) error {
	b, err := json.Marshal(settingsRecord{
		Threshold:          s.Threshold,
		DefaultMorningDose: s.DefaultMorningDose,
		DefaultEveningDose: s.DefaultEveningDose,
		Name:               s.Name,
	})
	if err != nil {
		return err
	}
	return r.s.rdb.Set(ctx, r.s.settingsKey(userID), b, 0).Err()
}
