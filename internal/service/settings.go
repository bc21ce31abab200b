package service

import (
	"context"
	"errors"

	"github.com/and161185/peakflow/internal/errs"
	"github.com/and161185/peakflow/internal/model"
	"github.com/and161185/peakflow/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// SettingsStore holds one user's settings.
type SettingsStore struct {
	repo    repository.SettingsRepository
	userID  uuid.UUID
	current model.Settings
}

// NewSettingsStore constructs a store holding the defaults until Load or Save.
func NewSettingsStore(repo repository.SettingsRepository, userID uuid.UUID) *SettingsStore {
	return &SettingsStore{repo: repo, userID: userID, current: model.DefaultSettings()}
}

// Load returns the persisted settings, or the defaults if none were saved yet.
func (s *SettingsStore) Load(ctx context.Context) (model.Settings, error) {
	if s.userID == uuid.Nil {
		return model.Settings{}, errs.ErrAuthRequired
	}
	got, err := s.repo.Get(ctx, s.userID)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		s.current = model.DefaultSettings()
	case err != nil:
		return model.Settings{}, errs.Persistence("get settings", err)
	default:
		s.current = *got
	}
	return s.current, nil
}

// Save validates and persists st, replacing the current settings in full.
func (s *SettingsStore) Save(ctx context.Context, st model.Settings) error {
	if s.userID == uuid.Nil {
		return errs.ErrAuthRequired
	}
	if err := ValidateSettings(st); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, s.userID, st); err != nil {
		return errs.Persistence("save settings", err)
	}
	s.current = st
	return nil
}

// Current returns the settings held in memory.
func (s *SettingsStore) Current() model.Settings { return s.current }

// ValidateSettings rejects non-positive thresholds and negative default doses.
func ValidateSettings(st model.Settings) error {
	if st.Threshold <= 0 {
		return errs.Validation("threshold must be positive, got %d", st.Threshold)
	}
	if d := st.DefaultMorningDose; d != nil && *d < 0 {
		return errs.Validation("default morning dose must not be negative")
	}
	if d := st.DefaultEveningDose; d != nil && *d < 0 {
		return errs.Validation("default evening dose must not be negative")
	}
	return nil
}
