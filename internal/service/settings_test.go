package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/and161185/peakflow/internal/errs"
	"github.com/and161185/peakflow/internal/model"
	"github.com/gofrs/uuid/v5"
)

func TestSettingsStore_DefaultsAndRoundTrip(t *testing.T) {
	t.Parallel()
	repo := &fakeSettings{}
	uid := uuid.Must(uuid.NewV4())
	ctx := context.Background()

	got, err := NewSettingsStore(repo, uid).Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Threshold != model.DefaultThreshold || got.DefaultMorningDose != nil || got.Name != "" {
		t.Fatalf("defaults: %+v", got)
	}

	want := model.Settings{
		Threshold:          350,
		DefaultMorningDose: model.IntPtr(2),
		DefaultEveningDose: model.IntPtr(0),
		Name:               "Ann",
	}
	if err := NewSettingsStore(repo, uid).Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = NewSettingsStore(repo, uid).Load(ctx)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip: got %+v, want %+v", got, want)
	}

	// full replace: omitted doses are cleared
	if err := NewSettingsStore(repo, uid).Save(ctx, model.Settings{Threshold: 280}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ = NewSettingsStore(repo, uid).Load(ctx)
	if got.DefaultMorningDose != nil || got.Name != "" || got.Threshold != 280 {
		t.Fatalf("not a full replace: %+v", got)
	}
}

func TestSettingsStore_Validation(t *testing.T) {
	t.Parallel()
	repo := &fakeSettings{}
	s := NewSettingsStore(repo, uuid.Must(uuid.NewV4()))
	ctx := context.Background()

	bad := []model.Settings{
		{Threshold: 0},
		{Threshold: -1},
		{Threshold: 300, DefaultMorningDose: model.IntPtr(-1)},
		{Threshold: 300, DefaultEveningDose: model.IntPtr(-2)},
	}
	for _, st := range bad {
		if err := s.Save(ctx, st); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("Save(%+v): want ErrValidation, got %v", st, err)
		}
	}
	if len(repo.rows) != 0 {
		t.Fatalf("invalid settings persisted")
	}
	if s.Current().Threshold != model.DefaultThreshold {
		t.Fatalf("current changed on failure: %+v", s.Current())
	}
}

func TestSettingsStore_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	if _, err := NewSettingsStore(&fakeSettings{}, uuid.Nil).Load(ctx); !errors.Is(err, errs.ErrAuthRequired) {
		t.Fatalf("want ErrAuthRequired, got %v", err)
	}
	if err := NewSettingsStore(&fakeSettings{}, uuid.Nil).Save(ctx, model.DefaultSettings()); !errors.Is(err, errs.ErrAuthRequired) {
		t.Fatalf("want ErrAuthRequired, got %v", err)
	}

	repo := &fakeSettings{getErr: errors.New("down"), upsertErr: errors.New("down")}
	s := NewSettingsStore(repo, uuid.Must(uuid.NewV4()))
	if _, err := s.Load(ctx); !errs.IsPersistence(err) {
		t.Fatalf("Load: want persistence error, got %v", err)
	}
	if err := s.Save(ctx, model.Settings{Threshold: 400}); !errs.IsPersistence(err) {
		t.Fatalf("Save: want persistence error, got %v", err)
	}
	if s.Current().Threshold != model.DefaultThreshold {
		t.Fatalf("current changed on failure")
	}
}
