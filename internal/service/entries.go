// Package service contains application services: authentication, password reset
// and the per-user reading and settings stores behind the tracker API.
package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/and161185/peakflow/internal/errs"
	"github.com/and161185/peakflow/internal/model"
	"github.com/and161185/peakflow/internal/repository"
	"github.com/and161185/peakflow/internal/stats"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// Bounds of the optional well-being rating.
const (
	MinCondition = 1
	MaxCondition = 10
)

// EntryStore holds one user's readings, newest first, and persists every mutation
// synchronously. It is not safe for concurrent use.
type EntryStore struct {
	repo      repository.ReadingRepository
	userID    uuid.UUID
	now       func() time.Time
	loc       *time.Location
	onePerDay bool
	log       *zap.Logger

	entries []model.Reading
}

// EntryOption configures an EntryStore.
type EntryOption func(*EntryStore)

// WithClock sets the time source.
func WithClock(now func() time.Time) EntryOption {
	return func(s *EntryStore) { s.now = now }
}

// WithLocation sets the zone that defines the caller's local day.
func WithLocation(loc *time.Location) EntryOption {
	return func(s *EntryStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithOnePerDay makes a new reading displace every reading of the same day.
func WithOnePerDay(on bool) EntryOption {
	return func(s *EntryStore) { s.onePerDay = on }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) EntryOption {
	return func(s *EntryStore) {
		if log != nil {
			s.log = log
		}
	}
}

// NewEntryStore constructs an empty store for userID; call Load to fill it.
func NewEntryStore(repo repository.ReadingRepository, userID uuid.UUID, opts ...EntryOption) *EntryStore {
	s := &EntryStore{
		repo:   repo,
		userID: userID,
		now:    time.Now,
		loc:    time.UTC,
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load replaces the in-memory collection with the persisted readings.
func (s *EntryStore) Load(ctx context.Context) error {
	if s.userID == uuid.Nil {
		return errs.ErrAuthRequired
	}
	list, err := s.repo.ListByUser(ctx, s.userID)
	if err != nil {
		return errs.Persistence("list readings", err)
	}
	sortNewestFirst(list)
	s.entries = list
	return nil
}

// Today is the caller's current local date.
func (s *EntryStore) Today() string {
	return stats.DateOf(s.now(), s.loc)
}

// Now is the store's current instant.
func (s *EntryStore) Now() time.Time { return s.now() }

// Location is the zone of the caller's local day.
func (s *EntryStore) Location() *time.Location { return s.loc }

// AddEntry validates nr, persists a new reading dated today and inserts it into the collection.
// Validation failures never reach the repository.
func (s *EntryStore) AddEntry(ctx context.Context, nr model.NewReading) (model.Reading, error) {
	if s.userID == uuid.Nil {
		return model.Reading{}, errs.ErrAuthRequired
	}
	if err := validateNewReading(nr); err != nil {
		return model.Reading{}, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return model.Reading{}, err
	}
	now := s.now()
	local := now.In(s.loc)
	r := model.Reading{
		ID:          id,
		UserID:      s.userID,
		Value:       nr.Value,
		Date:        local.Format(model.DateLayout),
		Time:        local.Format(model.TimeLayout),
		Timestamp:   now.UTC(),
		Condition:   nr.Condition,
		MorningDose: nr.MorningDose,
		EveningDose: nr.EveningDose,
	}

	if s.onePerDay {
		removed, err := s.repo.ReplaceDay(ctx, &r)
		if err != nil {
			return model.Reading{}, errs.Persistence("replace day readings", err)
		}
		s.drop(removed)
		if len(removed) > 0 {
			s.log.Debug("same-day readings displaced", zap.Int("count", len(removed)), zap.String("date", r.Date))
		}
		s.insertSorted(r)
		return r, nil
	}

	if err := s.repo.Insert(ctx, &r); err != nil {
		return model.Reading{}, errs.Persistence("insert reading", err)
	}
	s.insertSorted(r)
	return r, nil
}

// DeleteEntry removes the reading with id; errs.ErrNotFound if the user has no such reading.
func (s *EntryStore) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	if s.userID == uuid.Nil {
		return errs.ErrAuthRequired
	}
	if id == uuid.Nil {
		return errs.Validation("empty reading id")
	}
	if err := s.repo.Delete(ctx, s.userID, id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrNotFound
		}
		return errs.Persistence("delete reading", err)
	}
	s.drop([]uuid.UUID{id})
	return nil
}

// ListAll returns a newest-first copy of the collection.
func (s *EntryStore) ListAll() []model.Reading {
	out := make([]model.Reading, len(s.entries))
	copy(out, s.entries)
	return out
}

// ListRange returns readings dated within [from, to]; an empty bound is open.
func (s *EntryStore) ListRange(from, to string) []model.Reading {
	out := make([]model.Reading, 0, len(s.entries))
	for _, e := range s.entries {
		if from != "" && e.Date < from {
			continue
		}
		if to != "" && e.Date > to {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *EntryStore) insertSorted(r model.Reading) {
	i := sort.Search(len(s.entries), func(i int) bool {
		return !s.entries[i].Timestamp.After(r.Timestamp)
	})
	s.entries = append(s.entries, model.Reading{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = r
}

func (s *EntryStore) drop(ids []uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	gone := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		gone[id] = struct{}{}
	}
	kept := s.entries[:0:0]
	for _, e := range s.entries {
		if _, ok := gone[e.ID]; !ok {
			kept = append(kept, e)
		}
	}
	s.entries = kept
}

func validateNewReading(nr model.NewReading) error {
	if nr.Value <= 0 {
		return errs.Validation("value must be positive, got %d", nr.Value)
	}
	if c := nr.Condition; c != nil && (*c < MinCondition || *c > MaxCondition) {
		return errs.Validation("condition must be within %d..%d, got %d", MinCondition, MaxCondition, *c)
	}
	if d := nr.MorningDose; d != nil && *d < 0 {
		return errs.Validation("morning dose must not be negative")
	}
	if d := nr.EveningDose; d != nil && *d < 0 {
		return errs.Validation("evening dose must not be negative")
	}
	return nil
}

func sortNewestFirst(list []model.Reading) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.After(list[j].Timestamp) })
}
