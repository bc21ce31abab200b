package service

import (
	"context"
	"time"

	"github.com/and161185/peakflow/internal/errs"
	"github.com/and161185/peakflow/internal/model"
	"github.com/and161185/peakflow/internal/repository"
	"github.com/and161185/peakflow/internal/stats"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// TrackerService defines reading and settings operations of an authenticated user.
type TrackerService interface {
	// AddReading records a reading dated in the caller's zone tz.
	AddReading(ctx context.Context, userID uuid.UUID, tz string, nr model.NewReading) (model.Reading, error)
	// DeleteReading removes one reading.
	DeleteReading(ctx context.Context, userID, id uuid.UUID) error
	// ListReadings returns readings dated within [from, to], newest first. Empty bounds are open.
	ListReadings(ctx context.Context, userID uuid.UUID, from, to string) ([]model.Reading, error)
	// Summary returns today's readings, averages, recent readings, the alert and settings.
	Summary(ctx context.Context, userID uuid.UUID, tz string) (model.Summary, error)
	// Trend returns chart points for the last days days.
	Trend(ctx context.Context, userID uuid.UUID, tz string, days int) ([]model.TrendPoint, error)
	// GetSettings returns saved or default settings.
	GetSettings(ctx context.Context, userID uuid.UUID) (model.Settings, error)
	// SaveSettings replaces the settings.
	SaveSettings(ctx context.Context, userID uuid.UUID, st model.Settings) (model.Settings, error)
}

type TrackerServiceImpl struct {
	readings   repository.ReadingRepository
	settings   repository.SettingsRepository
	log        *zap.Logger
	defaultLoc *time.Location
	onePerDay  bool
	now        func() time.Time
	windows    []int
}

// TrackerConfig tunes TrackerServiceImpl. Zero values select defaults.
type TrackerConfig struct {
	DefaultLocation *time.Location
	OnePerDay       bool
	Windows         []int
	Now             func() time.Time
}

// NewTrackerService constructs TrackerService over the given repositories.
func NewTrackerService(readings repository.ReadingRepository, settings repository.SettingsRepository, log *zap.Logger, cfg TrackerConfig) *TrackerServiceImpl {
	s := &TrackerServiceImpl{
		readings:   readings,
		settings:   settings,
		log:        log,
		defaultLoc: cfg.DefaultLocation,
		onePerDay:  cfg.OnePerDay,
		now:        cfg.Now,
		windows:    cfg.Windows,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.defaultLoc == nil {
		s.defaultLoc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if len(s.windows) == 0 {
		s.windows = stats.DefaultWindows
	}
	return s
}

// ResolveLocation returns the IANA zone tz, or def when tz is empty or unknown.
func ResolveLocation(tz string, def *time.Location) *time.Location {
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return def
}

func (s *TrackerServiceImpl) entries(userID uuid.UUID, tz string) *EntryStore {
	loc := ResolveLocation(tz, s.defaultLoc)
	return NewEntryStore(s.readings, userID,
		WithClock(s.now),
		WithLocation(loc),
		WithOnePerDay(s.onePerDay),
		WithLogger(s.log),
	)
}

// AddReading validates and persists a reading.
func (s *TrackerServiceImpl) AddReading(ctx context.Context, userID uuid.UUID, tz string, nr model.NewReading) (model.Reading, error) {
	r, err := s.entries(userID, tz).AddEntry(ctx, nr)
	if err != nil {
		return model.Reading{}, err
	}
	s.log.Debug("reading added", zap.String("user", userID.String()), zap.String("date", r.Date))
	return r, nil
}

// DeleteReading removes one reading of the user.
func (s *TrackerServiceImpl) DeleteReading(ctx context.Context, userID, id uuid.UUID) error {
	return s.entries(userID, "").DeleteEntry(ctx, id)
}

// ListReadings loads and filters the user's readings.
func (s *TrackerServiceImpl) ListReadings(ctx context.Context, userID uuid.UUID, from, to string) ([]model.Reading, error) {
	if err := validateDate("from", from); err != nil {
		return nil, err
	}
	if err := validateDate("to", to); err != nil {
		return nil, err
	}
	es := s.entries(userID, "")
	if err := es.Load(ctx); err != nil {
		return nil, err
	}
	return es.ListRange(from, to), nil
}

// Summary computes the dashboard view.
func (s *TrackerServiceImpl) Summary(ctx context.Context, userID uuid.UUID, tz string) (model.Summary, error) {
	es := s.entries(userID, tz)
	if err := es.Load(ctx); err != nil {
		return model.Summary{}, err
	}
	st, err := NewSettingsStore(s.settings, userID).Load(ctx)
	if err != nil {
		return model.Summary{}, err
	}

	all := es.ListAll()
	today := es.Today()
	return model.Summary{
		Today:    stats.TodaysEntries(all, today),
		Averages: stats.Averages(all, es.Now(), es.Location(), s.windows...),
		Recent:   stats.RecentEntries(all, stats.DefaultRecentLimit),
		Alert:    stats.LatestAlert(all, today, st),
		Settings: st,
	}, nil
}

// Trend returns chart points for one of stats.TrendPeriods.
func (s *TrackerServiceImpl) Trend(ctx context.Context, userID uuid.UUID, tz string, days int) ([]model.TrendPoint, error) {
	if !stats.ValidTrendPeriod(days) {
		return nil, errs.Validation("unsupported trend period %d", days)
	}
	es := s.entries(userID, tz)
	if err := es.Load(ctx); err != nil {
		return nil, err
	}
	return stats.Trend(es.ListAll(), es.Now(), es.Location(), days)
}

// GetSettings loads settings of the user.
func (s *TrackerServiceImpl) GetSettings(ctx context.Context, userID uuid.UUID) (model.Settings, error) {
	return NewSettingsStore(s.settings, userID).Load(ctx)
}

// SaveSettings persists st and returns it.
func (s *TrackerServiceImpl) SaveSettings(ctx context.Context, userID uuid.UUID, st model.Settings) (model.Settings, error) {
	ss := NewSettingsStore(s.settings, userID)
	if err := ss.Save(ctx, st); err != nil {
		return model.Settings{}, err
	}
	return ss.Current(), nil
}

func validateDate(field, v string) error {
	if v == "" {
		return nil
	}
	if _, err := time.Parse(model.DateLayout, v); err != nil {
		return errs.Validation("%s: want YYYY-MM-DD, got %q", field, v)
	}
	return nil
}
