// Package convert maps domain models to wire messages and back.
package convert

import (
	"fmt"

	"github.com/and161185/peakflow/internal/api"
	model "github.com/and161185/peakflow/internal/model"
	"github.com/and161185/peakflow/internal/stats"
	u "github.com/gofrs/uuid/v5"
)

// --- Reading ---

// ToAPIReading converts a domain reading.
func ToAPIReading(r model.Reading) api.Reading {
	return api.Reading{
		ID:          r.ID.String(),
		Value:       r.Value,
		Date:        r.Date,
		Time:        r.Time,
		Timestamp:   r.Timestamp,
		Condition:   r.Condition,
		MorningDose: r.MorningDose,
		EveningDose: r.EveningDose,
	}
}

// ToAPIReadings converts a slice, never returning nil.
func ToAPIReadings(rs []model.Reading) []api.Reading {
	out := make([]api.Reading, 0, len(rs))
	for _, r := range rs {
		out = append(out, ToAPIReading(r))
	}
	return out
}

// FromAPIReading converts a wire reading; the id must be a UUID.
func FromAPIReading(r api.Reading) (model.Reading, error) {
	id, err := u.FromString(r.ID)
	if err != nil {
		return model.Reading{}, fmt.Errorf("reading id: %w", err)
	}
	return model.Reading{
		ID:          id,
		Value:       r.Value,
		Date:        r.Date,
		Time:        r.Time,
		Timestamp:   r.Timestamp,
		Condition:   r.Condition,
		MorningDose: r.MorningDose,
		EveningDose: r.EveningDose,
	}, nil
}

// FromAPIReadings converts a slice of wire readings.
func FromAPIReadings(rs []api.Reading) ([]model.Reading, error) {
	out := make([]model.Reading, 0, len(rs))
	for i, r := range rs {
		m, err := FromAPIReading(r)
		if err != nil {
			return nil, fmt.Errorf("readings[%d]: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// FromAddReading extracts the caller-supplied part of a new reading.
func FromAddReading(r *api.AddReadingRequest) model.NewReading {
	return model.NewReading{
		Value:       r.Value,
		Condition:   r.Condition,
		MorningDose: r.MorningDose,
		EveningDose: r.EveningDose,
	}
}

// --- Settings ---

func ToAPISettings(s model.Settings) api.Settings {
	return api.Settings{
		Threshold:          s.Threshold,
		DefaultMorningDose: s.DefaultMorningDose,
		DefaultEveningDose: s.DefaultEveningDose,
		Name:               s.Name,
	}
}

func FromAPISettings(s api.Settings) model.Settings {
	return model.Settings{
		Threshold:          s.Threshold,
		DefaultMorningDose: s.DefaultMorningDose,
		DefaultEveningDose: s.DefaultEveningDose,
		Name:               s.Name,
	}
}

// --- Summary ---

// ToAPIAverage converts one averaging bucket; the period becomes "today" or the day count.
func ToAPIAverage(a model.AverageData) api.Average {
	return api.Average{
		Period:        a.Period.String(),
		Average:       a.Average,
		Count:         a.Count,
		Label:         a.Label,
		HasEnoughData: a.HasEnoughData,
		RequiredDays:  a.RequiredDays,
	}
}

// ToAPISummary converts the dashboard view.
func ToAPISummary(s model.Summary) *api.GetSummaryResponse {
	avgs := make([]api.Average, 0, len(s.Averages))
	for _, a := range s.Averages {
		avgs = append(avgs, ToAPIAverage(a))
	}
	out := &api.GetSummaryResponse{
		Today:    ToAPIReadings(s.Today),
		Averages: avgs,
		Recent:   ToAPIReadings(s.Recent),
		Settings: ToAPISettings(s.Settings),
	}
	if s.Alert != nil {
		out.Alert = &api.Alert{Value: s.Alert.Value, Threshold: s.Alert.Threshold, Percent: s.Alert.Percent}
	}
	return out
}

// --- Trend ---

// ToAPITrend converts chart points; the band is set only when a well-being value exists.
func ToAPITrend(pts []model.TrendPoint) []api.TrendPoint {
	out := make([]api.TrendPoint, 0, len(pts))
	for _, p := range pts {
		tp := api.TrendPoint{
			Date:      p.Date,
			Timestamp: p.Timestamp,
			PeakFlow:  p.PeakFlow,
			WellBeing: p.WellBeing,
			TotalDose: p.TotalDose,
		}
		if p.WellBeing > 0 {
			tp.WellBeingBand = stats.WellBeingBand(p.WellBeing)
		}
		out = append(out, tp)
	}
	return out
}
