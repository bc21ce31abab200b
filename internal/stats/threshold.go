package stats

import "github.com/and161185/peakflow/internal/model"

// IsUnderThreshold reports value < settings.Threshold; equality is not flagged.
func IsUnderThreshold(value int, settings model.Settings) bool {
	return value < settings.Threshold
}

// Percent is value as a rounded percentage of threshold.
func Percent(value, threshold int) int {
	if threshold <= 0 {
		return 0
	}
	return roundHalfUp(value*100, threshold)
}

// LatestAlert evaluates only the most recent reading of today. entries must be newest first.
// Earlier sub-threshold readings of the day do not raise an alert once a later one is fine.
func LatestAlert(entries []model.Reading, today string, settings model.Settings) *model.Alert {
	for _, e := range entries {
		if e.Date != today {
			continue
		}
		if !IsUnderThreshold(e.Value, settings) {
			return nil
		}
		return &model.Alert{
			Value:     e.Value,
			Threshold: settings.Threshold,
			Percent:   Percent(e.Value, settings.Threshold),
		}
	}
	return nil
}
