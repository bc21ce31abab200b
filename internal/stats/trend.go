package stats

import (
	"sort"
	"time"

	"github.com/and161185/peakflow/internal/errs"
	"github.com/and161185/peakflow/internal/model"
)

// TrendPeriods are the chart ranges offered to clients.
var TrendPeriods = []int{7, 14, 30, 90}

// ValidTrendPeriod reports whether days is one of TrendPeriods.
func ValidTrendPeriod(days int) bool {
	for _, p := range TrendPeriods {
		if p == days {
			return true
		}
	}
	return false
}

// Trend returns chart points for readings dated strictly after now-days, oldest first.
func Trend(entries []model.Reading, now time.Time, loc *time.Location, days int) ([]model.TrendPoint, error) {
	if !ValidTrendPeriod(days) {
		return nil, errs.Validation("unsupported trend period %d", days)
	}
	if loc == nil {
		loc = time.UTC
	}
	cutoff := DateOf(now.In(loc).AddDate(0, 0, -days), loc)

	sel := make([]model.Reading, 0, len(entries))
	for _, e := range entries {
		if e.Date > cutoff {
			sel = append(sel, e)
		}
	}
	sort.SliceStable(sel, func(i, j int) bool { return sel[i].Timestamp.Before(sel[j].Timestamp) })

	out := make([]model.TrendPoint, 0, len(sel))
	for _, e := range sel {
		out = append(out, model.TrendPoint{
			Date:      e.Date,
			Timestamp: e.Timestamp,
			PeakFlow:  e.Value,
			WellBeing: deref(e.Condition),
			TotalDose: deref(e.MorningDose) + deref(e.EveningDose),
		})
	}
	return out, nil
}

// WellBeingBand names the well-being range of a 1..10 rating.
func WellBeingBand(v int) string {
	switch {
	case v <= 3:
		return "sick"
	case v <= 7:
		return "better"
	default:
		return "good"
	}
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
