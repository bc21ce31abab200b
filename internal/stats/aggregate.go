// Package stats derives averages, alerts and chart series from a user's readings.
// All functions are pure: they never mutate the input slice.
package stats

import (
	"time"

	"github.com/and161185/peakflow/internal/model"
)

// DefaultWindows are the trailing windows reported next to the "today" bucket.
var DefaultWindows = []int{5, 7, 10, 30}

// DefaultRecentLimit is the number of readings shown in the recent list.
const DefaultRecentLimit = 7

// DateOf returns the calendar date of t in loc as YYYY-MM-DD.
func DateOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(model.DateLayout)
}

// TodaysEntries returns readings dated today, preserving input order.
func TodaysEntries(entries []model.Reading, today string) []model.Reading {
	out := make([]model.Reading, 0)
	for _, e := range entries {
		if e.Date == today {
			out = append(out, e)
		}
	}
	return out
}

// RecentEntries returns the first limit readings of a newest-first slice.
// limit <= 0 selects DefaultRecentLimit.
func RecentEntries(entries []model.Reading, limit int) []model.Reading {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > len(entries) {
		limit = len(entries)
	}
	return entries[:limit:limit]
}

// Averages computes the "today" bucket followed by one bucket per window.
// A window of w days covers every reading dated on or after the calendar date of now-w days.
// Empty buckets report a nil Average. With no windows given, DefaultWindows is used.
func Averages(entries []model.Reading, now time.Time, loc *time.Location, windows ...int) []model.AverageData {
	if len(windows) == 0 {
		windows = DefaultWindows
	}
	if loc == nil {
		loc = time.UTC
	}
	out := make([]model.AverageData, 0, len(windows)+1)
	out = append(out, bucket(model.Today(), TodaysEntries(entries, DateOf(now, loc))))

	for _, w := range windows {
		cutoff := DateOf(now.In(loc).AddDate(0, 0, -w), loc)
		var in []model.Reading
		for _, e := range entries {
			if e.Date >= cutoff {
				in = append(in, e)
			}
		}
		out = append(out, bucket(model.Window(w), in))
	}
	return out
}

func bucket(p model.Period, in []model.Reading) model.AverageData {
	required := requiredDays(p)
	ad := model.AverageData{
		Period:        p,
		Count:         len(in),
		Label:         p.Label(),
		RequiredDays:  required,
		HasEnoughData: len(in) >= required,
	}
	if len(in) > 0 {
		sum := 0
		for _, e := range in {
			sum += e.Value
		}
		avg := roundHalfUp(sum, len(in))
		ad.Average = &avg
	}
	return ad
}

func requiredDays(p model.Period) int {
	switch p.Kind {
	case model.PeriodToday:
		return 1
	case model.PeriodWindow:
		return p.Days
	}
	return 0
}

// roundHalfUp returns round(num/den) with halves rounded towards +Inf; den > 0.
func roundHalfUp(num, den int) int {
	q := num / den
	r := num % den
	if r < 0 {
		q--
		r += den
	}
	if 2*r >= den {
		q++
	}
	return q
}
