package convert

import (
	"strings"
	"testing"
	"time"

	"github.com/and161185/peakflow/internal/api"
	model "github.com/and161185/peakflow/internal/model"
	u "github.com/gofrs/uuid/v5"
)

func mustUUID(t *testing.T, s string) u.UUID {
	t.Helper()
	id, err := u.FromString(s)
	if err != nil {
		t.Fatalf("bad uuid %q: %v", s, err)
	}
	return id
}

func TestReading_RoundTrip(t *testing.T) {
	t.Parallel()

	id := mustUUID(t, "11111111-1111-1111-1111-111111111111")
	ts := time.Date(2024, 1, 2, 7, 30, 0, 0, time.UTC)
	m := model.Reading{
		ID: id, Value: 410, Date: "2024-01-02", Time: "09:30:00", Timestamp: ts,
		Condition: model.IntPtr(6), EveningDose: model.IntPtr(2),
	}

	w := ToAPIReading(m)
	if w.ID != id.String() || w.Value != 410 || w.Time != "09:30:00" || *w.Condition != 6 || w.MorningDose != nil {
		t.Fatalf("ToAPIReading: %+v", w)
	}
	back, err := FromAPIReading(w)
	if err != nil {
		t.Fatalf("FromAPIReading: %v", err)
	}
	if back.ID != m.ID || back.Value != m.Value || !back.Timestamp.Equal(ts) || *back.EveningDose != 2 {
		t.Fatalf("round trip mismatch: %+v", back)
	}

	if _, err := FromAPIReadings([]api.Reading{w, {ID: "nope"}}); err == nil || !strings.Contains(err.Error(), "readings[1]") {
		t.Fatalf("want indexed error, got %v", err)
	}
	if got := ToAPIReadings(nil); got == nil || len(got) != 0 {
		t.Fatalf("nil slice must become empty: %#v", got)
	}
}

func TestSettings_RoundTrip(t *testing.T) {
	t.Parallel()
	s := model.Settings{Threshold: 280, DefaultMorningDose: model.IntPtr(1), Name: "Kim"}
	if got := FromAPISettings(ToAPISettings(s)); got.Threshold != 280 || *got.DefaultMorningDose != 1 || got.DefaultEveningDose != nil || got.Name != "Kim" {
		t.Fatalf("settings: %+v", got)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()
	avg := 300
	s := model.Summary{
		Today: []model.Reading{{ID: u.Must(u.NewV4()), Value: 300}},
		Averages: []model.AverageData{
			{Period: model.Today(), Average: &avg, Count: 1, Label: "Today", HasEnoughData: true, RequiredDays: 1},
			{Period: model.Window(7), Label: "7 days", RequiredDays: 7},
		},
		Alert:    &model.Alert{Value: 250, Threshold: 300, Percent: 83},
		Settings: model.DefaultSettings(),
	}
	got := ToAPISummary(s)
	if got.Averages[0].Period != "today" || *got.Averages[0].Average != 300 {
		t.Fatalf("today bucket: %+v", got.Averages[0])
	}
	if got.Averages[1].Period != "7" || got.Averages[1].Average != nil {
		t.Fatalf("window bucket: %+v", got.Averages[1])
	}
	if got.Alert == nil || got.Alert.Percent != 83 {
		t.Fatalf("alert: %+v", got.Alert)
	}
	if got.Recent == nil || len(got.Today) != 1 || got.Settings.Threshold != 300 {
		t.Fatalf("summary: %+v", got)
	}

	s.Alert = nil
	if ToAPISummary(s).Alert != nil {
		t.Fatalf("nil alert must stay nil")
	}
}

func TestTrend(t *testing.T) {
	t.Parallel()
	pts := ToAPITrend([]model.TrendPoint{
		{Date: "2024-01-01", PeakFlow: 300, WellBeing: 2, TotalDose: 3},
		{Date: "2024-01-02", PeakFlow: 310},
	})
	if len(pts) != 2 || pts[0].WellBeingBand != "sick" || pts[1].WellBeingBand != "" || pts[0].TotalDose != 3 {
		t.Fatalf("trend: %+v", pts)
	}
}

func TestFromAddReading(t *testing.T) {
	t.Parallel()
	nr := FromAddReading(&api.AddReadingRequest{Value: 5, MorningDose: model.IntPtr(1), Timezone: "UTC"})
	if nr.Value != 5 || *nr.MorningDose != 1 || nr.Condition != nil {
		t.Fatalf("new reading: %+v", nr)
	}
}
