// Package model defines domain entities used by services and repositories.
package model

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Layouts used for the calendar date and time-of-day of a reading.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// DefaultThreshold is the alert threshold of a user who never saved settings.
const DefaultThreshold = 300

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// Reading is a single peak-flow measurement. Never mutated in place.
type Reading struct {
	ID          uuid.UUID // assigned at creation
	UserID      uuid.UUID // FK -> users.id
	Value       int       // L/min, >= 1
	Date        string    // caller's local day, YYYY-MM-DD
	Time        string    // caller's local time of day, HH:MM:SS (optional)
	Timestamp   time.Time // creation instant
	Condition   *int      // well-being 1..10
	MorningDose *int
	EveningDose *int
}

// NewReading is the caller-supplied part of a reading.
type NewReading struct {
	Value       int
	Condition   *int
	MorningDose *int
	EveningDose *int
}

// Settings is the per-user configuration.
type Settings struct {
	Threshold          int
	DefaultMorningDose *int
	DefaultEveningDose *int
	Name               string
}

// DefaultSettings returns settings used before the first save.
func DefaultSettings() Settings {
	return Settings{Threshold: DefaultThreshold}
}

// PeriodKind discriminates the Period variant.
type PeriodKind int

const (
	PeriodToday PeriodKind = iota
	PeriodWindow
)

// Period is either the "today" bucket or a trailing window of Days days.
type Period struct {
	Kind PeriodKind
	Days int
}

// Today returns the "today" period.
func Today() Period { return Period{Kind: PeriodToday} }

// Window returns a trailing window period of n days.
func Window(n int) Period { return Period{Kind: PeriodWindow, Days: n} }

// Label is the human-readable name of the period.
func (p Period) Label() string {
	switch p.Kind {
	case PeriodToday:
		return "Today"
	case PeriodWindow:
		return fmt.Sprintf("%d days", p.Days)
	}
	return ""
}

// String implements fmt.Stringer ("today" or the number of days).
func (p Period) String() string {
	switch p.Kind {
	case PeriodToday:
		return "today"
	case PeriodWindow:
		return fmt.Sprintf("%d", p.Days)
	}
	return "unknown"
}

// AverageData is a derived rolling average; recomputed on every read.
type AverageData struct {
	Period        Period
	Average       *int // nil when the bucket is empty
	Count         int
	Label         string
	HasEnoughData bool
	RequiredDays  int
}

// Alert describes a reading that fell under the configured threshold.
type Alert struct {
	Value     int
	Threshold int
	Percent   int // value as a rounded percentage of threshold
}

// TrendPoint is one chart sample.
type TrendPoint struct {
	Date      string
	Timestamp time.Time
	PeakFlow  int
	WellBeing int // condition or 0
	TotalDose int // morning + evening
}

// Summary bundles everything the dashboard renders.
type Summary struct {
	Today    []Reading
	Averages []AverageData
	Recent   []Reading
	Alert    *Alert
	Settings Settings
}

// User represents an account stored on the server.
type User struct {
	ID        uuid.UUID // PK
	Email     string    // unique, lower-cased
	Name      string
	PwdHash   []byte // Argon2id(password, SaltAuth)
	SaltAuth  []byte // per-user auth salt
	CreatedAt time.Time
}

// ResetCode is a one-time password reset code sent by email.
type ResetCode struct {
	ID        uuid.UUID
	Email     string
	Code      string
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
