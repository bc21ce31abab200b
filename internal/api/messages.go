package api

import "time"

// Auth.

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name,omitempty"`
}

type RequestPasswordResetRequest struct {
	Email string `json:"email"`
}

type RequestPasswordResetResponse struct {
	Message string `json:"message"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type ResetPasswordResponse struct{}

// Readings.

// Reading is one stored measurement.
type Reading struct {
	ID          string    `json:"id"`
	Value       int       `json:"value"`
	Date        string    `json:"date"`
	Time        string    `json:"time,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Condition   *int      `json:"condition,omitempty"`
	MorningDose *int      `json:"morning_dose,omitempty"`
	EveningDose *int      `json:"evening_dose,omitempty"`
}

// AddReadingRequest carries the caller's IANA zone so the reading is dated in the caller's local day.
type AddReadingRequest struct {
	Value       int    `json:"value"`
	Condition   *int   `json:"condition,omitempty"`
	MorningDose *int   `json:"morning_dose,omitempty"`
	EveningDose *int   `json:"evening_dose,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

type AddReadingResponse struct {
	Reading Reading `json:"reading"`
}

type DeleteReadingRequest struct {
	ID string `json:"id"`
}

type DeleteReadingResponse struct{}

type ListReadingsRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type ListReadingsResponse struct {
	Readings []Reading `json:"readings"`
}

// Derived views.

// Average is one averaging bucket. Period is "today" or the window length in days.
type Average struct {
	Period        string `json:"period"`
	Average       *int   `json:"average"`
	Count         int    `json:"count"`
	Label         string `json:"label"`
	HasEnoughData bool   `json:"has_enough_data"`
	RequiredDays  int    `json:"required_days"`
}

type Alert struct {
	Value     int `json:"value"`
	Threshold int `json:"threshold"`
	Percent   int `json:"percent"`
}

type GetSummaryRequest struct {
	Timezone string `json:"timezone,omitempty"`
}

type GetSummaryResponse struct {
	Today    []Reading `json:"today"`
	Averages []Average `json:"averages"`
	Recent   []Reading `json:"recent"`
	Alert    *Alert    `json:"alert,omitempty"`
	Settings Settings  `json:"settings"`
}

type TrendPoint struct {
	Date          string    `json:"date"`
	Timestamp     time.Time `json:"timestamp"`
	PeakFlow      int       `json:"peak_flow"`
	WellBeing     int       `json:"well_being"`
	WellBeingBand string    `json:"well_being_band,omitempty"`
	TotalDose     int       `json:"total_dose"`
}

type GetTrendRequest struct {
	Days     int    `json:"days"`
	Timezone string `json:"timezone,omitempty"`
}

type GetTrendResponse struct {
	Points []TrendPoint `json:"points"`
}

// Settings.

type Settings struct {
	Threshold          int    `json:"threshold"`
	DefaultMorningDose *int   `json:"default_morning_dose,omitempty"`
	DefaultEveningDose *int   `json:"default_evening_dose,omitempty"`
	Name               string `json:"name,omitempty"`
}

type GetSettingsRequest struct{}

type GetSettingsResponse struct {
	Settings Settings `json:"settings"`
}

type SaveSettingsRequest struct {
	Settings Settings `json:"settings"`
}

type SaveSettingsResponse struct {
	Settings Settings `json:"settings"`
}
