package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ResendBaseURL is the public Resend API endpoint.
const ResendBaseURL = "https://api.resend.com"

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

type resendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Resend delivers mail through the Resend HTTP API.
type Resend struct {
	http *resty.Client
}

// NewResend constructs a Resend client. An empty baseURL selects ResendBaseURL.
func NewResend(baseURL, apiKey string) *Resend {
	if baseURL == "" {
		baseURL = ResendBaseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Resend{http: c}
}

// Send posts the message to /emails.
func (r *Resend) Send(ctx context.Context, m Message) error {
	var (
		ok  resendResponse
		bad resendError
	)
	resp, err := r.http.R().
		SetContext(ctx).
		SetBody(resendRequest{From: m.From, To: []string{m.To}, Subject: m.Subject, HTML: m.HTML, Text: m.Text}).
		SetResult(&ok).
		SetError(&bad).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	if resp.IsError() {
		if bad.Message != "" {
			return fmt.Errorf("resend: status %d: %s", resp.StatusCode(), bad.Message)
		}
		return fmt.Errorf("resend: status %d", resp.StatusCode())
	}
	if ok.ID == "" {
		return fmt.Errorf("resend: empty message id")
	}
	return nil
}
