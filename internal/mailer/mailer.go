// Package mailer delivers transactional email (password reset codes).
package mailer

import (
	"context"
	"fmt"
	"html"
	"time"

	"go.uber.org/zap"
)

// DefaultFrom is the sender used when none is configured.
const DefaultFrom = "Peak Flow Tracker <onboarding@resend.dev>"

// Message is a single email.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// ResetCodeMessage builds the password reset email for code.
func ResetCodeMessage(from, to, code string, ttl time.Duration) Message {
	if from == "" {
		from = DefaultFrom
	}
	mins := int(ttl / time.Minute)
	return Message{
		From:    from,
		To:      to,
		Subject: "Password Reset Code",
		Text: fmt.Sprintf("You requested to reset your password. Your code is %s.\n"+
			"This code will expire in %d minutes.\n"+
			"If you didn't request this, please ignore this email.\n", code, mins),
		HTML: fmt.Sprintf(`<h1>Password Reset Request</h1>
<p>You requested to reset your password. Use the code below to reset it:</p>
<h2 style="font-size: 32px; letter-spacing: 5px; font-weight: bold;">%s</h2>
<p>This code will expire in %d minutes.</p>
<p>If you didn't request this, please ignore this email.</p>`, html.EscapeString(code), mins),
	}
}

// Log writes messages to the logger instead of delivering them. Development only.
type Log struct{ log *zap.Logger }

// NewLog constructs a logging mailer.
func NewLog(log *zap.Logger) *Log { return &Log{log: log} }

// Send logs the message.
func (l *Log) Send(_ context.Context, m Message) error {
	l.log.Warn("mail not delivered, no provider configured",
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
		zap.String("body", m.Text),
	)
	return nil
}
