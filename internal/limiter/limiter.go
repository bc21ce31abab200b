// Package limiter defines interfaces and implementations for attempt rate limiting.
// Login and password-reset verification share one table; rows are keyed by subject and a hashed key.
package limiter

import (
	"context"
	"crypto/sha256"
	"strings"
	"time"
)

// Defaults used by the server: 5 failures within 15 minutes block for 15 minutes.
const (
	DefaultWindow   = 15 * time.Minute
	DefaultMaxFails = 5
	DefaultBlockFor = 15 * time.Minute
)

// Limiter controls failed attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether an attempt is currently allowed and optional retry-after.
	Allow(ctx context.Context, subject string, keyHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful attempt.
	Success(ctx context.Context, subject string, keyHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, subject string, keyHash []byte) (bool, time.Duration, error)
}

// LoginSubject is the limiter subject for password logins of email.
func LoginSubject(email string) string { return "login:" + strings.ToLower(email) }

// ResetSubject is the limiter subject for reset code checks of email.
func ResetSubject(email string) string { return "reset:" + strings.ToLower(email) }

// HashKey returns a stable hash of a key (usually the peer address) to avoid storing it raw.
func HashKey(key string) []byte {
	h := sha256.Sum256([]byte(key))
	return h[:]
}
