// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/and161185/peakflow/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to accounts.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdatePassword replaces the credential of the user.
	UpdatePassword(ctx context.Context, id uuid.UUID, pwdHash, salt []byte) error
}

// ResetCodeRepository stores one-time password reset codes.
type ResetCodeRepository interface {
	// Insert stores a fresh, unused code.
	Insert(ctx context.Context, rc *model.ResetCode) error
	// FindValid returns an unused code for email that has not expired at now.
	FindValid(ctx context.Context, email, code string, now time.Time) (*model.ResetCode, error)
	// MarkUsed flips the used flag; fails with errs.ErrNotFound if the code was used meanwhile.
	MarkUsed(ctx context.Context, id uuid.UUID) error
}
