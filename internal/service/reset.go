package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgcrypto "github.com/and161185/peakflow/internal/crypto"
	"github.com/and161185/peakflow/internal/errs"
	"github.com/and161185/peakflow/internal/limiter"
	"github.com/and161185/peakflow/internal/mailer"
	"github.com/and161185/peakflow/internal/model"
	"github.com/and161185/peakflow/internal/repository"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// ResetCodeTTL is how long a reset code stays valid.
const ResetCodeTTL = 15 * time.Minute

// Limiter keys of the reset flow; the subject carries the email.
var (
	resetKey        = limiter.HashKey("password-reset")
	resetRequestKey = limiter.HashKey("password-reset-request")
)

// ResetService implements the password reset side channel.
type ResetService interface {
	// RequestCode emails a fresh code when the address belongs to an account.
	// Unknown addresses succeed silently.
	RequestCode(ctx context.Context, email string) error
	// ResetPassword consumes a valid code and replaces the credential.
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type ResetServiceImpl struct {
	users repository.UserRepository
	codes repository.ResetCodeRepository
	mail  mailer.Mailer
	from  string
	lim   limiter.Limiter
	log   *zap.Logger
	now   func() time.Time
}

// NewResetService constructs ResetService. from is the sender address of reset emails.
func NewResetService(users repository.UserRepository, codes repository.ResetCodeRepository, mail mailer.Mailer, from string, lim limiter.Limiter, log *zap.Logger) *ResetServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResetServiceImpl{users: users, codes: codes, mail: mail, from: from, lim: lim, log: log, now: time.Now}
}

// RequestCode generates, stores and sends a six-digit code.
// Requests per email are capped by the limiter whether or not the address is known.
func (s *ResetServiceImpl) RequestCode(ctx context.Context, email string) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}

	subject := limiter.ResetSubject(email)
	allowed, _, err := s.lim.Allow(ctx, subject, resetRequestKey)
	if err != nil {
		return errs.Persistence("limiter", err)
	}
	if !allowed {
		return errs.ErrRateLimited
	}
	if _, _, err := s.lim.Failure(ctx, subject, resetRequestKey); err != nil {
		return errs.Persistence("limiter", err)
	}

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			s.log.Debug("reset requested for unknown email")
			return nil
		}
		return errs.Persistence("get user", err)
	}

	code, err := pkgcrypto.ResetCode()
	if err != nil {
		return err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	rc := &model.ResetCode{
		ID:        id,
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().Add(ResetCodeTTL),
	}
	if err := s.codes.Insert(ctx, rc); err != nil {
		return errs.Persistence("store reset code", err)
	}
	if err := s.mail.Send(ctx, mailer.ResetCodeMessage(s.from, email, code, ResetCodeTTL)); err != nil {
		return fmt.Errorf("send reset code: %w", err)
	}
	return nil
}

// ResetPassword checks code for email and, on success, marks it used and stores the new credential.
func (s *ResetServiceImpl) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}
	if len(code) != 6 {
		return errs.Validation("code must have 6 digits")
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	subject := limiter.ResetSubject(email)
	allowed, _, err := s.lim.Allow(ctx, subject, resetKey)
	if err != nil {
		return errs.Persistence("limiter", err)
	}
	if !allowed {
		return errs.ErrRateLimited
	}

	rc, err := s.codes.FindValid(ctx, email, code, s.now())
	if err == nil && !pkgcrypto.EqualCodes(rc.Code, code) {
		err = errs.ErrNotFound
	}
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			return errs.Persistence("find reset code", err)
		}
		return s.fail(ctx, subject)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return s.fail(ctx, subject)
		}
		return errs.Persistence("get user", err)
	}

	// used before the credential changes so a code cannot be spent twice
	if err := s.codes.MarkUsed(ctx, rc.ID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrCodeInvalid
		}
		return errs.Persistence("mark code used", err)
	}

	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, pkgcrypto.HashPassword([]byte(newPassword), salt), salt); err != nil {
		return errs.Persistence("update password", err)
	}
	if err := s.lim.Success(ctx, subject, resetKey); err != nil {
		s.log.Warn("limiter reset failed", zap.Error(err))
	}
	s.log.Info("password reset", zap.String("user", u.ID.String()))
	return nil
}

func (s *ResetServiceImpl) fail(ctx context.Context, subject string) error {
	if blocked, _, err := s.lim.Failure(ctx, subject, resetKey); err == nil && blocked {
		return errs.ErrRateLimited
	}
	return errs.ErrCodeInvalid
}
