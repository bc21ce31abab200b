package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PG is a PostgreSQL-backed limiter with a sliding failure window and lockout.
type PG struct {
	pool     Querier
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time
}

// Querier is the subset of pgxpool.Pool used by PG.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPG constructs a PostgreSQL-backed limiter. Zero values select the package defaults.
func NewPG(q Querier, window time.Duration, maxFails int, blockFor time.Duration) *PG {
	if window <= 0 {
		window = DefaultWindow
	}
	if maxFails <= 0 {
		maxFails = DefaultMaxFails
	}
	if blockFor <= 0 {
		blockFor = DefaultBlockFor
	}
	return &PG{pool: q, window: window, maxFails: maxFails, blockFor: blockFor, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (l *PG) WithClock(now func() time.Time) *PG {
	l.now = now
	return l
}

// Allow reports whether an attempt is allowed and, if blocked, for how long.
func (l *PG) Allow(ctx context.Context, subject string, keyHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM attempt_limiter WHERE subject=$1 AND key_hash=$2`
	var blockedUntil time.Time
	err := l.pool.QueryRow(ctx, q, subject, keyHash).Scan(&blockedUntil)
	switch {
	case err == nil:
		if now := l.now(); blockedUntil.After(now) {
			return false, blockedUntil.Sub(now), nil
		}
		return true, 0, nil
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	default:
		return false, 0, err
	}
}

// Success resets counters for (subject, key).
func (l *PG) Success(ctx context.Context, subject string, keyHash []byte) error {
	const q = `
INSERT INTO attempt_limiter (subject, key_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 0, 'epoch', now())
ON CONFLICT (subject, key_hash)
DO UPDATE SET fail_count=0, blocked_until='epoch', updated_at=now()`
	_, err := l.pool.Exec(ctx, q, subject, keyHash)
	return err
}

// Failure records a failed attempt; reaching maxFails inside the window sets blocked_until.
func (l *PG) Failure(ctx context.Context, subject string, keyHash []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO attempt_limiter (subject, key_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 1, 'epoch', now())
ON CONFLICT (subject, key_hash) DO UPDATE
SET
  fail_count = CASE WHEN now() - attempt_limiter.updated_at > $3::interval THEN 1 ELSE attempt_limiter.fail_count + 1 END,
  updated_at = now()
RETURNING fail_count`
	var fails int
	if err := l.pool.QueryRow(ctx, q, subject, keyHash, l.window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.maxFails {
		return false, 0, nil
	}

	blockUntil := l.now().Add(l.blockFor)
	const upd = `UPDATE attempt_limiter SET blocked_until=$3 WHERE subject=$1 AND key_hash=$2`
	if _, err := l.pool.Exec(ctx, upd, subject, keyHash, blockUntil); err != nil {
		return false, 0, err
	}
	return true, l.blockFor, nil
}
