package grpcserver

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// ownerKey holds the reading owner that AuthUnary resolved from the bearer token.
type ownerKey struct{}

// WithUserID returns ctx carrying the id of the user whose readings and settings the call touches.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ownerKey{}, id)
}

// UserIDFromCtx reports the owner set by AuthUnary. uuid.Nil counts as absent.
func UserIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ownerKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
