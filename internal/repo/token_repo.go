package repo

import (
	"context"
	"time"
)

// TokenRepo is the revocation list for token jtis. Entries expire together
// with the token they revoke, so the set stays bounded.
type TokenRepo interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	IsRevoked(ctx context.Context, jti string) (bool, error)
}
