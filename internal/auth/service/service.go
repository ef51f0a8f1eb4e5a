package service

import (
	"context"

	"github.com/mpetrenko/stockroom/internal/auth/dto"
	"github.com/mpetrenko/stockroom/internal/auth/model"
)

// AuthService owns the session lifecycle: a client is Anonymous until Login
// or Register succeeds, stays Authenticated across Refresh, and returns to
// Anonymous on Logout or an irrecoverable Refresh failure.
type AuthService interface {
	Register(ctx context.Context, dto dto.RegisterDTO) (model.User, model.TokenPair, error)

	Login(ctx context.Context, dto dto.LoginDTO) (model.User, model.TokenPair, error)

	// Refresh rotates both tokens: the presented refresh token is revoked for
	// its remaining lifetime and a fresh pair is issued.
	Refresh(ctx context.Context, dto dto.RefreshDTO) (model.User, model.TokenPair, error)

	// Validate gates protected operations: it resolves a bearer access token
	// to a user or fails with ErrInvalidToken.
	Validate(ctx context.Context, dto dto.ValidateDTO) (model.User, error)

	// Logout revokes whatever tokens it is given and succeeds even when they
	// are already expired or invalid.
	Logout(ctx context.Context, dto dto.LogoutDTO) error
}
