package service

import (
	"context"
	"errors"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mpetrenko/stockroom/internal/apperrors"
	"github.com/mpetrenko/stockroom/internal/auth/dto"
	"github.com/mpetrenko/stockroom/internal/auth/jwt"
	"github.com/mpetrenko/stockroom/internal/auth/model"
	"github.com/mpetrenko/stockroom/internal/config"
	"github.com/mpetrenko/stockroom/internal/repo"
	"github.com/mpetrenko/stockroom/internal/validate"
)

type authService struct {
	userRepo  repo.UserRepo
	tokenRepo repo.TokenRepo
	jwtUtil   jwt.JWTUtil
	cfg       *config.Config
	v         *validator.Validate
}

func NewAuthService(userRepo repo.UserRepo, tokenRepo repo.TokenRepo, jwtUtil jwt.JWTUtil, cfg *config.Config, v *validator.Validate) AuthService {
	return &authService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtUtil:   jwtUtil,
		cfg:       cfg,
		v:         v,
	}
}

func (a *authService) Register(ctx context.Context, dto dto.RegisterDTO) (model.User, model.TokenPair, error) {
	if err := a.v.Struct(dto); err != nil {
		return model.User{}, model.TokenPair{}, apperrors.NewValidation(validate.Fields(err))
	}

	passwordHash, err := argon2id.CreateHash(dto.Password+a.cfg.PasswordPepper, argon2id.DefaultParams)
	if err != nil {
		return model.User{}, model.TokenPair{}, apperrors.WrapInternal(err, "Register")
	}

	user := model.User{
		ID:           uuid.New(),
		Name:         dto.Name,
		Email:        dto.Email,
		PasswordHash: passwordHash,
	}
	created, err := a.userRepo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return model.User{}, model.TokenPair{}, apperrors.ErrAlreadyExists
		}
		return model.User{}, model.TokenPair{}, err
	}

	pair, err := a.issuePair(created.ID)
	if err != nil {
		return model.User{}, model.TokenPair{}, err
	}
	return created, pair, nil
}

func (a *authService) Login(ctx context.Context, dto dto.LoginDTO) (model.User, model.TokenPair, error) {
	if err := a.v.Struct(dto); err != nil {
		return model.User{}, model.TokenPair{}, apperrors.NewValidation(validate.Fields(err))
	}

	user, err := a.userRepo.GetUserByEmail(ctx, dto.Email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return model.User{}, model.TokenPair{}, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, model.TokenPair{}, err
	}

	ok, err := argon2id.ComparePasswordAndHash(dto.Password+a.cfg.PasswordPepper, user.PasswordHash)
	if err != nil {
		return model.User{}, model.TokenPair{}, apperrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.User{}, model.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	// prior pairs stay valid: concurrent sessions per user are allowed
	pair, err := a.issuePair(user.ID)
	if err != nil {
		return model.User{}, model.TokenPair{}, err
	}
	return user, pair, nil
}

func (a *authService) Validate(ctx context.Context, dto dto.ValidateDTO) (model.User, error) {
	if err := a.v.Struct(dto); err != nil {
		return model.User{}, apperrors.ErrInvalidToken
	}

	claims, err := a.jwtUtil.ValidateAccessToken(dto.AccessToken)
	if err != nil {
		return model.User{}, apperrors.ErrInvalidToken
	}

	revoked, err := a.tokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return model.User{}, err
	}
	if revoked {
		return model.User{}, apperrors.ErrInvalidToken
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.User{}, apperrors.ErrInvalidToken
	}
	user, err := a.userRepo.GetUserByID(ctx, uid)
	if err != nil {
		return model.User{}, apperrors.ErrInvalidToken
	}
	return user, nil
}

func (a *authService) Refresh(ctx context.Context, dto dto.RefreshDTO) (model.User, model.TokenPair, error) {
	if err := a.v.Struct(dto); err != nil {
		return model.User{}, model.TokenPair{}, apperrors.ErrInvalidToken
	}

	claims, err := a.jwtUtil.ValidateRefreshToken(dto.RefreshToken)
	if err != nil {
		return model.User{}, model.TokenPair{}, apperrors.ErrInvalidToken
	}

	revoked, err := a.tokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return model.User{}, model.TokenPair{}, err
	}
	if revoked {
		return model.User{}, model.TokenPair{}, apperrors.ErrInvalidToken
	}

	// rotation: the used refresh token is dead from here on
	if err := a.tokenRepo.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return model.User{}, model.TokenPair{}, err
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.User{}, model.TokenPair{}, apperrors.ErrInvalidToken
	}
	user, err := a.userRepo.GetUserByID(ctx, uid)
	if err != nil {
		return model.User{}, model.TokenPair{}, apperrors.ErrInvalidToken
	}

	pair, err := a.issuePair(user.ID)
	if err != nil {
		return model.User{}, model.TokenPair{}, err
	}
	return user, pair, nil
}

func (a *authService) Logout(ctx context.Context, dto dto.LogoutDTO) error {
	if claims, err := a.jwtUtil.ValidateAccessToken(dto.AccessToken); err == nil {
		if err := a.tokenRepo.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			return err
		}
	}

	if dto.RefreshToken != "" {
		if claims, err := a.jwtUtil.ValidateRefreshToken(dto.RefreshToken); err == nil {
			if err := a.tokenRepo.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
				return err
			}
		}
	}

	// invalid or expired tokens are not an error: logout is idempotent
	return nil
}

func (a *authService) issuePair(userID uuid.UUID) (model.TokenPair, error) {
	accessToken, atExp, _, err := a.jwtUtil.GenerateAccessToken(userID)
	if err != nil {
		return model.TokenPair{}, apperrors.WrapInternal(err, "issuePair")
	}
	refreshToken, rtExp, _, err := a.jwtUtil.GenerateRefreshToken(userID)
	if err != nil {
		return model.TokenPair{}, apperrors.WrapInternal(err, "issuePair")
	}

	now := time.Now()
	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		UserID:       userID,
	}, nil
}
