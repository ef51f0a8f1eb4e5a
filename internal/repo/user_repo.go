package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/mpetrenko/stockroom/internal/auth/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)

	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)
}
