package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/mpetrenko/stockroom/internal/item/dto"
	"github.com/mpetrenko/stockroom/internal/item/model"
)

// ItemService validates item payloads and applies CRUD operations through
// the item store. List never returns nil; Delete is not idempotent by
// contract (a second delete of the same id fails with ErrNotFound).
type ItemService interface {
	List(ctx context.Context) ([]model.Item, error)

	Create(ctx context.Context, dto dto.ItemDTO) (model.Item, error)

	Get(ctx context.Context, id uuid.UUID) (model.Item, error)

	Update(ctx context.Context, id uuid.UUID, dto dto.ItemDTO) (model.Item, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
