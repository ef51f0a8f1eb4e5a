package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/mpetrenko/stockroom/internal/item/model"
)

// ItemRepo persists items. Writes accept model.ItemFields, the explicit
// allow-list of mutable business fields; the store assigns id and timestamps
// and every write returns the full stored record.
type ItemRepo interface {
	CreateItem(ctx context.Context, fields model.ItemFields) (model.Item, error)

	GetItem(ctx context.Context, id uuid.UUID) (model.Item, error)

	ListItems(ctx context.Context) ([]model.Item, error)

	UpdateItem(ctx context.Context, id uuid.UUID, fields model.ItemFields) (model.Item, error)

	DeleteItem(ctx context.Context, id uuid.UUID) error
}
