package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mpetrenko/stockroom/internal/apperrors"
	"github.com/mpetrenko/stockroom/internal/item/model"
	"gorm.io/gorm"
)

type PostgresItemRepo struct {
	db *gorm.DB
}

func NewPostgresItemRepo(db *gorm.DB) *PostgresItemRepo {
	return &PostgresItemRepo{db: db}
}

func (p *PostgresItemRepo) CreateItem(ctx context.Context, fields model.ItemFields) (model.Item, error) {
	item := model.Item{
		ID:          uuid.New(),
		Name:        fields.Name,
		Description: fields.Description,
		Price:       fields.Price,
		Category:    fields.Category,
	}
	if err := p.db.WithContext(ctx).Create(&item).Error; err != nil {
		return model.Item{}, apperrors.WrapStore(err, "CreateItem")
	}
	return item, nil
}

func (p *PostgresItemRepo) GetItem(ctx context.Context, id uuid.UUID) (model.Item, error) {
	var item model.Item
	res := p.db.WithContext(ctx).Where("id = ?", id).First(&item)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Item{}, apperrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Item{}, apperrors.WrapStore(err, "GetItem")
	}
	return item, nil
}

func (p *PostgresItemRepo) ListItems(ctx context.Context) ([]model.Item, error) {
	items := make([]model.Item, 0)
	res := p.db.WithContext(ctx).Order("created_at").Find(&items)
	if err := res.Error; err != nil {
		return nil, apperrors.WrapStore(err, "ListItems")
	}
	return items, nil
}

func (p *PostgresItemRepo) UpdateItem(ctx context.Context, id uuid.UUID, fields model.ItemFields) (model.Item, error) {
	var item model.Item
	res := p.db.WithContext(ctx).Where("id = ?", id).First(&item)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Item{}, apperrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Item{}, apperrors.WrapStore(err, "UpdateItem")
	}

	// only the four business fields are writable; id and created_at stay put
	updates := map[string]interface{}{
		"name":        fields.Name,
		"description": fields.Description,
		"price":       fields.Price,
		"category":    fields.Category,
	}
	if err := p.db.WithContext(ctx).Model(&item).Updates(updates).Error; err != nil {
		return model.Item{}, apperrors.WrapStore(err, "UpdateItem")
	}

	res = p.db.WithContext(ctx).Where("id = ?", id).First(&item)
	if err := res.Error; err != nil {
		return model.Item{}, apperrors.WrapStore(err, "UpdateItem")
	}
	return item, nil
}

func (p *PostgresItemRepo) DeleteItem(ctx context.Context, id uuid.UUID) error {
	res := p.db.WithContext(ctx).Delete(&model.Item{}, "id = ?", id)
	if err := res.Error; err != nil {
		return apperrors.WrapStore(err, "DeleteItem")
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
