package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mpetrenko/stockroom/internal/apperrors"
	"github.com/mpetrenko/stockroom/internal/item/dto"
	"github.com/mpetrenko/stockroom/internal/item/model"
	"github.com/mpetrenko/stockroom/internal/repo"
	"github.com/mpetrenko/stockroom/internal/validate"
)

type itemService struct {
	itemRepo repo.ItemRepo
	v        *validator.Validate
}

func NewItemService(itemRepo repo.ItemRepo, v *validator.Validate) ItemService {
	return &itemService{
		itemRepo: itemRepo,
		v:        v,
	}
}

func (s *itemService) List(ctx context.Context) ([]model.Item, error) {
	return s.itemRepo.ListItems(ctx)
}

func (s *itemService) Create(ctx context.Context, dto dto.ItemDTO) (model.Item, error) {
	fields, err := s.fields(dto)
	if err != nil {
		return model.Item{}, err
	}
	return s.itemRepo.CreateItem(ctx, fields)
}

func (s *itemService) Get(ctx context.Context, id uuid.UUID) (model.Item, error) {
	return s.itemRepo.GetItem(ctx, id)
}

func (s *itemService) Update(ctx context.Context, id uuid.UUID, dto dto.ItemDTO) (model.Item, error) {
	fields, err := s.fields(dto)
	if err != nil {
		return model.Item{}, err
	}
	return s.itemRepo.UpdateItem(ctx, id, fields)
}

func (s *itemService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.itemRepo.DeleteItem(ctx, id)
}

// fields validates the payload and narrows it to the writable field set.
// Every violated field is reported, not just the first.
func (s *itemService) fields(d dto.ItemDTO) (model.ItemFields, error) {
	if err := s.v.Struct(d); err != nil {
		return model.ItemFields{}, apperrors.NewValidation(validate.Fields(err))
	}
	return model.ItemFields{
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
	}, nil
}
