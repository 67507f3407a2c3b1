package service

import (
	"context"
	"fmt"

	"authgate/internal/common"
	"authgate/internal/domain/model"
	"authgate/internal/domain/repository"

	"github.com/google/uuid"
)

type ItemService struct {
	items repository.ItemRepository
}

func NewItemService(items repository.ItemRepository) *ItemService {
	return &ItemService{items: items}
}

type ItemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ItemPage is the response envelope of the advanced listing.
type ItemPage struct {
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int          `json:"total"`
	Pages int          `json:"pages"`
	Items []model.Item `json:"items"`
}

func (s *ItemService) Create(ctx context.Context, owner *model.User, req ItemRequest) (*model.Item, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("title is required: %w", common.ErrValidation)
	}

	item := &model.Item{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     owner.ID,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return item, nil
}

func (s *ItemService) List(ctx context.Context) ([]model.Item, error) {
	return s.items.List(ctx)
}

func (s *ItemService) ListAdvanced(ctx context.Context, filter repository.ItemFilter) (*ItemPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 10
	}

	items, total, err := s.items.ListFiltered(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ItemPage{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
		Pages: total/filter.Limit + 1,
		Items: items,
	}, nil
}

// Update lets only the owning user edit an item.
func (s *ItemService) Update(ctx context.Context, id string, actor *model.User, req ItemRequest) (*model.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != actor.ID {
		return nil, fmt.Errorf("you cannot edit this item: %w", common.ErrForbidden)
	}

	item.Title = req.Title
	item.Description = req.Description
	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete is restricted to admins, who may delete any item.
func (s *ItemService) Delete(ctx context.Context, id string, actor *model.User) error {
	if actor.Role != model.RoleAdmin {
		return fmt.Errorf("admins only: %w", common.ErrForbidden)
	}
	return s.items.Delete(ctx, id)
}
