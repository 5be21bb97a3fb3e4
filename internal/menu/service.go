package menu

import (
	"context"
	"errors"

	"kantin-be/internal/logger"

	"go.uber.org/zap"
)

var (
	ErrNameRequired = errors.New("name is required")
	ErrInvalidPrice = errors.New("price must be positive")
	ErrInvalidStock = errors.New("stock must not be negative")
)

type Service interface {
	Create(ctx context.Context, input CreateMenuItemInput) (*MenuItem, error)
	Get(ctx context.Context, id uint) (*MenuItem, error)
	List(ctx context.Context, category *Category) ([]*MenuItem, error)
	Update(ctx context.Context, id uint, input UpdateMenuItemInput) (*MenuItem, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, input CreateMenuItemInput) (*MenuItem, error) {
	if input.Name == "" {
		return nil, ErrNameRequired
	}
	if input.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if input.Stock < 0 {
		return nil, ErrInvalidStock
	}
	if !input.Category.Valid() {
		return nil, ErrInvalidCategory
	}

	item, err := s.repo.Create(ctx, input)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to create menu item",
			zap.String("name", input.Name),
			zap.Error(err),
		)
		return nil, err
	}

	logger.FromCtx(ctx).Info("menu item created",
		zap.Uint("menu_id", item.ID),
		zap.String("name", item.Name),
	)
	return item, nil
}

func (s *service) Get(ctx context.Context, id uint) (*MenuItem, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, category *Category) ([]*MenuItem, error) {
	if category != nil && !category.Valid() {
		return nil, ErrInvalidCategory
	}
	return s.repo.List(ctx, category)
}

func (s *service) Update(ctx context.Context, id uint, input UpdateMenuItemInput) (*MenuItem, error) {
	if input.Name != nil && *input.Name == "" {
		return nil, ErrNameRequired
	}
	if input.Price != nil && *input.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if input.Stock != nil && *input.Stock < 0 {
		return nil, ErrInvalidStock
	}
	if input.Category != nil && !input.Category.Valid() {
		return nil, ErrInvalidCategory
	}

	return s.repo.Update(ctx, id, input)
}

func (s *service) Delete(ctx context.Context, id uint) error {
	err := s.repo.Delete(ctx, id)
	if err == nil {
		logger.FromCtx(ctx).Info("menu item deleted", zap.Uint("menu_id", id))
	}
	return err
}
