package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"grubgo/internal/models"
	"grubgo/internal/repositories"
)

type FoodInput struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gt=0"`
	Category string  `json:"category" validate:"required"`
	InStock  *bool   `json:"inStock" validate:"required"`
	ImageURL string  `json:"imageUrl" validate:"required"`
}

type FoodService interface {
	ListFoods(ctx context.Context) ([]*models.Food, error)
	GetFood(ctx context.Context, id string) (*models.Food, error)
	CreateFood(ctx context.Context, in FoodInput) (*models.Food, error)
	UpdateFood(ctx context.Context, id string, in FoodInput) (*models.Food, error)
	DeleteFood(ctx context.Context, id string) error
}

type foodService struct {
	repo repositories.FoodRepository
}

func NewFoodService(repo repositories.FoodRepository) FoodService {
	return &foodService{repo: repo}
}

func (s *foodService) ListFoods(ctx context.Context) ([]*models.Food, error) {
	return s.repo.List(ctx)
}

func (s *foodService) GetFood(ctx context.Context, id string) (*models.Food, error) {
	fid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, flowErr(ErrNotFound, "Invalid food ID!")
	}
	f, err := s.repo.GetByID(ctx, fid)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, flowErr(ErrNotFound, "Food not found!")
	}
	return f, nil
}

func (in *FoodInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if err := validate.Struct(in); err != nil {
		return flowErr(ErrInvalidInput, "Please provide all fields.")
	}
	return nil
}

func (s *foodService) CreateFood(ctx context.Context, in FoodInput) (*models.Food, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	f := &models.Food{
		Name:     in.Name,
		Price:    in.Price,
		Category: in.Category,
		InStock:  *in.InStock,
		ImageURL: in.ImageURL,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *foodService) UpdateFood(ctx context.Context, id string, in FoodInput) (*models.Food, error) {
	fid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, flowErr(ErrNotFound, "Invalid food ID!")
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	f := &models.Food{
		ID:       fid,
		Name:     in.Name,
		Price:    in.Price,
		Category: in.Category,
		InStock:  *in.InStock,
		ImageURL: in.ImageURL,
	}
	if err := s.repo.Update(ctx, f); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, flowErr(ErrNotFound, "Food not found!")
		}
		return nil, err
	}
	return s.repo.GetByID(ctx, fid)
}

func (s *foodService) DeleteFood(ctx context.Context, id string) error {
	fid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return flowErr(ErrNotFound, "Invalid food ID!")
	}
	if err := s.repo.Delete(ctx, fid); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return flowErr(ErrNotFound, "Food not found!")
		}
		return err
	}
	return nil
}
