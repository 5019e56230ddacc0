package service

import (
	"context"
	"strings"

	"github.com/BuzzLyutic/focusflow/internal/model"
	"github.com/BuzzLyutic/focusflow/internal/repo"
)

type CategoryService struct {
	repo repo.CategoryRepository
}

func NewCategoryService(repo repo.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// List returns the user's categories, creating the defaults on the first read.
func (s *CategoryService) List(ctx context.Context, userID int64) ([]model.Category, error) {
	list, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		return list, nil
	}
	return s.repo.Seed(ctx, userID, model.DefaultCategories)
}

func (s *CategoryService) Create(ctx context.Context, userID int64, in model.CreateCategoryInput) (model.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return model.Category{}, invalid("name is required")
	}
	if !model.ValidColor(in.Color) {
		return model.Category{}, invalid("color must be one of %s", strings.Join(model.Palette, ", "))
	}
	return s.repo.Create(ctx, userID, in)
}
