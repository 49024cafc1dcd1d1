package services

import (
	"context"
	"errors"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// CategoryService implements category management. Reads are open to any
// authenticated user, writes are admin only.
type CategoryService struct {
	categoryRepo ports.CategoryRepository
}

var _ ports.CategoryService = (*CategoryService)(nil)

func NewCategoryService(categoryRepo ports.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

func (s *CategoryService) CreateCategory(ctx context.Context, name, description string, actor ports.Identity) (*domain.Category, error) {
	if !actor.Role.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	cat, err := domain.NewCategory(name, description)
	if err != nil {
		return nil, err
	}

	if existing, lookupErr := s.categoryRepo.GetByName(ctx, name); lookupErr == nil && existing != nil {
		return nil, apperrors.ErrCategoryExists
	}

	return s.categoryRepo.Create(ctx, cat)
}

// ListCategories returns active categories for regular users and all
// categories for staff.
func (s *CategoryService) ListCategories(ctx context.Context, actor ports.Identity) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx, !actor.Role.IsStaff())
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, name, description *string, active *bool, actor ports.Identity) (*domain.Category, error) {
	if !actor.Role.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	cat, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		if *name == "" || len(*name) > domain.MaxCategoryNameLength {
			return nil, apperrors.NewValidationError(apperrors.ErrBadRequest, "Invalid category name", nil)
		}
		if existing, lookupErr := s.categoryRepo.GetByName(ctx, *name); lookupErr == nil && existing != nil && existing.ID != id {
			return nil, apperrors.ErrCategoryExists
		}
		cat.Name = *name
	}
	if description != nil {
		cat.Description = *description
	}
	if active != nil {
		cat.IsActive = *active
	}

	return s.categoryRepo.Update(ctx, cat)
}

// DeleteCategory refuses to remove a category that still has tickets;
// deactivate it instead.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64, actor ports.Identity) error {
	if !actor.Role.IsAdmin() {
		return apperrors.ErrForbidden
	}

	if _, err := s.categoryRepo.GetByID(ctx, id); err != nil {
		return err
	}

	count, err := s.categoryRepo.TicketCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflictError(apperrors.ErrCategoryInUse, "Category still has tickets; deactivate it instead")
	}

	err = s.categoryRepo.Delete(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.ErrCategoryNotFound
	}
	return err
}
