package domain

import (
	"time"

	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
)

const MaxCategoryNameLength = 100

// Category groups tickets for routing and reporting.
type Category struct {
	ID          int64
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

func NewCategory(name, description string) (*Category, error) {
	if name == "" {
		return nil, apperrors.NewValidationError(apperrors.ErrBadRequest, "Category name is required", nil)
	}
	if len(name) > MaxCategoryNameLength {
		return nil, apperrors.NewValidationError(apperrors.ErrBadRequest, "Category name must be 100 characters or less", nil)
	}

	return &Category{
		Name:        name,
		Description: description,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
