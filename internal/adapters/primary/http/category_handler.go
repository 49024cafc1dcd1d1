package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hdesk/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// CategoryHandler handles HTTP requests for ticket categories.
type CategoryHandler struct {
	categoryService ports.CategoryService
	errorHandler    *ErrorHandler
	logger          *slog.Logger
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(categoryService ports.CategoryService, errorHandler *ErrorHandler, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		errorHandler:    errorHandler,
		logger:          logger.With("handler", "category"),
	}
}

// RegisterRoutes registers the read-only category routes.
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListCategories)
}

// RegisterAdminRoutes registers the category management routes.
func (h *CategoryHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/", h.HandleCreateCategory)
	r.Patch("/{categoryID}", h.HandleUpdateCategory)
	r.Delete("/{categoryID}", h.HandleDeleteCategory)
}

// CategoryRequest defines the expected JSON body for creating a category
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate validates the category request
func (r *CategoryRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("name", r.Name).
		MaxLength("name", r.Name, domain.MaxCategoryNameLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateCategoryRequest defines the expected JSON body for a partial update
type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

// Validate validates the update category request
func (r *UpdateCategoryRequest) Validate() error {
	v := validation.NewValidator()

	if r.Name != nil {
		v.Required("name", *r.Name).MaxLength("name", *r.Name, domain.MaxCategoryNameLength)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// CategoryDTO defines the JSON response for categories.
type CategoryDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"isActive"`
	CreatedAt   string `json:"createdAt"`
}

func toCategoryDTO(cat *domain.Category) CategoryDTO {
	return CategoryDTO{
		ID:          cat.ID,
		Name:        cat.Name,
		Description: cat.Description,
		IsActive:    cat.IsActive,
		CreatedAt:   cat.CreatedAt.Format(time.RFC3339),
	}
}

// HandleListCategories handles GET /categories
func (h *CategoryHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	categories, err := h.categoryService.ListCategories(r.Context(), identity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := make([]CategoryDTO, 0, len(categories))
	for _, cat := range categories {
		response = append(response, toCategoryDTO(cat))
	}

	WriteList(w, response)
}

// HandleCreateCategory handles POST /admin/categories
func (h *CategoryHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[CategoryRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	category, err := h.categoryService.CreateCategory(r.Context(), req.Name, req.Description, identity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("category created",
		"category_id", category.ID,
		"name", category.Name,
		"user_id", identity.UserID,
	)

	WriteCreated(w, toCategoryDTO(category))
}

// HandleUpdateCategory handles PATCH /admin/categories/{categoryID}
func (h *CategoryHandler) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	categoryID, err := parseIDParam(r, "categoryID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateCategoryRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	category, err := h.categoryService.UpdateCategory(r.Context(), categoryID, req.Name, req.Description, req.IsActive, identity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("category updated",
		"category_id", categoryID,
		"user_id", identity.UserID,
	)

	WriteJSON(w, http.StatusOK, toCategoryDTO(category))
}

// HandleDeleteCategory handles DELETE /admin/categories/{categoryID}
func (h *CategoryHandler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	categoryID, err := parseIDParam(r, "categoryID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.categoryService.DeleteCategory(r.Context(), categoryID, identity); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("category deleted",
		"category_id", categoryID,
		"user_id", identity.UserID,
	)

	WriteNoContent(w)
}
