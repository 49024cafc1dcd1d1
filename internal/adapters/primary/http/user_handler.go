package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hdesk/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

const maxUsersPerPage = 200

// UserHandler handles admin user management endpoints.
type UserHandler struct {
	userService  ports.UserService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService ports.UserService, errorHandler *ErrorHandler, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userService:  userService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "user"),
	}
}

// RegisterRoutes registers the admin user management routes.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListUsers)
	r.Post("/", h.HandleCreateUser)
	r.Patch("/{userID}", h.HandleUpdateUser)
	r.Delete("/{userID}", h.HandleDeleteUser)
}

// RegisterStaffRoutes registers the staff-visible user routes.
func (h *UserHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/", h.HandleListTechnicians)
}

// CreateUserRequest defines the expected JSON body for creating a user
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate validates the create user request
func (r *CreateUserRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("username", r.Username).
		Username("username", r.Username)

	v.Required("email", r.Email).
		Email("email", r.Email)

	v.Required("fullName", r.FullName).
		MaxLength("fullName", r.FullName, domain.MaxFullNameLength)

	v.Required("password", r.Password)

	v.OneOf("role", r.Role, []string{"user", "technician", "admin"})

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateUserRequest defines the expected JSON body for a partial user update
type UpdateUserRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

// Validate validates the update user request
func (r *UpdateUserRequest) Validate() error {
	v := validation.NewValidator()

	if r.Email != nil {
		v.Required("email", *r.Email).Email("email", *r.Email)
	}
	if r.FullName != nil {
		v.Required("fullName", *r.FullName).MaxLength("fullName", *r.FullName, domain.MaxFullNameLength)
	}
	if r.Role != nil {
		v.OneOf("role", *r.Role, []string{"user", "technician", "admin"})
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// HandleListUsers handles GET /admin/users
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	pagination := validation.ParsePagination(r, maxUsersPerPage)

	users, err := h.userService.ListUsers(r.Context(), identity, pagination.Limit, pagination.Offset)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := make([]UserDTO, 0, len(users))
	for _, user := range users {
		response = append(response, toUserSummaryDTO(user))
	}

	WriteList(w, response)
}

// HandleListTechnicians handles GET /technicians
func (h *UserHandler) HandleListTechnicians(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	technicians, err := h.userService.ListTechnicians(r.Context(), identity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := make([]UserDTO, 0, len(technicians))
	for _, tech := range technicians {
		response = append(response, toUserSummaryDTO(tech))
	}

	WriteList(w, response)
}

// HandleCreateUser handles POST /admin/users
func (h *UserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[CreateUserRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.userService.CreateUser(r.Context(), domain.UserRegistrationParams{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		Role:     domain.ParseRole(req.Role),
	}, identity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("user created",
		"user_id", user.ID,
		"role", user.Role,
		"created_by", identity.UserID,
	)

	WriteCreated(w, toUserDTO(user))
}

// HandleUpdateUser handles PATCH /admin/users/{userID}
func (h *UserHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		v := validation.NewValidator()
		v.Custom("userID", false, "Must be a valid UUID")
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	req, err := validation.DecodeAndValidate[UpdateUserRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateUserParams{
		UserID:   userID,
		FullName: req.FullName,
		Email:    req.Email,
		IsActive: req.IsActive,
		Actor:    identity,
	}
	if req.Role != nil {
		role := domain.ParseRole(*req.Role)
		params.Role = &role
	}

	user, err := h.userService.UpdateUser(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("user updated",
		"user_id", userID,
		"updated_by", identity.UserID,
	)

	WriteJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleDeleteUser handles DELETE /admin/users/{userID}
func (h *UserHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		v := validation.NewValidator()
		v.Custom("userID", false, "Must be a valid UUID")
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	if err := h.userService.DeleteUser(r.Context(), userID, identity); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("user deleted",
		"user_id", userID,
		"deleted_by", identity.UserID,
	)

	WriteNoContent(w)
}
