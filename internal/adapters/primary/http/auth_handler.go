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

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService  ports.AuthService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService ports.AuthService, errorHandler *ErrorHandler, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "auth"),
	}
}

// RegisterPublicRoutes registers the unauthenticated auth endpoints.
// Paths are absolute so the public and protected halves can live in
// separate router groups without mounting /auth twice.
func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/register", h.HandleRegister)
}

// RegisterProtectedRoutes registers the auth endpoints that require a token.
func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.HandleMe)
	r.Post("/auth/refresh", h.HandleRefresh)
	r.Post("/auth/change-password", h.HandleChangePassword)
}

// --- Request/Response DTOs ---

// LoginRequest defines the expected JSON body for login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate validates the login request
func (r *LoginRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("username", r.Username)
	v.Required("password", r.Password)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// RegisterRequest defines the expected JSON body for registration
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

// Validate validates the registration request
func (r *RegisterRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("username", r.Username).
		Username("username", r.Username)

	v.Required("email", r.Email).
		Email("email", r.Email)

	v.Required("fullName", r.FullName).
		MaxLength("fullName", r.FullName, domain.MaxFullNameLength)

	v.Required("password", r.Password)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// ChangePasswordRequest defines the expected JSON body for password changes
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Validate validates the change password request
func (r *ChangePasswordRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("currentPassword", r.CurrentPassword)
	v.Required("newPassword", r.NewPassword)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UserDTO defines the JSON response for user accounts.
type UserDTO struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	Role       string `json:"role"`
	IsActive   bool   `json:"isActive"`
	IsLDAPUser bool   `json:"isLdapUser"`
	CreatedAt  string `json:"createdAt"`
}

// LoginResponse defines the JSON response for a successful login.
type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

func toUserDTO(user *domain.User) UserDTO {
	return UserDTO{
		ID:         user.ID.String(),
		Username:   user.Username,
		Email:      user.Email,
		FullName:   user.FullName,
		Role:       user.Role.String(),
		IsActive:   user.IsActive,
		IsLDAPUser: user.IsLDAPUser,
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
	}
}

func toUserSummaryDTO(summary *domain.UserSummary) UserDTO {
	return UserDTO{
		ID:         summary.ID.String(),
		Username:   summary.Username,
		Email:      summary.Email,
		FullName:   summary.FullName,
		Role:       summary.Role.String(),
		IsActive:   summary.IsActive,
		IsLDAPUser: summary.IsLDAPUser,
		CreatedAt:  summary.CreatedAt.Format(time.RFC3339),
	}
}

// --- Handlers ---

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[LoginRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)

	WriteJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		User:  toUserDTO(user),
	})
}

// HandleRegister handles POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[RegisterRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), domain.UserRegistrationParams{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("user registered", "user_id", user.ID, "username", user.Username)

	WriteCreated(w, toUserDTO(user))
}

// HandleRefresh handles POST /auth/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	user, token, err := h.authService.Refresh(r.Context(), identity.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		User:  toUserDTO(user),
	})
}

// HandleMe handles GET /auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(r.Context(), identity.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleChangePassword handles POST /auth/change-password
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[ChangePasswordRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.authService.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("password changed", "user_id", identity.UserID)

	WriteJSON(w, http.StatusOK, SuccessResponse{Message: "Password updated"})
}
