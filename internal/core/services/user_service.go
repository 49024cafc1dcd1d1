package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// UserService implements admin user management.
type UserService struct {
	userRepo ports.UserRepository
	logger   *slog.Logger
}

var _ ports.UserService = (*UserService)(nil)

func NewUserService(userRepo ports.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

func (s *UserService) ListUsers(ctx context.Context, actor ports.Identity, limit, offset int) ([]*domain.UserSummary, error) {
	if !actor.Role.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

// ListTechnicians returns assignable staff. Open to staff so the assignment
// dropdown works for technicians, not just admins.
func (s *UserService) ListTechnicians(ctx context.Context, actor ports.Identity) ([]*domain.UserSummary, error) {
	if !actor.Role.IsStaff() {
		return nil, apperrors.ErrForbidden
	}

	users, err := s.userRepo.ListByRoles(ctx, []domain.Role{domain.RoleTechnician, domain.RoleAdmin})
	if err != nil {
		return nil, err
	}

	active := make([]*domain.User, 0, len(users))
	for _, u := range users {
		if u.IsActive {
			active = append(active, u)
		}
	}
	return summaries(active), nil
}

// CreateUser lets an admin create an account with any role.
func (s *UserService) CreateUser(ctx context.Context, params domain.UserRegistrationParams, actor ports.Identity) (*domain.User, error) {
	if !actor.Role.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	user, err := domain.NewUser(params)
	if err != nil {
		return nil, err
	}

	if existing, _ := s.userRepo.GetByUsername(ctx, user.Username); existing != nil {
		return nil, apperrors.ErrUserExists
	}
	if existing, _ := s.userRepo.GetByEmail(ctx, user.Email); existing != nil {
		return nil, apperrors.ErrUserExists
	}

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user created by admin",
		slog.String("user_id", created.ID.String()),
		slog.String("role", created.Role.String()),
		slog.String("admin_id", actor.UserID.String()))

	return created, nil
}

func (s *UserService) UpdateUser(ctx context.Context, params ports.UpdateUserParams) (*domain.User, error) {
	if !params.Actor.Role.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	user, err := s.userRepo.GetByID(ctx, params.UserID)
	if err != nil {
		return nil, err
	}

	if params.FullName != nil {
		if *params.FullName == "" {
			return nil, apperrors.ErrFullNameRequired
		}
		user.FullName = *params.FullName
	}
	if params.Email != nil {
		email := strings.ToLower(*params.Email)
		if existing, _ := s.userRepo.GetByEmail(ctx, email); existing != nil && existing.ID != user.ID {
			return nil, apperrors.ErrUserExists
		}
		user.Email = email
	}
	if params.Role != nil {
		if domain.ParseRole(string(*params.Role)) != *params.Role {
			return nil, apperrors.ErrInvalidRole
		}
		// An admin cannot demote themselves; that is how systems lose
		// their last administrator.
		if user.ID == params.Actor.UserID && *params.Role != domain.RoleAdmin {
			return nil, apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Cannot change your own role")
		}
		user.Role = *params.Role
	}
	if params.IsActive != nil {
		if user.ID == params.Actor.UserID && !*params.IsActive {
			return nil, apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Cannot disable your own account")
		}
		user.IsActive = *params.IsActive
	}

	return s.userRepo.Update(ctx, user)
}

func (s *UserService) DeleteUser(ctx context.Context, userID uuid.UUID, actor ports.Identity) error {
	if !actor.Role.IsAdmin() {
		return apperrors.ErrForbidden
	}
	if userID == actor.UserID {
		return apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Cannot delete your own account")
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, userID)
}

func summaries(users []*domain.User) []*domain.UserSummary {
	out := make([]*domain.UserSummary, 0, len(users))
	for _, u := range users {
		s := u.Summary()
		out = append(out, &s)
	}
	return out
}
