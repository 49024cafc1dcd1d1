package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hdesk/helpdesk-backend/internal/auth"
	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// AuthService implements login, registration and password management.
// When a directory authenticator is configured, logins try the local
// password first and fall back to the directory, provisioning a local
// record for directory accounts on first login.
type AuthService struct {
	userRepo  ports.UserRepository
	tokens    *auth.TokenManager
	directory ports.DirectoryAuthenticator
	logger    *slog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new auth service. directory may be nil.
func NewAuthService(
	userRepo ports.UserRepository,
	tokens *auth.TokenManager,
	directory ports.DirectoryAuthenticator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokens:    tokens,
		directory: directory,
		logger:    logger,
	}
}

// Login verifies credentials and issues a signed token. Disabled accounts
// are rejected even with a valid password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, "", err
	}

	switch {
	case user != nil && !user.IsLDAPUser && user.CheckPassword(password):
		// Local credentials accepted.
	case s.directory != nil:
		user, err = s.loginViaDirectory(ctx, username, password, user)
		if err != nil {
			return nil, "", err
		}
	default:
		return nil, "", apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, "", apperrors.ErrAccountDisabled
	}

	token, err := s.tokens.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username),
		slog.Bool("ldap", user.IsLDAPUser))

	return user, token, nil
}

// loginViaDirectory authenticates against LDAP and syncs the local record.
func (s *AuthService) loginViaDirectory(ctx context.Context, username, password string, existing *domain.User) (*domain.User, error) {
	dirUser, err := s.directory.Authenticate(ctx, username, password)
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if existing == nil {
		created, createErr := s.userRepo.Create(ctx, domain.NewLDAPUser(dirUser.Username, dirUser.Email, dirUser.FullName, dirUser.Role))
		if createErr != nil {
			return nil, createErr
		}
		s.logger.InfoContext(ctx, "provisioned directory user",
			slog.String("username", created.Username),
			slog.String("role", created.Role.String()))
		return created, nil
	}

	// Keep the directory-sourced fields current on every login.
	existing.Email = dirUser.Email
	existing.FullName = dirUser.FullName
	existing.Role = dirUser.Role
	existing.IsLDAPUser = true
	return s.userRepo.Update(ctx, existing)
}

// Refresh issues a fresh token for an already-authenticated caller. The
// user record is re-read so role changes and deactivation take effect on
// the next refresh rather than at token expiry.
func (s *AuthService) Refresh(ctx context.Context, userID uuid.UUID) (*domain.User, string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if !user.IsActive {
		return nil, "", apperrors.ErrAccountDisabled
	}

	token, err := s.tokens.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Register creates a local account with the default user role. Role
// escalation is only possible through the admin user management API.
func (s *AuthService) Register(ctx context.Context, params domain.UserRegistrationParams) (*domain.User, error) {
	params.Role = domain.RoleUser

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

	return s.userRepo.Create(ctx, user)
}

// ChangePassword verifies the current password before setting a new one.
// Directory accounts manage passwords in the directory, not here.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsLDAPUser {
		return apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Directory accounts cannot change their password here")
	}
	if !user.CheckPassword(current) {
		return apperrors.ErrInvalidCredentials
	}

	hashed, err := domain.HashPassword(next)
	if err != nil {
		return err
	}
	user.HashedPassword = hashed
	_, err = s.userRepo.Update(ctx, user)
	return err
}

// GetUser returns the full user record for the authenticated caller.
func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}
