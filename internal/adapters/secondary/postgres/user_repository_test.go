package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// newTestRepos is a helper to create repos for a test.
func newTestRepos(t *testing.T) (ports.TicketRepository, ports.UserRepository) {
	require.NotNil(t, testPool, "testPool is nil. TestMain may not have run.")

	userRepo := NewUserRepository(testPool)
	ticketRepo := NewTicketRepository(testPool)

	return ticketRepo, userRepo
}

// createTestUser inserts a user with a unique username and email.
func createTestUser(t *testing.T, ctx context.Context, userRepo ports.UserRepository, role domain.Role) *domain.User {
	t.Helper()

	suffix := uuid.NewString()[:8]
	user := &domain.User{
		ID:             uuid.New(),
		Username:       "user-" + suffix,
		Email:          suffix + "@example.com",
		FullName:       "Test User",
		HashedPassword: "not-a-real-hash",
		Role:           role,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
	created, err := userRepo.Create(ctx, user)
	require.NoError(t, err)
	return created
}

func TestUserRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	created := createTestUser(t, ctx, userRepo, domain.RoleUser)

	found, err := userRepo.GetByUsername(ctx, created.Username)
	require.NoError(t, err, "Failed to get user by username")
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Test User", found.FullName)
	assert.Equal(t, domain.RoleUser, found.Role)
	assert.True(t, found.IsActive)

	foundByID, err := userRepo.GetByID(ctx, created.ID)
	require.NoError(t, err, "Failed to get user by ID")
	assert.Equal(t, created.Email, foundByID.Email)
}

func TestUserRepository_GetByUsername_CaseInsensitive(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	created := createTestUser(t, ctx, userRepo, domain.RoleUser)

	found, err := userRepo.GetByUsername(ctx, "USER-"+created.Username[5:])
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	_, err := userRepo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	created := createTestUser(t, ctx, userRepo, domain.RoleUser)

	dup := &domain.User{
		ID:             uuid.New(),
		Username:       created.Username,
		Email:          uuid.NewString()[:8] + "@example.com",
		FullName:       "Duplicate",
		HashedPassword: "not-a-real-hash",
		Role:           domain.RoleUser,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := userRepo.Create(ctx, dup)
	assert.ErrorIs(t, err, apperrors.ErrUserExists)
}

func TestUserRepository_ListByRoles(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	tech := createTestUser(t, ctx, userRepo, domain.RoleTechnician)
	admin := createTestUser(t, ctx, userRepo, domain.RoleAdmin)
	plain := createTestUser(t, ctx, userRepo, domain.RoleUser)

	staff, err := userRepo.ListByRoles(ctx, []domain.Role{domain.RoleTechnician, domain.RoleAdmin})
	require.NoError(t, err)

	ids := make(map[uuid.UUID]bool, len(staff))
	for _, u := range staff {
		ids[u.ID] = true
	}
	assert.True(t, ids[tech.ID])
	assert.True(t, ids[admin.ID])
	assert.False(t, ids[plain.ID])
}

func TestUserRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	created := createTestUser(t, ctx, userRepo, domain.RoleUser)

	created.FullName = "Renamed User"
	created.IsActive = false
	now := time.Now().UTC()
	created.UpdatedAt = &now

	updated, err := userRepo.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "Renamed User", updated.FullName)
	assert.False(t, updated.IsActive)

	require.NoError(t, userRepo.Delete(ctx, created.ID))

	_, err = userRepo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	err = userRepo.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
