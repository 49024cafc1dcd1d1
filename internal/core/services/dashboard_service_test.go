package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/mocks"
	"github.com/hdesk/helpdesk-backend/internal/core/services"
)

func TestDashboardService_StatsScoping(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	stats := &domain.DashboardStats{TotalTickets: 3}

	t.Run("user stats are scoped to own tickets", func(t *testing.T) {
		repo := mocks.NewMockDashboardRepository()
		svc := services.NewDashboardService(repo)

		repo.On("Stats", mock.Anything, mock.MatchedBy(func(scope domain.VisibilityScope) bool {
			return scope.CreatorID != nil && *scope.CreatorID == userID && scope.AssigneeID == nil
		})).Return(stats, nil)

		got, err := svc.Stats(ctx, userIdentity(userID, "alice"))
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.TotalTickets)
		repo.AssertExpectations(t)
	})

	t.Run("admin stats are unrestricted", func(t *testing.T) {
		repo := mocks.NewMockDashboardRepository()
		svc := services.NewDashboardService(repo)

		repo.On("Stats", mock.Anything, mock.MatchedBy(func(scope domain.VisibilityScope) bool {
			return scope.CreatorID == nil && scope.AssigneeID == nil
		})).Return(stats, nil)

		_, err := svc.Stats(ctx, adminIdentity(userID, "root"))
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestDashboardService_TicketsByMonth_ClampsWindow(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockDashboardRepository()
	svc := services.NewDashboardService(repo)

	buckets := []*domain.MonthBucket{{Month: "2026-08", Opened: 2, Resolved: 1}}
	repo.On("TicketsByMonth", mock.Anything, mock.Anything, 12).Return(buckets, nil).Twice()
	repo.On("TicketsByMonth", mock.Anything, mock.Anything, 6).Return(buckets, nil).Once()

	actor := techIdentity(uuid.New(), "tech")

	_, err := svc.TicketsByMonth(ctx, actor, 0)
	require.NoError(t, err)
	_, err = svc.TicketsByMonth(ctx, actor, 120)
	require.NoError(t, err)
	_, err = svc.TicketsByMonth(ctx, actor, 6)
	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestDashboardService_TechnicianLoads_AdminOnly(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockDashboardRepository()
	svc := services.NewDashboardService(repo)

	_, err := svc.TechnicianLoads(ctx, techIdentity(uuid.New(), "tech"))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	repo.On("TechnicianLoads", mock.Anything).Return([]*domain.TechnicianLoad{}, nil)
	_, err = svc.TechnicianLoads(ctx, adminIdentity(uuid.New(), "root"))
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
