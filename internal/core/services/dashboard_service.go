package services

import (
	"context"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// DashboardService implements aggregate reporting. Stats respect the same
// visibility scope as ticket listing, so a user's dashboard only counts
// their own tickets.
type DashboardService struct {
	dashboardRepo ports.DashboardRepository
}

var _ ports.DashboardService = (*DashboardService)(nil)

func NewDashboardService(dashboardRepo ports.DashboardRepository) *DashboardService {
	return &DashboardService{dashboardRepo: dashboardRepo}
}

func (s *DashboardService) Stats(ctx context.Context, actor ports.Identity) (*domain.DashboardStats, error) {
	scope := domain.ScopeFor(actor.UserID, actor.Role)
	return s.dashboardRepo.Stats(ctx, scope)
}

// TicketsByMonth returns opened/resolved counts per calendar month. The
// window is clamped to 1..36 months, defaulting to 12.
func (s *DashboardService) TicketsByMonth(ctx context.Context, actor ports.Identity, months int) ([]*domain.MonthBucket, error) {
	if months < 1 || months > 36 {
		months = 12
	}
	scope := domain.ScopeFor(actor.UserID, actor.Role)
	return s.dashboardRepo.TicketsByMonth(ctx, scope, months)
}

// TechnicianLoads is the admin workload report.
func (s *DashboardService) TechnicianLoads(ctx context.Context, actor ports.Identity) ([]*domain.TechnicianLoad, error) {
	if !actor.Role.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	return s.dashboardRepo.TechnicianLoads(ctx)
}
