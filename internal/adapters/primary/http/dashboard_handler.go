package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// DashboardHandler handles aggregate reporting endpoints.
type DashboardHandler struct {
	dashboardService ports.DashboardService
	errorHandler     *ErrorHandler
	logger           *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(dashboardService ports.DashboardService, errorHandler *ErrorHandler, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		errorHandler:     errorHandler,
		logger:           logger.With("handler", "dashboard"),
	}
}

// RegisterRoutes registers the dashboard routes.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.HandleStats)
	r.Get("/tickets-by-month", h.HandleTicketsByMonth)
	r.Get("/technicians", h.HandleTechnicianLoads)
}

// DashboardStatsDTO defines the JSON response for dashboard statistics.
type DashboardStatsDTO struct {
	TotalTickets       int64            `json:"totalTickets"`
	ByStatus           map[string]int64 `json:"byStatus"`
	ByPriority         map[string]int64 `json:"byPriority"`
	Unassigned         int64            `json:"unassigned"`
	OpenedLast7Days    int64            `json:"openedLast7Days"`
	ResolvedLast7Days  int64            `json:"resolvedLast7Days"`
	AvgResolutionHours float64          `json:"avgResolutionHours"`
	AvgRating          float64          `json:"avgRating"`
}

// MonthBucketDTO defines one month of the opened/resolved report.
type MonthBucketDTO struct {
	Month    string `json:"month"`
	Opened   int64  `json:"opened"`
	Resolved int64  `json:"resolved"`
}

// TechnicianLoadDTO defines one row of the workload report.
type TechnicianLoadDTO struct {
	TechnicianID string  `json:"technicianId"`
	FullName     string  `json:"fullName"`
	Assigned     int64   `json:"assigned"`
	Resolved     int64   `json:"resolved"`
	AvgRating    float64 `json:"avgRating"`
}

func toStatsDTO(stats *domain.DashboardStats) DashboardStatsDTO {
	byStatus := make(map[string]int64, len(stats.ByStatus))
	for status, count := range stats.ByStatus {
		byStatus[string(status)] = count
	}
	byPriority := make(map[string]int64, len(stats.ByPriority))
	for priority, count := range stats.ByPriority {
		byPriority[string(priority)] = count
	}

	return DashboardStatsDTO{
		TotalTickets:       stats.TotalTickets,
		ByStatus:           byStatus,
		ByPriority:         byPriority,
		Unassigned:         stats.Unassigned,
		OpenedLast7Days:    stats.OpenedLast7Days,
		ResolvedLast7Days:  stats.ResolvedLast7Days,
		AvgResolutionHours: stats.AvgResolutionHours,
		AvgRating:          stats.AvgRating,
	}
}

// HandleStats handles GET /dashboard/stats
func (h *DashboardHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	stats, err := h.dashboardService.Stats(r.Context(), identity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toStatsDTO(stats))
}

// HandleTicketsByMonth handles GET /dashboard/tickets-by-month
func (h *DashboardHandler) HandleTicketsByMonth(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	months := 12
	if raw := r.URL.Query().Get("months"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			months = parsed
		}
	}

	buckets, err := h.dashboardService.TicketsByMonth(r.Context(), identity, months)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := make([]MonthBucketDTO, 0, len(buckets))
	for _, bucket := range buckets {
		response = append(response, MonthBucketDTO{
			Month:    bucket.Month,
			Opened:   bucket.Opened,
			Resolved: bucket.Resolved,
		})
	}

	WriteList(w, response)
}

// HandleTechnicianLoads handles GET /dashboard/technicians
func (h *DashboardHandler) HandleTechnicianLoads(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	loads, err := h.dashboardService.TechnicianLoads(r.Context(), identity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := make([]TechnicianLoadDTO, 0, len(loads))
	for _, load := range loads {
		response = append(response, TechnicianLoadDTO{
			TechnicianID: load.TechnicianID.String(),
			FullName:     load.FullName,
			Assigned:     load.Assigned,
			Resolved:     load.Resolved,
			AvgRating:    load.AvgRating,
		})
	}

	WriteList(w, response)
}
