package domain

import "github.com/google/uuid"

// DashboardStats summarizes ticket activity for the dashboard endpoint.
// Counts respect the caller's visibility scope.
type DashboardStats struct {
	TotalTickets       int64
	ByStatus           map[TicketStatus]int64
	ByPriority         map[TicketPriority]int64
	Unassigned         int64
	OpenedLast7Days    int64
	ResolvedLast7Days  int64
	AvgResolutionHours float64
	AvgRating          float64
}

// MonthBucket is one month's opened/resolved ticket counts, month formatted
// as "2006-01".
type MonthBucket struct {
	Month    string
	Opened   int64
	Resolved int64
}

// TechnicianLoad is one row of the per-technician workload report.
type TechnicianLoad struct {
	TechnicianID uuid.UUID
	FullName     string
	Assigned     int64
	Resolved     int64
	AvgRating    float64
}
