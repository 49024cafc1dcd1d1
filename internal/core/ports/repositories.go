package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
)

// UserRepository defines the port for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	ListByRoles(ctx context.Context, roles []domain.Role) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TicketRepository defines the port for ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter domain.TicketFilter, scope domain.VisibilityScope) ([]*domain.Ticket, error)
	Count(ctx context.Context, filter domain.TicketFilter, scope domain.VisibilityScope) (int64, error)
	Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	Delete(ctx context.Context, id int64) error
}

// CommentRepository defines the port for ticket comment persistence.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	GetByID(ctx context.Context, id int64) (*domain.Comment, error)
	ListByTicket(ctx context.Context, ticketID int64, includeInternal bool) ([]*domain.Comment, error)
}

// AttachmentRepository defines the port for attachment metadata persistence.
type AttachmentRepository interface {
	Create(ctx context.Context, att *domain.Attachment) (*domain.Attachment, error)
	GetByID(ctx context.Context, id int64) (*domain.Attachment, error)
	ListByTicket(ctx context.Context, ticketID int64) ([]*domain.Attachment, error)
	Delete(ctx context.Context, id int64) error
}

// ActivityRepository defines the port for the append-only ticket audit trail.
type ActivityRepository interface {
	Append(ctx context.Context, activities []domain.Activity) error
	ListByTicket(ctx context.Context, ticketID int64) ([]*domain.Activity, error)
}

// CategoryRepository defines the port for category persistence.
type CategoryRepository interface {
	Create(ctx context.Context, cat *domain.Category) (*domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Category, error)
	Update(ctx context.Context, cat *domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
	TicketCount(ctx context.Context, id int64) (int64, error)
}

// EvaluationRepository defines the port for ticket evaluation persistence.
type EvaluationRepository interface {
	Create(ctx context.Context, ev *domain.Evaluation) (*domain.Evaluation, error)
	GetByTicket(ctx context.Context, ticketID int64) (*domain.Evaluation, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Evaluation, error)
}

// SettingsRepository defines the port for runtime system settings.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (*domain.SystemSetting, error)
	GetAll(ctx context.Context) ([]*domain.SystemSetting, error)
	Upsert(ctx context.Context, setting *domain.SystemSetting) (*domain.SystemSetting, error)
}

// DashboardRepository defines the port for aggregate reporting queries.
type DashboardRepository interface {
	Stats(ctx context.Context, scope domain.VisibilityScope) (*domain.DashboardStats, error)
	TicketsByMonth(ctx context.Context, scope domain.VisibilityScope, months int) ([]*domain.MonthBucket, error)
	TechnicianLoads(ctx context.Context) ([]*domain.TechnicianLoad, error)
}

// TransactionManager defines the port for running atomic operations.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
