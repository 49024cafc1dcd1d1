package ports

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
)

// Identity is the authenticated caller, extracted from the bearer token.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     domain.Role
}

// AuthService defines the port for authentication business logic.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*domain.User, string, error)
	Refresh(ctx context.Context, userID uuid.UUID) (*domain.User, string, error)
	Register(ctx context.Context, params domain.UserRegistrationParams) (*domain.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// CreateTicketParams defines the required input for creating a new ticket.
type CreateTicketParams struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	CategoryID  *int64
	AssigneeID  *uuid.UUID
	Actor       Identity
}

// UpdateTicketParams defines the input for a partial ticket update.
type UpdateTicketParams struct {
	TicketID int64
	Patch    domain.TicketUpdate
	Actor    Identity
}

// ListTicketsParams defines the input for listing tickets.
type ListTicketsParams struct {
	Filter domain.TicketFilter
	Actor  Identity
}

// TicketService defines the core business operations for managing tickets.
type TicketService interface {
	CreateTicket(ctx context.Context, params CreateTicketParams) (*domain.Ticket, error)
	GetTicket(ctx context.Context, ticketID int64, actor Identity) (*domain.Ticket, error)
	ListTickets(ctx context.Context, params ListTicketsParams) ([]*domain.Ticket, int64, error)
	UpdateTicket(ctx context.Context, params UpdateTicketParams) (*domain.Ticket, error)
	DeleteTicket(ctx context.Context, ticketID int64, actor Identity) error
	ListActivities(ctx context.Context, ticketID int64, actor Identity) ([]*domain.Activity, error)
}

// CreateCommentParams defines the input for creating a comment.
type CreateCommentParams struct {
	TicketID   int64
	Content    string
	IsInternal bool
	Actor      Identity
}

// CommentService defines the port for comment-related business logic.
type CommentService interface {
	CreateComment(ctx context.Context, params CreateCommentParams) (*domain.Comment, error)
	ListComments(ctx context.Context, ticketID int64, actor Identity) ([]*domain.Comment, error)
}

// UploadAttachmentParams defines the input for attaching a file to a ticket.
type UploadAttachmentParams struct {
	TicketID    int64
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
	Actor       Identity
}

// AttachmentService defines the port for attachment business logic.
type AttachmentService interface {
	Upload(ctx context.Context, params UploadAttachmentParams) (*domain.Attachment, error)
	Download(ctx context.Context, attachmentID int64, actor Identity) (*domain.Attachment, io.ReadCloser, error)
	ListForTicket(ctx context.Context, ticketID int64, actor Identity) ([]*domain.Attachment, error)
	Delete(ctx context.Context, attachmentID int64, actor Identity) error
}

// CategoryService defines the port for category management.
type CategoryService interface {
	CreateCategory(ctx context.Context, name, description string, actor Identity) (*domain.Category, error)
	ListCategories(ctx context.Context, actor Identity) ([]*domain.Category, error)
	UpdateCategory(ctx context.Context, id int64, name, description *string, active *bool, actor Identity) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int64, actor Identity) error
}

// UpdateUserParams defines the admin-editable user fields.
type UpdateUserParams struct {
	UserID   uuid.UUID
	FullName *string
	Email    *string
	Role     *domain.Role
	IsActive *bool
	Actor    Identity
}

// UserService defines the port for admin user management.
type UserService interface {
	ListUsers(ctx context.Context, actor Identity, limit, offset int) ([]*domain.UserSummary, error)
	ListTechnicians(ctx context.Context, actor Identity) ([]*domain.UserSummary, error)
	CreateUser(ctx context.Context, params domain.UserRegistrationParams, actor Identity) (*domain.User, error)
	UpdateUser(ctx context.Context, params UpdateUserParams) (*domain.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID, actor Identity) error
}

// SettingsService defines the port for runtime settings management.
type SettingsService interface {
	GetSettings(ctx context.Context, actor Identity) ([]*domain.SystemSetting, error)
	UpdateSetting(ctx context.Context, key, value string, actor Identity) (*domain.SystemSetting, error)
	AttachmentPolicy(ctx context.Context) (domain.AttachmentPolicy, error)
}

// EvaluationService defines the port for ticket satisfaction ratings.
type EvaluationService interface {
	CreateEvaluation(ctx context.Context, ticketID int64, rating int, comment string, actor Identity) (*domain.Evaluation, error)
	GetForTicket(ctx context.Context, ticketID int64, actor Identity) (*domain.Evaluation, error)
	ListEvaluations(ctx context.Context, actor Identity, limit, offset int) ([]*domain.Evaluation, error)
}

// DashboardService defines the port for aggregate reporting.
type DashboardService interface {
	Stats(ctx context.Context, actor Identity) (*domain.DashboardStats, error)
	TicketsByMonth(ctx context.Context, actor Identity, months int) ([]*domain.MonthBucket, error)
	TechnicianLoads(ctx context.Context, actor Identity) ([]*domain.TechnicianLoad, error)
}

// NotificationPusher delivers real-time messages to connected clients.
// Delivery is best-effort: offline recipients are skipped, never errored on.
type NotificationPusher interface {
	SendToUser(userID uuid.UUID, payload interface{})
	SendToRole(role domain.Role, payload interface{}, except []uuid.UUID)
	Broadcast(payload interface{}, except []uuid.UUID)
}

// DirectoryUser is an account resolved against an external directory.
type DirectoryUser struct {
	Username string
	Email    string
	FullName string
	Role     domain.Role
}

// DirectoryAuthenticator verifies credentials against an external directory
// such as LDAP or Active Directory.
type DirectoryAuthenticator interface {
	Authenticate(ctx context.Context, username, password string) (*DirectoryUser, error)
}

// FileStore persists attachment content.
type FileStore interface {
	Save(ctx context.Context, storedName string, content io.Reader) (int64, error)
	Open(ctx context.Context, storedName string) (io.ReadCloser, error)
	Delete(ctx context.Context, storedName string) error
}

// NotificationParams defines the input for an out-of-band notification.
type NotificationParams struct {
	RecipientUserID uuid.UUID
	Subject         string
	Message         string
	TicketID        int64
}

// Notifier defines the port for sending asynchronous notifications, such as
// email, alongside the real-time websocket push.
type Notifier interface {
	Notify(ctx context.Context, params NotificationParams)
}
