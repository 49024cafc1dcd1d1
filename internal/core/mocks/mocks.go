package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// MockUserRepository is a mock implementation of ports.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListByRoles(ctx context.Context, roles []domain.Role) ([]*domain.User, error) {
	args := m.Called(ctx, roles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTicketRepository is a mock implementation of ports.TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{}
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	args := m.Called(ctx, ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) List(ctx context.Context, filter domain.TicketFilter, scope domain.VisibilityScope) ([]*domain.Ticket, error) {
	args := m.Called(ctx, filter, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Count(ctx context.Context, filter domain.TicketFilter, scope domain.VisibilityScope) (int64, error) {
	args := m.Called(ctx, filter, scope)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	args := m.Called(ctx, ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCommentRepository is a mock implementation of ports.CommentRepository
type MockCommentRepository struct {
	mock.Mock
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{}
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	args := m.Called(ctx, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *MockCommentRepository) ListByTicket(ctx context.Context, ticketID int64, includeInternal bool) ([]*domain.Comment, error) {
	args := m.Called(ctx, ticketID, includeInternal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Comment), args.Error(1)
}

// MockAttachmentRepository is a mock implementation of ports.AttachmentRepository
type MockAttachmentRepository struct {
	mock.Mock
}

func NewMockAttachmentRepository() *MockAttachmentRepository {
	return &MockAttachmentRepository{}
}

func (m *MockAttachmentRepository) Create(ctx context.Context, att *domain.Attachment) (*domain.Attachment, error) {
	args := m.Called(ctx, att)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attachment), args.Error(1)
}

func (m *MockAttachmentRepository) GetByID(ctx context.Context, id int64) (*domain.Attachment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attachment), args.Error(1)
}

func (m *MockAttachmentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]*domain.Attachment, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Attachment), args.Error(1)
}

func (m *MockAttachmentRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockActivityRepository is a mock implementation of ports.ActivityRepository
type MockActivityRepository struct {
	mock.Mock
}

func NewMockActivityRepository() *MockActivityRepository {
	return &MockActivityRepository{}
}

func (m *MockActivityRepository) Append(ctx context.Context, activities []domain.Activity) error {
	args := m.Called(ctx, activities)
	return args.Error(0)
}

func (m *MockActivityRepository) ListByTicket(ctx context.Context, ticketID int64) ([]*domain.Activity, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Activity), args.Error(1)
}

// MockCategoryRepository is a mock implementation of ports.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{}
}

func (m *MockCategoryRepository) Create(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	args := m.Called(ctx, cat)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	args := m.Called(ctx, cat)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCategoryRepository) TicketCount(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

// MockEvaluationRepository is a mock implementation of ports.EvaluationRepository
type MockEvaluationRepository struct {
	mock.Mock
}

func NewMockEvaluationRepository() *MockEvaluationRepository {
	return &MockEvaluationRepository{}
}

func (m *MockEvaluationRepository) Create(ctx context.Context, ev *domain.Evaluation) (*domain.Evaluation, error) {
	args := m.Called(ctx, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Evaluation), args.Error(1)
}

func (m *MockEvaluationRepository) GetByTicket(ctx context.Context, ticketID int64) (*domain.Evaluation, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Evaluation), args.Error(1)
}

func (m *MockEvaluationRepository) List(ctx context.Context, limit, offset int) ([]*domain.Evaluation, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Evaluation), args.Error(1)
}

// MockSettingsRepository is a mock implementation of ports.SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{}
}

func (m *MockSettingsRepository) Get(ctx context.Context, key string) (*domain.SystemSetting, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SystemSetting), args.Error(1)
}

func (m *MockSettingsRepository) GetAll(ctx context.Context) ([]*domain.SystemSetting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SystemSetting), args.Error(1)
}

func (m *MockSettingsRepository) Upsert(ctx context.Context, setting *domain.SystemSetting) (*domain.SystemSetting, error) {
	args := m.Called(ctx, setting)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SystemSetting), args.Error(1)
}

// MockDashboardRepository is a mock implementation of ports.DashboardRepository
type MockDashboardRepository struct {
	mock.Mock
}

func NewMockDashboardRepository() *MockDashboardRepository {
	return &MockDashboardRepository{}
}

func (m *MockDashboardRepository) Stats(ctx context.Context, scope domain.VisibilityScope) (*domain.DashboardStats, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardStats), args.Error(1)
}

func (m *MockDashboardRepository) TicketsByMonth(ctx context.Context, scope domain.VisibilityScope, months int) ([]*domain.MonthBucket, error) {
	args := m.Called(ctx, scope, months)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MonthBucket), args.Error(1)
}

func (m *MockDashboardRepository) TechnicianLoads(ctx context.Context) ([]*domain.TechnicianLoad, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TechnicianLoad), args.Error(1)
}

// MockTransactionManager runs the callback inline, without a real transaction
type MockTransactionManager struct {
	mock.Mock
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

// MockNotificationPusher is a mock implementation of ports.NotificationPusher
type MockNotificationPusher struct {
	mock.Mock
}

func NewMockNotificationPusher() *MockNotificationPusher {
	return &MockNotificationPusher{}
}

func (m *MockNotificationPusher) SendToUser(userID uuid.UUID, payload interface{}) {
	m.Called(userID, payload)
}

func (m *MockNotificationPusher) SendToRole(role domain.Role, payload interface{}, except []uuid.UUID) {
	m.Called(role, payload, except)
}

func (m *MockNotificationPusher) Broadcast(payload interface{}, except []uuid.UUID) {
	m.Called(payload, except)
}

// MockNotifier is a mock implementation of ports.Notifier
type MockNotifier struct {
	mock.Mock
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, params ports.NotificationParams) {
	m.Called(ctx, params)
}

// MockFileStore is a mock implementation of ports.FileStore
type MockFileStore struct {
	mock.Mock
}

func NewMockFileStore() *MockFileStore {
	return &MockFileStore{}
}

func (m *MockFileStore) Save(ctx context.Context, storedName string, content io.Reader) (int64, error) {
	args := m.Called(ctx, storedName, content)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFileStore) Open(ctx context.Context, storedName string) (io.ReadCloser, error) {
	args := m.Called(ctx, storedName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockFileStore) Delete(ctx context.Context, storedName string) error {
	args := m.Called(ctx, storedName)
	return args.Error(0)
}

// MockDirectoryAuthenticator is a mock implementation of ports.DirectoryAuthenticator
type MockDirectoryAuthenticator struct {
	mock.Mock
}

func NewMockDirectoryAuthenticator() *MockDirectoryAuthenticator {
	return &MockDirectoryAuthenticator{}
}

func (m *MockDirectoryAuthenticator) Authenticate(ctx context.Context, username, password string) (*ports.DirectoryUser, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.DirectoryUser), args.Error(1)
}

// MockSettingsService is a mock implementation of ports.SettingsService
type MockSettingsService struct {
	mock.Mock
}

func NewMockSettingsService() *MockSettingsService {
	return &MockSettingsService{}
}

func (m *MockSettingsService) GetSettings(ctx context.Context, actor ports.Identity) ([]*domain.SystemSetting, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SystemSetting), args.Error(1)
}

func (m *MockSettingsService) UpdateSetting(ctx context.Context, key, value string, actor ports.Identity) (*domain.SystemSetting, error) {
	args := m.Called(ctx, key, value, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SystemSetting), args.Error(1)
}

func (m *MockSettingsService) AttachmentPolicy(ctx context.Context) (domain.AttachmentPolicy, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.AttachmentPolicy), args.Error(1)
}
