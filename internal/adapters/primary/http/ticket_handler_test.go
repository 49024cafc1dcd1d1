package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mw "github.com/hdesk/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/hdesk/helpdesk-backend/internal/auth"
	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/mocks"
	"github.com/hdesk/helpdesk-backend/internal/core/services"
)

type ticketRouterFixture struct {
	router       *chi.Mux
	tokenManager *auth.TokenManager
	ticketRepo   *mocks.MockTicketRepository
	userRepo     *mocks.MockUserRepository
	activityRepo *mocks.MockActivityRepository
	txManager    *mocks.MockTransactionManager
	pusher       *mocks.MockNotificationPusher
}

// newTicketRouter wires the ticket handler behind the real JWT middleware
// with mocked persistence underneath.
func newTicketRouter(t *testing.T) *ticketRouterFixture {
	t.Helper()

	f := &ticketRouterFixture{
		tokenManager: auth.NewTokenManager("test-secret", time.Hour),
		ticketRepo:   mocks.NewMockTicketRepository(),
		userRepo:     mocks.NewMockUserRepository(),
		activityRepo: mocks.NewMockActivityRepository(),
		txManager:    mocks.NewMockTransactionManager(),
		pusher:       mocks.NewMockNotificationPusher(),
	}

	// Fan-out and actor resolution are incidental to these tests.
	f.pusher.On("SendToUser", mock.Anything, mock.Anything).Maybe()
	f.pusher.On("SendToRole", mock.Anything, mock.Anything, mock.Anything).Maybe()
	f.pusher.On("Broadcast", mock.Anything, mock.Anything).Maybe()
	f.userRepo.On("GetByID", mock.Anything, mock.Anything).Return(nil, apperrors.ErrUserNotFound).Maybe()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := mocks.NewMockNotifier()
	notifier.On("Notify", mock.Anything, mock.Anything).Maybe()

	ticketService := services.NewTicketService(
		f.ticketRepo, f.userRepo, f.activityRepo, mocks.NewMockAttachmentRepository(),
		f.txManager, f.pusher, notifier, mocks.NewMockFileStore(), logger,
	)

	errorHandler := NewErrorHandler(logger)
	ticketHandler := NewTicketHandler(ticketService, nil, nil, nil, errorHandler, logger)

	router := chi.NewRouter()
	router.Use(mw.JWTMiddleware(f.tokenManager))
	router.Route("/tickets", ticketHandler.RegisterRoutes)

	f.router = router
	return f
}

func (f *ticketRouterFixture) request(t *testing.T, method, target string, body interface{}, identity *domain.Role, userID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if identity != nil {
		token, err := f.tokenManager.Generate(userID, "testuser", *identity)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	return recorder
}

func roleOf(r domain.Role) *domain.Role { return &r }

func TestTicketHandler_Unauthorized(t *testing.T) {
	f := newTicketRouter(t)

	recorder := f.request(t, stdhttp.MethodGet, "/tickets", nil, nil, uuid.Nil)
	assert.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)
}

func TestTicketHandler_Create(t *testing.T) {
	f := newTicketRouter(t)
	alice := uuid.New()

	f.txManager.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	f.ticketRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Ticket")).
		Return(&domain.Ticket{
			ID:          42,
			Title:       "VPN broken",
			Description: "No tunnel since this morning",
			Status:      domain.StatusOpen,
			Priority:    domain.PriorityHigh,
			CreatorID:   alice,
			CreatedAt:   time.Now().UTC(),
		}, nil)
	f.activityRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

	body := map[string]interface{}{
		"title":       "VPN broken",
		"description": "No tunnel since this morning",
		"priority":    "high",
	}
	recorder := f.request(t, stdhttp.MethodPost, "/tickets", body, roleOf(domain.RoleUser), alice)

	require.Equal(t, stdhttp.StatusCreated, recorder.Code)

	var response TicketDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.EqualValues(t, 42, response.ID)
	assert.Equal(t, "VPN broken", response.Title)
	assert.Equal(t, "open", response.Status)
	assert.Equal(t, alice.String(), response.CreatorID)
}

func TestTicketHandler_Create_InvalidPriority(t *testing.T) {
	f := newTicketRouter(t)

	body := map[string]interface{}{
		"title":    "Bad priority",
		"priority": "catastrophic",
	}
	recorder := f.request(t, stdhttp.MethodPost, "/tickets", body, roleOf(domain.RoleUser), uuid.New())

	require.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)

	var response ValidationErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "VALIDATION_ERROR", response.Code)
	assert.Contains(t, response.Fields, "priority")
}

func TestTicketHandler_Get_ForbiddenForOtherCreator(t *testing.T) {
	f := newTicketRouter(t)
	owner := uuid.New()
	intruder := uuid.New()

	f.ticketRepo.On("GetByID", mock.Anything, int64(7)).
		Return(&domain.Ticket{ID: 7, Title: "Private", CreatorID: owner, Status: domain.StatusOpen, CreatedAt: time.Now().UTC()}, nil)

	recorder := f.request(t, stdhttp.MethodGet, "/tickets/7", nil, roleOf(domain.RoleUser), intruder)

	require.Equal(t, stdhttp.StatusForbidden, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "FORBIDDEN", response.Code)
}

func TestTicketHandler_List_ScopedToCreator(t *testing.T) {
	f := newTicketRouter(t)
	alice := uuid.New()

	matchScope := mock.MatchedBy(func(scope domain.VisibilityScope) bool {
		return scope.CreatorID != nil && *scope.CreatorID == alice && scope.AssigneeID == nil
	})

	f.ticketRepo.On("List", mock.Anything, mock.Anything, matchScope).
		Return([]*domain.Ticket{
			{ID: 1, Title: "Mine", CreatorID: alice, Status: domain.StatusOpen, Priority: domain.PriorityLow, CreatedAt: time.Now().UTC()},
		}, nil)
	f.ticketRepo.On("Count", mock.Anything, mock.Anything, matchScope).Return(int64(1), nil)

	recorder := f.request(t, stdhttp.MethodGet, "/tickets?limit=10", nil, roleOf(domain.RoleUser), alice)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response PaginatedResponse[TicketDTO]
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	require.Len(t, response.Data, 1)
	assert.Equal(t, "Mine", response.Data[0].Title)
	assert.EqualValues(t, 1, response.Pagination.TotalCount)

	f.ticketRepo.AssertExpectations(t)
}

func TestTicketHandler_Update_LockedForUser(t *testing.T) {
	f := newTicketRouter(t)
	alice := uuid.New()

	f.ticketRepo.On("GetByID", mock.Anything, int64(9)).
		Return(&domain.Ticket{ID: 9, Title: "Done", CreatorID: alice, Status: domain.StatusResolved, CreatedAt: time.Now().UTC()}, nil)

	body := map[string]interface{}{"title": "Actually not done"}
	recorder := f.request(t, stdhttp.MethodPatch, "/tickets/9", body, roleOf(domain.RoleUser), alice)

	require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "TICKET_LOCKED", response.Code)
}

func TestTicketHandler_Delete_RequiresAdmin(t *testing.T) {
	f := newTicketRouter(t)

	recorder := f.request(t, stdhttp.MethodDelete, "/tickets/3", nil, roleOf(domain.RoleTechnician), uuid.New())
	assert.Equal(t, stdhttp.StatusForbidden, recorder.Code)
}
