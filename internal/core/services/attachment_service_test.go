package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/mocks"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
	"github.com/hdesk/helpdesk-backend/internal/core/services"
)

type attachmentServiceFixture struct {
	attachmentRepo *mocks.MockAttachmentRepository
	ticketRepo     *mocks.MockTicketRepository
	activityRepo   *mocks.MockActivityRepository
	settings       *mocks.MockSettingsService
	fileStore      *mocks.MockFileStore
	svc            ports.AttachmentService
}

func newAttachmentServiceFixture() *attachmentServiceFixture {
	f := &attachmentServiceFixture{
		attachmentRepo: mocks.NewMockAttachmentRepository(),
		ticketRepo:     mocks.NewMockTicketRepository(),
		activityRepo:   mocks.NewMockActivityRepository(),
		settings:       mocks.NewMockSettingsService(),
		fileStore:      mocks.NewMockFileStore(),
	}
	f.svc = services.NewAttachmentService(
		f.attachmentRepo, f.ticketRepo, f.activityRepo, f.settings, f.fileStore, discardLogger(),
	)
	return f
}

func uploadParams(ticketID int64, actor ports.Identity, name string, size int64, body string) ports.UploadAttachmentParams {
	return ports.UploadAttachmentParams{
		TicketID:    ticketID,
		FileName:    name,
		ContentType: "text/plain",
		Size:        size,
		Content:     strings.NewReader(body),
		Actor:       actor,
	}
}

func TestAttachmentService_Upload(t *testing.T) {
	ctx := context.Background()
	creatorID := uuid.New()
	policy := domain.AttachmentPolicy{MaxSizeBytes: 1024, AllowedExtensions: []string{"txt", "pdf"}}

	ownTicket := func() *domain.Ticket {
		return &domain.Ticket{ID: 7, CreatorID: creatorID, Status: domain.StatusOpen}
	}

	t.Run("accepted upload records the bytes actually written", func(t *testing.T) {
		f := newAttachmentServiceFixture()
		actor := userIdentity(creatorID, "alice")

		f.ticketRepo.On("GetByID", ctx, int64(7)).Return(ownTicket(), nil)
		f.settings.On("AttachmentPolicy", ctx).Return(policy, nil)
		f.fileStore.On("Save", ctx, mock.Anything, mock.Anything).Return(int64(5), nil)
		f.attachmentRepo.On("Create", ctx, mock.MatchedBy(func(att *domain.Attachment) bool {
			return att.SizeBytes == 5 && att.OriginalName == "notes.txt" && att.ContentType == "text/plain"
		})).Return(&domain.Attachment{ID: 1, TicketID: 7, OriginalName: "notes.txt", SizeBytes: 5}, nil)
		f.activityRepo.On("Append", ctx, mock.Anything).Return(nil)

		att, err := f.svc.Upload(ctx, uploadParams(7, actor, "notes.txt", 5, "hello"))
		require.NoError(t, err)
		assert.Equal(t, int64(5), att.SizeBytes)
		f.attachmentRepo.AssertExpectations(t)
	})

	t.Run("extension outside the allow-list rejected", func(t *testing.T) {
		f := newAttachmentServiceFixture()
		actor := userIdentity(creatorID, "alice")

		f.ticketRepo.On("GetByID", ctx, int64(7)).Return(ownTicket(), nil)
		f.settings.On("AttachmentPolicy", ctx).Return(policy, nil)

		_, err := f.svc.Upload(ctx, uploadParams(7, actor, "payload.exe", 5, "hello"))
		assert.ErrorIs(t, err, apperrors.ErrFileTypeForbidden)
		f.fileStore.AssertNotCalled(t, "Save")
	})

	t.Run("declared size over the limit rejected", func(t *testing.T) {
		f := newAttachmentServiceFixture()
		actor := userIdentity(creatorID, "alice")

		f.ticketRepo.On("GetByID", ctx, int64(7)).Return(ownTicket(), nil)
		f.settings.On("AttachmentPolicy", ctx).Return(policy, nil)

		_, err := f.svc.Upload(ctx, uploadParams(7, actor, "big.txt", 4096, "hello"))
		assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)
		f.fileStore.AssertNotCalled(t, "Save")
	})

	t.Run("understated size caught after writing and file removed", func(t *testing.T) {
		f := newAttachmentServiceFixture()
		actor := userIdentity(creatorID, "alice")

		f.ticketRepo.On("GetByID", ctx, int64(7)).Return(ownTicket(), nil)
		f.settings.On("AttachmentPolicy", ctx).Return(policy, nil)
		f.fileStore.On("Save", ctx, mock.Anything, mock.Anything).Return(policy.MaxSizeBytes+1, nil)
		f.fileStore.On("Delete", ctx, mock.Anything).Return(nil)

		_, err := f.svc.Upload(ctx, uploadParams(7, actor, "liar.txt", 5, strings.Repeat("x", 2048)))
		assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)
		f.fileStore.AssertCalled(t, "Delete", ctx, mock.Anything)
		f.attachmentRepo.AssertNotCalled(t, "Create")
	})

	t.Run("outsider cannot attach", func(t *testing.T) {
		f := newAttachmentServiceFixture()
		actor := userIdentity(uuid.New(), "mallory")

		f.ticketRepo.On("GetByID", ctx, int64(7)).Return(ownTicket(), nil)

		_, err := f.svc.Upload(ctx, uploadParams(7, actor, "notes.txt", 5, "hello"))
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestAttachmentService_Download(t *testing.T) {
	ctx := context.Background()
	creatorID := uuid.New()
	att := &domain.Attachment{ID: 3, TicketID: 7, StoredName: "abc_notes.txt", OriginalName: "notes.txt"}
	ticket := &domain.Ticket{ID: 7, CreatorID: creatorID, Status: domain.StatusOpen}

	t.Run("permission re-validated against the parent ticket", func(t *testing.T) {
		f := newAttachmentServiceFixture()

		f.attachmentRepo.On("GetByID", ctx, int64(3)).Return(att, nil)
		f.ticketRepo.On("GetByID", ctx, int64(7)).Return(ticket, nil)

		_, _, err := f.svc.Download(ctx, 3, userIdentity(uuid.New(), "mallory"))
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		f.fileStore.AssertNotCalled(t, "Open")
	})
}
