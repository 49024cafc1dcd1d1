package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// AttachmentService implements upload and download of ticket attachments.
// Every operation re-validates the actor's permission on the parent ticket.
type AttachmentService struct {
	attachmentRepo ports.AttachmentRepository
	ticketRepo     ports.TicketRepository
	activityRepo   ports.ActivityRepository
	settings       ports.SettingsService
	fileStore      ports.FileStore
	logger         *slog.Logger
}

var _ ports.AttachmentService = (*AttachmentService)(nil)

// NewAttachmentService creates a new attachment service
func NewAttachmentService(
	attachmentRepo ports.AttachmentRepository,
	ticketRepo ports.TicketRepository,
	activityRepo ports.ActivityRepository,
	settings ports.SettingsService,
	fileStore ports.FileStore,
	logger *slog.Logger,
) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		ticketRepo:     ticketRepo,
		activityRepo:   activityRepo,
		settings:       settings,
		fileStore:      fileStore,
		logger:         logger,
	}
}

// Upload stores a file against a ticket after checking the size and
// extension policy. The declared size is re-checked against the bytes
// actually written.
func (s *AttachmentService) Upload(ctx context.Context, params ports.UploadAttachmentParams) (*domain.Attachment, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanView(params.Actor.UserID, params.Actor.Role) {
		return nil, apperrors.ErrForbidden
	}

	policy, err := s.settings.AttachmentPolicy(ctx)
	if err != nil {
		return nil, err
	}
	if err := policy.Allows(params.FileName, params.Size); err != nil {
		return nil, err
	}

	att := domain.NewAttachment(params.TicketID, params.Actor.UserID, params.FileName, params.ContentType, params.Size)

	// Cap the reader at the policy limit so a lying Content-Length cannot
	// push an oversized body onto disk.
	written, err := s.fileStore.Save(ctx, att.StoredName, io.LimitReader(params.Content, policy.MaxSizeBytes+1))
	if err != nil {
		return nil, err
	}
	if written > policy.MaxSizeBytes {
		_ = s.fileStore.Delete(ctx, att.StoredName)
		return nil, apperrors.ErrFileTooLarge
	}
	att.SizeBytes = written

	created, err := s.attachmentRepo.Create(ctx, att)
	if err != nil {
		_ = s.fileStore.Delete(ctx, att.StoredName)
		return nil, err
	}

	if err := s.activityRepo.Append(ctx, []domain.Activity{{
		TicketID:  params.TicketID,
		ActorID:   params.Actor.UserID,
		Action:    domain.ActivityAttached,
		NewValue:  created.OriginalName,
		CreatedAt: time.Now().UTC(),
	}}); err != nil {
		s.logger.WarnContext(ctx, "attachment activity append failed",
			slog.Int64("attachment_id", created.ID),
			slog.String("error", err.Error()))
	}

	return created, nil
}

// Download opens an attachment's content after re-validating the actor's
// permission on the parent ticket.
func (s *AttachmentService) Download(ctx context.Context, attachmentID int64, actor ports.Identity) (*domain.Attachment, io.ReadCloser, error) {
	att, err := s.attachmentRepo.GetByID(ctx, attachmentID)
	if err != nil {
		return nil, nil, err
	}

	ticket, err := s.ticketRepo.GetByID(ctx, att.TicketID)
	if err != nil {
		return nil, nil, err
	}
	if !ticket.CanView(actor.UserID, actor.Role) {
		return nil, nil, apperrors.ErrForbidden
	}

	content, err := s.fileStore.Open(ctx, att.StoredName)
	if err != nil {
		return nil, nil, err
	}
	return att, content, nil
}

// ListForTicket returns attachment metadata for a ticket the actor may view.
func (s *AttachmentService) ListForTicket(ctx context.Context, ticketID int64, actor ports.Identity) ([]*domain.Attachment, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanView(actor.UserID, actor.Role) {
		return nil, apperrors.ErrForbidden
	}
	return s.attachmentRepo.ListByTicket(ctx, ticketID)
}

// Delete removes an attachment. Allowed for the uploader or staff.
func (s *AttachmentService) Delete(ctx context.Context, attachmentID int64, actor ports.Identity) error {
	att, err := s.attachmentRepo.GetByID(ctx, attachmentID)
	if err != nil {
		return err
	}
	if att.UploaderID != actor.UserID && !actor.Role.IsStaff() {
		return apperrors.ErrForbidden
	}

	if err := s.attachmentRepo.Delete(ctx, attachmentID); err != nil {
		return err
	}
	if err := s.fileStore.Delete(ctx, att.StoredName); err != nil {
		s.logger.WarnContext(ctx, "orphaned attachment file",
			slog.String("stored_name", att.StoredName),
			slog.String("error", err.Error()))
	}
	return nil
}
