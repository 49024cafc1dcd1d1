package http

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// multipartMemoryLimit caps how much of the upload is buffered in memory;
// the rest spills to temp files.
const multipartMemoryLimit = 4 << 20

// AttachmentHandler handles HTTP requests for ticket attachments.
type AttachmentHandler struct {
	attachmentService ports.AttachmentService
	errorHandler      *ErrorHandler
	logger            *slog.Logger
}

// NewAttachmentHandler creates a new attachment handler.
func NewAttachmentHandler(attachmentService ports.AttachmentService, errorHandler *ErrorHandler, logger *slog.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
		errorHandler:      errorHandler,
		logger:            logger.With("handler", "attachment"),
	}
}

// RegisterTicketRoutes registers attachment routes nested under a ticket.
func (h *AttachmentHandler) RegisterTicketRoutes(r chi.Router) {
	r.Get("/", h.HandleListAttachments)
	r.Post("/", h.HandleUpload)
}

// RegisterRoutes registers the top-level attachment routes.
func (h *AttachmentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{attachmentID}", h.HandleDownload)
	r.Delete("/{attachmentID}", h.HandleDelete)
}

// AttachmentDTO defines the JSON response for attachments.
type AttachmentDTO struct {
	ID           int64  `json:"id"`
	TicketID     int64  `json:"ticketId"`
	UploaderID   string `json:"uploaderId"`
	OriginalName string `json:"originalName"`
	ContentType  string `json:"contentType"`
	SizeBytes    int64  `json:"sizeBytes"`
	CreatedAt    string `json:"createdAt"`
}

func toAttachmentDTO(att *domain.Attachment) AttachmentDTO {
	return AttachmentDTO{
		ID:           att.ID,
		TicketID:     att.TicketID,
		UploaderID:   att.UploaderID.String(),
		OriginalName: att.OriginalName,
		ContentType:  att.ContentType,
		SizeBytes:    att.SizeBytes,
		CreatedAt:    att.CreatedAt.Format(time.RFC3339),
	}
}

// HandleListAttachments handles GET /tickets/{ticketID}/attachments
func (h *AttachmentHandler) HandleListAttachments(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	ticketID, err := parseIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	attachments, err := h.attachmentService.ListForTicket(r.Context(), ticketID, identity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := make([]AttachmentDTO, 0, len(attachments))
	for _, att := range attachments {
		response = append(response, toAttachmentDTO(att))
	}

	WriteList(w, response)
}

// HandleUpload handles POST /tickets/{ticketID}/attachments. The file is
// expected as a multipart form field named "file".
func (h *AttachmentHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	ticketID, err := parseIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Expected multipart form data"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Missing file field"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(header.Filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	att, err := h.attachmentService.Upload(r.Context(), ports.UploadAttachmentParams{
		TicketID:    ticketID,
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Content:     file,
		Actor:       identity,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("attachment uploaded",
		"ticket_id", ticketID,
		"attachment_id", att.ID,
		"size_bytes", att.SizeBytes,
		"user_id", identity.UserID,
	)

	WriteCreated(w, toAttachmentDTO(att))
}

// HandleDownload handles GET /attachments/{attachmentID}
func (h *AttachmentHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	attachmentID, err := parseIDParam(r, "attachmentID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	att, content, err := h.attachmentService.Download(r.Context(), attachmentID, identity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", att.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(att.SizeBytes, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.OriginalName}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, content); err != nil {
		h.logger.Warn("attachment download interrupted",
			"attachment_id", attachmentID,
			"error", err,
		)
	}
}

// HandleDelete handles DELETE /attachments/{attachmentID}
func (h *AttachmentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	attachmentID, err := parseIDParam(r, "attachmentID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.attachmentService.Delete(r.Context(), attachmentID, identity); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("attachment deleted",
		"attachment_id", attachmentID,
		"user_id", identity.UserID,
	)

	WriteNoContent(w)
}
