package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hdesk/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// CommentHandler handles HTTP requests for ticket comments.
type CommentHandler struct {
	commentService ports.CommentService
	errorHandler   *ErrorHandler
	logger         *slog.Logger
}

// NewCommentHandler creates a new comment handler.
func NewCommentHandler(commentService ports.CommentService, errorHandler *ErrorHandler, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		errorHandler:   errorHandler,
		logger:         logger.With("handler", "comment"),
	}
}

// RegisterRoutes registers comment routes nested under a ticket.
func (h *CommentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListComments)
	r.Post("/", h.HandleCreateComment)
}

// CreateCommentRequest defines the expected JSON body for creating a comment
type CreateCommentRequest struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"isInternal"`
}

// Validate validates the create comment request
func (r *CreateCommentRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("content", r.Content).
		MaxLength("content", r.Content, domain.MaxCommentLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// CommentDTO defines the JSON response for comments.
type CommentDTO struct {
	ID         int64  `json:"id"`
	TicketID   int64  `json:"ticketId"`
	AuthorID   string `json:"authorId"`
	Content    string `json:"content"`
	IsInternal bool   `json:"isInternal"`
	CreatedAt  string `json:"createdAt"`
}

func toCommentDTO(comment *domain.Comment) CommentDTO {
	return CommentDTO{
		ID:         comment.ID,
		TicketID:   comment.TicketID,
		AuthorID:   comment.AuthorID.String(),
		Content:    comment.Content,
		IsInternal: comment.IsInternal,
		CreatedAt:  comment.CreatedAt.Format(time.RFC3339),
	}
}

// HandleListComments handles GET /tickets/{ticketID}/comments
func (h *CommentHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	ticketID, err := parseIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	comments, err := h.commentService.ListComments(r.Context(), ticketID, identity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := make([]CommentDTO, 0, len(comments))
	for _, comment := range comments {
		response = append(response, toCommentDTO(comment))
	}

	WriteList(w, response)
}

// HandleCreateComment handles POST /tickets/{ticketID}/comments
func (h *CommentHandler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	ticketID, err := parseIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[CreateCommentRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	comment, err := h.commentService.CreateComment(r.Context(), ports.CreateCommentParams{
		TicketID:   ticketID,
		Content:    req.Content,
		IsInternal: req.IsInternal,
		Actor:      identity,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("comment created",
		"ticket_id", ticketID,
		"comment_id", comment.ID,
		"user_id", identity.UserID,
	)

	WriteCreated(w, toCommentDTO(comment))
}
