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

const maxEvaluationsPerPage = 100

// EvaluationHandler handles HTTP requests for ticket evaluations.
type EvaluationHandler struct {
	evaluationService ports.EvaluationService
	errorHandler      *ErrorHandler
	logger            *slog.Logger
}

// NewEvaluationHandler creates a new evaluation handler.
func NewEvaluationHandler(evaluationService ports.EvaluationService, errorHandler *ErrorHandler, logger *slog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		evaluationService: evaluationService,
		errorHandler:      errorHandler,
		logger:            logger.With("handler", "evaluation"),
	}
}

// RegisterTicketRoutes registers evaluation routes nested under a ticket.
func (h *EvaluationHandler) RegisterTicketRoutes(r chi.Router) {
	r.Get("/", h.HandleGetEvaluation)
	r.Post("/", h.HandleCreateEvaluation)
}

// RegisterStaffRoutes registers the staff-only evaluation listing.
func (h *EvaluationHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/", h.HandleListEvaluations)
}

// CreateEvaluationRequest defines the expected JSON body for an evaluation
type CreateEvaluationRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Validate validates the create evaluation request
func (r *CreateEvaluationRequest) Validate() error {
	v := validation.NewValidator()

	v.Range("rating", r.Rating, 1, 5)
	v.MaxLength("comment", r.Comment, domain.MaxCommentLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// EvaluationDTO defines the JSON response for evaluations.
type EvaluationDTO struct {
	ID        int64  `json:"id"`
	TicketID  int64  `json:"ticketId"`
	UserID    string `json:"userId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func toEvaluationDTO(ev *domain.Evaluation) EvaluationDTO {
	return EvaluationDTO{
		ID:        ev.ID,
		TicketID:  ev.TicketID,
		UserID:    ev.UserID.String(),
		Rating:    ev.Rating,
		Comment:   ev.Comment,
		CreatedAt: ev.CreatedAt.Format(time.RFC3339),
	}
}

// HandleCreateEvaluation handles POST /tickets/{ticketID}/evaluation
func (h *EvaluationHandler) HandleCreateEvaluation(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	ticketID, err := parseIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[CreateEvaluationRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	evaluation, err := h.evaluationService.CreateEvaluation(r.Context(), ticketID, req.Rating, req.Comment, identity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket evaluated",
		"ticket_id", ticketID,
		"rating", req.Rating,
		"user_id", identity.UserID,
	)

	WriteCreated(w, toEvaluationDTO(evaluation))
}

// HandleGetEvaluation handles GET /tickets/{ticketID}/evaluation
func (h *EvaluationHandler) HandleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	ticketID, err := parseIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	evaluation, err := h.evaluationService.GetForTicket(r.Context(), ticketID, identity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toEvaluationDTO(evaluation))
}

// HandleListEvaluations handles GET /evaluations
func (h *EvaluationHandler) HandleListEvaluations(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	pagination := validation.ParsePagination(r, maxEvaluationsPerPage)

	evaluations, err := h.evaluationService.ListEvaluations(r.Context(), identity, pagination.Limit, pagination.Offset)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := make([]EvaluationDTO, 0, len(evaluations))
	for _, ev := range evaluations {
		response = append(response, toEvaluationDTO(ev))
	}

	WriteList(w, response)
}
