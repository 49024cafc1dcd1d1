package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hdesk/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

const maxTicketsPerPage = 100

// TicketHandler handles HTTP requests for tickets
type TicketHandler struct {
	ticketService     ports.TicketService
	commentHandler    *CommentHandler
	attachmentHandler *AttachmentHandler
	evaluationHandler *EvaluationHandler
	errorHandler      *ErrorHandler
	logger            *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(
	ticketService ports.TicketService,
	commentHandler *CommentHandler,
	attachmentHandler *AttachmentHandler,
	evaluationHandler *EvaluationHandler,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *TicketHandler {
	return &TicketHandler{
		ticketService:     ticketService,
		commentHandler:    commentHandler,
		attachmentHandler: attachmentHandler,
		evaluationHandler: evaluationHandler,
		errorHandler:      errorHandler,
		logger:            logger.With("handler", "ticket"),
	}
}

// RegisterRoutes sets up the routing for all ticket endpoints.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListTickets)
	r.Post("/", h.HandleCreateTicket)

	r.Route("/{ticketID}", func(r chi.Router) {
		r.Get("/", h.HandleGetTicket)
		r.Patch("/", h.HandleUpdateTicket)
		r.Delete("/", h.HandleDeleteTicket)
		r.Get("/activities", h.HandleListActivities)

		if h.commentHandler != nil {
			r.Route("/comments", h.commentHandler.RegisterRoutes)
		}
		if h.attachmentHandler != nil {
			r.Route("/attachments", h.attachmentHandler.RegisterTicketRoutes)
		}
		if h.evaluationHandler != nil {
			r.Route("/evaluation", h.evaluationHandler.RegisterTicketRoutes)
		}
	})
}

// --- Request/Response DTOs ---

// CreateTicketRequest defines the expected JSON body for creating a ticket
type CreateTicketRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	CategoryID  *int64  `json:"categoryId"`
	AssigneeID  *string `json:"assigneeId"`
}

// Validate validates the create ticket request
func (r *CreateTicketRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("title", r.Title).
		MaxLength("title", r.Title, domain.MaxTitleLength)

	v.MaxLength("description", r.Description, domain.MaxDescriptionLength)

	v.OneOf("priority", r.Priority, []string{"low", "medium", "high", "urgent", "critical"})

	if r.AssigneeID != nil {
		v.UUID("assigneeId", *r.AssigneeID)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateTicketRequest defines the expected JSON body for a partial update.
// Absent fields are left untouched; a null assigneeId clears the assignment.
type UpdateTicketRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Solution    *string `json:"solution"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	CategoryID  *int64  `json:"categoryId"`
	AssigneeID  *string `json:"assigneeId"`
}

// Validate validates the update ticket request
func (r *UpdateTicketRequest) Validate() error {
	v := validation.NewValidator()

	if r.Status != nil {
		v.OneOf("status", *r.Status, []string{"open", "in_progress", "waiting_user", "resolved", "closed", "reopened"})
	}
	if r.Priority != nil {
		v.OneOf("priority", *r.Priority, []string{"low", "medium", "high", "urgent", "critical"})
	}
	if r.AssigneeID != nil && *r.AssigneeID != "" {
		v.UUID("assigneeId", *r.AssigneeID)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// toPatch converts the request into a domain patch. An explicit empty
// assigneeId maps to uuid.Nil, which clears the assignment.
func (r *UpdateTicketRequest) toPatch() domain.TicketUpdate {
	patch := domain.TicketUpdate{
		Title:       r.Title,
		Description: r.Description,
		Solution:    r.Solution,
		CategoryID:  r.CategoryID,
	}
	if r.Status != nil {
		status := domain.TicketStatus(*r.Status)
		patch.Status = &status
	}
	if r.Priority != nil {
		priority := domain.TicketPriority(*r.Priority)
		patch.Priority = &priority
	}
	if r.AssigneeID != nil {
		id := uuid.Nil
		if *r.AssigneeID != "" {
			id, _ = uuid.Parse(*r.AssigneeID)
		}
		patch.AssigneeID = &id
	}
	return patch
}

// TicketDTO defines the JSON response for tickets.
type TicketDTO struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Solution    string  `json:"solution,omitempty"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	CategoryID  *int64  `json:"categoryId"`
	CreatorID   string  `json:"creatorId"`
	AssigneeID  *string `json:"assigneeId"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   *string `json:"updatedAt"`
	ResolvedAt  *string `json:"resolvedAt"`
	ClosedAt    *string `json:"closedAt"`
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	value := t.Format(time.RFC3339)
	return &value
}

func toTicketDTO(ticket *domain.Ticket) TicketDTO {
	var assigneeID *string
	if ticket.AssigneeID != nil {
		value := ticket.AssigneeID.String()
		assigneeID = &value
	}

	return TicketDTO{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Solution:    ticket.Solution,
		Status:      string(ticket.Status),
		Priority:    string(ticket.Priority),
		CategoryID:  ticket.CategoryID,
		CreatorID:   ticket.CreatorID.String(),
		AssigneeID:  assigneeID,
		CreatedAt:   ticket.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   formatTimePtr(ticket.UpdatedAt),
		ResolvedAt:  formatTimePtr(ticket.ResolvedAt),
		ClosedAt:    formatTimePtr(ticket.ClosedAt),
	}
}

func toTicketDTOs(tickets []*domain.Ticket) []TicketDTO {
	response := make([]TicketDTO, 0, len(tickets))
	for _, ticket := range tickets {
		response = append(response, toTicketDTO(ticket))
	}
	return response
}

// ActivityDTO defines the JSON response for audit entries.
type ActivityDTO struct {
	ID        int64  `json:"id"`
	TicketID  int64  `json:"ticketId"`
	ActorID   string `json:"actorId"`
	Action    string `json:"action"`
	Field     string `json:"field,omitempty"`
	OldValue  string `json:"oldValue,omitempty"`
	NewValue  string `json:"newValue,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func toActivityDTOs(activities []*domain.Activity) []ActivityDTO {
	response := make([]ActivityDTO, 0, len(activities))
	for _, a := range activities {
		response = append(response, ActivityDTO{
			ID:        a.ID,
			TicketID:  a.TicketID,
			ActorID:   a.ActorID.String(),
			Action:    a.Action,
			Field:     a.Field,
			OldValue:  a.OldValue,
			NewValue:  a.NewValue,
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		})
	}
	return response
}

// --- Handlers ---

// HandleListTickets handles GET /tickets
func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	pagination := validation.ParsePagination(r, maxTicketsPerPage)

	filter := domain.TicketFilter{
		Limit:  pagination.Limit,
		Offset: pagination.Offset,
	}

	v := validation.NewValidator()

	if status := r.URL.Query().Get("status"); status != "" {
		parsed := domain.TicketStatus(status)
		if !domain.ValidStatus(parsed) {
			v.Custom("status", false, "Unknown status")
		}
		filter.Status = &parsed
	}
	if priority := r.URL.Query().Get("priority"); priority != "" {
		parsed := domain.TicketPriority(priority)
		if !domain.ValidPriority(parsed) {
			v.Custom("priority", false, "Unknown priority")
		}
		filter.Priority = &parsed
	}
	filter.CategoryID = validation.ParseInt64QueryParam(r, "categoryId")
	if search := validation.ParseStringQueryParam(r, "search"); search != nil {
		filter.Search = *search
	}
	if assigneeStr := r.URL.Query().Get("assigneeId"); assigneeStr != "" {
		assigneeID, err := uuid.Parse(assigneeStr)
		if err != nil {
			v.Custom("assigneeId", false, "Must be a valid UUID")
		} else {
			filter.AssigneeID = &assigneeID
		}
	}
	if creatorStr := r.URL.Query().Get("creatorId"); creatorStr != "" {
		creatorID, err := uuid.Parse(creatorStr)
		if err != nil {
			v.Custom("creatorId", false, "Must be a valid UUID")
		} else {
			filter.CreatorID = &creatorID
		}
	}

	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	tickets, total, err := h.ticketService.ListTickets(r.Context(), ports.ListTicketsParams{
		Filter: filter,
		Actor:  identity,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WritePaginated(w, toTicketDTOs(tickets), pagination.Limit, pagination.Offset, total)
}

// HandleCreateTicket handles POST /tickets
func (h *TicketHandler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[CreateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.CreateTicketParams{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.TicketPriority(req.Priority),
		CategoryID:  req.CategoryID,
		Actor:       identity,
	}
	if req.AssigneeID != nil {
		if assigneeID, err := uuid.Parse(*req.AssigneeID); err == nil {
			params.AssigneeID = &assigneeID
		}
	}

	ticket, err := h.ticketService.CreateTicket(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket created",
		"ticket_id", ticket.ID,
		"user_id", identity.UserID,
	)

	WriteCreated(w, toTicketDTO(ticket))
}

// HandleGetTicket handles GET /tickets/{ticketID}
func (h *TicketHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	ticketID, err := parseIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.GetTicket(r.Context(), ticketID, identity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// HandleUpdateTicket handles PATCH /tickets/{ticketID}
func (h *TicketHandler) HandleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	ticketID, err := parseIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.UpdateTicket(r.Context(), ports.UpdateTicketParams{
		TicketID: ticketID,
		Patch:    req.toPatch(),
		Actor:    identity,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket updated",
		"ticket_id", ticketID,
		"user_id", identity.UserID,
	)

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// HandleDeleteTicket handles DELETE /tickets/{ticketID}
func (h *TicketHandler) HandleDeleteTicket(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	ticketID, err := parseIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.ticketService.DeleteTicket(r.Context(), ticketID, identity); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket deleted",
		"ticket_id", ticketID,
		"user_id", identity.UserID,
	)

	WriteNoContent(w)
}

// HandleListActivities handles GET /tickets/{ticketID}/activities
func (h *TicketHandler) HandleListActivities(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	ticketID, err := parseIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	activities, err := h.ticketService.ListActivities(r.Context(), ticketID, identity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toActivityDTOs(activities))
}
