package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	mw "github.com/hdesk/helpdesk-backend/internal/adapters/primary/http/middleware"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
)

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	return mw.GetRequestID(ctx)
}

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ValidationErrorResponse includes field-level validation errors
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error and writes the appropriate HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	requestID := GetRequestID(r.Context())

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.logError(r, appErr.StatusCode, appErr.Err, requestID)
		h.writeErrorResponse(w, appErr.StatusCode, ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})
		return
	}

	var validationErrs *apperrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.logError(r, http.StatusUnprocessableEntity, err, requestID)
		h.writeValidationErrorResponse(w, validationErrs)
		return
	}

	statusCode, response := h.mapDomainError(err)
	h.logError(r, statusCode, err, requestID)
	h.writeErrorResponse(w, statusCode, response)
}

// mapDomainError converts domain errors to HTTP status codes and responses
func (h *ErrorHandler) mapDomainError(err error) (int, ErrorResponse) {
	switch {
	// Authentication & Authorization
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorResponse{
			Error: "Invalid credentials",
			Code:  "INVALID_CREDENTIALS",
		}
	case errors.Is(err, apperrors.ErrAccountDisabled):
		return http.StatusForbidden, ErrorResponse{
			Error: "This account has been disabled",
			Code:  "ACCOUNT_DISABLED",
		}
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{
			Error: "Authentication required",
			Code:  "UNAUTHORIZED",
		}
	case errors.Is(err, apperrors.ErrForbidden),
		errors.Is(err, apperrors.ErrNotTicketCreator):
		return http.StatusForbidden, ErrorResponse{
			Error: "You do not have permission to perform this action",
			Code:  "FORBIDDEN",
		}

	// Not Found errors
	case errors.Is(err, apperrors.ErrUserNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "User not found",
			Code:  "USER_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrTicketNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Ticket not found",
			Code:  "TICKET_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrCommentNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Comment not found",
			Code:  "COMMENT_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrCategoryNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Category not found",
			Code:  "CATEGORY_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrAttachmentNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Attachment not found",
			Code:  "ATTACHMENT_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrEvaluationNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Evaluation not found",
			Code:  "EVALUATION_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrSettingNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Setting not found",
			Code:  "SETTING_NOT_FOUND",
		}

	// Conflict errors
	case errors.Is(err, apperrors.ErrUserExists):
		return http.StatusConflict, ErrorResponse{
			Error: "A user with this username or email already exists",
			Code:  "USER_EXISTS",
		}
	case errors.Is(err, apperrors.ErrCategoryExists):
		return http.StatusConflict, ErrorResponse{
			Error: "A category with this name already exists",
			Code:  "CATEGORY_EXISTS",
		}
	case errors.Is(err, apperrors.ErrCategoryInUse):
		return http.StatusConflict, ErrorResponse{
			Error: "Category still has tickets assigned",
			Code:  "CATEGORY_IN_USE",
		}
	case errors.Is(err, apperrors.ErrEvaluationExists):
		return http.StatusConflict, ErrorResponse{
			Error: "This ticket has already been evaluated",
			Code:  "EVALUATION_EXISTS",
		}

	// Validation errors
	case errors.Is(err, apperrors.ErrTitleRequired),
		errors.Is(err, apperrors.ErrTitleTooLong),
		errors.Is(err, apperrors.ErrDescriptionTooLong),
		errors.Is(err, apperrors.ErrInvalidPriority),
		errors.Is(err, apperrors.ErrInvalidStatus),
		errors.Is(err, apperrors.ErrInvalidRole),
		errors.Is(err, apperrors.ErrCommentBodyRequired),
		errors.Is(err, apperrors.ErrCommentBodyTooLong),
		errors.Is(err, apperrors.ErrEmailRequired),
		errors.Is(err, apperrors.ErrEmailInvalid),
		errors.Is(err, apperrors.ErrUsernameRequired),
		errors.Is(err, apperrors.ErrPasswordTooWeak),
		errors.Is(err, apperrors.ErrPasswordRequired),
		errors.Is(err, apperrors.ErrFullNameRequired),
		errors.Is(err, apperrors.ErrInvalidRating),
		errors.Is(err, apperrors.ErrFileNameRequired):
		return http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		}

	// Business rule violations
	case errors.Is(err, apperrors.ErrTicketLocked):
		return http.StatusBadRequest, ErrorResponse{
			Error: "Ticket can no longer be edited",
			Code:  "TICKET_LOCKED",
		}
	case errors.Is(err, apperrors.ErrAssigneeNotStaff):
		return http.StatusBadRequest, ErrorResponse{
			Error: "Assignee must be a technician or admin",
			Code:  "ASSIGNEE_NOT_STAFF",
		}
	case errors.Is(err, apperrors.ErrTicketNotResolved):
		return http.StatusBadRequest, ErrorResponse{
			Error: "Only resolved or closed tickets can be evaluated",
			Code:  "TICKET_NOT_RESOLVED",
		}
	case errors.Is(err, apperrors.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: "File exceeds the maximum allowed size",
			Code:  "FILE_TOO_LARGE",
		}
	case errors.Is(err, apperrors.ErrFileTypeForbidden):
		return http.StatusBadRequest, ErrorResponse{
			Error: "File type is not allowed",
			Code:  "FILE_TYPE_FORBIDDEN",
		}

	// Rate limiting
	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{
			Error: "Too many requests. Please try again later.",
			Code:  "RATE_LIMITED",
		}

	// Default to internal server error
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "An unexpected error occurred",
			Code:  "INTERNAL_ERROR",
		}
	}
}

// logError logs the error with appropriate context
func (h *ErrorHandler) logError(r *http.Request, statusCode int, err error, requestID string) {
	logAttrs := []any{
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", statusCode,
		"error", err.Error(),
	}

	switch {
	case statusCode >= 500:
		h.logger.Error("server error", logAttrs...)
	case statusCode >= 400:
		h.logger.Warn("client error", logAttrs...)
	default:
		h.logger.Info("request error", logAttrs...)
	}
}

// writeErrorResponse writes a JSON error response
func (h *ErrorHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, response ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// writeValidationErrorResponse writes a validation error response
func (h *ErrorHandler) writeValidationErrorResponse(w http.ResponseWriter, errs *apperrors.ValidationErrors) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(ValidationErrorResponse{
		Error:  "Validation failed",
		Code:   "VALIDATION_ERROR",
		Fields: errs.Errors,
	})
}
