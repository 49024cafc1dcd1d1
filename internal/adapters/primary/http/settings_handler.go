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

// SettingsHandler handles admin system settings endpoints.
type SettingsHandler struct {
	settingsService ports.SettingsService
	errorHandler    *ErrorHandler
	logger          *slog.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(settingsService ports.SettingsService, errorHandler *ErrorHandler, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		errorHandler:    errorHandler,
		logger:          logger.With("handler", "settings"),
	}
}

// RegisterRoutes registers the settings routes.
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleGetSettings)
	r.Put("/{key}", h.HandleUpdateSetting)
}

// UpdateSettingRequest defines the expected JSON body for updating a setting
type UpdateSettingRequest struct {
	Value string `json:"value"`
}

// SettingDTO defines the JSON response for settings.
type SettingDTO struct {
	Key         string  `json:"key"`
	Value       string  `json:"value"`
	Description string  `json:"description,omitempty"`
	UpdatedAt   *string `json:"updatedAt"`
}

func toSettingDTO(setting *domain.SystemSetting) SettingDTO {
	dto := SettingDTO{
		Key:         setting.Key,
		Value:       setting.Value,
		Description: setting.Description,
	}
	if setting.UpdatedAt != nil {
		value := setting.UpdatedAt.Format(time.RFC3339)
		dto.UpdatedAt = &value
	}
	return dto
}

// HandleGetSettings handles GET /admin/settings
func (h *SettingsHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	settings, err := h.settingsService.GetSettings(r.Context(), identity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := make([]SettingDTO, 0, len(settings))
	for _, setting := range settings {
		response = append(response, toSettingDTO(setting))
	}

	WriteList(w, response)
}

// HandleUpdateSetting handles PUT /admin/settings/{key}
func (h *SettingsHandler) HandleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	key := chi.URLParam(r, "key")

	req, err := validation.DecodeAndValidate[UpdateSettingRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	setting, err := h.settingsService.UpdateSetting(r.Context(), key, req.Value, identity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("setting updated",
		"key", key,
		"user_id", identity.UserID,
	)

	WriteJSON(w, http.StatusOK, toSettingDTO(setting))
}
