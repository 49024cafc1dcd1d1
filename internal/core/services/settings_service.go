package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// SettingsService manages runtime system settings. The configured defaults
// apply whenever a key has no database row.
type SettingsService struct {
	settingsRepo ports.SettingsRepository

	defaultMaxSizeMB  int64
	defaultExtensions []string
}

var _ ports.SettingsService = (*SettingsService)(nil)

func NewSettingsService(settingsRepo ports.SettingsRepository, defaultMaxSizeMB int64, defaultExtensions []string) *SettingsService {
	return &SettingsService{
		settingsRepo:      settingsRepo,
		defaultMaxSizeMB:  defaultMaxSizeMB,
		defaultExtensions: defaultExtensions,
	}
}

func (s *SettingsService) GetSettings(ctx context.Context, actor ports.Identity) ([]*domain.SystemSetting, error) {
	if !actor.Role.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	return s.settingsRepo.GetAll(ctx)
}

func (s *SettingsService) UpdateSetting(ctx context.Context, key, value string, actor ports.Identity) (*domain.SystemSetting, error) {
	if !actor.Role.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	if key == "" {
		return nil, apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Setting key is required")
	}
	if err := validateSetting(key, value); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.settingsRepo.Upsert(ctx, &domain.SystemSetting{
		Key:       key,
		Value:     value,
		UpdatedAt: &now,
	})
}

// AttachmentPolicy resolves the upload constraints from settings, falling
// back to configured defaults when rows are absent or unparsable.
func (s *SettingsService) AttachmentPolicy(ctx context.Context) (domain.AttachmentPolicy, error) {
	policy := domain.AttachmentPolicy{
		MaxSizeBytes:      s.defaultMaxSizeMB * 1024 * 1024,
		AllowedExtensions: s.defaultExtensions,
	}

	if setting, err := s.settingsRepo.Get(ctx, domain.SettingMaxAttachmentSizeMB); err == nil {
		if mb, parseErr := strconv.ParseInt(setting.Value, 10, 64); parseErr == nil && mb > 0 {
			policy.MaxSizeBytes = mb * 1024 * 1024
		}
	} else if !errors.Is(err, apperrors.ErrSettingNotFound) {
		return policy, err
	}

	if setting, err := s.settingsRepo.Get(ctx, domain.SettingAllowedExtensions); err == nil && setting.Value != "" {
		policy.AllowedExtensions = splitExtensions(setting.Value)
	} else if err != nil && !errors.Is(err, apperrors.ErrSettingNotFound) {
		return policy, err
	}

	return policy, nil
}

func validateSetting(key, value string) error {
	switch key {
	case domain.SettingMaxAttachmentSizeMB, domain.SettingAutoCloseDays:
		if n, err := strconv.ParseInt(value, 10, 64); err != nil || n <= 0 {
			return apperrors.NewValidationError(apperrors.ErrBadRequest, "Value must be a positive integer", nil)
		}
	case domain.SettingDefaultPriority:
		if !domain.ValidPriority(domain.TicketPriority(value)) {
			return apperrors.NewValidationError(apperrors.ErrBadRequest, "Value must be a valid priority", nil)
		}
	}
	return nil
}

func splitExtensions(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(strings.TrimPrefix(p, ".")); trimmed != "" {
			out = append(out, strings.ToLower(trimmed))
		}
	}
	return out
}
