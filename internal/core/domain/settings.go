package domain

import "time"

// SystemSetting is a key/value configuration row editable by admins at runtime.
type SystemSetting struct {
	Key         string
	Value       string
	Description string
	UpdatedAt   *time.Time
}

// Well-known setting keys.
const (
	SettingSiteName            = "site_name"
	SettingMaxAttachmentSizeMB = "max_attachment_size_mb"
	SettingAllowedExtensions   = "allowed_extensions"
	SettingDefaultPriority     = "default_priority"
	SettingAutoCloseDays       = "auto_close_days"
)
