package domain

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
)

// Attachment is a file uploaded against a ticket. StoredName is the name on
// disk; OriginalName is what the uploader called it.
type Attachment struct {
	ID           int64
	TicketID     int64
	UploaderID   uuid.UUID
	OriginalName string
	StoredName   string
	ContentType  string
	SizeBytes    int64
	CreatedAt    time.Time
}

// AttachmentPolicy is the upload constraint set, sourced from configuration.
type AttachmentPolicy struct {
	MaxSizeBytes      int64
	AllowedExtensions []string
}

// Allows checks a candidate upload against the policy. Extension matching is
// case-insensitive.
func (p AttachmentPolicy) Allows(filename string, size int64) error {
	if filename == "" {
		return apperrors.ErrFileNameRequired
	}
	if size > p.MaxSizeBytes {
		return apperrors.ErrFileTooLarge
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, allowed := range p.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}
	return apperrors.ErrFileTypeForbidden
}

// NewAttachment builds the metadata record for an accepted upload. The stored
// name is prefixed with a fresh UUID so concurrent uploads of the same file
// never collide.
func NewAttachment(ticketID int64, uploaderID uuid.UUID, originalName, contentType string, size int64) *Attachment {
	return &Attachment{
		TicketID:     ticketID,
		UploaderID:   uploaderID,
		OriginalName: originalName,
		StoredName:   uuid.New().String() + "_" + filepath.Base(originalName),
		ContentType:  contentType,
		SizeBytes:    size,
		CreatedAt:    time.Now().UTC(),
	}
}
