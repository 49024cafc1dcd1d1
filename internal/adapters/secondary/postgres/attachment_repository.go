package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

type AttachmentRepository struct {
	pool *pgxpool.Pool
}

var _ ports.AttachmentRepository = (*AttachmentRepository)(nil)

func NewAttachmentRepository(pool *pgxpool.Pool) *AttachmentRepository {
	return &AttachmentRepository{pool: pool}
}

const attachmentColumns = `id, ticket_id, uploader_id, original_name, stored_name, content_type, size_bytes, created_at`

func scanAttachment(row pgx.Row) (*domain.Attachment, error) {
	var a domain.Attachment
	err := row.Scan(&a.ID, &a.TicketID, &a.UploaderID, &a.OriginalName, &a.StoredName, &a.ContentType, &a.SizeBytes, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAttachmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AttachmentRepository) Create(ctx context.Context, att *domain.Attachment) (*domain.Attachment, error) {
	const query = `
INSERT INTO ticket_attachments (ticket_id, uploader_id, original_name, stored_name, content_type, size_bytes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + attachmentColumns

	return scanAttachment(GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		att.TicketID, att.UploaderID, att.OriginalName, att.StoredName, att.ContentType, att.SizeBytes, att.CreatedAt))
}

func (r *AttachmentRepository) GetByID(ctx context.Context, id int64) (*domain.Attachment, error) {
	const query = `SELECT ` + attachmentColumns + ` FROM ticket_attachments WHERE id = $1`
	return scanAttachment(GetDBTX(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *AttachmentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]*domain.Attachment, error) {
	const query = `
SELECT ` + attachmentColumns + `
FROM ticket_attachments
WHERE ticket_id = $1
ORDER BY created_at`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := make([]*domain.Attachment, 0)
	for rows.Next() {
		att, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, att)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attachments, nil
}

func (r *AttachmentRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM ticket_attachments WHERE id = $1`

	tag, err := GetDBTX(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAttachmentNotFound
	}
	return nil
}
