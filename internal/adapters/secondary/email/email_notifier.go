package email

import (
	"context"
	"log/slog"

	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// LogNotifier is a secondary adapter that records outgoing mail in the log
// instead of talking to an SMTP server. It implements ports.Notifier and is
// the default delivery backend until a mail relay is configured.
type LogNotifier struct {
	userRepo ports.UserRepository
	logger   *slog.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(userRepo ports.UserRepository, logger *slog.Logger) *LogNotifier {
	return &LogNotifier{
		userRepo: userRepo,
		logger:   logger.With("component", "email_notifier"),
	}
}

// Notify resolves the recipient and logs the message. Callers fire this in a
// goroutine, so the request context may already be cancelled; a fresh
// background context keeps the lookup alive.
func (n *LogNotifier) Notify(ctx context.Context, params ports.NotificationParams) {
	notifyCtx := context.Background()

	user, err := n.userRepo.GetByID(notifyCtx, params.RecipientUserID)
	if err != nil {
		n.logger.Error("failed to resolve notification recipient",
			"user_id", params.RecipientUserID,
			"error", err,
		)
		return
	}

	n.logger.Info("email queued",
		"to_name", user.FullName,
		"to_email", user.Email,
		"subject", params.Subject,
		"ticket_id", params.TicketID,
	)
}
