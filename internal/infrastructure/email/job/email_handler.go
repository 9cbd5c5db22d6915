package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"library-lite/internal/shared"
)

// Sender render và gửi một notification email
type Sender interface {
	Send(ctx context.Context, payload shared.EmailPayload) error
}

// ============================================
// Email Notification Handler
// ============================================

type NotificationHandler struct {
	sender Sender
}

func NewNotificationHandler(sender Sender) *NotificationHandler {
	return &NotificationHandler{sender: sender}
}

func (h *NotificationHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.EmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal EmailNotification payload")
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	log.Info().
		Str("template", string(payload.Template)).
		Str("email", payload.To).
		Msg("Processing email notification")

	if err := h.sender.Send(ctx, payload); err != nil {
		log.Error().Err(err).Str("template", string(payload.Template)).Msg("Failed to send notification email")
		return fmt.Errorf("send notification email: %w", err)
	}

	log.Info().
		Str("template", string(payload.Template)).
		Str("email", payload.To).
		Msg("Notification email sent successfully")

	return nil
}
