package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"library-lite/internal/domains/member/service"
)

// ExpiryReminderHandler xử lý task member:expiry_reminders
type ExpiryReminderHandler struct {
	service service.ServiceInterface
}

func NewExpiryReminderHandler(service service.ServiceInterface) *ExpiryReminderHandler {
	return &ExpiryReminderHandler{service: service}
}

func (h *ExpiryReminderHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	n, err := h.service.SendExpiryReminders(ctx)
	if err != nil {
		log.Error().Err(err).Str("task", t.Type()).Msg("membership reminders failed")
		return fmt.Errorf("membership reminders: %w", err)
	}
	log.Info().Int("reminded", n).Msg("membership reminders completed")
	return nil
}
