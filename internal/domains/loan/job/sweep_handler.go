package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"library-lite/internal/domains/loan/service"
)

// OverdueSweepHandler xử lý task loan:overdue_sweep
type OverdueSweepHandler struct {
	service service.ServiceInterface
}

func NewOverdueSweepHandler(service service.ServiceInterface) *OverdueSweepHandler {
	return &OverdueSweepHandler{service: service}
}

func (h *OverdueSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	n, err := h.service.SweepOverdue(ctx)
	if err != nil {
		log.Error().Err(err).Str("task", t.Type()).Msg("overdue sweep failed")
		return fmt.Errorf("overdue sweep: %w", err)
	}
	log.Info().Int("flipped", n).Msg("overdue sweep completed")
	return nil
}

// DueReminderHandler xử lý task loan:due_reminders
type DueReminderHandler struct {
	service service.ServiceInterface
}

func NewDueReminderHandler(service service.ServiceInterface) *DueReminderHandler {
	return &DueReminderHandler{service: service}
}

func (h *DueReminderHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	n, err := h.service.SendDueReminders(ctx)
	if err != nil {
		log.Error().Err(err).Str("task", t.Type()).Msg("due reminders failed")
		return fmt.Errorf("due reminders: %w", err)
	}
	log.Info().Int("reminded", n).Msg("due reminders completed")
	return nil
}
