package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"library-lite/internal/domains/reservation/service"
)

// ExpirySweepHandler xử lý task reservation:expiry_sweep
type ExpirySweepHandler struct {
	service service.ServiceInterface
}

func NewExpirySweepHandler(service service.ServiceInterface) *ExpirySweepHandler {
	return &ExpirySweepHandler{service: service}
}

func (h *ExpirySweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	n, err := h.service.SweepExpired(ctx)
	if err != nil {
		log.Error().Err(err).Str("task", t.Type()).Msg("reservation expiry sweep failed")
		return fmt.Errorf("reservation expiry sweep: %w", err)
	}
	log.Info().Int64("expired", n).Msg("reservation expiry sweep completed")
	return nil
}
