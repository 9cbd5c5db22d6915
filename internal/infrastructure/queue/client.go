package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"library-lite/internal/shared"
	"library-lite/pkg/logger"
)

// Notifier gửi email notification ở chế độ fire-and-forget:
// lỗi enqueue chỉ được log, không bao giờ làm fail request.
type Notifier interface {
	Notify(ctx context.Context, payload shared.EmailPayload)
}

type asynqNotifier struct {
	client *asynq.Client
}

func NewNotifier(client *asynq.Client) Notifier {
	return &asynqNotifier{client: client}
}

func (n *asynqNotifier) Notify(ctx context.Context, payload shared.EmailPayload) {
	if payload.To == "" {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal email payload", err)
		return
	}

	task := asynq.NewTask(shared.TypeSendEmail, b)
	if _, err := n.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
	); err != nil {
		logger.Error("Failed to enqueue email notification", err)
		return
	}

	logger.Info("Email notification enqueued", map[string]interface{}{
		"template": payload.Template,
		"to":       payload.To,
	})
}

// NopNotifier bỏ qua mọi notification (CLI, tests)
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, shared.EmailPayload) {}
