package memstore

import (
	"context"
	"sync"

	"library-lite/internal/shared"
)

// Outbox là queue.Notifier ghi lại các email payload thay vì enqueue
type Outbox struct {
	mu   sync.Mutex
	sent []shared.EmailPayload
}

func (o *Outbox) Notify(ctx context.Context, payload shared.EmailPayload) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, payload)
}

func (o *Outbox) Sent(template shared.EmailTemplate) []shared.EmailPayload {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []shared.EmailPayload
	for _, p := range o.sent {
		if p.Template == template {
			out = append(out, p)
		}
	}
	return out
}
