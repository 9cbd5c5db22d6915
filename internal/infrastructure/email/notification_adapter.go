package email

import (
	"context"
	"fmt"

	"library-lite/internal/shared"
)

// ================================================
// NOTIFICATION SENDER
// Render template từ payload rồi gửi qua EmailService
// ================================================

type NotificationSender struct {
	emailService EmailService
}

func NewNotificationSender(emailService EmailService) *NotificationSender {
	return &NotificationSender{emailService: emailService}
}

func (s *NotificationSender) Send(ctx context.Context, payload shared.EmailPayload) error {
	req, err := Render(payload)
	if err != nil {
		return err
	}
	if err := s.emailService.SendEmail(ctx, req); err != nil {
		return fmt.Errorf("send %s email: %w", payload.Template, err)
	}
	return nil
}
