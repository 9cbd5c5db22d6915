package main

import (
	"github.com/hibiken/asynq"

	loanJob "library-lite/internal/domains/loan/job"
	memberJob "library-lite/internal/domains/member/job"
	reservationJob "library-lite/internal/domains/reservation/job"
	"library-lite/internal/infrastructure/email"
	emailjob "library-lite/internal/infrastructure/email/job"
	"library-lite/internal/shared"
	"library-lite/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	// Email
	notification *emailjob.NotificationHandler

	// Scheduled sweeps
	overdueSweep      *loanJob.OverdueSweepHandler
	dueReminders      *loanJob.DueReminderHandler
	reservationExpiry *reservationJob.ExpirySweepHandler
	memberReminders   *memberJob.ExpiryReminderHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	emailCfg := c.Config.Email
	emailSvc := email.NewSMTPEmailService(emailCfg.SMTPHost, emailCfg.SMTPPort, emailCfg.From)

	return &HandlerRegistry{
		notification: emailjob.NewNotificationHandler(email.NewNotificationSender(emailSvc)),

		overdueSweep:      loanJob.NewOverdueSweepHandler(c.LoanService),
		dueReminders:      loanJob.NewDueReminderHandler(c.LoanService),
		reservationExpiry: reservationJob.NewExpirySweepHandler(c.ReservationService),
		memberReminders:   memberJob.NewExpiryReminderHandler(c.MemberService),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeSendEmail, h.notification.ProcessTask)

	mux.HandleFunc(shared.TypeOverdueSweep, h.overdueSweep.ProcessTask)
	mux.HandleFunc(shared.TypeDueReminders, h.dueReminders.ProcessTask)
	mux.HandleFunc(shared.TypeReservationExpirySweep, h.reservationExpiry.ProcessTask)
	mux.HandleFunc(shared.TypeMembershipReminders, h.memberReminders.ProcessTask)
}
