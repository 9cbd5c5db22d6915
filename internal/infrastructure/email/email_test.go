package email

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-lite/internal/shared"
)

func TestRenderTemplates(t *testing.T) {
	due := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

	req, err := Render(shared.EmailPayload{
		Template:  shared.TemplateBookDue,
		To:        "reader@example.com",
		Name:      "jane austen",
		BookTitle: "Emma",
		Date:      &due,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"reader@example.com"}, req.To)
	assert.Equal(t, "Book Due Reminder", req.Subject)
	assert.True(t, req.IsHTML)
	assert.Contains(t, req.Body, "Jane Austen")
	assert.Contains(t, req.Body, "Emma")
	assert.Contains(t, req.Body, "Monday, May 4, 2026")

	req, err = Render(shared.EmailPayload{
		Template:  shared.TemplateBookOverdue,
		To:        "reader@example.com",
		BookTitle: "1984",
		Days:      6,
		Amount:    "30",
	})
	require.NoError(t, err)
	assert.Contains(t, req.Body, "6 day(s)")
	assert.Contains(t, req.Body, "USD")
	assert.Contains(t, req.Body, "Reader")
}

func TestRenderEscapesHTML(t *testing.T) {
	req, err := Render(shared.EmailPayload{
		Template:  shared.TemplateBookReserved,
		To:        "reader@example.com",
		BookTitle: "<script>alert(1)</script>",
	})
	require.NoError(t, err)
	assert.NotContains(t, req.Body, "<script>")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render(shared.EmailPayload{Template: "nope", To: "a@b.c"})
	assert.Error(t, err)
}

func TestSMTPServiceBuildsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	svc := &smtpEmailService{
		smtpAddr: "localhost:1025",
		smtpFrom: "noreply@librarylite.dev",
		send: func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			return nil
		},
	}

	err := svc.SendEmail(context.Background(), EmailRequest{
		To:      []string{"reader@example.com"},
		Subject: "Hello",
		Body:    "<p>hi</p>",
		IsHTML:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "localhost:1025", gotAddr)
	assert.Equal(t, "noreply@librarylite.dev", gotFrom)
	assert.Equal(t, []string{"reader@example.com"}, gotTo)
	assert.True(t, strings.Contains(string(gotMsg), "Content-Type: text/html"))
	assert.True(t, strings.HasSuffix(string(gotMsg), "<p>hi</p>"))
}

func TestSMTPServiceWrapsSendError(t *testing.T) {
	svc := &smtpEmailService{
		smtpAddr: "localhost:1025",
		smtpFrom: "noreply@librarylite.dev",
		send: func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("connection refused")
		},
	}
	err := svc.SendEmail(context.Background(), EmailRequest{To: []string{"a@b.c"}, Subject: "x", Body: "y"})
	assert.ErrorContains(t, err, "connection refused")

	err = svc.SendEmail(context.Background(), EmailRequest{})
	assert.Error(t, err)
}
