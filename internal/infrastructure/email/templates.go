package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"library-lite/internal/shared"
)

var (
	printer = message.NewPrinter(language.AmericanEnglish)
	titler  = cases.Title(language.AmericanEnglish)
)

type templateSpec struct {
	subject string
	body    *template.Template
}

var templates = map[shared.EmailTemplate]templateSpec{
	shared.TemplateBookDue: {
		subject: "Book Due Reminder",
		body: template.Must(template.New("due").Parse(`<h2>Book Due Reminder</h2>
<p>Dear {{.Name}},</p>
<p>This is a reminder that <strong>{{.BookTitle}}</strong> is due on <strong>{{.Date}}</strong>.</p>
<p>Please return it on time to avoid late fees.</p>`)),
	},
	shared.TemplateBookOverdue: {
		subject: "Overdue Book Notice",
		body: template.Must(template.New("overdue").Parse(`<h2>Overdue Book Notice</h2>
<p>Dear {{.Name}},</p>
<p><strong>{{.BookTitle}}</strong> is <strong>{{.Days}} day(s)</strong> overdue.</p>
<p>Current fine: <strong>{{.Amount}}</strong>. Please return the book as soon as possible.</p>`)),
	},
	shared.TemplateBookReserved: {
		subject: "Book Reservation Confirmed",
		body: template.Must(template.New("reserved").Parse(`<h2>Reservation Confirmed</h2>
<p>Dear {{.Name}},</p>
<p>Your reservation for <strong>{{.BookTitle}}</strong> has been confirmed.</p>
<p>The reservation is held until <strong>{{.Date}}</strong>. We will let you know when a copy is available.</p>`)),
	},
	shared.TemplateBookAvailable: {
		subject: "Reserved Book Available",
		body: template.Must(template.New("available").Parse(`<h2>Your Reserved Book Is Available</h2>
<p>Dear {{.Name}},</p>
<p>Good news! <strong>{{.BookTitle}}</strong> has been returned and is ready to borrow.</p>
<p>Your reservation is held until <strong>{{.Date}}</strong>.</p>`)),
	},
	shared.TemplateMembershipExpiring: {
		subject: "Membership Expiring Soon",
		body: template.Must(template.New("membership").Parse(`<h2>Membership Expiring Soon</h2>
<p>Dear {{.Name}},</p>
<p>Your library membership expires in <strong>{{.Days}} day(s)</strong> on <strong>{{.Date}}</strong>.</p>
<p>Visit the front desk to renew it.</p>`)),
	},
	shared.TemplateFinePaid: {
		subject: "Fine Payment Receipt",
		body: template.Must(template.New("paid").Parse(`<h2>Payment Received</h2>
<p>Dear {{.Name}},</p>
<p>We received your payment of <strong>{{.Amount}}</strong> for <strong>{{.BookTitle}}</strong>. Thank you.</p>`)),
	},
}

type templateData struct {
	Name      string
	BookTitle string
	Date      string
	Days      int
	Amount    string
}

// Render build EmailRequest từ notification payload
func Render(p shared.EmailPayload) (EmailRequest, error) {
	tpl, ok := templates[p.Template]
	if !ok {
		return EmailRequest{}, fmt.Errorf("unknown email template %q", p.Template)
	}

	data := templateData{
		Name:      titler.String(p.Name),
		BookTitle: p.BookTitle,
		Days:      p.Days,
		Amount:    FormatMoney(p.Amount),
	}
	if data.Name == "" {
		data.Name = "Reader"
	}
	if p.Date != nil {
		data.Date = p.Date.Format("Monday, January 2, 2006")
	}

	var buf bytes.Buffer
	if err := tpl.body.Execute(&buf, data); err != nil {
		return EmailRequest{}, fmt.Errorf("render %s: %w", p.Template, err)
	}

	return EmailRequest{
		To:      []string{p.To},
		Subject: tpl.subject,
		Body:    buf.String(),
		IsHTML:  true,
	}, nil
}

// FormatMoney format "1234.5" thành "USD 1,234.50"; chuỗi không hợp lệ giữ nguyên
func FormatMoney(amount string) string {
	if amount == "" {
		return ""
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}
	f, _ := d.Round(2).Float64()
	return printer.Sprint(currency.USD.Amount(f))
}
