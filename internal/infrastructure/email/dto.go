package email

type EmailRequest struct {
	To      []string // Recipients
	Subject string   // Email subject
	Body    string   // Email body (HTML or plain text)
	IsHTML  bool     // true for HTML, false for plain text
}
