package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"ai-assistant-be/pkg/tools"
)

// SMTPSender is the EMAIL_TRANSPORT=smtp alternative to the Gmail API: the
// assistant sends through the operator's own SMTP account instead of the
// user's Google credential.
type SMTPSender struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

var _ tools.EmailSender = &SMTPSender{}

func NewSMTPSender(host string, port int, username, password, senderName string) *SMTPSender {
	return &SMTPSender{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: username,
		senderName:  senderName,
	}
}

// Send delivers a plain-text message. gomail has no context support; ctx is
// accepted for interface parity only.
func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", to, err)
	}
	return nil
}
