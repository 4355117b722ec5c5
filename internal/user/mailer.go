package user

import (
	"fmt"
	"log/slog"

	gomail "gopkg.in/gomail.v2"
)

// Mailer delivers account emails.
type Mailer interface {
	// SendVerificationCode mails a signup verification code
	SendVerificationCode(to, code string) error

	// SendPasswordReset mails a password reset token
	SendPasswordReset(to, token string) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// SendVerificationCode mails a signup verification code
func (m *SMTPMailer) SendVerificationCode(to, code string) error {
	body := fmt.Sprintf(
		"<p>Hi!</p><p>Your verification code is: <b>%s</b></p><p>It expires in 10 minutes.</p>",
		code,
	)
	return m.send(to, "Your verification code", body)
}

// SendPasswordReset mails a password reset token
func (m *SMTPMailer) SendPasswordReset(to, token string) error {
	body := fmt.Sprintf(
		"<p>Hi!</p><p>Your password reset token is: <b>%s</b></p><p>It expires in 1 hour.</p>",
		token,
	)
	return m.send(to, "Password reset", body)
}

func (m *SMTPMailer) send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

// LogMailer logs codes and tokens instead of mailing them. Used when no
// SMTP relay is configured, e.g. in local development.
type LogMailer struct{}

// SendVerificationCode mails a signup verification code
func (LogMailer) SendVerificationCode(to, code string) error {
	slog.Info("SMTP not configured, logging verification code", "to", to, "code", code)
	return nil
}

// SendPasswordReset mails a password reset token
func (LogMailer) SendPasswordReset(to, token string) error {
	slog.Info("SMTP not configured, logging reset token", "to", to, "token", token)
	return nil
}
