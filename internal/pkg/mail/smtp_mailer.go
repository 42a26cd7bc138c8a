package mail

import (
	"fmt"
	"net/smtp"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/tutorsite/internal/pkg/env"
)

// Mailer sends a single HTML email.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends emails via SMTP
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
}

// NewSMTPMailerFromEnv reads SMTP_* settings. It returns a NoopMailer when no
// SMTP host is configured.
func NewSMTPMailerFromEnv() Mailer {
	host := env.GetEnv("SMTP_HOST", "")
	if host == "" {
		log.Warn("mail: SMTP_HOST not set, notifications disabled")
		return NoopMailer{}
	}
	sender := env.GetEnv("SMTP_SENDER", "")
	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", env.GetEnv("PUBLIC_DOMAIN", "localhost"))
		log.Infof("mail: SMTP_SENDER not set, using default sender: %s", sender)
	}
	return &SMTPMailer{
		Host:     host,
		Port:     env.GetEnv("SMTP_PORT", "587"),
		Username: env.GetEnv("SMTP_USERNAME", ""),
		Password: env.GetEnv("SMTP_PASSWORD", ""),
		Sender:   sender,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	var auth smtp.Auth
	if m.Username != "" && m.Password != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	addr := fmt.Sprintf("%s:%s", m.Host, m.Port)
	msg := buildMessage(m.Sender, to, subject, body)

	if err := smtp.SendMail(addr, auth, m.Sender, []string{to}, msg); err != nil {
		log.Errorf("mail: SMTP send error: %v", err)
		return err
	}
	log.Infof("mail: sent %q to %s via %s", subject, to, addr)
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", from, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)
}

// NoopMailer drops every message.
type NoopMailer struct{}

func (NoopMailer) Send(string, string, string) error { return nil }
