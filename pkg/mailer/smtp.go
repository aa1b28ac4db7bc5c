package mailer

import (
	"context"
	"fmt"

	"license-server/pkg/utils"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

type SMTPMailer struct {
	config utils.EmailConfig
	dialer *gomail.Dialer
}

func NewSMTPMailer(config utils.EmailConfig) *SMTPMailer {
	return &SMTPMailer{
		config: config,
		dialer: gomail.NewDialer(config.Host, config.Port, config.User, config.Password),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), m.config.Host)

	g := gomail.NewMessage()
	if m.config.FromName != "" {
		g.SetAddressHeader("From", m.config.From, m.config.FromName)
	} else {
		g.SetHeader("From", m.config.From)
	}
	if msg.ToName != "" {
		g.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		g.SetHeader("To", msg.To)
	}
	g.SetHeader("Subject", msg.Subject)
	g.SetHeader("Message-ID", messageID)

	switch {
	case msg.Text != "" && msg.HTML != "":
		g.SetBody("text/plain", msg.Text)
		g.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		g.SetBody("text/html", msg.HTML)
	default:
		g.SetBody("text/plain", msg.Text)
	}

	if err := m.dialer.DialAndSend(g); err != nil {
		return "", fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return messageID, nil
}
