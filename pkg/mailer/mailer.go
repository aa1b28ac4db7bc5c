package mailer

import (
	"context"
	"fmt"

	"license-server/pkg/utils"

	"go.uber.org/zap"
)

// Message is a single outbound email. Either Text or HTML may be empty.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers one message and returns the transport's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// New returns the sender selected by MAIL_DRIVER.
func New(config utils.EmailConfig, log *zap.Logger) (Sender, error) {
	switch config.Driver {
	case "", "dev":
		return NewDevMailer(log), nil
	case "smtp":
		if config.Host == "" || config.From == "" {
			return nil, fmt.Errorf("smtp mailer requires SMTP_HOST and EMAIL_FROM")
		}
		return NewSMTPMailer(config), nil
	case "mailersend":
		if config.MailerSendAPIKey == "" || config.From == "" {
			return nil, fmt.Errorf("mailersend mailer requires MAILERSEND_API_KEY and EMAIL_FROM")
		}
		return NewMailerSendMailer(config.MailerSendAPIKey, config.FromName, config.From), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", config.Driver)
	}
}
