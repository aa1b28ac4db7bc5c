package mailer

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DevMailer logs messages instead of sending them.
type DevMailer struct {
	log *zap.Logger
}

func NewDevMailer(log *zap.Logger) *DevMailer {
	return &DevMailer{log: log.With(zap.String("mailer", "dev"))}
}

func (m *DevMailer) Send(_ context.Context, msg Message) (string, error) {
	id := uuid.New().String()
	m.log.Info("Email (dev mode, not delivered)",
		zap.String("message_id", id),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return id, nil
}
