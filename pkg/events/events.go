package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects
const (
	UserRegistered   = "user.registered"
	LicenseRequested = "license.requested"
	LicenseValidated = "license.validated"
	LicenseActivated = "license.activated"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSPublisher struct {
	conn *nats.Conn
	log  *zap.Logger
}

func NewNATSPublisher(url string, log *zap.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("license-server"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn, log: log.With(zap.String("component", "events"))}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	n.log.Debug("Publishing event", zap.String("subject", subject), zap.ByteString("data", payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	return n.conn.Drain()
}

// NopPublisher drops every event. Used when NATS_URL is empty.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                      { return nil }

// New connects to NATS when url is set, otherwise returns a NopPublisher.
func New(url string, log *zap.Logger) (Publisher, error) {
	if url == "" {
		return NopPublisher{}, nil
	}
	return NewNATSPublisher(url, log)
}

// Event payloads
type UserRegisteredEvent struct {
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

type LicenseEvent struct {
	RequestID   string    `json:"request_id"`
	Fingerprint string    `json:"fingerprint"`
	UserEmail   string    `json:"user_email"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}
