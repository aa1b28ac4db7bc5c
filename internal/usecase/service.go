package usecase

import (
	"context"
	"time"

	"license-server/internal/data/repository"
	"license-server/pkg/events"
	"license-server/pkg/mailer"
	"license-server/pkg/metrics"
	"license-server/pkg/token"
	"license-server/pkg/utils"

	"go.uber.org/zap"
)

// Dispatcher delivers a message and reports the outcome. *notify.Queue implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg mailer.Message) (string, error)
}

// CodeRenderer turns a validation code into a scannable PNG.
type CodeRenderer interface {
	RenderScannable(text string) ([]byte, error)
}

// Infra groups the collaborators shared by the services.
type Infra struct {
	Dispatcher Dispatcher
	Events     events.Publisher
	QRCode     CodeRenderer
	Tokens     *token.Issuer
	Metrics    *metrics.Metrics
}

type Service struct {
	OTP          OTPService
	Auth         AuthService
	License      LicenseService
	Notification NotificationService
}

func NewService(repo *repository.Repository, infra Infra, config *utils.Config, log *zap.Logger) *Service {
	otp := NewOTPService(repo.OTP, config.OTP.Length, config.OTPExpiry(), log)

	return &Service{
		OTP:          otp,
		Auth:         NewAuthService(repo, otp, infra, log),
		License:      NewLicenseService(repo, infra, config, log),
		Notification: NewNotificationService(infra.Dispatcher, log),
	}
}

// publish never fails the caller; events are best effort.
func publish(ctx context.Context, pub events.Publisher, log *zap.Logger, subject string, payload interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, subject, payload); err != nil {
		log.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
