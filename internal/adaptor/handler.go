package adaptor

import (
	"license-server/internal/notify"
	"license-server/internal/usecase"
	"license-server/pkg/utils"

	"go.uber.org/zap"
)

// DeadLetterSource exposes the dispatch queue state to the admin API.
// *notify.Queue implements it.
type DeadLetterSource interface {
	DeadLetters() []notify.DeadLetter
	Pending() int
}

type Handler struct {
	Auth    *AuthHandler
	License *LicenseHandler
	Admin   *AdminHandler
	System  *SystemHandler
}

func NewHandler(service *usecase.Service, queue DeadLetterSource, config *utils.Config, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, log),
		License: NewLicenseHandler(service.License, log),
		Admin:   NewAdminHandler(service.License, service.Notification, queue, log),
		System:  NewSystemHandler(service.License, config, log),
	}
}
