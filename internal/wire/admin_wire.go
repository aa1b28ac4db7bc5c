package wire

import (
	"license-server/internal/adaptor"
	"license-server/pkg/middleware"
	"license-server/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(r chi.Router, adminHandler *adaptor.AdminHandler, config *utils.Config, log *zap.Logger) {
	requireAdmin := middleware.AdminKey(config.Admin.KeyHash, log)

	// ==================== ADMIN ROUTES ====================
	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAdmin)

		r.Post("/send-license", adminHandler.SendLicense)
		r.Post("/validate", adminHandler.Validate)
		r.Get("/requests", adminHandler.Requests)
		r.Get("/dead-letters", adminHandler.DeadLetters)
	})

	// relay used by other services, same credential
	r.With(requireAdmin).Post("/send-notification", adminHandler.SendNotification)
}
