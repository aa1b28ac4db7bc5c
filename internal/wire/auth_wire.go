package wire

import (
	"license-server/internal/adaptor"
	"license-server/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, limiter *middleware.RateLimiter) {
	// ==================== PUBLIC ROUTES ====================
	// Setiap request di sini mengirim email, jadi dibatasi per IP
	r.Group(func(r chi.Router) {
		r.Use(limiter.Handler)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/verify", authHandler.Verify)
	})
}
