package wire

import (
	"license-server/internal/adaptor"
	"license-server/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireLicense(r chi.Router, licenseHandler *adaptor.LicenseHandler, limiter *middleware.RateLimiter) {
	// POST /request-license - notifies the administrator, rate limited
	r.With(limiter.Handler).Post("/request-license", licenseHandler.RequestLicense)

	r.Post("/check-request", licenseHandler.CheckRequest)
	r.Post("/validate-license", licenseHandler.ValidateLicense)
}
