package adaptor

import (
	"net/http"

	"license-server/internal/dto/response"
	"license-server/internal/usecase"
	"license-server/pkg/utils"

	"go.uber.org/zap"
)

var endpoints = []string{
	"POST /register",
	"POST /login",
	"POST /verify",
	"POST /request-license",
	"POST /check-request",
	"POST /validate-license",
	"POST /admin/send-license",
	"POST /admin/validate",
	"GET /admin/requests",
	"GET /admin/dead-letters",
	"POST /send-notification",
	"GET /health",
	"GET /metrics",
}

type SystemHandler struct {
	license usecase.LicenseService
	config  *utils.Config
	log     *zap.Logger
}

func NewSystemHandler(license usecase.LicenseService, config *utils.Config, log *zap.Logger) *SystemHandler {
	return &SystemHandler{
		license: license,
		config:  config,
		log:     log.With(zap.String("handler", "system")),
	}
}

// Info handles GET /
func (h *SystemHandler) Info(w http.ResponseWriter, r *http.Request) {
	utils.ResponseSuccess(w, r, response.InfoResponse{
		Status:    "ok",
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Endpoints: endpoints,
	})
}

// Health handles GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.ResponseSuccess(w, r, response.HealthResponse{
		Status:          "ok",
		PendingRequests: h.license.PendingCount(r.Context()),
	})
}
