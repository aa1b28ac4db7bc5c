package adaptor

import (
	"net/http"

	"license-server/internal/dto/request"
	"license-server/internal/dto/response"
	"license-server/internal/usecase"
	"license-server/pkg/utils"

	"go.uber.org/zap"
)

// AdminHandler serves the administrator endpoints. Routes are gated by the
// admin key middleware in wire.
type AdminHandler struct {
	license      usecase.LicenseService
	notification usecase.NotificationService
	queue        DeadLetterSource
	log          *zap.Logger
}

func NewAdminHandler(license usecase.LicenseService, notification usecase.NotificationService, queue DeadLetterSource, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		license:      license,
		notification: notification,
		queue:        queue,
		log:          log.With(zap.String("handler", "admin")),
	}
}

// SendLicense handles POST /admin/send-license
func (h *AdminHandler) SendLicense(w http.ResponseWriter, r *http.Request) {
	var req request.SendLicenseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	code, err := h.license.IssueCode(r.Context(), &req)
	if err != nil {
		handleServiceError(w, r, h.log, err, "send license")
		return
	}

	utils.ResponseSuccess(w, r, response.SendLicenseResponse{
		Success:     true,
		Message:     "License code sent by email",
		LicenseCode: code,
	})
}

// Validate handles POST /admin/validate
func (h *AdminHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req request.AdminValidateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	code, err := h.license.ValidateWithOTP(r.Context(), req.RequestID)
	if err != nil {
		handleServiceError(w, r, h.log, err, "validate request")
		return
	}

	utils.ResponseSuccess(w, r, response.AdminValidateResponse{
		Success:        true,
		Message:        "License validated and sent to the user",
		ValidationCode: code,
	})
}

// Requests handles GET /admin/requests
func (h *AdminHandler) Requests(w http.ResponseWriter, r *http.Request) {
	utils.ResponseSuccess(w, r, response.RequestsResponse{
		Requests: h.license.ListRequests(r.Context()),
	})
}

// DeadLetters handles GET /admin/dead-letters
func (h *AdminHandler) DeadLetters(w http.ResponseWriter, r *http.Request) {
	utils.ResponseSuccess(w, r, response.DeadLettersResponse{
		DeadLetters: h.queue.DeadLetters(),
		Pending:     h.queue.Pending(),
	})
}

// SendNotification handles POST /send-notification
func (h *AdminHandler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req request.SendNotificationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.notification.Send(r.Context(), &req)
	if err != nil {
		handleServiceError(w, r, h.log, err, "send notification")
		return
	}

	utils.ResponseSuccess(w, r, resp)
}
