package adaptor

import (
	"net/http"

	"license-server/internal/dto/request"
	"license-server/internal/dto/response"
	"license-server/internal/usecase"
	"license-server/pkg/utils"

	"go.uber.org/zap"
)

// LicenseHandler serves the device-facing license endpoints.
type LicenseHandler struct {
	service usecase.LicenseService
	log     *zap.Logger
}

func NewLicenseHandler(service usecase.LicenseService, log *zap.Logger) *LicenseHandler {
	return &LicenseHandler{
		service: service,
		log:     log.With(zap.String("handler", "license")),
	}
}

// RequestLicense handles POST /request-license
func (h *LicenseHandler) RequestLicense(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitLicenseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lr, created, err := h.service.SubmitRequest(r.Context(), &req)
	if err != nil {
		handleServiceError(w, r, h.log, err, "request license")
		return
	}

	message := "Request sent. Wait for the authorization email."
	if !created {
		message = "A license request already exists for this device."
	}

	utils.ResponseSuccess(w, r, response.SubmitLicenseResponse{
		Success:   true,
		Message:   message,
		RequestID: lr.RequestID,
	})
}

// CheckRequest handles POST /check-request
func (h *LicenseHandler) CheckRequest(w http.ResponseWriter, r *http.Request) {
	var req request.CheckRequestRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.CheckRequest(r.Context(), req.Fingerprint)
	if err != nil {
		handleServiceError(w, r, h.log, err, "check request")
		return
	}

	utils.ResponseSuccess(w, r, resp)
}

// ValidateLicense handles POST /validate-license (activation)
func (h *LicenseHandler) ValidateLicense(w http.ResponseWriter, r *http.Request) {
	var req request.ActivateLicenseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if _, err := h.service.Activate(r.Context(), &req); err != nil {
		handleServiceError(w, r, h.log, err, "activate license")
		return
	}

	utils.ResponseSuccess(w, r, response.SuccessResponse{
		Success: true,
		Message: "License activated successfully. You can now restart the application.",
	})
}
