package adaptor

import (
	"errors"
	"net/http"

	"license-server/internal/usecase"
	"license-server/pkg/utils"

	"go.uber.org/zap"
)

// handleServiceError maps the usecase error taxonomy to a status code.
func handleServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, r, err.Error(), nil)

	case errors.Is(err, usecase.ErrUserNotFound):
		log.Warn(operation+" failed - unknown user", zap.Error(err))
		utils.ResponseBadRequest(w, r, "User not found", nil)

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, r, err.Error())

	case errors.Is(err, usecase.ErrAlreadyExists):
		log.Warn(operation+" failed - already exists", zap.Error(err))
		utils.ResponseBadRequest(w, r, "User already registered", nil)

	case errors.Is(err, usecase.ErrInvalidOrExpired):
		log.Warn(operation+" failed - invalid OTP", zap.Error(err))
		utils.ResponseBadRequest(w, r, "Invalid or expired OTP", nil)

	case errors.Is(err, usecase.ErrAlreadyActivated),
		errors.Is(err, usecase.ErrCodeMismatch):
		log.Warn(operation+" failed", zap.Error(err))
		utils.ResponseBadRequest(w, r, err.Error(), nil)

	case errors.Is(err, usecase.ErrDispatch):
		log.Error("Failed to "+operation+" - email dispatch", zap.Error(err))
		utils.ResponseInternalError(w, r, "Failed to send email")

	default:
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, r, "Internal server error")
	}
}

// decodeAndValidate reads the JSON body into req and runs the validate tags.
// It writes the 400 reply itself and reports false when the request is unusable.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := utils.DecodeJSON(r, req); err != nil {
		utils.ResponseBadRequest(w, r, "Invalid request body", nil)
		return false
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, r, "Validation failed", validationErrors)
		return false
	}
	return true
}
