package adaptor

import (
	"net/http"

	"license-server/internal/dto/request"
	"license-server/internal/dto/response"
	"license-server/internal/usecase"
	"license-server/pkg/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	service usecase.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log.With(zap.String("handler", "auth")),
	}
}

// Register handles POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.Register(r.Context(), &req); err != nil {
		handleServiceError(w, r, h.log, err, "register")
		return
	}

	utils.ResponseSuccess(w, r, response.MessageResponse{Message: "Verification code sent to your email"})
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.Login(r.Context(), &req); err != nil {
		handleServiceError(w, r, h.log, err, "login")
		return
	}

	utils.ResponseSuccess(w, r, response.MessageResponse{Message: "Verification code sent to your email"})
}

// Verify handles POST /verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.Verify(r.Context(), &req)
	if err != nil {
		handleServiceError(w, r, h.log, err, "verify")
		return
	}

	utils.ResponseSuccess(w, r, resp)
}
