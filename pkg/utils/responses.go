package utils

import (
	"net/http"

	"github.com/go-chi/render"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// ResponseJSON writes v as JSON with the given status code
func ResponseJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	render.Status(r, code)
	render.JSON(w, r, v)
}

// ------------- Success responses -------------

// returns 200 OK
func ResponseSuccess(w http.ResponseWriter, r *http.Request, v any) {
	ResponseJSON(w, r, http.StatusOK, v)
}

// ------------- Error responses -------------

// returns 400 Bad Request
func ResponseBadRequest(w http.ResponseWriter, r *http.Request, message string, details map[string]string) {
	ResponseJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: message, Details: details})
}

// returns 401 Unauthorized
func ResponseUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	ResponseJSON(w, r, http.StatusUnauthorized, ErrorResponse{Error: message})
}

// returns 404 Not Found
func ResponseNotFound(w http.ResponseWriter, r *http.Request, message string) {
	ResponseJSON(w, r, http.StatusNotFound, ErrorResponse{Error: message})
}

// returns 429 Too Many Requests
func ResponseTooManyRequests(w http.ResponseWriter, r *http.Request, message string) {
	ResponseJSON(w, r, http.StatusTooManyRequests, ErrorResponse{Error: message})
}

// returns 500 Internal Server Error
func ResponseInternalError(w http.ResponseWriter, r *http.Request, message string) {
	ResponseJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: message})
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	return render.DecodeJSON(r.Body, v)
}
