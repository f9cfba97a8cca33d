package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/pkg/logger"
)

// M is extra payload merged into the envelope next to code and message.
type M map[string]any

// JSON writes the {code, message, ...payload} envelope. The code mirrors the
// HTTP status.
func JSON(w http.ResponseWriter, status int, message string, payload M) {
	body := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["code"] = status
	body["message"] = message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func OK(w http.ResponseWriter, message string, payload M) {
	JSON(w, http.StatusOK, message, payload)
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, message, nil)
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// FromError maps a service error onto the envelope. Anything unrecognised is
// logged and answered with a generic 500.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	if v, ok := domain.IsValidation(err); ok {
		BadRequest(w, v.Msg)
		return
	}

	switch {
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrVoucherUnavailable):
		BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		Unauthorized(w, "Authentication required")
	case errors.Is(err, domain.ErrAccountLocked),
		errors.Is(err, domain.ErrForbidden):
		Forbidden(w, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "Not found")
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrOrderNotPending):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrTooManyAttempts):
		Error(w, http.StatusTooManyRequests, err.Error())
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
