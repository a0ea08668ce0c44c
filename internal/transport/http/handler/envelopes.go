package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-auth-nosql/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps the register response: the session token plus the
// freshly provisioned account, team and membership.
type AuthEnvelope struct {
	Token   string                `json:"token,omitempty"`
	Account *domain.AccountDetail `json:"account,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// CaptchaEnvelope wraps the captcha response. The image is an inline SVG
// data URI, never the code itself.
type CaptchaEnvelope struct {
	CaptchaImage string `json:"captcha_image"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinels to HTTP status codes. Anything unmapped is
// a 500 with a generic message so infrastructure details stay out of responses.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidParams):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrInvalidCode), errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrAccountExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSessionIssuance):
		writeError(w, http.StatusInternalServerError, domain.ErrSessionIssuance.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
