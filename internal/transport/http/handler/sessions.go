package handler

import (
	"net/http"

	"github.com/go-auth-nosql/internal/application/session"
	"github.com/go-auth-nosql/internal/transport/http/middleware"
)

// SessionHandler handles session inspection and logout.
type SessionHandler struct {
	svc session.Service
}

func NewSessionHandler(svc session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// GetCurrent returns the session backing the caller's token.
func (h *SessionHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sess, err := h.svc.Get(r.Context(), claims.SessionID)
	if err != nil {
		httpError(w, err)
		return
	}
	if !sess.Enable {
		writeError(w, http.StatusUnauthorized, "session disabled")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Logout disables every session for the calling account and clears the cookie.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Logout(r.Context(), claims.AccountID); err != nil {
		httpError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "token", Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}
