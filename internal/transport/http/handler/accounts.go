package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-auth-nosql/internal/application/account"
	"github.com/go-auth-nosql/internal/domain"
	"github.com/go-auth-nosql/internal/pkg/validate"
	"github.com/go-auth-nosql/internal/transport/http/middleware"
)

// AccountHandler handles registration and account endpoints.
type AccountHandler struct {
	svc        account.Service
	cookieName string
	secure     bool
}

func NewAccountHandler(svc account.Service, secureCookies bool) *AccountHandler {
	return &AccountHandler{svc: svc, cookieName: "token", secure: secureCookies}
}

// Register verifies the code and provisions the account, its default team and
// the owner membership in one shot, then hands back a live session.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	detail, token, err := h.svc.Register(r.Context(), req, middleware.RealIP(r))
	if err != nil {
		httpError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusCreated, AuthEnvelope{Token: token, Account: detail})
}

// Detail returns the caller's account with its active team and membership.
func (h *AccountHandler) Detail(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	detail, err := h.svc.Detail(r.Context(), claims.AccountID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
