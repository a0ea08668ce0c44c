package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-auth-nosql/internal/application/authcode"
	"github.com/go-auth-nosql/internal/domain"
	"github.com/go-auth-nosql/internal/pkg/captcha"
	"github.com/go-auth-nosql/internal/pkg/validate"
)

// AuthCodeHandler handles captcha and verification-code endpoints.
type AuthCodeHandler struct {
	codes authcode.Service
}

func NewAuthCodeHandler(codes authcode.Service) *AuthCodeHandler {
	return &AuthCodeHandler{codes: codes}
}

// SendCodeRequest asks for a verification code of the given type. All four
// fields must be present. The captcha answer proves a human is on the other
// end; google_token is a client challenge token whose presence is checked but
// whose server-side verification is not wired up, so the captcha check always
// runs.
type SendCodeRequest struct {
	Username    string `json:"username" validate:"required"`
	Type        string `json:"type" validate:"required"`
	Captcha     string `json:"captcha" validate:"required"`
	GoogleToken string `json:"google_token" validate:"required"`
}

// Captcha issues a short human-verification code for the username and returns
// it rendered as an SVG image. Re-requesting replaces the previous code.
func (h *AuthCodeHandler) Captcha(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	code, err := h.codes.Issue(r.Context(), domain.CodeTypeCaptcha, username)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CaptchaEnvelope{CaptchaImage: captcha.RenderDataURI(code)})
}

// SendCode issues a verification code for the identifier after the captcha
// check passes. The code never appears in the response; a delivery channel
// picks it up out of band.
func (h *AuthCodeHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req SendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	codeType := domain.CodeType(req.Type)
	if !codeType.Valid() || codeType == domain.CodeTypeCaptcha {
		writeError(w, http.StatusBadRequest, "unknown code type")
		return
	}
	if err := h.codes.Verify(r.Context(), domain.CodeTypeCaptcha, req.Username, req.Captcha); err != nil {
		httpError(w, err)
		return
	}
	if _, err := h.codes.Issue(r.Context(), codeType, req.Username); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "code sent"})
}
