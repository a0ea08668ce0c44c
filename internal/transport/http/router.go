package http

import (
	"net/http"

	"github.com/go-auth-nosql/internal/application/account"
	"github.com/go-auth-nosql/internal/application/authcode"
	"github.com/go-auth-nosql/internal/application/session"
	"github.com/go-auth-nosql/internal/config"
	"github.com/go-auth-nosql/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-auth-nosql/internal/infrastructure/jwt"
	"github.com/go-auth-nosql/internal/pkg/track"
	"github.com/go-auth-nosql/internal/transport/http/handler"
	appmiddleware "github.com/go-auth-nosql/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo    *dynamo.AccountRepo
	TeamRepo       *dynamo.TeamRepo
	SessionRepo    *dynamo.SessionRepo
	AuthCodeRepo   *dynamo.AuthCodeRepo
	RateWindowRepo *dynamo.RateWindowRepo
	JWTProvider    *jwtinfra.Provider
	Tracker        track.Tracker
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider, deps.SessionRepo)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10. An in-process guard in front of the
	// persistent fixed-window gates below.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	// Persistent per-IP windows. The send-code gate refunds failed attempts;
	// the register gate counts every attempt so repeated failures lock out.
	sendCodeGate := appmiddleware.IPFrequencyLimit(deps.RateWindowRepo,
		"send-auth-code", cfg.SendCodeWindowSeconds, cfg.SendCodeLimit, false)
	registerGate := appmiddleware.IPFrequencyLimit(deps.RateWindowRepo,
		"register-email-phone", cfg.RegisterLockSeconds, cfg.RegisterLimit, true)

	codeSvc := authcode.NewService(deps.AuthCodeRepo, cfg.CaptchaCodeTTL, cfg.AuthCodeTTL)
	var sessionSvc session.Service
	if deps.JWTProvider != nil {
		sessionSvc = session.NewService(deps.SessionRepo, deps.JWTProvider, cfg.RefreshExpiry)
	} else {
		sessionSvc = session.NewService(deps.SessionRepo, nil, cfg.RefreshExpiry)
	}
	accountSvc := account.NewService(account.ServiceDeps{
		Codes:    codeSvc,
		Accounts: deps.AccountRepo,
		Teams:    deps.TeamRepo,
		Sessions: sessionSvc,
		Tracker:  deps.Tracker,
	})

	healthH := handler.NewHealthHandler()
	codeH := handler.NewAuthCodeHandler(codeSvc)
	accountH := handler.NewAccountHandler(accountSvc, cfg.AppEnv == "production")
	sessionH := handler.NewSessionHandler(sessionSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.Get("/test", healthH.Test)
		r.Post("/test", healthH.Test)
		r.With(sensitiveRL.Limit).Get("/auth/captcha", codeH.Captcha)
		r.With(sensitiveRL.Limit, sendCodeGate).Post("/auth/code", codeH.SendCode)
		r.With(sensitiveRL.Limit, registerGate).Post("/account/register", accountH.Register)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/account", accountH.Detail)
			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)
		})
	})

	return r
}
