package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/teachmatch/accounts-api/internal/application/account"
	"github.com/teachmatch/accounts-api/internal/application/session"
	"github.com/teachmatch/accounts-api/internal/application/user"
	"github.com/teachmatch/accounts-api/internal/config"
	"github.com/teachmatch/accounts-api/internal/domain"
	"github.com/teachmatch/accounts-api/internal/pkg/accounttoken"
	"github.com/teachmatch/accounts-api/internal/transport/http/handler"
	appmiddleware "github.com/teachmatch/accounts-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	tokens := accounttoken.New(cfg.SecretKey, cfg.AccountTokenTTL)
	dispatcher := account.NewMailDispatcher(deps.Mailer, cfg.APIBaseURL, cfg.SiteURL)

	sessionSvc := session.NewService(session.ServiceDeps{
		SessionRepo:     deps.SessionRepo,
		UserRepo:        deps.UserRepo,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenDur: cfg.RefreshTokenDur,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:    deps.UserRepo,
		SessionRepo: deps.SessionRepo,
		FileRepo:    deps.FileRepo,
		ObjectStore: deps.S3Store,
	})
	accountSvc := account.NewService(account.ServiceDeps{
		UserRepo:         deps.UserRepo,
		VerificationRepo: deps.VerificationRepo,
		Dispatcher:       dispatcher,
		SMSSender:        deps.SMSSender,
		Tokens:           tokens,
	})

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc, sessionSvc)
	accountH := handler.NewAccountHandler(accountSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/reset-password/request", accountH.ResetRequest)
		r.With(sensitiveRL.Limit).Post("/reset-password/confirm", accountH.ResetConfirm)
		r.Get("/verify-email", accountH.VerifyEmail)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Get("/users/me", userH.Me)
			r.Patch("/users/me", userH.UpdateMe)
			r.Post("/users/me/change-password", userH.ChangePassword)

			r.Post("/verify-email/request", accountH.VerifyEmailRequest)
			r.Post("/confirm-phone/request", accountH.PhoneRequest)
			r.Post("/confirm-phone/confirm", accountH.PhoneConfirm)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Delete("/users/{id}", userH.Delete)
			})
		})
	})

	return r
}
