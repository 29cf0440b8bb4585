package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/djdict/djdict-api/services/auth-service/internal/config"
	"github.com/djdict/djdict-api/services/auth-service/internal/usecase"
	"github.com/djdict/djdict-api/shared/auth"
)

const requestTimeout = 30 * time.Second

type authHTTPHandler struct {
	accountUsecase usecase.AccountUsecase
	jwtAuth        auth.JWTAuthenticator
	validate       *requestValidator
	logger         *zerolog.Logger
}

// NewAuthHTTPHandler builds the HTTP surface of the auth service. Account and logout
// routes require a live session; the public auth routes are rate limited per client IP.
func NewAuthHTTPHandler(
	accountUsecase usecase.AccountUsecase,
	jwtAuth auth.JWTAuthenticator,
	cfg *config.AuthServiceConfig,
	gatherer prometheus.Gatherer,
	logger *zerolog.Logger,
) http.Handler {
	h := &authHTTPHandler{
		accountUsecase: accountUsecase,
		jwtAuth:        jwtAuth,
		validate:       newRequestValidator(),
		logger:         logger,
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(cfg.RateLimit.Requests, cfg.RateLimit.Window))

			r.Post("/register", h.register)
			r.Get("/confirm/{token}", h.confirmEmail)
			r.Post("/confirm/resend", h.resendConfirmation)
			r.Post("/login", h.login)
		})

		r.With(h.requireSession).Post("/logout", h.logout)
	})

	r.Route("/v1/account", func(r chi.Router) {
		r.Use(h.requireSession)

		r.Post("/password", h.changePassword)
		r.Post("/email", h.requestEmailChange)
		r.Post("/terminate", h.terminateAccount)
		r.Get("/status", h.status)
	})

	return r
}
