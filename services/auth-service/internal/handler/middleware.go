package handler

import (
	"context"
	"net"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/djdict/djdict-api/services/auth-service/internal/model"
	"github.com/djdict/djdict-api/services/auth-service/internal/usecase"
	authtypes "github.com/djdict/djdict-api/services/auth-service/pkg/types"
	"github.com/djdict/djdict-api/shared/interceptor"
)

type sessionKey struct{}

// requireSession accepts a request only when its bearer token names a session that is
// still registered. A revoked session is rejected even while its token has not expired.
func (h *authHTTPHandler) requireSession(next http.Handler) http.Handler {
	validateJWT := interceptor.NewJWTMiddleware(
		h.jwtAuth,
		func() jwt.Claims { return &authtypes.SessionClaims{} },
		func(w http.ResponseWriter, r *http.Request, err error) {
			h.logger.Debug().Err(err).Msg("bearer token rejected")
			h.writeError(w, r, usecase.ErrSessionNotFound)
		},
	)

	return validateJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := interceptor.ClaimsFromContext[*authtypes.SessionClaims](r.Context())
		if !ok || claims.SessionID == "" {
			h.writeError(w, r, usecase.ErrSessionNotFound)
			return
		}

		session, err := h.accountUsecase.Authenticate(r.Context(), claims.SessionID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if session.AccountID.Hex() != claims.AccountID {
			h.writeError(w, r, usecase.ErrSessionNotFound)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	}))
}

func sessionFromContext(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionKey{}).(*model.Session)
	return session
}

func requestLogger(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info().
					Str("request_id", chimw.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("http request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// clientIP reads the address left by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
