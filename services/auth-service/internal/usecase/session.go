package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/djdict/djdict-api/services/auth-service/internal/metrics"
	"github.com/djdict/djdict-api/services/auth-service/internal/model"
	"github.com/djdict/djdict-api/services/auth-service/internal/repository"
	authtypes "github.com/djdict/djdict-api/services/auth-service/pkg/types"
	"github.com/djdict/djdict-api/shared/security"
)

const (
	revokeReasonLogout      = "logout"
	revokeReasonExpired     = "expired"
	revokeReasonPassword    = "password_change"
	revokeReasonTermination = "termination"
)

func (u *accountUsecase) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	result, err := u.login(ctx, params)
	u.metrics.Logins.WithLabelValues(metrics.Result(err)).Inc()

	return result, err
}

func (u *accountUsecase) login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	account, err := u.accounts.GetAccountByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := checkPassword(account, params.Password); err != nil {
		return nil, err
	}

	if !account.Active {
		return nil, ErrAccountInactive
	}

	accountID := account.ID.Hex()

	lifetime := u.cfg.Account.SessionLifetime
	if params.RememberMe {
		lifetime = u.cfg.Account.RememberMeSessionLifetime
	}

	now := u.clock.Now()
	session, err := u.sessions.CreateSession(ctx, &model.Session{
		SessionID: uuid.NewString(),
		AccountID: account.ID,
		ExpiresAt: now.Add(lifetime),
		IPAddress: optional(params.IPAddress),
		UserAgent: optional(params.UserAgent),
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	token, err := u.generateSessionToken(account, session)
	if err != nil {
		u.dropSession(ctx, session.SessionID)
		return nil, err
	}

	// Logging in is the only way back from a pending freeze or delete. The request is only
	// cancelled once the new session exists.
	reactivated, err := u.terminations.CancelTermination(ctx, accountID)
	if err != nil {
		u.dropSession(ctx, session.SessionID)
		return nil, err
	}
	if reactivated {
		u.metrics.Reactivations.Inc()
		u.logger.Info().Str("account_id", accountID).Msg("pending termination cancelled by login")
	}

	if err := u.accounts.UpdateLastLogin(ctx, accountID, now); err != nil {
		u.logger.Warn().Err(err).Str("account_id", accountID).Msg("failed to record last login")
	}

	return &LoginResult{
		Account:     account,
		Session:     session,
		Token:       authtypes.SessionToken{Token: token, ExpiresAt: session.ExpiresAt},
		Reactivated: reactivated,
	}, nil
}

func (u *accountUsecase) Logout(ctx context.Context, sessionID string) error {
	revoked, err := u.sessions.RevokeSession(ctx, sessionID)
	if err != nil {
		return err
	}

	if revoked {
		u.metrics.Revocations.WithLabelValues(revokeReasonLogout).Inc()
	}

	return nil
}

func (u *accountUsecase) Authenticate(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := u.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if session.Expired(u.clock.Now()) {
		if _, err := u.sessions.RevokeSession(ctx, sessionID); err != nil {
			u.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to drop expired session")
		} else {
			u.metrics.Revocations.WithLabelValues(revokeReasonExpired).Inc()
		}
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// dropSession removes a session created by a login that failed afterwards.
func (u *accountUsecase) dropSession(ctx context.Context, sessionID string) {
	if _, err := u.sessions.RevokeSession(ctx, sessionID); err != nil {
		u.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to drop session of failed login")
	}
}

func (u *accountUsecase) generateSessionToken(account *model.Account, session *model.Session) (string, error) {
	claims := authtypes.SessionClaims{
		AccountID: account.ID.Hex(),
		SessionID: session.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    u.jwtAuth.Issuer(),
			Audience:  jwt.ClaimStrings{u.jwtAuth.Audience()},
			Subject:   account.ID.Hex(),
			ID:        session.SessionID,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			NotBefore: jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token, err := u.jwtAuth.GenerateToken(claims)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return token, nil
}

func (u *accountUsecase) ChangePassword(ctx context.Context, params ChangePasswordParams) error {
	account, err := u.getAccount(ctx, params.AccountID)
	if err != nil {
		return err
	}

	if err := checkPassword(account, params.CurrentPassword); err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(params.NewPassword)
	if err != nil {
		return err
	}

	if _, err := u.accounts.UpdateAccount(ctx, params.AccountID, repository.UpdateAccountParams{
		PasswordHash: &passwordHash,
	}); err != nil {
		return err
	}

	// Other devices must sign in again with the new password; the caller's session stays.
	revoked, err := u.sessions.RevokeOtherSessions(ctx, params.AccountID, params.SessionID)
	if err != nil {
		return err
	}
	u.metrics.Revocations.WithLabelValues(revokeReasonPassword).Add(float64(revoked))

	// The password is already committed; a failed notice is still reported to the caller.
	subject, body := passwordChangedMessage(account.Username)
	if err := u.notify(account.Email, subject, body); err != nil {
		u.logger.Error().Err(err).Str("account_id", params.AccountID).Msg("password changed but notice was not delivered")
		return err
	}

	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
