package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/djdict/djdict-api/services/auth-service/internal/metrics"
	"github.com/djdict/djdict-api/services/auth-service/internal/model"
	"github.com/djdict/djdict-api/services/auth-service/internal/repository"
	"github.com/djdict/djdict-api/shared/clock"
	"github.com/djdict/djdict-api/shared/security"
)

// verificationStore issues and consumes hashed verification tokens.
type verificationStore struct {
	repo   repository.VerificationRepository
	tokens security.TokenSource
	clock  clock.Clock
	ttl    time.Duration
}

// issue persists a new record for the account and returns the raw token.
func (s *verificationStore) issue(ctx context.Context, account *model.Account, newEmail *string) (string, error) {
	token, err := s.tokens.NewToken()
	if err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}

	now := s.clock.Now()
	if _, err := s.repo.CreateVerification(ctx, &model.Verification{
		AccountID: account.ID,
		TokenHash: security.HashToken(token[:]),
		NewEmail:  newEmail,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}); err != nil {
		return "", fmt.Errorf("store verification: %w", err)
	}

	return token.String(), nil
}

// consume atomically takes the unexpired record matching token. Malformed, unknown and
// expired tokens are indistinguishable.
func (s *verificationStore) consume(ctx context.Context, token string) (*model.Verification, bool, error) {
	hash, ok := security.HashTokenString(token)
	if !ok {
		return nil, false, nil
	}

	return s.repo.ConsumeVerification(ctx, hash, s.clock.Now())
}

// clear removes every remaining record of the account so superseded links die too.
func (s *verificationStore) clear(ctx context.Context, accountID string) error {
	_, err := s.repo.DeleteAccountVerifications(ctx, accountID)
	return err
}

func (u *accountUsecase) Register(ctx context.Context, params RegisterParams) (*model.Account, error) {
	account, err := u.register(ctx, params)
	u.metrics.Registrations.WithLabelValues(metrics.Result(err)).Inc()

	return account, err
}

func (u *accountUsecase) register(ctx context.Context, params RegisterParams) (*model.Account, error) {
	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	account, err := u.accounts.CreateAccount(ctx, &model.Account{
		Username:     strings.ToLower(params.Username),
		Email:        params.Email,
		PasswordHash: passwordHash,
		Active:       false,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrAccountAlreadyExists
		}
		return nil, err
	}

	// The account is kept even when the activation link cannot be delivered; the owner
	// can request a new one with ResendConfirmation.
	if err := u.sendConfirmation(ctx, account, account.Email, nil); err != nil {
		u.logger.Warn().Err(err).Str("account_id", account.ID.Hex()).Msg("activation e-mail was not delivered")
		return account, err
	}

	return account, nil
}

func (u *accountUsecase) ConfirmEmail(ctx context.Context, token string) (*ConfirmResult, error) {
	result, err := u.confirmEmail(ctx, token)

	kind := "unknown"
	if result != nil {
		kind = string(result.Kind)
	}
	u.metrics.Confirmations.WithLabelValues(kind, metrics.Result(err)).Inc()

	return result, err
}

func (u *accountUsecase) confirmEmail(ctx context.Context, token string) (*ConfirmResult, error) {
	verification, found, err := u.verifications.consume(ctx, token)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrVerificationFailed
	}

	accountID := verification.AccountID.Hex()
	account, err := u.getAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrVerificationFailed
		}
		return nil, err
	}

	result := &ConfirmResult{Kind: ConfirmActivation, Account: account}

	switch {
	case verification.IsEmailChange():
		result.Kind = ConfirmEmailChange
		account, err = u.accounts.UpdateAccount(ctx, accountID, repository.UpdateAccountParams{
			Email: verification.NewEmail,
		})
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return nil, ErrVerificationFailed
			}
			return nil, err
		}
		result.Account = account
	case !account.Active:
		active := true
		account, err = u.accounts.UpdateAccount(ctx, accountID, repository.UpdateAccountParams{
			Active: &active,
		})
		if err != nil {
			return nil, err
		}
		result.Account = account
	}

	if err := u.verifications.clear(ctx, accountID); err != nil {
		return nil, err
	}

	return result, nil
}

func (u *accountUsecase) ResendConfirmation(ctx context.Context, email string) error {
	account, err := u.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	return u.sendConfirmation(ctx, account, account.Email, nil)
}

func (u *accountUsecase) RequestEmailChange(ctx context.Context, params ChangeEmailParams) error {
	account, err := u.getAccount(ctx, params.AccountID)
	if err != nil {
		return err
	}

	if err := checkPassword(account, params.Password); err != nil {
		return err
	}

	if _, err := u.accounts.GetAccountByEmail(ctx, params.NewEmail); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	newEmail := params.NewEmail
	return u.sendConfirmation(ctx, account, newEmail, &newEmail)
}

// sendConfirmation issues a token for the account and mails its link to the given address.
func (u *accountUsecase) sendConfirmation(ctx context.Context, account *model.Account, to string, newEmail *string) error {
	token, err := u.verifications.issue(ctx, account, newEmail)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/%s", strings.TrimRight(u.cfg.AppConfirmEmailURL, "/"), token)
	subject, body := confirmationMessage(account.Username, link, u.cfg.Token.VerificationTokenExpiresIn)

	return u.notify(to, subject, body)
}
