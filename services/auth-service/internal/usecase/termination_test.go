package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djdict/djdict-api/services/auth-service/internal/metrics"
	"github.com/djdict/djdict-api/services/auth-service/internal/model"
	"github.com/djdict/djdict-api/services/auth-service/internal/repository"
	"github.com/djdict/djdict-api/shared/auth"
)

func TestTerminateRevokesEverySession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.registerActive(t, "ayse", "ayse@djdict.test")

	phone := env.login(t, "ayse@djdict.test", true)
	laptop := env.login(t, "ayse@djdict.test", false)
	require.Equal(t, 2, env.store.CountSessions(account.ID))

	request, err := env.usecase.TerminateAccount(ctx, TerminateParams{
		AccountID: account.ID.Hex(),
		Password:  testPassword,
		State:     model.TerminationFreeze,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TerminationFreeze, request.State)
	assert.True(t, request.CreatedAt.Equal(epoch))

	assert.Equal(t, 0, env.store.CountSessions(account.ID))
	for _, s := range []*LoginResult{phone, laptop} {
		_, err := env.usecase.Authenticate(ctx, s.Session.SessionID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	}

	mail := env.mailer.last(t)
	assert.Equal(t, "your account is now frozen", mail.subject)
	assert.Contains(t, mail.body, "5 days")

	status, err := env.usecase.Status(ctx, account.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, StateFrozen, status.State)
	assert.Nil(t, status.DeletesAt)
}

func TestTerminateFailsWithoutNotice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.registerActive(t, "ayse", "ayse@djdict.test")
	env.login(t, "ayse@djdict.test", false)
	env.mailer.fail(errSMTP)

	_, err := env.usecase.TerminateAccount(ctx, TerminateParams{
		AccountID: account.ID.Hex(),
		Password:  testPassword,
		State:     model.TerminationDelete,
	})
	assert.ErrorIs(t, err, ErrNotificationFailed)
	assert.Equal(t, 0, env.store.CountTerminations(account.ID))
	assert.Equal(t, 1, env.store.CountSessions(account.ID))
}

func TestTerminateRequiresPassword(t *testing.T) {
	env := newTestEnv(t)
	account := env.registerActive(t, "ayse", "ayse@djdict.test")

	_, err := env.usecase.TerminateAccount(context.Background(), TerminateParams{
		AccountID: account.ID.Hex(),
		Password:  "wrong",
		State:     model.TerminationFreeze,
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 0, env.store.CountTerminations(account.ID))
}

func TestTerminateRejectsUnknownState(t *testing.T) {
	env := newTestEnv(t)
	account := env.registerActive(t, "ayse", "ayse@djdict.test")

	_, err := env.usecase.TerminateAccount(context.Background(), TerminateParams{
		AccountID: account.ID.Hex(),
		Password:  testPassword,
		State:     model.TerminationState("vanish"),
	})
	assert.ErrorIs(t, err, ErrInvalidTerminationState)
}

func TestTerminateTwiceKeepsLatestRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.registerActive(t, "ayse", "ayse@djdict.test")

	_, err := env.usecase.TerminateAccount(ctx, TerminateParams{
		AccountID: account.ID.Hex(),
		Password:  testPassword,
		State:     model.TerminationFreeze,
	})
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	_, err = env.usecase.TerminateAccount(ctx, TerminateParams{
		AccountID: account.ID.Hex(),
		Password:  testPassword,
		State:     model.TerminationDelete,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, env.store.CountTerminations(account.ID))

	status, err := env.usecase.Status(ctx, account.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, StateScheduledForDeletion, status.State)
	require.NotNil(t, status.Termination)
	assert.Equal(t, model.TerminationDelete, status.Termination.State)
	assert.True(t, status.Termination.CreatedAt.Equal(epoch.Add(time.Hour)))
	require.NotNil(t, status.DeletesAt)
	assert.True(t, status.DeletesAt.Equal(epoch.Add(time.Hour+5*24*time.Hour)))
}

func TestLoginReactivatesTerminatedAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.registerActive(t, "ayse", "ayse@djdict.test")

	_, err := env.usecase.TerminateAccount(ctx, TerminateParams{
		AccountID: account.ID.Hex(),
		Password:  testPassword,
		State:     model.TerminationDelete,
	})
	require.NoError(t, err)
	require.Equal(t, 1, env.store.CountTerminations(account.ID))

	result := env.login(t, "ayse@djdict.test", false)
	assert.True(t, result.Reactivated)
	assert.Equal(t, 0, env.store.CountTerminations(account.ID))

	status, err := env.usecase.Status(ctx, account.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, StateActive, status.State)

	again := env.login(t, "ayse@djdict.test", false)
	assert.False(t, again.Reactivated)
}

func TestStatusPendingActivation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.usecase.Register(ctx, RegisterParams{Username: "ayse", Email: "ayse@djdict.test", Password: testPassword})
	require.NoError(t, err)

	status, err := env.usecase.Status(ctx, account.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, StatePendingActivation, status.State)

	_, err = env.usecase.Status(ctx, "65f000000000000000000000")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

type failingSessions struct {
	repository.SessionRepository
	err error
}

func (f failingSessions) CreateSession(context.Context, *model.Session) (*model.Session, error) {
	return nil, f.err
}

func TestFailedLoginKeepsPendingTermination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.registerActive(t, "ayse", "ayse@djdict.test")

	_, err := env.usecase.TerminateAccount(ctx, TerminateParams{
		AccountID: account.ID.Hex(),
		Password:  testPassword,
		State:     model.TerminationDelete,
	})
	require.NoError(t, err)

	errStorage := errors.New("sessions unavailable")
	logger := zerolog.Nop()
	broken := NewAccountUsecase(
		Repositories{
			Accounts:      env.store.Accounts(),
			Verifications: env.store.Verifications(),
			Sessions:      failingSessions{SessionRepository: env.store.Sessions(), err: errStorage},
			Terminations:  env.store.Terminations(),
		},
		env.mailer,
		auth.NewJWTAuthenticator(env.cfg.Token.Audience, env.cfg.Token.Issuer, env.cfg.Token.SessionTokenSecret),
		metrics.New(prometheus.NewRegistry()),
		env.cfg,
		&logger,
		WithClock(env.clock),
	)

	_, err = broken.Login(ctx, LoginParams{Email: "ayse@djdict.test", Password: testPassword})
	assert.ErrorIs(t, err, errStorage)
	assert.Equal(t, 1, env.store.CountTerminations(account.ID))

	status, err := env.usecase.Status(ctx, account.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, StateScheduledForDeletion, status.State)
}
