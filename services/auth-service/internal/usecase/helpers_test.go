package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/djdict/djdict-api/services/auth-service/internal/config"
	"github.com/djdict/djdict-api/services/auth-service/internal/metrics"
	"github.com/djdict/djdict-api/services/auth-service/internal/model"
	"github.com/djdict/djdict-api/services/auth-service/internal/repository/memory"
	"github.com/djdict/djdict-api/shared/auth"
	"github.com/djdict/djdict-api/shared/clock"
	"github.com/djdict/djdict-api/shared/security"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const testPassword = "s3cret-passw0rd"

type sentMail struct {
	to      []string
	subject string
	body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendSimple(to []string, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail was sent")
	return m.sent[len(m.sent)-1]
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// recordingTokens hands out random tokens and remembers them in order.
type recordingTokens struct {
	mu     sync.Mutex
	issued []uuid.UUID
}

func (r *recordingTokens) NewToken() (uuid.UUID, error) {
	token, err := security.RandomTokenSource{}.NewToken()
	if err != nil {
		return uuid.Nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued = append(r.issued, token)
	return token, nil
}

func (r *recordingTokens) last(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.issued, "no token was issued")
	return r.issued[len(r.issued)-1].String()
}

type testEnv struct {
	usecase AccountUsecase
	store   *memory.Store
	clock   *clock.FakeClock
	mailer  *fakeMailer
	tokens  *recordingTokens
	cfg     *config.AuthServiceConfig
}

func testConfig() *config.AuthServiceConfig {
	return &config.AuthServiceConfig{
		AppConfirmEmailURL: "https://djdict.test/confirm/",
		Token: config.TokenConfig{
			Issuer:                     "djdict-auth",
			Audience:                   "djdict",
			SessionTokenSecret:         "secret",
			VerificationTokenExpiresIn: 24 * time.Hour,
		},
		Account: config.AccountConfig{
			SessionLifetime:           7200 * time.Second,
			RememberMeSessionLifetime: 1209600 * time.Second,
			TerminationGracePeriod:    5 * 24 * time.Hour,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:  memory.NewStore(),
		clock:  clock.Fake(epoch),
		mailer: &fakeMailer{},
		tokens: &recordingTokens{},
		cfg:    testConfig(),
	}

	logger := zerolog.Nop()
	jwtAuth := auth.NewJWTAuthenticator(env.cfg.Token.Audience, env.cfg.Token.Issuer, env.cfg.Token.SessionTokenSecret)

	env.usecase = NewAccountUsecase(
		Repositories{
			Accounts:      env.store.Accounts(),
			Verifications: env.store.Verifications(),
			Sessions:      env.store.Sessions(),
			Terminations:  env.store.Terminations(),
		},
		env.mailer,
		jwtAuth,
		metrics.New(prometheus.NewRegistry()),
		env.cfg,
		&logger,
		WithClock(env.clock),
		WithTokenSource(env.tokens),
	)

	return env
}

// registerActive registers and confirms an account.
func (e *testEnv) registerActive(t *testing.T, username, email string) *model.Account {
	t.Helper()
	ctx := context.Background()

	_, err := e.usecase.Register(ctx, RegisterParams{Username: username, Email: email, Password: testPassword})
	require.NoError(t, err)

	result, err := e.usecase.ConfirmEmail(ctx, e.tokens.last(t))
	require.NoError(t, err)
	require.True(t, result.Account.Active)

	return result.Account
}

func (e *testEnv) login(t *testing.T, email string, rememberMe bool) *LoginResult {
	t.Helper()
	result, err := e.usecase.Login(context.Background(), LoginParams{
		Email:      email,
		Password:   testPassword,
		RememberMe: rememberMe,
		IPAddress:  "203.0.113.7",
		UserAgent:  "test",
	})
	require.NoError(t, err)
	return result
}

func (e *testEnv) account(t *testing.T, id string) *model.Account {
	t.Helper()
	account, err := e.store.Accounts().GetAccount(context.Background(), id)
	require.NoError(t, err)
	return account
}

var errSMTP = errors.New("smtp: 451 temporary failure")
