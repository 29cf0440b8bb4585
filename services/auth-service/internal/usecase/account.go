package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/djdict/djdict-api/services/auth-service/internal/config"
	"github.com/djdict/djdict-api/services/auth-service/internal/metrics"
	"github.com/djdict/djdict-api/services/auth-service/internal/model"
	"github.com/djdict/djdict-api/services/auth-service/internal/repository"
	authtypes "github.com/djdict/djdict-api/services/auth-service/pkg/types"
	"github.com/djdict/djdict-api/shared/auth"
	"github.com/djdict/djdict-api/shared/clock"
	"github.com/djdict/djdict-api/shared/security"
)

// AccountUsecase drives the account lifecycle: registration and e-mail verification,
// login and logout, credential changes and freeze/delete termination.
type AccountUsecase interface {
	// Register creates an inactive account and e-mails its activation link. When the
	// e-mail cannot be sent the account is kept and ErrNotificationFailed is returned
	// alongside it.
	Register(ctx context.Context, params RegisterParams) (*model.Account, error)

	// ConfirmEmail consumes a verification token. Every kind of miss is reported as
	// ErrVerificationFailed.
	ConfirmEmail(ctx context.Context, token string) (*ConfirmResult, error)

	// ResendConfirmation issues a fresh activation link to the account owning email.
	ResendConfirmation(ctx context.Context, email string) error

	// Login authenticates the account, cancels any pending termination and opens a session.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Logout revokes a single session.
	Logout(ctx context.Context, sessionID string) error

	// Authenticate resolves a live session.
	Authenticate(ctx context.Context, sessionID string) (*model.Session, error)

	// ChangePassword commits the new password before notifying the owner. A failed
	// notification is reported as ErrNotificationFailed with the change already saved.
	ChangePassword(ctx context.Context, params ChangePasswordParams) error

	// RequestEmailChange e-mails a confirmation link to the new address. The account's
	// e-mail only changes once that link is confirmed.
	RequestEmailChange(ctx context.Context, params ChangeEmailParams) error

	// TerminateAccount notifies the owner, queues the freeze/delete request and revokes
	// every session of the account.
	TerminateAccount(ctx context.Context, params TerminateParams) (*model.TerminationRequest, error)

	// Status reports the derived lifecycle state of the account.
	Status(ctx context.Context, accountID string) (*AccountStatus, error)
}

var (
	ErrAccountAlreadyExists    = errors.New("account already exists")
	ErrAccountNotFound         = errors.New("account not found")
	ErrAccountInactive         = errors.New("account is not activated")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrVerificationFailed      = errors.New("e-mail verification failed")
	ErrNotificationFailed      = errors.New("notification could not be delivered")
	ErrEmailTaken              = errors.New("e-mail address is already in use")
	ErrSessionNotFound         = errors.New("session not found")
	ErrInvalidTerminationState = errors.New("invalid termination state")
)

// Mailer delivers plain text notifications. *mailer.Mailer satisfies it.
type Mailer interface {
	SendSimple(to []string, subject, body string) error
}

// Repositories bundles the persistence the usecase depends on.
type Repositories struct {
	Accounts      repository.AccountRepository
	Verifications repository.VerificationRepository
	Sessions      repository.SessionRepository
	Terminations  repository.TerminationRepository
}

// RegisterParams defines the parameters for account registration.
type RegisterParams struct {
	Username string
	Email    string
	Password string
}

// LoginParams defines the parameters for login.
type LoginParams struct {
	Email      string
	Password   string
	RememberMe bool
	IPAddress  string
	UserAgent  string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Account     *model.Account
	Session     *model.Session
	Token       authtypes.SessionToken
	Reactivated bool
}

// ChangePasswordParams defines the parameters for a password change. SessionID names the
// session making the request; it survives while every other session is revoked.
type ChangePasswordParams struct {
	AccountID       string
	SessionID       string
	CurrentPassword string
	NewPassword     string
}

// ChangeEmailParams defines the parameters for an e-mail change request.
type ChangeEmailParams struct {
	AccountID string
	Password  string
	NewEmail  string
}

// TerminateParams defines the parameters for an account termination request.
type TerminateParams struct {
	AccountID string
	Password  string
	State     model.TerminationState
}

// ConfirmKind tells which pending action a confirmation completed.
type ConfirmKind string

const (
	ConfirmActivation  ConfirmKind = "activation"
	ConfirmEmailChange ConfirmKind = "email_change"
)

// ConfirmResult is returned by a successful confirmation.
type ConfirmResult struct {
	Kind    ConfirmKind
	Account *model.Account
}

// AccountState is the lifecycle state derived from the account and its pending
// termination request.
type AccountState string

const (
	StatePendingActivation    AccountState = "pending-activation"
	StateActive               AccountState = "active"
	StateFrozen               AccountState = "frozen"
	StateScheduledForDeletion AccountState = "scheduled-for-deletion"
)

// AccountStatus describes an account's current lifecycle state.
type AccountStatus struct {
	Account     *model.Account
	State       AccountState
	Termination *model.TerminationRequest
	DeletesAt   *time.Time
}

// Option customizes the usecase.
type Option func(*accountUsecase)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clock.Clock) Option {
	return func(u *accountUsecase) { u.clock = c }
}

// WithTokenSource replaces the random verification token source.
func WithTokenSource(ts security.TokenSource) Option {
	return func(u *accountUsecase) { u.tokens = ts }
}

type accountUsecase struct {
	accounts      repository.AccountRepository
	verifications *verificationStore
	sessions      repository.SessionRepository
	terminations  repository.TerminationRepository
	mailer        Mailer
	jwtAuth       auth.JWTAuthenticator
	metrics       *metrics.Metrics
	cfg           *config.AuthServiceConfig
	logger        *zerolog.Logger
	clock         clock.Clock
	tokens        security.TokenSource
}

// NewAccountUsecase creates a new instance of AccountUsecase.
func NewAccountUsecase(
	repos Repositories,
	mailer Mailer,
	jwtAuth auth.JWTAuthenticator,
	m *metrics.Metrics,
	cfg *config.AuthServiceConfig,
	logger *zerolog.Logger,
	opts ...Option,
) AccountUsecase {
	u := &accountUsecase{
		accounts:     repos.Accounts,
		sessions:     repos.Sessions,
		terminations: repos.Terminations,
		mailer:       mailer,
		jwtAuth:      jwtAuth,
		metrics:      m,
		cfg:          cfg,
		logger:       logger,
		clock:        clock.Real(),
		tokens:       security.RandomTokenSource{},
	}

	for _, opt := range opts {
		opt(u)
	}

	u.verifications = &verificationStore{
		repo:   repos.Verifications,
		tokens: u.tokens,
		clock:  u.clock,
		ttl:    cfg.Token.VerificationTokenExpiresIn,
	}

	return u
}

func (u *accountUsecase) getAccount(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := u.accounts.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return account, nil
}

// checkPassword is the re-authentication gate in front of sensitive account changes.
func checkPassword(account *model.Account, password string) error {
	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}

	return nil
}

func (u *accountUsecase) notify(to, subject, body string) error {
	if err := u.mailer.SendSimple([]string{to}, subject, body); err != nil {
		return errors.Join(ErrNotificationFailed, err)
	}

	return nil
}
