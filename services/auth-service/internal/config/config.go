package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/djdict/djdict-api/shared/mailer"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

// AuthServiceConfig holds the auth service configuration read from the environment.
type AuthServiceConfig struct {
	Addr               string   `env:"AUTH_SERVICE_ADDR"     envDefault:":8080"`
	LogLevel           string   `env:"LOG_LEVEL"             envDefault:"info"`
	StorageDriver      string   `env:"STORAGE_DRIVER"        envDefault:"mongo"`
	AppConfirmEmailURL string   `env:"APP_CONFIRM_EMAIL_URL" envDefault:"http://localhost:8080/v1/auth/confirm"`
	AllowedOrigins     []string `env:"CORS_ALLOWED_ORIGINS"  envDefault:"http://localhost:3000" envSeparator:","`

	Mongo     MongoConfig     `envPrefix:"MONGO_"`
	SMTP      mailer.Config   `envPrefix:"SMTP_"`
	Token     TokenConfig     `envPrefix:"TOKEN_"`
	Account   AccountConfig   `envPrefix:"ACCOUNT_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
}

// MongoConfig holds the MongoDB connection settings.
type MongoConfig struct {
	URI            string        `env:"URI"             envDefault:"mongodb://localhost:27017"`
	Database       string        `env:"DATABASE"        envDefault:"djdict"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// TokenConfig holds session token and verification token settings.
type TokenConfig struct {
	Issuer                     string        `env:"ISSUER"                        envDefault:"djdict-auth"`
	Audience                   string        `env:"AUDIENCE"                      envDefault:"djdict"`
	SessionTokenSecret         string        `env:"SESSION_TOKEN_SECRET"`
	VerificationTokenExpiresIn time.Duration `env:"VERIFICATION_TOKEN_EXPIRES_IN" envDefault:"24h"`
}

// AccountConfig holds account lifecycle durations.
type AccountConfig struct {
	SessionLifetime           time.Duration `env:"SESSION_LIFETIME"             envDefault:"2h"`
	RememberMeSessionLifetime time.Duration `env:"REMEMBER_ME_SESSION_LIFETIME" envDefault:"336h"`
	TerminationGracePeriod    time.Duration `env:"TERMINATION_GRACE_PERIOD"     envDefault:"120h"`
}

// RateLimitConfig bounds unauthenticated auth requests per client IP.
type RateLimitConfig struct {
	Requests int           `env:"REQUESTS" envDefault:"20"`
	Window   time.Duration `env:"WINDOW"   envDefault:"1m"`
}

// Load parses the environment into an AuthServiceConfig and validates it.
func Load() (*AuthServiceConfig, error) {
	cfg, err := env.ParseAs[AuthServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *AuthServiceConfig) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case StorageMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("missing MONGO_URI environment variable"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	if c.Token.SessionTokenSecret == "" {
		errs = append(errs, errors.New("missing TOKEN_SESSION_TOKEN_SECRET environment variable"))
	}
	if c.Token.VerificationTokenExpiresIn <= 0 {
		errs = append(errs, errors.New("TOKEN_VERIFICATION_TOKEN_EXPIRES_IN must be positive"))
	}
	if c.Account.SessionLifetime <= 0 || c.Account.RememberMeSessionLifetime <= 0 {
		errs = append(errs, errors.New("session lifetimes must be positive"))
	}
	if c.Account.TerminationGracePeriod <= 0 {
		errs = append(errs, errors.New("ACCOUNT_TERMINATION_GRACE_PERIOD must be positive"))
	}
	if err := c.SMTP.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
