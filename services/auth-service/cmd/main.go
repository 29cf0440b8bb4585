package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/djdict/djdict-api/services/auth-service/internal/config"
	"github.com/djdict/djdict-api/services/auth-service/internal/handler"
	"github.com/djdict/djdict-api/services/auth-service/internal/metrics"
	"github.com/djdict/djdict-api/services/auth-service/internal/repository"
	"github.com/djdict/djdict-api/services/auth-service/internal/repository/memory"
	"github.com/djdict/djdict-api/services/auth-service/internal/usecase"
	"github.com/djdict/djdict-api/shared/auth"
	"github.com/djdict/djdict-api/shared/mailer"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "auth-service").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Str("level", cfg.LogLevel).Msg("invalid log level")
	}
	logger = logger.Level(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStorage := openStorage(ctx, cfg, &logger)
	defer closeStorage()

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Audience, cfg.Token.Issuer, cfg.Token.SessionTokenSecret)

	accountUsecase := usecase.NewAccountUsecase(
		repos,
		mailer.NewMailer(cfg.SMTP, &logger),
		jwtAuth,
		metrics.New(prometheus.DefaultRegisterer),
		cfg,
		&logger,
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.NewAuthHTTPHandler(accountUsecase, jwtAuth, cfg, prometheus.DefaultGatherer, &logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("storage", cfg.StorageDriver).Msg("auth service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to serve")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// openStorage connects the configured backend and returns a function that releases it.
func openStorage(
	ctx context.Context,
	cfg *config.AuthServiceConfig,
	logger *zerolog.Logger,
) (usecase.Repositories, func()) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return usecase.Repositories{
			Accounts:      store.Accounts(),
			Verifications: store.Verifications(),
			Sessions:      store.Sessions(),
			Terminations:  store.Terminations(),
		}, func() {}
	}

	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(cfg.Mongo.ConnectTimeout))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mongodb")
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping mongodb")
	}

	db := client.Database(cfg.Mongo.Database)
	repos := usecase.Repositories{
		Accounts:      repository.NewAccountMongoRepository(ctx, logger, db),
		Verifications: repository.NewVerificationMongoRepository(ctx, logger, db),
		Sessions:      repository.NewSessionMongoRepository(ctx, logger, db),
		Terminations:  repository.NewTerminationMongoRepository(ctx, logger, db),
	}

	return repos, func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from mongodb")
		}
	}
}
