package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/sorria/internal/api"
	"github.com/saturnino-fabrica-de-software/sorria/internal/audit"
	"github.com/saturnino-fabrica-de-software/sorria/internal/captcha"
	"github.com/saturnino-fabrica-de-software/sorria/internal/config"
	"github.com/saturnino-fabrica-de-software/sorria/internal/database"
	"github.com/saturnino-fabrica-de-software/sorria/internal/face"
	"github.com/saturnino-fabrica-de-software/sorria/internal/handoff"
	"github.com/saturnino-fabrica-de-software/sorria/internal/housekeeping"
	"github.com/saturnino-fabrica-de-software/sorria/internal/metrics"
	"github.com/saturnino-fabrica-de-software/sorria/internal/ratelimit"
	"github.com/saturnino-fabrica-de-software/sorria/internal/repository"
	"github.com/saturnino-fabrica-de-software/sorria/internal/revocation"
	"github.com/saturnino-fabrica-de-software/sorria/internal/service"
	"github.com/saturnino-fabrica-de-software/sorria/internal/ws"
)

const (
	shutdownTimeout = 10 * time.Second
	captchaTimeout  = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Sorria API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("extractor", cfg.ExtractorType),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	migrator, err := database.NewMigrator(database.OpenDB(pool), "sorria")
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()
	if err := migrator.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Audit: always to the log, to RabbitMQ when configured
	auditLogger := audit.MultiLogger{audit.NewSlogLogger(logger)}
	if cfg.AMQPURL != "" {
		publisher, err := audit.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("failed to connect to amqp: %w", err)
		}
		defer func() { _ = publisher.Close() }()
		auditLogger = append(auditLogger, publisher)
	}

	// Revocation list: Redis when configured, in-process otherwise
	var revoked revocation.List = revocation.NewMemoryList()
	if cfg.RedisURL != "" {
		client, err := revocation.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() { _ = client.Close() }()
		revoked = revocation.NewRedisList(client)
	}

	ext, err := face.NewExtractor(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}

	var verifier captcha.Verifier = captcha.AllowAll{}
	if cfg.CaptchaEnabled() {
		verifier = captcha.NewClient(cfg.CaptchaSecret, cfg.CaptchaVerifyURL, captchaTimeout)
	} else if cfg.IsProduction() {
		logger.Warn("captcha disabled in production")
	}

	// Repositories
	codeRepo := repository.NewAuthorizationCodeRepository(pool)
	tokenRepo := repository.NewAccessTokenRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	appRepo := repository.NewApplicationRepository(pool)
	templateRepo := repository.NewTemplateRepository(pool)

	limiter := ratelimit.NewRateLimiter(pool, time.Minute)
	m := metrics.New(prometheus.DefaultRegisterer)

	// Services
	authz := service.NewAuthorizationService(codeRepo, auditLogger, cfg.CodeTTL)
	tokens := service.NewTokenService(tokenRepo, userRepo, revoked, auditLogger, logger, cfg.AccessTokenTTL)
	signer := handoff.NewSigner(cfg.HandOffSecret, "sorria", cfg.HandOffTTL)
	apps := service.NewApplicationService(appRepo, signer, limiter, cfg.ValidateRateLimit, auditLogger)
	capture := service.NewCaptureService(templateRepo, authz, auditLogger, cfg.CaptchaEnabled())

	router := api.NewRouter(logger, &api.Dependencies{
		Tokens:            tokens,
		Applications:      apps,
		Capture:           capture,
		Extractor:         ext,
		Captcha:           verifier,
		Limiter:           limiter,
		DB:                pool,
		Metrics:           m,
		Gatherer:          prometheus.DefaultGatherer,
		ExchangeRateLimit: cfg.ExchangeRateLimit,
		CaptureConfig: ws.HandlerConfig{
			Interval:      cfg.CaptureInterval,
			DetectTimeout: cfg.DetectTimeout,
		},
	})
	router.Setup()

	worker := housekeeping.NewWorker([]housekeeping.Task{
		{Name: "authorization_codes", Run: func(ctx context.Context) (int64, error) {
			return codeRepo.DeleteExpired(ctx, time.Now())
		}},
		{Name: "access_tokens", Run: func(ctx context.Context) (int64, error) {
			return tokenRepo.DeleteExpired(ctx, time.Now())
		}},
		{Name: "rate_limit_counters", Run: limiter.CleanupExpired},
	}, logger, m, 0)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		return router.Listen(addr)
	})

	g.Go(func() error {
		worker.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return router.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
