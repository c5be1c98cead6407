// Package main is the entrypoint for the URL shortener API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/urlshortcut/urlshortcut/internal/auth"
	"github.com/urlshortcut/urlshortcut/internal/cache"
	"github.com/urlshortcut/urlshortcut/internal/config"
	"github.com/urlshortcut/urlshortcut/internal/handler"
	"github.com/urlshortcut/urlshortcut/internal/metrics"
	"github.com/urlshortcut/urlshortcut/internal/middleware"
	"github.com/urlshortcut/urlshortcut/internal/repository"
	"github.com/urlshortcut/urlshortcut/internal/server"
	"github.com/urlshortcut/urlshortcut/internal/service"
	"github.com/urlshortcut/urlshortcut/internal/visits"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := initLogger(cfg)

	if cfg.MigrateOnBoot {
		if err := repository.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return errors.New(sanitizeError(err, cfg.DatabaseURL))
		}
		logger.Info("database migrations applied")
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return errors.New("database unavailable")
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return errors.New("redis unavailable")
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	recorder := metrics.NewInMemory()

	tokenCfg := cfg.TokenConfig()
	issuer, err := auth.NewTokenIssuer(tokenCfg)
	if err != nil {
		return err
	}
	verifier, err := auth.NewTokenVerifier(tokenCfg)
	if err != nil {
		return err
	}
	hasher := auth.NewArgon2Hasher(auth.DefaultArgon2Params)

	var visitRecorder service.VisitRecorder
	var worker *visits.Worker
	if cfg.VisitsEnabled {
		visitRecorder = visits.NewPublisher(cacheClient.Client(), logger, recorder)
		worker = visits.NewWorker(
			cacheClient.Client(),
			repository.NewAccessRecordRepository(repo),
			logger,
			visits.NewConsumerID(),
			recorder,
		)
		worker.SetBatchSize(cfg.VisitsBatchSize)
	}

	ownerService := service.NewOwnerService(repo, repo, hasher, cacheClient, logger, recorder)
	tokenService := service.NewTokenService(repo, hasher, issuer, recorder)
	urlService := service.NewURLService(repo, repo, cacheClient, visitRecorder, logger, recorder)

	trustedProxies, err := cfg.GetTrustedProxies()
	if err != nil {
		return fmt.Errorf("failed to parse trusted proxies: %w", err)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	router := handler.NewRouter(handler.RouterConfig{
		Logger:      logger,
		Verifier:    verifier,
		Metrics:     recorder,
		Snapshotter: recorder,
		RateLimit: middleware.RateLimitConfig{
			Limiter:          cacheClient,
			APIEnabled:       cfg.RateLimitAPIEnabled,
			APIRatePerMinute: cfg.RateLimitAPIPerMinute,
			APIBurst:         cfg.RateLimitAPIBurst,
			IPEnabled:        cfg.RateLimitIPEnabled,
			IPRPS:            cfg.RateLimitIPRPS,
			IPBurst:          cfg.RateLimitIPBurst,
		},
		CORS:           cors,
		Security:       middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		MaxBodySize:    cfg.MaxRequestBodySize,
		TrustedProxies: trustedProxies,
		Owners:         ownerService,
		Tokens:         tokenService,
		URLs:           urlService,
		DB:             repo,
		Cache:          cacheClient,
	})

	srv := server.New(router, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	if worker != nil {
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("visits worker stopped", "error", err)
			}
		}()
		srv.OnShutdown("visits-worker", worker.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"visits_enabled", cfg.VisitsEnabled,
	)

	return srv.Run(ctx)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

// redactURL strips the password from a connection string.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return passwordPattern.ReplaceAllString(parsed.String(), "password=redacted")
}

// sanitizeError removes connection secrets from driver error messages.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
