package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/mail"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/services"
	"github.com/vidtube/backend/internal/views"
)

const mailSendTimeout = 15 * time.Second

type cleanupFunc func(ctx context.Context) error

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// The returned cleanup drains background mail delivery and closes external clients.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, cleanupFunc, error) {
	var closers []cleanupFunc
	cleanup := func(ctx context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i](ctx))
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (handlers.Dependencies, cleanupFunc, error) {
		_ = cleanup(ctx)
		return handlers.Dependencies{}, nil, err
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fail(err)
	}

	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)

	tokens, err := auth.NewTokenService(auth.Options{
		AccessSecret:  []byte(cfg.Tokens.AccessSecret),
		AccessTTL:     cfg.Tokens.AccessTTL,
		RefreshSecret: []byte(cfg.Tokens.RefreshSecret),
		RefreshTTL:    cfg.Tokens.RefreshTTL,
		ActionKey:     []byte(cfg.Tokens.ActionKey),
		ActionTTL:     cfg.Tokens.ActionTTL,
	}, users)
	if err != nil {
		return fail(fmt.Errorf("token service: %w", err))
	}

	backend, err := mediaBackend(ctx, cfg.Media)
	if err != nil {
		return fail(err)
	}
	store := media.NewService(backend, media.NewFFProbe(cfg.Media.FFProbePath, cfg.Media.FFProbeTimeout))

	sender, closeSender, err := mailSender(cfg.Mail, logger)
	if err != nil {
		return fail(err)
	}
	if closeSender != nil {
		closers = append(closers, closeSender)
	}
	dispatcher := mail.NewDispatcher(sender, mail.DispatcherConfig{
		QueueSize:   cfg.Mail.QueueSize,
		Workers:     cfg.Mail.Workers,
		SendTimeout: mailSendTimeout,
	}, logger)
	closers = append(closers, dispatcher.Shutdown)

	cache, closeCache, err := statsCache(cfg.Cache)
	if err != nil {
		return fail(err)
	}
	if closeCache != nil {
		closers = append(closers, closeCache)
	}
	aggregator := views.NewAggregator(repositories.NewPostgresViewRepository(pool))
	stats := views.NewCachingStats(aggregator, cache, cfg.Cache.StatsTTL)

	accounts := services.NewAccountService(services.AccountDeps{
		Users:         users,
		Tokens:        tokens,
		Media:         store,
		Mailer:        dispatcher,
		PublicBaseURL: cfg.PublicBaseURL,
	})

	deps := handlers.Dependencies{
		Accounts:      accounts,
		Channels:      aggregator,
		Videos:        services.NewVideoService(videos, store),
		Comments:      services.NewCommentService(repositories.NewPostgresCommentRepository(pool), videos),
		Likes:         services.NewLikeService(repositories.NewPostgresLikeRepository(pool), videos),
		Subscriptions: services.NewSubscriptionService(repositories.NewPostgresSubscriptionRepository(pool), users),
		Playlists:     services.NewPlaylistService(repositories.NewPostgresPlaylistRepository(pool)),
		Tweets:        services.NewTweetService(repositories.NewPostgresTweetRepository(pool)),
		Dashboard:     services.NewDashboardService(stats, videos),

		Verifier:    tokens,
		AuthLimiter: middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, cfg.AuthRateLimit, 10*cfg.AuthRateWindow),
		DB:          pool,

		TrustedProxies: proxies,

		Uploads:      handlers.Uploads{Dir: cfg.Uploads.Dir, MaxBytes: cfg.Uploads.MaxBytes},
		CookieSecure: cfg.CookieSecure,
		CORSOrigin:   cfg.CORSOrigin,
		Logger:       logger,
	}
	return deps, cleanup, nil
}

func mediaBackend(ctx context.Context, cfg config.MediaConfig) (media.Backend, error) {
	switch cfg.Provider {
	case "s3":
		backend, err := media.NewS3Backend(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, fmt.Errorf("media backend: %w", err)
		}
		return backend, nil
	case "cloudinary":
		backend, err := media.NewCloudinaryBackend(cfg.CloudinaryURL)
		if err != nil {
			return nil, fmt.Errorf("media backend: %w", err)
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown media provider %q", cfg.Provider)
	}
}

func mailSender(cfg config.MailConfig, logger *slog.Logger) (mail.Sender, cleanupFunc, error) {
	switch cfg.Driver {
	case "log", "":
		return mail.LogSender{Logger: logger}, nil, nil
	case "smtp":
		return mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.From,
		}), nil, nil
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, nil, errors.New("kafka mail driver requires at least one broker")
		}
		sender := mail.NewKafkaSender(cfg.KafkaBrokers, cfg.KafkaTopic)
		return sender, func(context.Context) error { return sender.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

func statsCache(cfg config.CacheConfig) (views.Cache, cleanupFunc, error) {
	if cfg.RedisURL == "" {
		return views.NewMemoryCache(), nil, nil
	}
	client, err := views.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("stats cache: %w", err)
	}
	return views.NewRedisCache(client), func(context.Context) error { return client.Close() }, nil
}
