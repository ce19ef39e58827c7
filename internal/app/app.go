package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vadimbarashkov/vortex/internal/classifier"
	"github.com/vadimbarashkov/vortex/internal/config"
	"github.com/vadimbarashkov/vortex/internal/metrics"
	"github.com/vadimbarashkov/vortex/internal/shortcode"
	"github.com/vadimbarashkov/vortex/internal/usecase"
	"github.com/vadimbarashkov/vortex/pkg/postgres"
	"github.com/vadimbarashkov/vortex/pkg/ratelimit"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/vortex/internal/adapter/delivery/http"
	repository "github.com/vadimbarashkov/vortex/internal/adapter/repository/postgres"
	redisclient "github.com/vadimbarashkov/vortex/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

// NewLogger returns the service logger: concise text in development, JSON elsewhere.
func NewLogger(cfg *config.Config) *httplog.Logger {
	level := slog.LevelInfo
	if cfg.Env == config.EnvDev {
		level = slog.LevelDebug
	}

	return httplog.NewLogger("vortex", httplog.Options{
		LogLevel:        level,
		JSON:            cfg.Env != config.EnvDev,
		Concise:         cfg.Env == config.EnvDev,
		Tags:            map[string]string{"env": cfg.Env},
		QuietDownRoutes: []string{"/api/v1/ping", "/metrics"},
		QuietDownPeriod: 10 * time.Second,
	})
}

func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	db, err := postgres.New(
		ctx,
		cfg.Postgres.DSN(),
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		postgres.WithStatementTimeout(cfg.Postgres.StatementTimeout),
		postgres.WithApplicationName("vortex"),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(cfg.MigrationsPath, cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		client, err := redisclient.New(
			ctx,
			cfg.Redis.Addr(),
			redisclient.WithPassword(cfg.Redis.Password),
			redisclient.WithDB(cfg.Redis.DB),
			redisclient.WithPoolSize(cfg.Redis.PoolSize),
			redisclient.WithDialTimeout(cfg.Redis.DialTimeout),
		)
		if err != nil {
			return fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}
		defer client.Close()

		limiter = ratelimit.New(client, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	var locator classifier.Locator
	if cfg.GeoIP.DBPath != "" {
		geo, err := classifier.OpenGeoIP(cfg.GeoIP.DBPath)
		if err != nil {
			return fmt.Errorf("%s: failed to open geoip database: %w", op, err)
		}
		defer closeQuietly(logger.Logger, geo)

		locator = geo
	}

	gen, err := shortcode.New(cfg.ShortCode.Length)
	if err != nil {
		return fmt.Errorf("%s: failed to create short code generator: %w", op, err)
	}

	m := metrics.NewWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	opts := []usecase.Option{
		usecase.WithLogger(logger.Logger),
		usecase.WithMetrics(m),
	}

	linkRepo := repository.NewLinkRepository(db)
	clickRepo := repository.NewClickRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	linkUseCase := usecase.NewLinkUseCase(linkRepo, gen, usecase.LinkConfig{
		MaxRetries: cfg.ShortCode.MaxRetries,
		BcryptCost: cfg.Auth.BcryptCost,
	}, opts...)
	recorder := usecase.NewClickRecorder(clickRepo, classifier.New(locator), opts...)
	redirectUseCase := usecase.NewRedirectUseCase(linkRepo, recorder, opts...)
	analyticsUseCase := usecase.NewAnalyticsUseCase(analyticsRepo, linkRepo, opts...)

	routerCfg := delivery.RouterConfig{
		FrontendURL:    cfg.FrontendURL,
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		AllowedOrigins: cfg.HTTPServer.AllowedOrigins,
		Metrics:        m,
	}
	if limiter != nil {
		routerCfg.Limiter = limiter
	}

	router := delivery.NewRouter(logger, routerCfg, delivery.Services{
		Links:     linkUseCase,
		Redirects: redirectUseCase,
		Analytics: analyticsUseCase,
	})

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", server.Addr), slog.String("env", cfg.Env))

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

func closeQuietly(logger *slog.Logger, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Warn("failed to close resource", slog.Any("err", err))
	}
}
