package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/auth"
	"video-quiz-service/internal/config"
	"video-quiz-service/internal/generator"
	"video-quiz-service/internal/infra/memory"
	"video-quiz-service/internal/infra/postgres"
	infraredis "video-quiz-service/internal/infra/redis"
	"video-quiz-service/internal/logger"
	"video-quiz-service/internal/metrics"
	transport "video-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var store app.AssessmentRepository = memory.NewAssessmentStore()
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = postgres.NewAssessmentStore(pool)
	} else {
		log.Warn("postgres url not configured, assessments are kept in memory")
	}

	cacheTTL := config.TTLDuration(cfg.Cache.TTL, 10*time.Minute)
	var repo app.AssessmentRepository
	if redisClient != nil {
		repo = infraredis.NewAssessmentCache(redisClient, store, cacheTTL, log)
	} else {
		repo = memory.NewAssessmentCache(store, cacheTTL)
	}

	authenticator, err := newAuthenticator(cfg, redisClient, log)
	if err != nil {
		return err
	}

	if cfg.Generator.BaseURL == "" {
		return errors.New("generator base url not configured")
	}
	capability := generator.NewHTTPCapability(cfg.Generator.BaseURL, config.TTLDuration(cfg.Generator.Timeout, 60*time.Second), nil)
	gateway := generator.NewGateway(capability,
		generator.WithModel(cfg.Generator.Model),
		generator.WithCounts(cfg.Generator.DefaultQuestions, cfg.Generator.MaxQuestions),
	)

	m := metrics.New()
	service := app.NewAssessmentService(repo, gateway, log, m)
	router := transport.NewRouter(transport.RouterConfig{
		Service:       service,
		Authenticator: authenticator,
		Logger:        log,
		Metrics:       m,
		CORSOrigins:   cfg.Server.CORSOrigins,
		CreateLimit:   cfg.Server.CreateLimit,
		CreateWindow:  config.TTLDuration(cfg.Server.CreateWindow, time.Minute),
	})

	// Write timeout must cover a full generator call.
	writeTimeout := config.TTLDuration(cfg.Generator.Timeout, 60*time.Second) + 15*time.Second
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
	}

	go func() {
		log.Info("starting assessment service", "port", finalPort, "auth_mode", cfg.Auth.Mode)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newAuthenticator(cfg config.Config, redisClient *redis.Client, log *logger.Logger) (auth.Authenticator, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeJWT:
		if cfg.Auth.JWTSecret == "" {
			return nil, errors.New("auth.jwt_secret is required in jwt mode")
		}
		return auth.NewJWTAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer), nil
	case config.AuthModeSession:
		if redisClient != nil {
			return auth.NewSessionAuthenticator(infraredis.NewSessionStore(redisClient)), nil
		}
		log.Warn("session auth without redis: only tokens registered in this process are accepted")
		return auth.NewSessionAuthenticator(memory.NewSessionStore()), nil
	default:
		return nil, errors.New("unknown auth mode " + cfg.Auth.Mode)
	}
}
