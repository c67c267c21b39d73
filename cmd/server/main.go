package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/event-market/event-market/internal/api/http"
	"github.com/event-market/event-market/internal/application/auth"
	"github.com/event-market/event-market/internal/application/background"
	"github.com/event-market/event-market/internal/application/eventrequest"
	"github.com/event-market/event-market/internal/application/negotiation"
	"github.com/event-market/event-market/internal/application/notification"
	"github.com/event-market/event-market/internal/application/user"
	"github.com/event-market/event-market/internal/config"
	domainEventRequest "github.com/event-market/event-market/internal/domain/eventrequest"
	domainNegotiation "github.com/event-market/event-market/internal/domain/negotiation"
	domainNotification "github.com/event-market/event-market/internal/domain/notification"
	domainUser "github.com/event-market/event-market/internal/domain/user"
	"github.com/event-market/event-market/internal/infrastructure/advisory"
	"github.com/event-market/event-market/internal/infrastructure/memory"
	"github.com/event-market/event-market/internal/infrastructure/postgres"
	"github.com/event-market/event-market/internal/infrastructure/realtime"
)

const expiryBatch = 100

type repositories struct {
	users         domainUser.Repository
	eventRequests domainEventRequest.Repository
	negotiations  domainNegotiation.Repository
	notifications domainNotification.Repository
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repos repositories
	switch cfg.StoreDriver {
	case config.DriverMemory:
		store := memory.NewStore()
		repos = repositories{store.Users(), store.EventRequests(), store.Negotiations(), store.Notifications()}
		logger.Warn().Msg("using in-memory store, data is lost on exit")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{MaxConnLifetime: time.Hour})
		if err != nil {
			logger.Fatal().Err(err).Msg("db error")
		}
		defer pool.Close()
		if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir, logger); err != nil {
			logger.Fatal().Err(err).Msg("migration error")
		}
		repos = postgresRepositories(pool)
	}

	// infrastructure
	tasks := background.NewRunner(10*time.Second, logger)
	registry := realtime.NewRegistry(realtime.Options{
		HeartbeatInterval: cfg.HeartbeatInterval,
		RosterInterval:    cfg.RosterLogInterval,
	}, logger)

	// services
	notificationSvc := notification.NewService(repos.notifications, registry, logger)
	registry.UseNotifications(notificationSvc)
	userSvc := user.NewService(repos.users, logger)
	authSvc := auth.NewService(repos.users, cfg.JWTSecret, cfg.JWTTTL, logger)
	eventRequestSvc := eventrequest.NewService(repos.eventRequests, notificationSvc, registry, tasks, logger)

	negotiationCfg := negotiation.Config{
		AdvisoryTimeout:      cfg.AdvisoryTimeout,
		ConvergenceThreshold: cfg.ConvergenceThreshold,
		NegotiationTTL:       cfg.NegotiationTTL,
	}
	if err := userSvc.ProvisionRoles(ctx); err != nil {
		logger.Fatal().Err(err).Msg("role provisioning error")
	}
	agent, err := userSvc.EnsureServiceAgent(ctx, cfg.AIAgentUsername)
	if err != nil {
		logger.Fatal().Err(err).Msg("service agent error")
	}
	negotiationCfg.AIAgentID = agent.UserID

	var advisor domainNegotiation.Advisor
	if cfg.AdvisoryURL != "" {
		advisor = advisory.NewClient(cfg.AdvisoryURL, cfg.AdvisoryTimeout, logger)
	} else {
		logger.Info().Msg("advisory endpoint not configured, counter offers use midpoint suggestions")
	}
	negotiationSvc := negotiation.NewService(repos.negotiations, repos.eventRequests, repos.users,
		notificationSvc, registry, advisor, tasks, negotiationCfg, logger)

	// API server
	apiServer := httpapi.NewServer(authSvc, userSvc, eventRequestSvc, negotiationSvc, notificationSvc, registry, logger)

	httpServer := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     apiServer.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// background loops
	registry.Init(ctx)
	tasks.Every(ctx, "negotiation.expire", cfg.ExpirySweepInterval, func(ctx context.Context) error {
		n, err := negotiationSvc.ExpireStale(ctx, expiryBatch)
		if n > 0 {
			logger.Info().Int("count", n).Msg("expired stale negotiations")
		}
		return err
	})

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Str("store", cfg.StoreDriver).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	logger.Info().Msg("shutting down")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	// hijacked websocket connections outlive httpServer.Shutdown
	registry.Shutdown()
	tasks.Wait()
}

func postgresRepositories(pool *pgxpool.Pool) repositories {
	return repositories{
		users:         postgres.NewUserRepository(pool),
		eventRequests: postgres.NewEventRequestRepository(pool),
		negotiations:  postgres.NewNegotiationRepository(pool),
		notifications: postgres.NewNotificationRepository(pool),
	}
}
