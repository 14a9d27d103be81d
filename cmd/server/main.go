package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"familyhub/internal/cache"
	"familyhub/internal/calendar"
	"familyhub/internal/config"
	"familyhub/internal/database"
	"familyhub/internal/handlers"
	"familyhub/internal/identity"
	"familyhub/internal/logging"
	"familyhub/internal/payments"
	"familyhub/internal/repository"
	"familyhub/internal/security"
	"familyhub/internal/service"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "familyhub: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	reporter := logging.NewReporter(cfg.SentryDSN, cfg.Environment, logger)
	defer reporter.Flush(2 * time.Second)

	startup := handlers.NewStartupStatus(handlers.StepDatabase, handlers.StepMigrations, handlers.StepServices)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, pgx, mysql)
	startup.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	startup.CompleteStep(handlers.StepDatabase)
	logger.Info("database connection established", zap.String("type", cfg.DatabaseType))

	startup.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	startup.CompleteStep(handlers.StepMigrations)
	logger.Info("migrations completed successfully")

	startup.SetCurrentStep(handlers.StepServices)
	store, err := newCacheStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var verifier identity.Verifier
	if cfg.AuthJWTSecret != "" {
		verifier = identity.NewJWTVerifier(cfg.AuthJWTSecret)
	} else {
		verifier = identity.NewRemoteVerifier(cfg.AuthURL, cfg.AuthAPIKey, &http.Client{Timeout: cfg.AuthTimeout})
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	personaRepo := repository.NewPersonaRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	eventRepo := repository.NewEventRepository(db)
	listRepo := repository.NewListRepository(db)
	choreRepo := repository.NewChoreRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	// Initialize services
	membership := service.NewMembershipService(userRepo, familyRepo, personaRepo, logger)

	var calendarService *service.CalendarService
	if cfg.CalendarEnabled() {
		sealer, err := security.NewSealer(cfg.TokenSealingKey)
		if err != nil {
			return fmt.Errorf("calendar sync needs TOKEN_SEALING_KEY: %w", err)
		}
		provider := calendar.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.PublicBaseURL+"/calendar/callback", cfg.CalendarTimeout)
		calendarService = service.NewCalendarService(calendarRepo, eventRepo, membership, provider, store, sealer, logger)
	} else {
		logger.Info("GOOGLE_CLIENT_ID not set, calendar sync disabled")
	}

	var paymentProvider payments.Provider
	if cfg.PaymentsEnabled() {
		paymentProvider = payments.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret, nil)
	} else {
		logger.Info("STRIPE_SECRET_KEY not set, subscriptions disabled")
	}

	handler := handlers.NewRouter(handlers.Deps{
		Resolver:      identity.NewResolver(verifier, cfg.AuthTimeout),
		Membership:    membership,
		Invites:       service.NewInviteService(inviteRepo, familyRepo, membership, logger),
		Personas:      service.NewPersonaService(personaRepo, membership),
		Events:        service.NewEventService(eventRepo, personaRepo, membership),
		Lists:         service.NewListService(listRepo, personaRepo, membership),
		Chores:        service.NewChoreService(choreRepo, personaRepo, membership),
		Messages:      service.NewMessageService(messageRepo, familyRepo, membership, logger),
		Calendar:      calendarService,
		Subscriptions: service.NewSubscriptionService(subscriptionRepo, membership, paymentProvider, cfg.StripePriceID, logger),
		Exports:       service.NewExportService(familyRepo, personaRepo, eventRepo, listRepo, choreRepo, messageRepo, subscriptionRepo, membership, logger),

		Startup:  startup,
		DB:       db,
		Limiter:  security.NewRateLimiter(cfg.RateLimitRPM, cfg.TrustProxyHeaders),
		Signer:   security.NewPayloadSigner(cfg.MessageWebhookSecret),
		Origins:  cfg.CORSAllowedOrigins,
		Reporter: reporter,
		Logger:   logger,
	})
	startup.CompleteStep(handlers.StepServices)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", addr), zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	startup.MarkReady()

	// Graceful shutdown
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newCacheStore picks Redis when REDIS_ADDR is set and the in-process store otherwise
func newCacheStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Store, error) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, using in-memory cache")
		return cache.NewMemoryStore(), nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("using redis cache", zap.String("addr", cfg.RedisAddr))
	return cache.NewRedisStore(client, "familyhub:"), nil
}
