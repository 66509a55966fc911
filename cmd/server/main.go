package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/study-advent/internal/config"
	"github.com/benvon/study-advent/internal/database"
	"github.com/benvon/study-advent/internal/events"
	"github.com/benvon/study-advent/internal/handlers"
	"github.com/benvon/study-advent/internal/logger"
	"github.com/benvon/study-advent/internal/middleware"
	"github.com/benvon/study-advent/internal/notifications"
	"github.com/benvon/study-advent/internal/persistence"
	"github.com/benvon/study-advent/internal/planner"
	"github.com/benvon/study-advent/internal/queue"
	"github.com/benvon/study-advent/internal/rooms"
	"github.com/benvon/study-advent/internal/services/ai"
	"github.com/benvon/study-advent/internal/services/oidc"
	"github.com/benvon/study-advent/internal/storage"
	"github.com/benvon/study-advent/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	jwksCacheTTL     = time.Hour
	requestTimeout   = 90 * time.Second
	queueDialRetries = 5
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging, including LLM request details")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewLogger(logger.Options{Debug: debugMode, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	if err := run(cfg, debugMode, zapLogger); err != nil {
		zapLogger.Fatal("server_failed", zap.Error(err))
	}
	zapLogger.Info("server_exited")
}

func run(cfg *config.Config, debugMode bool, zapLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("remote_store", cfg.RemoteStore),
		zap.String("timezone", cfg.Timezone),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		tp, err := telemetry.InitTracer(ctx, telemetry.ServiceName, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			cfg.OTELEnabled = false
		} else {
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	} else if cfg.OTELEnabled {
		zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		cfg.OTELEnabled = false
	}

	// Local store
	dbPath := cfg.LocalDBPath
	if dbPath == "" {
		p, err := storage.DefaultPath()
		if err != nil {
			return fmt.Errorf("failed to resolve local store path: %w", err)
		}
		dbPath = p
	}
	local, err := storage.OpenBolt(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}
	defer func() {
		if err := local.Close(); err != nil {
			zapLogger.Warn("failed_to_close_local_store", zap.Error(err))
		}
	}()
	zapLogger.Info("opened_local_store", zap.String("path", local.Path()))

	health := handlers.NewHealthChecker().Register("local_store", func(context.Context) error {
		_, _, err := local.Get(storage.KeyProgress)
		return err
	})

	// Redis serves rate limiting and, when selected, remote progress.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		health.Register("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
		zapLogger.Info("connected_to_redis")
	}

	var (
		remote persistence.RemoteStore
		users  *database.UserRepository
	)
	if cfg.DatabaseURL != "" {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
			}
		}()
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
		users = database.NewUserRepository(db)
		health.Register("database", db.HealthCheck)
		if cfg.RemoteStore == config.RemoteStorePostgres {
			remote = database.NewProgressRepository(db)
		}
		zapLogger.Info("connected_to_database")
	}
	if cfg.RemoteStore == config.RemoteStoreRedis {
		remote = persistence.NewRedisRemote(redisClient, 0)
	}

	persister := persistence.New(local, remote, zapLogger, persistence.WithRemoteTimeout(cfg.RemoteTimeout))

	// Planner
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clock := events.NewSystemClock(loc)

	var generator planner.TaskGenerator
	var chatService *ai.ChatService
	if provider, err := createAIProvider(cfg, zapLogger, debugMode); err != nil {
		zapLogger.Warn("ai_provider_unavailable_generation_disabled", zap.Error(err))
	} else {
		generator = provider
		if cfg.OTELEnabled {
			generator = telemetry.TraceGenerator(provider)
		}
		chatService = ai.NewChatService(provider)
	}

	plan := planner.New(local, persister, generator, zapLogger,
		planner.WithClock(clock),
		planner.WithSessionLog(local.SessionLog()),
		planner.WithTargetDays(cfg.TargetDays),
	)
	plan.Restore(ctx)

	// Reminders go to the worker through RabbitMQ when it is configured.
	var notifier notifications.Notifier = notifications.NewLogNotifier(zapLogger)
	var jobQueue *queue.RabbitMQQueue
	if cfg.RabbitMQURL != "" {
		jobQueue, err = connectQueue(ctx, cfg.RabbitMQURL, zapLogger)
		if err != nil {
			return err
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		health.Register("queue", jobQueue.HealthCheck)
		notifier = notifications.NewQueueNotifier(jobQueue, cfg.ReminderTTL)
	}
	scheduler := notifications.NewScheduler(local, plan, notifier, clock, cfg.ReminderInterval, zapLogger)

	// Auth
	authn, authOpts := setupAuth(ctx, cfg, zapLogger)
	if users != nil {
		authOpts = append(authOpts, handlers.WithSignInRecorder(users))
	}

	var expensive func(http.Handler) http.Handler
	if cfg.RateLimitEnabled {
		expensive, err = middleware.RateLimit(cfg.RateLimit, redisClient, zapLogger)
		if err != nil {
			return err
		}
	}

	r := mux.NewRouter()
	if cfg.OTELEnabled {
		r.Use(telemetry.Middleware(telemetry.ServiceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.CORSOrigins, zapLogger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType(zapLogger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	health.RegisterRoutes(r)
	handlers.NewOpenAPIHandler().RegisterRoutes(r)

	authHandler := handlers.NewAuthHandler(plan, zapLogger, authOpts...)
	authHandler.RegisterLoginRoutes(r)

	api := r.PathPrefix("/api/v1").Subrouter()

	authRouter := api.PathPrefix("/auth").Subrouter()
	authRouter.Use(authn.Required)
	authHandler.RegisterRoutes(authRouter)

	appRouter := api.NewRoute().Subrouter()
	appRouter.Use(authn.Optional)
	handlers.NewPlannerHandler(plan, zapLogger, handlers.WithGenerateLimiter(expensive)).RegisterRoutes(appRouter)
	handlers.NewRoomHandler(rooms.NewService(local, rooms.DefaultCatalog(), zapLogger), zapLogger).RegisterRoutes(appRouter)
	handlers.NewNotificationHandler(local, zapLogger).RegisterRoutes(appRouter)
	handlers.NewExportHandler(plan, zapLogger).RegisterRoutes(appRouter)
	if chatService != nil {
		handlers.NewChatHandler(chatService, plan, zapLogger, expensive).RegisterRoutes(appRouter)
	}

	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := scheduler.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("server_shutting_down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// let in-flight remote saves land before the stores close
		persister.Wait()
		return err
	})

	return g.Wait()
}

// setupAuth builds the bearer-token authenticator and, when a client is registered, the login flow.
func setupAuth(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) (*middleware.Authenticator, []handlers.AuthHandlerOption) {
	oidcCfg := cfg.OIDC()
	if !oidcCfg.Enabled() {
		zapLogger.Info("oidc_not_configured_running_anonymous")
		return middleware.NewAuthenticator(nil, zapLogger), nil
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	endpoints, err := oidc.ResolveEndpoints(ctx, httpClient, oidcCfg)
	if err != nil {
		zapLogger.Warn("oidc_discovery_failed_using_fallback_endpoints", zap.Error(err))
	}

	verifier := oidc.NewVerifier(oidc.NewJWKSManager(jwksCacheTTL, httpClient), oidcCfg, endpoints.JWKSURI)
	opts := []handlers.AuthHandlerOption{
		handlers.WithLoginFlow(oidc.NewClient(oidcCfg, endpoints), verifier, cfg.FrontendURL),
	}
	zapLogger.Info("oidc_configured",
		zap.String("issuer", oidcCfg.Issuer),
		zap.String("jwks_uri", endpoints.JWKSURI),
	)
	return middleware.NewAuthenticator(verifier, zapLogger), opts
}

// connectQueue dials RabbitMQ with exponential backoff to ride out broker startup.
func connectQueue(ctx context.Context, url string, zapLogger *zap.Logger) (*queue.RabbitMQQueue, error) {
	delay := 2 * time.Second
	var lastErr error
	for attempt := 1; attempt <= queueDialRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(url, zapLogger)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return q, nil
		}
		lastErr = err
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", queueDialRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, 30*time.Second)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", queueDialRetries, lastErr)
}

// createAIProvider creates an AI provider based on configuration
func createAIProvider(cfg *config.Config, zapLogger *zap.Logger, debugMode bool) (ai.Provider, error) {
	if cfg.OpenAIKey == "" {
		return nil, errors.New("OPENAI_API_KEY not configured")
	}

	registry := ai.NewProviderRegistry()
	ai.RegisterOpenAI(registry, zapLogger)

	debug := "false"
	if debugMode {
		debug = "true"
	}
	return registry.GetProvider("openai", map[string]string{
		"api_key":  cfg.OpenAIKey,
		"model":    cfg.AIModel,
		"base_url": cfg.AIBaseURL,
		"debug":    debug,
	})
}
