package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/taskflow/taskflow-api/internal/cache"
	"github.com/taskflow/taskflow-api/internal/config"
	"github.com/taskflow/taskflow-api/internal/database"
	"github.com/taskflow/taskflow-api/internal/handlers"
	"github.com/taskflow/taskflow-api/internal/logger"
	"github.com/taskflow/taskflow-api/internal/middleware"
	"github.com/taskflow/taskflow-api/internal/queue"
	"github.com/taskflow/taskflow-api/internal/services/oidc"
	"github.com/taskflow/taskflow-api/internal/services/suggest"
	"github.com/taskflow/taskflow-api/internal/store"
	"github.com/taskflow/taskflow-api/internal/telemetry"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for verbose logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		// Ignore sync errors on shutdown
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Duration("quiet_period", cfg.QuietPeriod),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Initialize OpenTelemetry if enabled
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "taskflow-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				zapLogger.Info("otel_tracer_initialized",
					zap.String("endpoint", cfg.OTELEndpoint),
				)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Connect to database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	// Connect to Redis for list caching, suggestion slots, and rate limiting
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_parse_redis_url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	// Connect to RabbitMQ for the suggestion job queue (required).
	// Retry connection with exponential backoff to handle RabbitMQ startup delays.
	jobQueue, err := connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq")

	// Repositories and caches
	todoRepo := database.NewTodoRepository(db)
	userRepo := database.NewUserRepository(db)
	listCache := cache.NewTodoListCache(redisClient, cfg.ListCacheTTL)
	suggestionStore := cache.NewRedisSuggestionStore(redisClient, cfg.SuggestionTTL)

	todoStore := store.NewTodoStore(todoRepo, listCache, zapLogger)

	// OIDC services
	jwksURL := cfg.OIDCJWKSURL
	if jwksURL == "" && cfg.OIDCIssuer != "" {
		jwksURL = strings.TrimRight(cfg.OIDCIssuer, "/") + "/.well-known/jwks.json"
	}
	jwksManager := oidc.NewJWKSManager(jwksURL)
	verifier := oidc.NewVerifier(jwksManager, cfg.OIDCIssuer)
	oidcClient := oidc.NewClient(cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCRedirectURI)

	// Debounce coordinator: quiet drafts become suggestion jobs, short
	// drafts clear the owner's suggestion slot.
	coordinator := suggest.NewCoordinator(cfg.QuietPeriod,
		func(owner uuid.UUID, seq uint64, description string) {
			job := queue.NewSuggestionJob(owner, seq, description)
			if err := jobQueue.Enqueue(context.Background(), job); err != nil {
				zapLogger.Error("failed_to_enqueue_suggestion_job",
					zap.String("owner_id", owner.String()),
					zap.Uint64("seq", seq),
					zap.Error(err),
				)
			}
		},
		func(owner uuid.UUID, seq uint64) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := suggestionStore.Clear(ctx, owner, seq); err != nil {
				zapLogger.Warn("failed_to_clear_suggestion",
					zap.String("owner_id", owner.String()),
					zap.Uint64("seq", seq),
					zap.Error(err),
				)
			}
		},
		zapLogger,
	)
	defer coordinator.Stop()

	// Handlers
	todoHandler := handlers.NewTodoHandler(todoStore, suggestionStore, zapLogger)
	suggestionHandler := handlers.NewSuggestionHandler(coordinator, suggestionStore, zapLogger)
	authHandler := handlers.NewAuthHandler(oidcClient)
	healthChecker := handlers.NewHealthChecker(db, redisClient, jobQueue)

	// Router and middleware
	r := mux.NewRouter()

	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware("taskflow-api"))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORSFromEnv(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Public routes
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	openAPIPath := filepath.Join("api", "openapi", "openapi.yaml")
	openAPIHandler := handlers.NewOpenAPIHandler(openAPIPath)
	openAPIHandler.RegisterRoutes(r)

	// API v1 routes
	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	authMW := middleware.Auth(userRepo, verifier, zapLogger)

	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	loginRouter := authRouter.PathPrefix("/oidc").Subrouter()
	loginRouter.Use(rateLimitMW)
	loginRouter.HandleFunc("/login", authHandler.GetOIDCLogin).Methods("GET")

	protectedAuthRouter := authRouter.PathPrefix("").Subrouter()
	protectedAuthRouter.Use(authMW)
	protectedAuthRouter.Use(rateLimitMW)
	protectedAuthRouter.HandleFunc("/me", authHandler.GetMe).Methods("GET")

	todosRouter := apiRouter.PathPrefix("/todos").Subrouter()
	todosRouter.Use(authMW)
	todosRouter.Use(rateLimitMW)
	todoHandler.RegisterRoutes(todosRouter)

	suggestionsRouter := apiRouter.PathPrefix("/suggestions").Subrouter()
	suggestionsRouter.Use(authMW)
	suggestionsRouter.Use(rateLimitMW)
	suggestionHandler.RegisterRoutes(suggestionsRouter)

	// Catch-all OPTIONS handler so preflight requests get a response even
	// on routes that don't register the method. CORS middleware has
	// already set the headers by the time this runs.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting",
			zap.String("port", cfg.ServerPort),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectRabbitMQ dials the broker with exponential backoff, capped at
// 30 seconds per attempt.
func connectRabbitMQ(amqpURL string, zapLogger *zap.Logger) (queue.JobQueue, error) {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			return jobQueue, nil
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	return nil, lastErr
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	// Only expose minimal version info
	if _, err := fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = err
	}
}
