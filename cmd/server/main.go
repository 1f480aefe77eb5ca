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

	"github.com/benvon/itsdone/internal/agent"
	"github.com/benvon/itsdone/internal/config"
	"github.com/benvon/itsdone/internal/database"
	"github.com/benvon/itsdone/internal/handlers"
	"github.com/benvon/itsdone/internal/logger"
	"github.com/benvon/itsdone/internal/middleware"
	"github.com/benvon/itsdone/internal/pomodoro"
	"github.com/benvon/itsdone/internal/queue"
	"github.com/benvon/itsdone/internal/reminders"
	"github.com/benvon/itsdone/internal/services/ai"
	"github.com/benvon/itsdone/internal/store"
	"github.com/benvon/itsdone/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.LogFormat, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.String("match_strategy", cfg.MatchStrategy),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(ctx, telemetry.Config{
			Endpoint: cfg.OTELEndpoint,
			Insecure: true,
		})
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			cfg.OTELEnabled = false
		} else {
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	kv, err := database.Open(cfg.StorageURL)
	if err != nil {
		zapLogger.Fatal("failed_to_open_storage", zap.Error(err))
	}
	defer func() {
		if err := kv.Close(); err != nil {
			zapLogger.Warn("failed_to_close_storage", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_storage", zap.String("backend", fmt.Sprintf("%T", kv)))

	state := store.New(kv, zapLogger)
	state.Load(ctx)

	// Language model. Without a key every AI widget answers with its fallback.
	var provider ai.Provider
	if cfg.AIConfigured() {
		provider, err = ai.DefaultRegistry(zapLogger).GetProvider(cfg.AIProvider, cfg.ProviderSettings(debugMode))
		if err != nil {
			zapLogger.Warn("failed_to_create_ai_provider_ai_features_disabled", zap.Error(err))
			provider = nil
		}
	} else {
		zapLogger.Warn("ai_api_key_not_configured_ai_features_disabled")
	}
	gateway := ai.NewGateway(provider, zapLogger)

	strategy, err := agent.ParseMatchStrategy(cfg.MatchStrategy)
	if err != nil {
		zapLogger.Fatal("invalid_match_strategy", zap.Error(err))
	}
	session := agent.NewSession(agent.SessionConfig{
		Store:      state,
		Turner:     gateway,
		Decomposer: gateway,
		Matcher:    agent.NewMatcher(strategy),
		Logger:     zapLogger,
	})

	// Notifications go to the log, and to the worker through RabbitMQ when
	// a broker is configured
	notifier := reminders.Multi{reminders.NewLogNotifier(zapLogger)}
	var jobQueue *queue.RabbitMQQueue
	if cfg.RabbitMQURL != "" {
		jobQueue, err = queue.Connect(ctx, cfg.RabbitMQURL, queue.DefaultConnectAttempts, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		notifier = append(notifier, reminders.NewQueueNotifier(jobQueue))

		dlqGC := queue.NewGarbageCollector(jobQueue, cfg.DLQGCInterval, cfg.DLQRetention, zapLogger)
		go func() {
			if err := dlqGC.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", cfg.DLQGCInterval),
			zap.Duration("retention", cfg.DLQRetention),
		)
	}

	scheduler := reminders.NewScheduler(notifier, zapLogger)
	defer scheduler.Stop()
	state.OnTasksChanged(scheduler.Reschedule)
	scheduler.Reschedule(state.Tasks(store.ListOptions{}))

	state.OnPomodoroComplete(func(completed pomodoro.Mode, _ pomodoro.State) {
		if err := notifier.Notify(ctx, reminders.TimerNotification(completed)); err != nil {
			zapLogger.Warn("failed_to_deliver_timer_notification", zap.Error(err))
		}
	})
	go pomodoro.Run(ctx, time.Second, state)

	// Rate limits are shared through Redis when one is available
	redisClient, err := rateLimitRedis(cfg, kv)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	rateLimitMW, err := middleware.RateLimit(cfg.RateLimit, redisClient)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}
	zapLogger.Info("rate_limiter_configured",
		zap.String("rate", cfg.RateLimit),
		zap.Bool("redis", redisClient != nil),
	)

	checks := map[string]handlers.Pinger{"storage": kv}
	if jobQueue != nil {
		checks["queue"] = handlers.PingFunc(jobQueue.HealthCheck)
	}
	if redisClient != nil {
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	healthChecker := handlers.NewHealthChecker(checks)

	r := mux.NewRouter()

	// Middleware added first wraps outermost
	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
		zapLogger.Info("otel_middleware_enabled")
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL, zapLogger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	healthChecker.RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	handlers.NewOpenAPIHandler().RegisterRoutes(apiRouter)
	handlers.NewTaskHandler(state, zapLogger).RegisterRoutes(apiRouter)
	handlers.NewDashboardHandler(state, gateway, zapLogger).RegisterRoutes(apiRouter, rateLimitMW)
	handlers.NewPomodoroHandler(state).RegisterRoutes(apiRouter)
	handlers.NewAssistantHandler(state, gateway, zapLogger).RegisterRoutes(apiRouter, rateLimitMW)
	handlers.NewAgentHandler(session, zapLogger).RegisterRoutes(apiRouter, rateLimitMW)

	// Preflight requests need a matching route for the CORS middleware to run
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// rateLimitRedis returns the Redis client the rate limiter should share, or
// nil to keep counters in memory
func rateLimitRedis(cfg *config.Config, kv database.KV) (*redis.Client, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return client, nil
	}
	if rkv, ok := kv.(*database.RedisKV); ok {
		return rkv.Client(), nil
	}
	return nil, nil
}
