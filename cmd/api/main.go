// Package main is the entry point for the Smart-Todo API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/diptiprasadsarangi01/Smart-Todo/internal/airank"
	"github.com/diptiprasadsarangi01/Smart-Todo/internal/api"
	"github.com/diptiprasadsarangi01/Smart-Todo/internal/auth"
	"github.com/diptiprasadsarangi01/Smart-Todo/internal/config"
	"github.com/diptiprasadsarangi01/Smart-Todo/internal/db"
	"github.com/diptiprasadsarangi01/Smart-Todo/internal/health"
	"github.com/diptiprasadsarangi01/Smart-Todo/internal/middleware"
	"github.com/diptiprasadsarangi01/Smart-Todo/internal/task"
	"github.com/diptiprasadsarangi01/Smart-Todo/internal/tracing"
	"github.com/diptiprasadsarangi01/Smart-Todo/internal/urgency"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configFile := flag.String("config", "", "path to YAML config file (optional, env vars take precedence)")
	flag.Parse()

	if *help {
		fmt.Println("Smart-Todo API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	// Tracing
	tracingProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "smart-todo-api",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.TracingOTLPEndpoint,
		SamplingRate: cfg.TracingSamplingRate,
		InsecureMode: cfg.TracingInsecure,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Task store: Postgres when DATABASE_URL is set, in-memory otherwise.
	var taskRepo task.Repository
	var dbConn *sql.DB
	if cfg.DatabaseURL != "" {
		dbConn, err = db.Connect(context.Background(), cfg.DatabaseURL, db.DefaultPoolConfig())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		taskRepo = task.NewPostgresRepository(dbConn, logger)
		logger.Info("using postgres task store")
	} else {
		taskRepo = task.NewInMemoryRepository()
		logger.Info("using in-memory task store")
	}

	// Redis backs the response cache and rate limiting when configured;
	// both degrade to fail-open / in-memory without it.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		logger.Info("redis configured")
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	middlewareMetrics := middleware.NewMetrics()
	if err := middlewareMetrics.Register(registry); err != nil {
		logger.Error("failed to register middleware metrics", "error", err)
		os.Exit(1)
	}
	urgencyMetrics := urgency.NewMetrics()
	if err := urgencyMetrics.Register(registry); err != nil {
		logger.Error("failed to register urgency metrics", "error", err)
		os.Exit(1)
	}

	// Scoring weights, with optional calibration file overrides
	weights := urgency.DefaultWeights()
	if cfg.UrgencyCalibrationPath != "" {
		loaded, err := urgency.LoadCalibration(cfg.UrgencyCalibrationPath)
		if err != nil {
			logger.Warn("calibration load failed, using defaults",
				"path", cfg.UrgencyCalibrationPath, "error", err)
		}
		weights = loaded
	}

	ranker := airank.NewClient(cfg.AIRankURL, cfg.AIAPIKey, &http.Client{
		Timeout: cfg.AIRankTimeout(),
	})

	engine := urgency.NewEngine(urgency.EngineConfig{
		Tasks:       taskRepo,
		Ranker:      ranker,
		Weights:     weights,
		RankTimeout: cfg.AIRankTimeout(),
		Metrics:     urgencyMetrics,
		Logger:      logger,
	})

	jwtService := auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTPreviousSecret)

	// Rate limit store: Redis fixed-window when available, in-memory otherwise.
	var rateLimitStore middleware.RateLimitStore
	if redisClient != nil {
		rateLimitStore = middleware.NewRedisRateLimitStore(redisClient).WithMetrics(middlewareMetrics)
	} else {
		memStore := middleware.NewInMemoryRateLimitStore()
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				memStore.Cleanup()
			}
		}()
		rateLimitStore = memStore
	}

	// Handlers
	urgentHandlers := api.NewUrgentHandlers(engine, logger)

	healthConfig := api.HealthHandlersConfig{}
	if dbConn != nil {
		healthConfig.DBChecker = health.NewDBChecker(dbConn)
	}
	if redisClient != nil {
		healthConfig.RedisChecker = health.NewRedisChecker(redisClient)
	}
	healthHandlers := api.NewHealthHandlers(healthConfig)

	// Routes
	mux := http.NewServeMux()

	urgentChain := http.Handler(http.HandlerFunc(urgentHandlers.UrgentTasks))
	if redisClient != nil {
		urgentChain = middleware.ResponseCache(redisClient, "urgent", cfg.UrgentCacheTTL(), middlewareMetrics)(urgentChain)
	}
	urgentChain = middleware.RateLimiter(rateLimitStore, middleware.DefaultRankLimit(), middleware.UserKeyFunc())(urgentChain)
	urgentChain = auth.VerifyToken(jwtService)(urgentChain)
	mux.Handle("/tasks/urgent", urgentChain)

	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
			api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"smart-todo-api","version":"0.0.1"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Middleware chain: RequestID -> Tracing -> Logging -> HTTPMetrics -> mux
	var handler http.Handler = mux
	handler = middleware.HTTPMetrics(middlewareMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	if cfg.TracingEnabled {
		handler = middleware.Tracing("smart-todo-api")(handler)
	}
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := tracingProvider.Shutdown(ctx); err != nil {
		logger.Error("tracer shutdown error", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}
	if dbConn != nil {
		if err := dbConn.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}

	logger.Info("server stopped")
}
