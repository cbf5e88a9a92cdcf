package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/eyasluna999/wertigo/app/db"
	appLogger "github.com/eyasluna999/wertigo/app/logger"
	"github.com/eyasluna999/wertigo/app/observability/metrics"
	"github.com/eyasluna999/wertigo/app/tracer"
	"github.com/eyasluna999/wertigo/config"
	"github.com/eyasluna999/wertigo/internal/api/auth"
	"github.com/eyasluna999/wertigo/internal/api/destination"
	"github.com/eyasluna999/wertigo/internal/api/embedding"
	"github.com/eyasluna999/wertigo/internal/api/health"
	"github.com/eyasluna999/wertigo/internal/api/knowledge"
	"github.com/eyasluna999/wertigo/internal/api/recommendation"
	"github.com/eyasluna999/wertigo/internal/api/session"
	"github.com/eyasluna999/wertigo/internal/api/trip"
	api "github.com/eyasluna999/wertigo/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}
	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		cfg.JWT.SecretKey = secret
	}
	if cfg.JWT.SecretKey == "" {
		log.Fatal("FATAL: JWT_SECRET_KEY is not set")
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	tracer.InitTracingAndMetrics(cfg.Handlers.Metrics.Port)
	metrics.InitAppMetrics()

	// --- Database Setup ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	err = database.RunMigrations(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Recommendation core ---
	knowledgeStore := knowledge.NewStore(
		cfg.Recommender.CacheMaxSize,
		cfg.Recommender.CacheTTL,
		cfg.Recommender.SessionTTL,
		logger,
	)

	embeddingStore := embedding.NewStore()
	if err := embeddingStore.Load(cfg.Recommender.EmbeddingsFile); err != nil {
		logger.Warn("Embedding matrix not loaded, semantic ranking disabled", slog.Any("error", err))
	}

	var encoder embedding.Encoder
	if !cfg.Recommender.DisableEncoder {
		geminiEncoder, err := embedding.NewGeminiEncoder(ctx, cfg.Recommender.EncoderModel)
		if err != nil {
			logger.Warn("Query encoder unavailable, semantic ranking disabled", slog.Any("error", err))
		} else {
			encoder = geminiEncoder
		}
	}

	matcher := recommendation.NewMatcher()
	extractor := recommendation.NewExtractor(logger)
	ranker := recommendation.NewRanker(encoder, embeddingStore, matcher, logger)

	// --- Dependency Injection ---
	destinationRepo := destination.NewPostgresRepository(pool, logger)
	destinationService := destination.NewServiceImpl(destinationRepo, logger)
	destinationHandler := destination.NewHandlerImpl(destinationService, logger)

	fallback := recommendation.NewFallbackChain(destinationRepo, matcher, logger)
	recommendationService := recommendation.NewServiceImpl(
		destinationRepo, destinationService, extractor, matcher, ranker, fallback,
		knowledgeStore, cfg.Recommender.DefaultLimit, cfg.Recommender.MaxLimit, logger,
	)
	if err := recommendationService.LoadDataset(ctx); err != nil {
		logger.Error("Failed to load destination dataset", slog.Any("error", err))
		os.Exit(1)
	}
	recommendationHandler := recommendation.NewHandlerImpl(recommendationService, logger)

	healthHandler := health.NewHandlerImpl(pool, encoder, embeddingStore, recommendationService, logger)

	sessionRepo := session.NewPostgresRepository(pool, cfg.Recommender.SessionTTL, logger)
	sessionHandler := session.NewHandlerImpl(sessionRepo, knowledgeStore, logger)

	authRepo := auth.NewPostgresRepository(pool, logger)
	authService := auth.NewServiceImpl(authRepo, sessionRepo, cfg.JWT, logger)
	authHandler := auth.NewHandlerImpl(authService, logger)

	tripRepo := trip.NewPostgresRepository(pool, logger)
	tripService := trip.NewServiceImpl(tripRepo, logger)
	tripHandler := trip.NewHandlerImpl(tripService, logger)

	// --- Router Setup ---
	routerConfig := &api.Config{
		HealthHandler:          healthHandler,
		AuthHandler:            authHandler,
		SessionHandler:         sessionHandler,
		RecommendationHandler:  recommendationHandler,
		DestinationHandler:     destinationHandler,
		TripHandler:            tripHandler,
		AuthenticateMiddleware: auth.Authenticate(logger, cfg.JWT),
	}
	mainRouter := api.SetupRouter(routerConfig)

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appLogger.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(cfg.Server.Timeout))
	router.Use(middleware.Compress(5, "application/json"))
	router.Mount("/", mainRouter)

	// --- HTTP Server Setup ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	// Periodic cleanup of expired sessions.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := sessionRepo.DeleteExpired(ctx, cfg.Recommender.SessionTTL)
				if err != nil {
					logger.WarnContext(ctx, "Expired session cleanup failed", slog.Any("error", err))
					continue
				}
				if deleted > 0 {
					logger.InfoContext(ctx, "Expired sessions removed", slog.Int64("count", deleted))
				}
			}
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" {
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
