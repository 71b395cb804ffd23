// Package main provides the entrypoint for the Soundtrail API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/soundtrail/soundtrail/internal/api"
	"github.com/soundtrail/soundtrail/internal/api/handler"
	"github.com/soundtrail/soundtrail/internal/api/middleware"
	"github.com/soundtrail/soundtrail/internal/auth"
	"github.com/soundtrail/soundtrail/internal/database"
	"github.com/soundtrail/soundtrail/internal/placelist"
	"github.com/soundtrail/soundtrail/internal/player"
	"github.com/soundtrail/soundtrail/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "soundtrail-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Soundtrail API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Select placelist storage. Postgres is the default; STORAGE=memory runs
	// without a database for local development.
	readinessChecks := map[string]handler.ReadinessChecker{}
	var placelistRepo placelist.Repository

	if os.Getenv("STORAGE") == "memory" {
		placelistRepo = placelist.NewInMemoryRepository()
		log.Warn().Msg("using in-memory placelist storage - data is lost on restart")
	} else {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")

		placelistRepo = placelist.NewPostgresRepository(pool)
		readinessChecks["database"] = func(ctx context.Context) error {
			return pool.Ping(ctx)
		}
	}

	// Initialize auth service
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	clientSecret := os.Getenv("AUTH_CLIENT_SECRET")
	if clientSecret == "" {
		clientSecret = "local-dev-client-secret"
		log.Warn().Msg("using default auth client secret - not secure for production")
	}

	authService := auth.NewService(auth.Config{
		SigningKey:   jwtSigningKey,
		ClientSecret: clientSecret,
		Issuer:       "https://api.soundtrail.app",
		Audience:     "soundtrail-api",
	})
	log.Info().Msg("auth service initialized")

	// Initialize placelist service
	placelistService := placelist.NewService(placelistRepo)
	log.Info().Msg("placelist service initialized")

	// Initialize player service. Play sessions are ephemeral and always live
	// in memory.
	playerService := player.NewService(player.NewInMemorySessionRepository(), placelistRepo)
	log.Info().Msg("player service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:          Version,
		BuildTime:        BuildTime,
		Logger:           log,
		ServiceName:      serviceName,
		Metrics:          metrics,
		AuthService:      authService,
		PlacelistService: placelistService,
		PlayerService:    playerService,
		ReadinessChecks:  readinessChecks,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
