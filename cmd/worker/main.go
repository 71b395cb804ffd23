// Package main provides the entrypoint for the Soundtrail background worker.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/soundtrail/soundtrail/internal/api/middleware"
	"github.com/soundtrail/soundtrail/internal/database"
	"github.com/soundtrail/soundtrail/internal/placelist"
	"github.com/soundtrail/soundtrail/internal/track/spotify"
	"github.com/soundtrail/soundtrail/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "soundtrail-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Soundtrail worker")

	// Worker also exposes a health endpoint for Cloud Run.
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to the placelist store.
	var placelistRepo placelist.Repository
	if os.Getenv("STORAGE") == "memory" {
		placelistRepo = placelist.NewInMemoryRepository()
		log.Warn().Msg("using in-memory placelist storage")
	} else {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Str("database", dbConfig.Database).
			Msg("database connected")

		placelistRepo = placelist.NewPostgresRepository(pool)
	}

	// Spotify metadata client. The refresh job tolerates a bad or missing
	// token; batches fail and get logged.
	spotifyClient := spotify.NewClient(spotify.ClientConfig{
		AccessToken: os.Getenv("SPOTIFY_ACCESS_TOKEN"),
		BaseURL:     os.Getenv("SPOTIFY_BASE_URL"),
		Logger:      log,
	})

	providerMetrics, err := middleware.NewProviderMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize provider metrics")
	}

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:          worker.ConfigFromEnv(),
		Logger:          log,
		Placelists:      placelistRepo,
		Tracks:          spotifyClient,
		ProviderMetrics: providerMetrics,
	})

	// Health check server.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"version": Version,
			"jobs":    refreshJob.MetricsSnapshot(),
		})
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Job dispatch. With a Pub/Sub subscription configured, jobs arrive as
	// messages; otherwise run both jobs on a local interval.
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")

	if projectID != "" && subscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		interval := 30 * time.Minute
		if v := os.Getenv("WORKER_INTERVAL"); v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				interval = d
			}
		}
		log.Info().
			Dur("interval", interval).
			Msg("no pubsub subscription configured, running jobs on interval")

		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					_ = refreshJob.Run(ctx)
					if _, err := refreshJob.RunScheduleLint(ctx); err != nil {
						log.Error().Err(err).Msg("schedule lint failed")
					}
				}
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
