// Package worker provides background job processing for Soundtrail.
package worker

import (
	"os"
	"strconv"
	"time"
)

// RefreshConfig holds configuration for the metadata refresh job.
type RefreshConfig struct {
	// BatchSize is the number of track IDs per metadata request.
	// Capped at 50, the provider's batch limit. Default: 50
	BatchSize int

	// Concurrency is the number of concurrent batch fetches.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each batch fetch.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		BatchSize:   50,
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

// ConfigFromEnv reads refresh configuration from the environment, falling
// back to defaults for anything unset or unparseable.
func ConfigFromEnv() RefreshConfig {
	cfg := DefaultRefreshConfig()

	if v := os.Getenv("WORKER_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BatchSize = n
		}
	}
	if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Concurrency = n
		}
	}
	if v := os.Getenv("WORKER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	return cfg.normalized()
}

func (c RefreshConfig) normalized() RefreshConfig {
	if c.BatchSize <= 0 || c.BatchSize > 50 {
		c.BatchSize = 50
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}
