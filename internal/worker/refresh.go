package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/soundtrail/soundtrail/internal/api/middleware"
	"github.com/soundtrail/soundtrail/internal/placelist"
	"github.com/soundtrail/soundtrail/internal/schedule"
	"github.com/soundtrail/soundtrail/internal/track"
	"github.com/soundtrail/soundtrail/internal/track/spotify"
)

// PlacelistLister lists every stored placelist. Satisfied by
// placelist.Repository implementations.
type PlacelistLister interface {
	ListAll(ctx context.Context) ([]*placelist.Placelist, error)
}

// MetadataFetcher fetches track metadata in batches. Satisfied by
// spotify.Client.
type MetadataFetcher interface {
	GetTracks(ctx context.Context, trackIDs []string) ([]*spotify.Metadata, error)
}

// RefreshJob re-fetches provider metadata for every track referenced by a
// stored placelist, and lints stored availability rules.
type RefreshJob struct {
	config     RefreshConfig
	logger     zerolog.Logger
	placelists PlacelistLister
	tracks     MetadataFetcher

	providerMetrics *middleware.ProviderMetrics
	metrics         *RefreshMetrics
}

// RefreshMetrics tracks job statistics across runs.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns          int64
	TracksRefreshed    int64
	FailedBatches      int64
	SchedulesChecked   int64
	MalformedSchedules int64
	NeverOpenSchedules int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config          RefreshConfig
	Logger          zerolog.Logger
	Placelists      PlacelistLister
	Tracks          MetadataFetcher
	ProviderMetrics *middleware.ProviderMetrics
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:          cfg.Config.normalized(),
		logger:          cfg.Logger,
		placelists:      cfg.Placelists,
		tracks:          cfg.Tracks,
		providerMetrics: cfg.ProviderMetrics,
		metrics:         &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a metadata refresh run.
type RefreshResult struct {
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	TotalTracks  int
	Unrecognized int
	Refreshed    int
	Batches      int
	Failed       int
	Errors       []RefreshError
}

// RefreshError represents a failed batch fetch.
type RefreshError struct {
	Batch int
	Error string
}

// Run executes a metadata refresh over every placelist in the store. Fetch
// failures are collected, never fatal; play is unaffected either way.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{StartTime: startTime}

	pls, err := j.placelists.ListAll(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("listing placelists for refresh")
		result.Failed++
		result.Errors = append(result.Errors, RefreshError{Error: err.Error()})
		j.finish(result)
		return result
	}

	ids, unrecognized := collectTrackIDs(pls)
	result.TotalTracks = len(ids)
	result.Unrecognized = unrecognized

	batches := batchIDs(ids, j.config.BatchSize)
	result.Batches = len(batches)

	j.logger.Info().
		Int("placelists", len(pls)).
		Int("tracks", len(ids)).
		Int("batches", len(batches)).
		Int("concurrency", j.config.Concurrency).
		Msg("starting metadata refresh job")

	type batchResult struct {
		batch     int
		refreshed int
		err       error
	}

	batchChan := make(chan int, len(batches))
	resultsChan := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range batchChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				n, err := j.fetchBatch(ctx, batches[b])
				resultsChan <- batchResult{batch: b, refreshed: n, err: err}
			}
		}()
	}

	for b := range batches {
		batchChan <- b
	}
	close(batchChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for br := range resultsChan {
		if br.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{
				Batch: br.batch,
				Error: br.err.Error(),
			})
			continue
		}
		result.Refreshed += br.refreshed
	}

	j.finish(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("refreshed", result.Refreshed).
		Int("failed_batches", result.Failed).
		Int("unrecognized", result.Unrecognized).
		Msg("metadata refresh job completed")

	return result
}

func (j *RefreshJob) fetchBatch(ctx context.Context, ids []string) (int, error) {
	batchCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	start := time.Now()
	metas, err := j.tracks.GetTracks(batchCtx, ids)
	if j.providerMetrics != nil {
		j.providerMetrics.RecordRequest(spotify.ProviderName, "get_tracks", time.Since(start), err)
	}
	if err != nil {
		return 0, err
	}
	return len(metas), nil
}

func (j *RefreshJob) finish(result *RefreshResult) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	j.metrics.mu.Lock()
	j.metrics.TotalRuns++
	j.metrics.TracksRefreshed += int64(result.Refreshed)
	j.metrics.FailedBatches += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
	j.metrics.mu.Unlock()
}

// collectTrackIDs extracts the unique provider track IDs referenced by the
// given placelists, in first-seen order. References the recognizer cannot
// read are counted, not fatal.
func collectTrackIDs(pls []*placelist.Placelist) (ids []string, unrecognized int) {
	seen := make(map[string]bool)
	for _, pl := range pls {
		for _, wp := range pl.Waypoints {
			id, ok := track.Recognize(wp.TrackReference)
			if !ok {
				unrecognized++
				continue
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, unrecognized
}

func batchIDs(ids []string, size int) [][]string {
	var batches [][]string
	for len(ids) > size {
		batches = append(batches, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		batches = append(batches, ids)
	}
	return batches
}

// LintResult contains the result of a schedule lint run.
type LintResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Checked   int
	Malformed int
	NeverOpen int
}

// RunScheduleLint parses every stored availability rule and logs the ones
// that fail to parse or can never open. The player degrades malformed rules
// to always-open, so lint findings are operator signal only.
func (j *RefreshJob) RunScheduleLint(ctx context.Context) (*LintResult, error) {
	startTime := time.Now()
	result := &LintResult{StartTime: startTime}

	pls, err := j.placelists.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, pl := range pls {
		for i, wp := range pl.Waypoints {
			if wp.OnlyDuring == "" {
				continue
			}
			result.Checked++

			rule, err := schedule.Parse(wp.OnlyDuring)
			if err != nil {
				result.Malformed++
				j.logger.Warn().
					Str("placelist_id", pl.ID).
					Int("waypoint", i).
					Str("rule", wp.OnlyDuring).
					Err(err).
					Msg("availability rule does not parse")
				continue
			}
			if neverOpens(rule) {
				result.NeverOpen++
				j.logger.Warn().
					Str("placelist_id", pl.ID).
					Int("waypoint", i).
					Str("rule", wp.OnlyDuring).
					Msg("availability rule never opens")
			}
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.metrics.mu.Lock()
	j.metrics.SchedulesChecked += int64(result.Checked)
	j.metrics.MalformedSchedules += int64(result.Malformed)
	j.metrics.NeverOpenSchedules += int64(result.NeverOpen)
	j.metrics.mu.Unlock()

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("checked", result.Checked).
		Int("malformed", result.Malformed).
		Int("never_open", result.NeverOpen).
		Msg("schedule lint completed")

	return result, nil
}

// neverOpens reports whether a parsed rule can never match. That covers text
// that degenerated to zero ranges and ranges whose day set is empty, as a
// reversed day range produces.
func neverOpens(rule *schedule.Rule) bool {
	for _, r := range rule.Ranges {
		if r.Days != 0 {
			return false
		}
	}
	return true
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:          j.metrics.TotalRuns,
		TracksRefreshed:    j.metrics.TracksRefreshed,
		FailedBatches:      j.metrics.FailedBatches,
		SchedulesChecked:   j.metrics.SchedulesChecked,
		MalformedSchedules: j.metrics.MalformedSchedules,
		NeverOpenSchedules: j.metrics.NeverOpenSchedules,
		LastRunAt:          j.metrics.LastRunAt,
		LastRunDuration:    j.metrics.LastRunDuration,
		TotalDuration:      j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns the current metrics as a map, for logging and the
// worker health endpoint.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":           m.TotalRuns,
		"tracks_refreshed":     m.TracksRefreshed,
		"failed_batches":       m.FailedBatches,
		"schedules_checked":    m.SchedulesChecked,
		"malformed_schedules":  m.MalformedSchedules,
		"never_open_schedules": m.NeverOpenSchedules,
		"last_run_at":          m.LastRunAt,
		"last_run_duration":    m.LastRunDuration.String(),
		"total_duration":       m.TotalDuration.String(),
	}
}
