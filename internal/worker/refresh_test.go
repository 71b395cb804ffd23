package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundtrail/soundtrail/internal/placelist"
	"github.com/soundtrail/soundtrail/internal/track/spotify"
	"github.com/soundtrail/soundtrail/internal/worker"
)

type staticLister struct {
	placelists []*placelist.Placelist
	err        error
}

func (l *staticLister) ListAll(_ context.Context) ([]*placelist.Placelist, error) {
	return l.placelists, l.err
}

type fakeFetcher struct {
	mu      sync.Mutex
	batches [][]string
	err     error
}

func (f *fakeFetcher) GetTracks(_ context.Context, trackIDs []string) ([]*spotify.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, trackIDs)
	metas := make([]*spotify.Metadata, len(trackIDs))
	for i, id := range trackIDs {
		metas[i] = &spotify.Metadata{ID: id, Name: "Track " + id}
	}
	return metas, nil
}

func waypoint(trackID string) placelist.Waypoint {
	return placelist.Waypoint{
		Location:       placelist.LatLng{Lat: 52.37, Lng: 4.89},
		TrackReference: "spotify:track:" + trackID,
	}
}

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()

	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestRefreshJob_Run(t *testing.T) {
	lister := &staticLister{
		placelists: []*placelist.Placelist{
			{ID: "pl_a", Waypoints: []placelist.Waypoint{waypoint("aaa111"), waypoint("bbb222")}},
			{ID: "pl_b", Waypoints: []placelist.Waypoint{waypoint("bbb222"), waypoint("ccc333")}},
		},
	}
	fetcher := &fakeFetcher{}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Logger:     zerolog.Nop(),
		Placelists: lister,
		Tracks:     fetcher,
	})

	result := job.Run(context.Background())

	// bbb222 appears twice but is fetched once.
	assert.Equal(t, 3, result.TotalTracks)
	assert.Equal(t, 3, result.Refreshed)
	assert.Equal(t, 1, result.Batches)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)
	require.Len(t, fetcher.batches, 1)
	assert.ElementsMatch(t, []string{"aaa111", "bbb222", "ccc333"}, fetcher.batches[0])
}

func TestRefreshJob_Run_BatchSize(t *testing.T) {
	var wps []placelist.Waypoint
	for i := 0; i < 7; i++ {
		wps = append(wps, waypoint(fmt.Sprintf("track%02d", i)))
	}
	lister := &staticLister{
		placelists: []*placelist.Placelist{{ID: "pl_a", Waypoints: wps}},
	}
	fetcher := &fakeFetcher{}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:     worker.RefreshConfig{BatchSize: 3, Concurrency: 1},
		Logger:     zerolog.Nop(),
		Placelists: lister,
		Tracks:     fetcher,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 7, result.TotalTracks)
	assert.Equal(t, 7, result.Refreshed)
	assert.Equal(t, 3, result.Batches)
	require.Len(t, fetcher.batches, 3)
	for _, b := range fetcher.batches {
		assert.LessOrEqual(t, len(b), 3)
	}
}

func TestRefreshJob_Run_UnrecognizedReferences(t *testing.T) {
	lister := &staticLister{
		placelists: []*placelist.Placelist{
			{ID: "pl_a", Waypoints: []placelist.Waypoint{
				waypoint("aaa111"),
				{TrackReference: "not a track reference"},
			}},
		},
	}
	fetcher := &fakeFetcher{}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Logger:     zerolog.Nop(),
		Placelists: lister,
		Tracks:     fetcher,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.TotalTracks)
	assert.Equal(t, 1, result.Unrecognized)
	assert.Equal(t, 1, result.Refreshed)
}

func TestRefreshJob_Run_FetchError(t *testing.T) {
	lister := &staticLister{
		placelists: []*placelist.Placelist{
			{ID: "pl_a", Waypoints: []placelist.Waypoint{waypoint("aaa111")}},
		},
	}
	fetcher := &fakeFetcher{err: errors.New("provider unavailable")}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Logger:     zerolog.Nop(),
		Placelists: lister,
		Tracks:     fetcher,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 0, result.Refreshed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error, "provider unavailable")
}

func TestRefreshJob_Run_ListError(t *testing.T) {
	lister := &staticLister{err: errors.New("store down")}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Logger:     zerolog.Nop(),
		Placelists: lister,
		Tracks:     &fakeFetcher{},
	})

	result := job.Run(context.Background())

	assert.Equal(t, 0, result.TotalTracks)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error, "store down")
}

func TestRefreshJob_Run_NoTracks(t *testing.T) {
	lister := &staticLister{}
	fetcher := &fakeFetcher{}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Logger:     zerolog.Nop(),
		Placelists: lister,
		Tracks:     fetcher,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 0, result.TotalTracks)
	assert.Equal(t, 0, result.Batches)
	assert.Empty(t, fetcher.batches)
}

func TestRefreshJob_RunScheduleLint(t *testing.T) {
	lister := &staticLister{
		placelists: []*placelist.Placelist{
			{ID: "pl_a", Waypoints: []placelist.Waypoint{
				{TrackReference: "spotify:track:aaa111", OnlyDuring: "10-17 (MO-FR) UTC"},
				{TrackReference: "spotify:track:bbb222", OnlyDuring: "completely bogus"},
				{TrackReference: "spotify:track:ccc333", OnlyDuring: "10-17 (FR-MO)"},
				{TrackReference: "spotify:track:ddd444"},
			}},
		},
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Logger:     zerolog.Nop(),
		Placelists: lister,
		Tracks:     &fakeFetcher{},
	})

	result, err := job.RunScheduleLint(context.Background())
	require.NoError(t, err)

	// The empty rule is skipped. The reversed day range parses but matches no
	// days, so it never opens.
	assert.Equal(t, 3, result.Checked)
	assert.Equal(t, 1, result.Malformed)
	assert.Equal(t, 1, result.NeverOpen)
}

func TestRefreshJob_RunScheduleLint_ListError(t *testing.T) {
	lister := &staticLister{err: errors.New("store down")}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Logger:     zerolog.Nop(),
		Placelists: lister,
		Tracks:     &fakeFetcher{},
	})

	_, err := job.RunScheduleLint(context.Background())
	assert.Error(t, err)
}

func TestRefreshJob_GetMetrics(t *testing.T) {
	lister := &staticLister{
		placelists: []*placelist.Placelist{
			{ID: "pl_a", Waypoints: []placelist.Waypoint{
				{TrackReference: "spotify:track:aaa111", OnlyDuring: "nonsense"},
			}},
		},
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Logger:     zerolog.Nop(),
		Placelists: lister,
		Tracks:     &fakeFetcher{},
	})

	_ = job.Run(context.Background())
	_, err := job.RunScheduleLint(context.Background())
	require.NoError(t, err)

	metrics := job.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalRuns)
	assert.Equal(t, int64(1), metrics.TracksRefreshed)
	assert.Equal(t, int64(1), metrics.SchedulesChecked)
	assert.Equal(t, int64(1), metrics.MalformedSchedules)
	assert.NotZero(t, metrics.LastRunAt)
}

func TestRefreshJob_MetricsSnapshot(t *testing.T) {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Logger:     zerolog.Nop(),
		Placelists: &staticLister{},
		Tracks:     &fakeFetcher{},
	})

	_ = job.Run(context.Background())

	snapshot := job.MetricsSnapshot()
	assert.Contains(t, snapshot, "total_runs")
	assert.Contains(t, snapshot, "tracks_refreshed")
	assert.Contains(t, snapshot, "failed_batches")
	assert.Contains(t, snapshot, "schedules_checked")
	assert.Contains(t, snapshot, "last_run_at")
}

func TestRefreshJob_Run_ContextCancellation(t *testing.T) {
	var wps []placelist.Waypoint
	for i := 0; i < 100; i++ {
		wps = append(wps, waypoint(fmt.Sprintf("track%03d", i)))
	}
	lister := &staticLister{
		placelists: []*placelist.Placelist{{ID: "pl_a", Waypoints: wps}},
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:     worker.RefreshConfig{BatchSize: 1, Concurrency: 1},
		Logger:     zerolog.Nop(),
		Placelists: lister,
		Tracks:     &fakeFetcher{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := job.Run(ctx)

	// Should complete even if not all batches were processed.
	assert.NotNil(t, result)
}
