package spotify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundtrail/soundtrail/internal/track/spotify"
)

const trackJSON = `{
	"id": "4uLU6hMCjMI75M1A2tKUQC",
	"name": "Never Gonna Give You Up",
	"duration_ms": 213573,
	"artists": [{"name": "Rick Astley"}]
}`

func newTestClient(serverURL string) *spotify.Client {
	return spotify.NewClient(spotify.ClientConfig{
		AccessToken: "test-token",
		BaseURL:     serverURL,
		HTTPClient:  plainDoer{},
		Logger:      zerolog.Nop(),
	})
}

// plainDoer skips the resilient wrapper so tests exercise exactly one call.
type plainDoer struct{}

func (plainDoer) Do(_ context.Context, req *http.Request) (*http.Response, error) {
	return http.DefaultClient.Do(req)
}

func TestClient_GetTrack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tracks/4uLU6hMCjMI75M1A2tKUQC", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(trackJSON))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	meta, err := client.GetTrack(context.Background(), "4uLU6hMCjMI75M1A2tKUQC")
	require.NoError(t, err)

	assert.Equal(t, "4uLU6hMCjMI75M1A2tKUQC", meta.ID)
	assert.Equal(t, "Never Gonna Give You Up", meta.Name)
	assert.Equal(t, []string{"Rick Astley"}, meta.Artists)
	assert.Equal(t, 213573, meta.DurationMs)
}

func TestClient_GetTrack_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"status":404,"message":"non existing id"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetTrack(context.Background(), "nope")
	assert.ErrorIs(t, err, spotify.ErrTrackNotFound)
}

func TestClient_GetTrack_BadToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"status":401,"message":"The access token expired"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetTrack(context.Background(), "4uLU6hMCjMI75M1A2tKUQC")
	assert.ErrorIs(t, err, spotify.ErrUnauthorized)
}

func TestClient_GetTracks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tracks", r.URL.Path)
		assert.Equal(t, "abc123,def456", r.URL.Query().Get("ids"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tracks":[` + trackJSON + `,null]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	tracks, err := client.GetTracks(context.Background(), []string{"abc123", "def456"})
	require.NoError(t, err)

	// Unknown ids come back as null and are dropped.
	require.Len(t, tracks, 1)
	assert.Equal(t, "Never Gonna Give You Up", tracks[0].Name)
}

func TestClient_GetTracks_Empty(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")

	tracks, err := client.GetTracks(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestClient_GetTracks_BatchLimit(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")

	ids := make([]string, 51)
	for i := range ids {
		ids[i] = "id"
	}
	_, err := client.GetTracks(context.Background(), ids)
	assert.Error(t, err)
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetTrack(context.Background(), "abc123")
	assert.ErrorIs(t, err, spotify.ErrUnavailable)
}
