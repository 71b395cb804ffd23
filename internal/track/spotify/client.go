// Package spotify provides a read-only client for Spotify track metadata.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/soundtrail/soundtrail/internal/provider/resilience"
)

const (
	ProviderName = "spotify"

	// DefaultBaseURL is the Spotify Web API base URL.
	DefaultBaseURL = "https://api.spotify.com"

	DefaultTimeout = 10 * time.Second

	// maxTracksPerRequest is the Web API's batch limit for /v1/tracks.
	maxTracksPerRequest = 50
)

var (
	ErrTrackNotFound = errors.New("track not found")
	ErrUnauthorized  = errors.New("spotify token rejected")
	ErrUnavailable   = errors.New("spotify unavailable")
)

// HTTPDoer executes HTTP requests; satisfied by resilience.Client.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Spotify client.
type ClientConfig struct {
	// AccessToken is the bearer token for the Web API (required).
	AccessToken string

	// BaseURL overrides the API base URL, mainly for tests.
	BaseURL string

	// HTTPClient is the HTTP client to use. If nil, a resilient client
	// with defaults is used.
	HTTPClient HTTPDoer

	Timeout time.Duration

	Logger zerolog.Logger
}

// Client is a Spotify Web API metadata client.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  HTTPDoer
	logger      zerolog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.Options{
			Name:    ProviderName,
			Timeout: timeout,
			Logger:  &cfg.Logger,
		})
	}

	return &Client{
		accessToken: cfg.AccessToken,
		baseURL:     baseURL,
		httpClient:  httpClient,
		logger:      cfg.Logger,
	}
}

func (c *Client) Name() string {
	return ProviderName
}

// GetTrack fetches metadata for a single track id.
func (c *Client) GetTrack(ctx context.Context, trackID string) (*Metadata, error) {
	body, err := c.get(ctx, "/v1/tracks/"+url.PathEscape(trackID))
	if err != nil {
		return nil, err
	}

	var track trackResponse
	if err := json.Unmarshal(body, &track); err != nil {
		return nil, fmt.Errorf("decoding track response: %w", err)
	}
	return toMetadata(&track), nil
}

// GetTracks fetches metadata for up to 50 track ids in one call. Unknown
// ids are omitted from the result rather than failing the batch.
func (c *Client) GetTracks(ctx context.Context, trackIDs []string) ([]*Metadata, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}
	if len(trackIDs) > maxTracksPerRequest {
		return nil, fmt.Errorf("at most %d tracks per request, got %d", maxTracksPerRequest, len(trackIDs))
	}

	body, err := c.get(ctx, "/v1/tracks?ids="+url.QueryEscape(strings.Join(trackIDs, ",")))
	if err != nil {
		return nil, err
	}

	var batch tracksResponse
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, fmt.Errorf("decoding tracks response: %w", err)
	}

	result := make([]*Metadata, 0, len(batch.Tracks))
	for _, track := range batch.Tracks {
		// The API returns null entries for unknown ids.
		if track == nil {
			continue
		}
		result = append(result, toMetadata(track))
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, ErrUnavailable
		}
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var apiErr errorResponse
	message := ""
	if err := json.Unmarshal(body, &apiErr); err == nil {
		message = apiErr.Error.Message
	}

	c.logger.Debug().
		Int("status", statusCode).
		Str("message", message).
		Msg("spotify request failed")

	switch statusCode {
	case http.StatusNotFound, http.StatusBadRequest:
		// A malformed id comes back as 400; to callers both mean the
		// reference does not resolve to a track.
		return ErrTrackNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("%w: status %d", ErrUnavailable, statusCode)
	}
}

func toMetadata(track *trackResponse) *Metadata {
	artists := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}
	return &Metadata{
		ID:         track.ID,
		Name:       track.Name,
		Artists:    artists,
		DurationMs: track.DurationMs,
	}
}
