// Package resilience wraps outbound HTTP calls to music providers with
// retries and a circuit breaker. Provider hiccups are routine; player
// progress must never depend on a provider answering.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

var ErrCircuitOpen = errors.New("provider circuit open")

// Options configures a provider client. Zero values take the defaults
// noted per field.
type Options struct {
	// Name labels the breaker in logs.
	Name string

	// Timeout bounds each individual attempt. Default 10s.
	Timeout time.Duration

	// MaxRetries caps retry attempts after the first try. Default 3.
	MaxRetries uint64

	// MinBackoff and MaxBackoff bound the exponential retry delay.
	// Defaults 100ms and 5s.
	MinBackoff time.Duration
	MaxBackoff time.Duration

	// BreakerTimeout is how long the breaker stays open before probing.
	// Default 60s.
	BreakerTimeout time.Duration

	// Logger receives breaker state transitions. Optional.
	Logger *zerolog.Logger
}

// Client retries transient provider failures and trips a breaker when a
// provider is persistently down.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	opts       Options
}

func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.MinBackoff == 0 {
		opts.MinBackoff = 100 * time.Millisecond
	}
	if opts.MaxBackoff == 0 {
		opts.MaxBackoff = 5 * time.Second
	}
	if opts.BreakerTimeout == 0 {
		opts.BreakerTimeout = 60 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    opts.Name,
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && ratio >= 0.5
		},
	}
	if opts.Logger != nil {
		logger := opts.Logger
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("provider circuit state changed")
		}
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		breaker:    gobreaker.NewCircuitBreaker[*http.Response](settings),
		opts:       opts,
	}
}

// Do executes the request, retrying on network errors, 5xx and 429
// responses with exponential backoff. When the breaker is open it fails
// fast with ErrCircuitOpen. If retries run out on a retryable status the
// last response is returned so callers can inspect it.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.opts.MinBackoff
	bo.MaxInterval = c.opts.MaxBackoff
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.opts.MaxRetries), ctx)

	var last *http.Response
	attempt := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, err := c.httpClient.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			if retryableStatus(r.StatusCode) {
				return r, &StatusError{StatusCode: r.StatusCode}
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if resp != nil {
				last = resp
			}
			return err
		}
		last = resp
		return nil
	}

	if err := backoff.Retry(attempt, policy); err != nil {
		if last != nil {
			return last, nil
		}
		return nil, err
	}
	return last, nil
}

// State exposes the breaker state, mainly for readiness checks.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

// StatusError marks a response status the client considers transient.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned %d", e.StatusCode)
}
