// Package forecast is the client side of the forecast-core collaborator: it
// fetches per-city zone summaries and static zone geometry over HTTP and
// maps failures into the domain error taxonomy. Summaries flow through a
// TTL'd cache decorator; the raw client carries a circuit breaker and a
// bounded retry for transient upstream trouble.
//
// The retry here is a server-side concern only. The map component itself
// fetches once per mount and never retries; this client sits behind the
// summary endpoint the component calls.
package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"

	"github.com/benchcutlogic/local-weather/internal/config"
	"github.com/benchcutlogic/local-weather/internal/domain"
	"github.com/benchcutlogic/local-weather/internal/observability"
)

// Source fetches zone summaries from forecast-core.
type Source interface {
	FetchSummary(ctx context.Context, citySlug string) (*domain.ZoneSummaryResponse, error)
}

// Client talks to a forecast-core deployment.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	maxRetries uint64
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a client for the configured upstream.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "forecast-core",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// Only transport failures and 5xx count against the breaker; a 404
		// for a bad city slug is the upstream working fine.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var netErr *domain.NetworkError
			return errors.As(err, &netErr) && netErr.Status >= 400 && netErr.Status < 500
		},
	})

	return &Client{
		baseURL: cfg.ForecastBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.ForecastTimeout,
		},
		breaker:    cb,
		maxRetries: cfg.ForecastRetries,
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchSummary retrieves a city's current zone summary and validates it.
// Failures are *domain.NetworkError or *domain.MalformedResponseError.
func (c *Client) FetchSummary(ctx context.Context, citySlug string) (*domain.ZoneSummaryResponse, error) {
	u := fmt.Sprintf("%s/api/map/%s/summary", c.baseURL, url.PathEscape(citySlug))
	body, err := c.get(ctx, u, citySlug)
	if err != nil {
		return nil, err
	}

	var summary domain.ZoneSummaryResponse
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, &domain.MalformedResponseError{CitySlug: citySlug, Reason: fmt.Sprintf("decode: %v", err)}
	}
	if err := summary.Validate(); err != nil {
		return nil, &domain.MalformedResponseError{CitySlug: citySlug, Reason: err.Error()}
	}
	return &summary, nil
}

// FetchGeometry retrieves a city's static zone geometry. It lives on the
// same host as the summary endpoint, served as a long-cache static asset.
func (c *Client) FetchGeometry(ctx context.Context, citySlug string) (*domain.FeatureCollection, error) {
	u := fmt.Sprintf("%s/static/geo/%s-zones.json", c.baseURL, url.PathEscape(citySlug))
	body, err := c.get(ctx, u, citySlug)
	if err != nil {
		return nil, err
	}

	var fc domain.FeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("decode geometry for %q: %w", citySlug, err)
	}
	if err := fc.Validate(); err != nil {
		return nil, fmt.Errorf("geometry for %q: %w", citySlug, err)
	}
	return &fc, nil
}

// get runs one GET through the breaker with capped exponential retry on
// transport failures and 5xx. 4xx returns immediately.
func (c *Client) get(ctx context.Context, fullURL, citySlug string) ([]byte, error) {
	var body []byte

	op := func() error {
		start := time.Now()
		b, err := c.breaker.Execute(func() ([]byte, error) {
			return c.doOnce(ctx, fullURL, citySlug)
		})
		c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				c.metrics.UpstreamRequests.WithLabelValues("breaker_open").Inc()
				return backoff.Permanent(&domain.NetworkError{CitySlug: citySlug, Err: err})
			}
			c.metrics.UpstreamRequests.WithLabelValues("error").Inc()

			var netErr *domain.NetworkError
			if errors.As(err, &netErr) && netErr.Status >= 400 && netErr.Status < 500 {
				return backoff.Permanent(err)
			}
			c.logger.Warn("forecast-core request failed, retrying", "url", fullURL, "error", err)
			return err
		}

		c.metrics.UpstreamRequests.WithLabelValues("success").Inc()
		body = b
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(newRetryBackoff(), c.maxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		var netErr *domain.NetworkError
		if errors.As(err, &netErr) {
			return nil, err
		}
		return nil, &domain.NetworkError{CitySlug: citySlug, Err: err}
	}
	return body, nil
}

func (c *Client) doOnce(ctx context.Context, fullURL, citySlug string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{CitySlug: citySlug, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &domain.NetworkError{CitySlug: citySlug, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{CitySlug: citySlug, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

func newRetryBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 0 // attempts are capped by WithMaxRetries
	return bo
}
