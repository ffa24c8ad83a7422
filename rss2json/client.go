// Package rss2json talks to the rss2json conversion service, which fetches an
// RSS feed and returns its items as JSON.
package rss2json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/pevans/feedsnap/article"
	"github.com/pevans/feedsnap/sources"
)

// Defaults for the conversion service client.
const (
	DefaultBaseURL     = "https://api.rss2json.com/v1/api.json"
	DefaultCount       = 20
	DefaultTimeout     = 15 * time.Second
	DefaultMaxRetries  = 2
	DefaultBackoffBase = 2 * time.Second
)

const (
	userAgent    = "feedsnap/1.0 (RSS aggregator)"
	maxBodyBytes = 10 << 20
	statusOK     = "ok"
)

// ErrRateLimited is returned when the service keeps answering 429 after all
// retries are used.
var ErrRateLimited = errors.New("rate limited by conversion service")

// StatusError reports a non-2xx response other than 429.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, e.Status)
}

// ServiceError reports a response whose top-level status is not "ok".
type ServiceError struct {
	Status  string
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("conversion service status %q", e.Status)
	}
	return fmt.Sprintf("conversion service status %q: %s", e.Status, e.Message)
}

// Response is the JSON document returned by the conversion service.
type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Items   []article.RawItem `json:"items"`
}

// Config holds settings for the conversion service client.
type Config struct {
	// Endpoint of the conversion service
	BaseURL string
	// API key sent as api_key; omitted when empty
	APIKey string
	// Number of items requested per feed
	Count int
	// Timeout per attempt
	Timeout time.Duration
	// Retries after a 429 response
	MaxRetries int
	// Backoff before retry n is 2^n * BackoffBase
	BackoffBase time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Count:       DefaultCount,
		Timeout:     DefaultTimeout,
		MaxRetries:  DefaultMaxRetries,
		BackoffBase: DefaultBackoffBase,
	}
}

// Client fetches feeds through the conversion service.
type Client struct {
	config     *Config
	httpClient *http.Client
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new client. A nil config uses DefaultConfig.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{},
		sleep:      sleepContext,
	}
}

// RequestURL builds the conversion service URL for a feed.
func (c *Client) RequestURL(feedURL string) (string, error) {
	base, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	query := base.Query()
	query.Set("rss_url", sources.SanitizeURL(feedURL))
	if c.config.APIKey != "" {
		query.Set("api_key", c.config.APIKey)
	}
	if c.config.Count > 0 {
		query.Set("count", fmt.Sprint(c.config.Count))
	}
	base.RawQuery = query.Encode()

	return base.String(), nil
}

// FetchFeed fetches one feed and converts its items to articles.
func (c *Client) FetchFeed(ctx context.Context, feed sources.Descriptor) ([]article.Article, error) {
	resp, err := c.Fetch(ctx, feed.URL)
	if err != nil {
		return nil, err
	}
	return ItemsToArticles(resp.Items, feed), nil
}

// Fetch requests one feed from the conversion service. Rate-limited attempts
// are retried with exponential backoff; every other failure is returned
// immediately.
func (c *Client) Fetch(ctx context.Context, feedURL string) (*Response, error) {
	requestURL, err := c.RequestURL(feedURL)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		statusCode, status, body, err := c.do(ctx, requestURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch feed: %w", err)
		}

		if statusCode == http.StatusTooManyRequests {
			if attempt >= c.config.MaxRetries {
				return nil, fmt.Errorf("%w: gave up after %d attempts", ErrRateLimited, attempt+1)
			}

			delay := c.backoff(attempt)
			log.Printf("WARN: Rate limited fetching %s, retrying in %v (retry %d of %d)",
				feedURL, delay, attempt+1, c.config.MaxRetries)

			if err := c.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("failed to wait for retry: %w", err)
			}
			continue
		}

		if statusCode < 200 || statusCode > 299 {
			return nil, &StatusError{StatusCode: statusCode, Status: status}
		}

		var resp Response
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if resp.Status != statusOK {
			return nil, &ServiceError{Status: resp.Status, Message: resp.Message}
		}

		return &resp, nil
	}
}

// do performs a single attempt bounded by the per-attempt timeout.
func (c *Client) do(ctx context.Context, requestURL string) (int, string, []byte, error) {
	attemptCtx := ctx
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, requestURL, nil)
	if err != nil {
		return 0, "", nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, "", nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, resp.Status, body, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * c.config.BackoffBase
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
