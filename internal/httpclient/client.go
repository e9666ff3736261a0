// Package httpclient is a JSON HTTP client with retry, circuit breaking and rate limiting.
package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"solana-copy-trader/internal/observability"
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, truncate(e.Body, 256))
}

// Temporary reports whether the status is worth retrying.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// BasicAuth credentials sent with every request.
type BasicAuth struct {
	Username string
	Password string
}

// Options configures a Client.
type Options struct {
	Name          string // metrics label
	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	RateLimit     float64 // requests per second, 0 disables
	Burst         int
	Headers       map[string]string
	BasicAuth     *BasicAuth
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// Client sends JSON requests relative to a base URL.
type Client struct {
	name     string
	baseURL  string
	client   *http.Client
	headers  map[string]string
	auth     *BasicAuth
	limiter  *rate.Limiter
	pipeline failsafe.Executor[*http.Response]
	logger   *zap.Logger
}

// New creates a Client for baseURL.
func New(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 100 * time.Millisecond
	}
	if opts.MaxRetryDelay < opts.RetryDelay {
		opts.MaxRetryDelay = 2 * time.Second
		if opts.MaxRetryDelay < opts.RetryDelay {
			opts.MaxRetryDelay = opts.RetryDelay
		}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Name == "" {
		opts.Name = "http"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	retryable := func(resp *http.Response, err error) bool {
		if err != nil {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}
		return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
	}

	retry := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(retryable).
		WithBackoff(opts.RetryDelay, opts.MaxRetryDelay).
		WithMaxRetries(opts.MaxRetries).
		ReturnLastFailure().
		Build()

	breaker := circuitbreaker.NewBuilder[*http.Response]().
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode >= 500
		}).
		WithFailureThresholdRatio(5, 10).
		WithDelay(10 * time.Second).
		Build()

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		name:     opts.Name,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   httpClient,
		headers:  opts.Headers,
		auth:     opts.BasicAuth,
		limiter:  limiter,
		pipeline: failsafe.With[*http.Response](retry, breaker),
		logger:   opts.Logger.Named(opts.Name),
	}
}

// GetJSON sends GET {base}{path}?{query} and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, target, nil, nil, out)
}

// PostJSON sends body as JSON to {base}{path} and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, headers map[string]string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	return c.do(ctx, http.MethodPost, c.baseURL+path, headers, payload, out)
}

func (c *Client) do(ctx context.Context, method, target string, headers map[string]string, payload []byte, out interface{}) error {
	start := time.Now()

	resp, err := c.pipeline.WithContext(ctx).Get(func() (*http.Response, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		// Rebuilt per attempt so the body can be replayed.
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if c.auth != nil {
			req.SetBasicAuth(c.auth.Username, c.auth.Password)
		}
		return c.client.Do(req)
	})
	observability.RecordHTTPLatency(c.name, time.Since(start).Seconds())

	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.Int("status", resp.StatusCode))
		return &APIError{StatusCode: resp.StatusCode, Body: data}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
