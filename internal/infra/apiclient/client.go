package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/infra/httpclient"
	"github.com/aalvaropc/tether/internal/metrics"
	"github.com/aalvaropc/tether/internal/retry"
)

const defaultRetryDelay = 200 * time.Millisecond

// Client is safe for concurrent use, including the setters.
type Client struct {
	mu  sync.RWMutex
	cfg domain.APIConfig

	exec       *httpclient.Executor
	limiter    *rate.Limiter
	retryDelay time.Duration
	sleep      func(context.Context, time.Duration) error
	log        zerolog.Logger
	calls      *metrics.OperationCounter
}

type settings struct {
	httpClient   *http.Client
	rateLimiting bool
	trace        bool
	retryDelay   time.Duration
	sleep        func(context.Context, time.Duration) error
	log          zerolog.Logger
}

type Option func(*settings)

// WithHTTPClient replaces the pooled client built from httpclient.DefaultConfig.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// WithRateLimiting toggles the client-side token bucket. On by default.
func WithRateLimiting(enabled bool) Option {
	return func(s *settings) { s.rateLimiting = enabled }
}

func WithTracing(enabled bool) Option {
	return func(s *settings) { s.trace = enabled }
}

// WithRetryDelay sets the first backoff delay for GET retries.
func WithRetryDelay(d time.Duration) Option {
	return func(s *settings) { s.retryDelay = d }
}

// WithSleep replaces the wait between retries. Tests use it to skip delays.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(s *settings) { s.sleep = sleep }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = l }
}

// New validates cfg and builds a client. Zero Timeout and RateLimit take the
// package defaults.
func New(cfg domain.APIConfig, opts ...Option) (*Client, error) {
	if err := checkBaseURL(cfg.URL); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = RateLimitPerMinute
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	s := settings{
		rateLimiting: true,
		retryDelay:   defaultRetryDelay,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	hc := s.httpClient
	if hc == nil {
		hcfg := httpclient.DefaultConfig()
		hcfg.Timeout = cfg.Timeout
		hcfg.Trace = s.trace
		hc = httpclient.New(hcfg)
	}

	c := &Client{
		cfg:        cfg,
		exec:       httpclient.NewExecutor(httpclient.WithClient(hc), httpclient.WithTimeout(cfg.Timeout)),
		retryDelay: s.retryDelay,
		sleep:      s.sleep,
		log:        s.log,
		calls:      metrics.NewOperationCounter("api_request"),
	}
	if s.rateLimiting {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RateLimit)), cfg.RateLimit)
	}
	return c, nil
}

func checkBaseURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrClientCreation, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: invalid api url %q", ErrClientCreation, raw)
	}
	return nil
}

func (c *Client) Config() domain.APIConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

func (c *Client) SetAPIURL(u string) {
	c.mu.Lock()
	c.cfg.URL = u
	c.mu.Unlock()
}

// SetAPIKey sets the bearer token. An empty key disables the header.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.cfg.Key = key
	c.mu.Unlock()
}

// Calls exposes request counters.
func (c *Client) Calls() *metrics.OperationCounter { return c.calls }

// Close drops idle connections.
func (c *Client) Close() { c.exec.Client().CloseIdleConnections() }

// Get decodes GET <api_url>/<endpoint> into out.
func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	_, err := c.Execute(ctx, GET(endpoint), out)
	return err
}

// Post sends body as JSON and decodes the reply into out.
func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	_, err := c.Execute(ctx, POST(endpoint).WithBody(body), out)
	return err
}

// Execute sends req and decodes a 200/201/202 body into out when out is
// non-nil. GET requests are retried on transient failures.
func (c *Client) Execute(ctx context.Context, req Request, out any) (*Response, error) {
	switch req.method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
	default:
		return nil, ErrUnsupportedMethod
	}

	if req.method != http.MethodGet {
		return c.do(ctx, req, out)
	}

	maxRetries := c.Config().MaxRetries
	opts := []retry.Option{
		retry.WithPolicy(retryable),
		retry.OnRetry(func(attempt int, delay time.Duration, err error) {
			c.log.Warn().Err(err).Str("path", req.path).Int("attempt", attempt).Dur("delay", delay).Msg("api.retry")
		}),
	}
	if c.sleep != nil {
		opts = append(opts, retry.WithSleep(c.sleep))
	}
	return retry.Do(ctx, maxRetries, c.retryDelay, func(ctx context.Context) (*Response, error) {
		return c.do(ctx, req, out)
	}, opts...)
}

func (c *Client) do(ctx context.Context, req Request, out any) (*Response, error) {
	c.calls.Increment()
	resp, err := c.send(ctx, req, out)
	if err != nil {
		c.calls.RecordError()
		return nil, err
	}
	c.calls.RecordSuccess()
	return resp, nil
}

func (c *Client) send(ctx context.Context, req Request, out any) (*Response, error) {
	cfg := c.Config()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, transportError(ctx.Err())
			}
			return nil, &RequestError{Err: err}
		}
	}

	target, err := resolveURL(cfg.URL, req)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	headers := make(map[string]string, len(req.headers)+1)
	if cfg.Key != "" {
		headers["Authorization"] = "Bearer " + cfg.Key
	}
	for k, v := range req.headers {
		headers[k] = v
	}

	httpReq, err := httpclient.BuildRequest(ctx, req.method, target, headers, req.body)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	data, err := c.exec.Do(ctx, httpReq)
	if err != nil {
		c.log.Debug().Err(err).Str("method", req.method).Str("url", target).Dur("duration", data.Duration).Msg("api.transport_error")
		return nil, transportError(err)
	}
	c.log.Debug().Str("method", req.method).Str("url", target).Int("status", data.Status).Dur("duration", data.Duration).Msg("api.response")

	switch data.Status {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	default:
		return nil, statusError(data.Status, data.BodyBytes, data.BodyErr)
	}

	if data.BodyErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseParse, data.BodyErr)
	}
	if out != nil {
		if err := json.Unmarshal(data.BodyBytes, out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrResponseParse, err)
		}
	}

	return &Response{
		Status:   data.Status,
		Headers:  data.Headers,
		Duration: data.Duration,
		body:     data.BodyBytes,
	}, nil
}

// resolveURL joins a relative path to base and applies query params. Paths
// starting with "http" are used as-is.
func resolveURL(base string, req Request) (string, error) {
	target := req.path
	if !strings.HasPrefix(target, "http") {
		target = strings.TrimRight(base, "/") + "/" + strings.TrimLeft(target, "/")
	}
	if len(req.query) == 0 {
		return target, nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range req.query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
