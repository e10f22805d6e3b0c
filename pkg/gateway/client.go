package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// HeaderAPIKey carries the programmatic key (zk_<env>_<random>).
	HeaderAPIKey = "X-API-Key"
	// HeaderRequestID is attached to every call for backend-side correlation.
	HeaderRequestID = "X-Request-ID"

	userAgent = "zapctl-go/1.3"

	defaultTimeout    = 30 * time.Second
	defaultReadRetry  = 2
	defaultAPIVersion = "/api"
)

// Client is a typed wrapper over the gateway REST API: one method per backend
// operation, each performing exactly one HTTP call and unwrapping the
// {success, data} envelope. Mutations are never retried; GET calls retry a
// fixed small number of times on transport errors and 5xx.
type Client struct {
	http    *resty.Client
	baseURL string
	apiKey  string
	token   string
	limiter *rate.Limiter
	media   MediaOptions
}

// Option customizes a Client at construction time.
type Option func(*Client)

// WithAPIKey sets the programmatic key used for session-scoped calls.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = strings.TrimSpace(key) }
}

// WithToken sets the dashboard bearer token used for user-scoped calls
// (API-key management). Also used as a fallback when no API key is set.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithReadRetry overrides the GET retry count. Zero disables read retries.
func WithReadRetry(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.http.SetRetryCount(n)
		}
	}
}

// WithRateLimit installs a client-side limiter mirroring the per-key hourly
// quota the backend enforces. Zero or negative disables limiting.
func WithRateLimit(perHour int) Option {
	return func(c *Client) {
		if perHour <= 0 {
			c.limiter = nil
			return
		}
		burst := perHour / 60
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(perHour)/3600.0), burst)
	}
}

// WithMediaOptions overrides the outbound image preprocessing options.
func WithMediaOptions(opts MediaOptions) Option {
	return func(c *Client) { c.media = opts.withDefaults() }
}

// WithDebug dumps requests and responses for troubleshooting.
func WithDebug(debug bool) Option {
	return func(c *Client) { c.http.SetDebug(debug) }
}

// New builds a Client for the gateway at baseURL (scheme://host[:port], no
// trailing /api).
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("gateway base url is required")
	}

	c := &Client{
		baseURL: baseURL,
		media:   DefaultMediaOptions(),
	}
	c.http = resty.New().
		SetBaseURL(baseURL + defaultAPIVersion).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetTimeout(defaultTimeout).
		SetRetryCount(defaultReadRetry).
		AddRetryCondition(retryableRead)

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the gateway root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// retryableRead keeps retries confined to the read path: only GETs, only on
// transport errors or 5xx.
func retryableRead(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	return err != nil || r.StatusCode() >= http.StatusInternalServerError
}

type authScheme int

const (
	authAuto authScheme = iota
	authBearer
)

func (c *Client) authorize(req *resty.Request, scheme authScheme) error {
	switch scheme {
	case authBearer:
		if c.token == "" {
			return errors.New("dashboard bearer token is not configured")
		}
		req.SetHeader("Authorization", "Bearer "+c.token)
	default:
		if c.apiKey != "" {
			req.SetHeader(HeaderAPIKey, c.apiKey)
		} else if c.token != "" {
			req.SetHeader("Authorization", "Bearer "+c.token)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	return c.exec(ctx, authAuto, method, path, body, out)
}

// doBearer forces the dashboard bearer token; API-key management never
// accepts a programmatic key.
func (c *Client) doBearer(ctx context.Context, method, path string, body, out interface{}) error {
	return c.exec(ctx, authBearer, method, path, body, out)
}

func (c *Client) exec(ctx context.Context, scheme authScheme, method, path string, body, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader(HeaderRequestID, uuid.NewString())
	if err := c.authorize(req, scheme); err != nil {
		return err
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("gateway %s %s: %w", method, path, err)
	}
	return decodeEnvelope(resp, out)
}

// envelope is the gateway's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *envelopeError  `json:"error,omitempty"`
}

type envelopeError struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func decodeEnvelope(resp *resty.Response, out interface{}) error {
	raw := resp.Body()
	if len(raw) == 0 && resp.IsSuccess() {
		return nil
	}

	var env envelope
	parseErr := json.Unmarshal(raw, &env)

	if resp.IsError() || (parseErr == nil && !env.Success) {
		apiErr := &APIError{StatusCode: resp.StatusCode()}
		switch {
		case parseErr == nil && env.Error != nil:
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		case parseErr == nil && env.Message != "":
			apiErr.Message = env.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode())
		}
		return apiErr
	}

	if parseErr != nil {
		return fmt.Errorf("gateway returned a malformed envelope: %w", parseErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("gateway data decode: %w", err)
	}
	return nil
}
