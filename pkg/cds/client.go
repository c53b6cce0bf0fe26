// Package cds provides a client for the CDS legal-entity firmographics API.
package cds

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/address-compare/internal/identifier"
	"github.com/sells-group/address-compare/internal/model"
	"github.com/sells-group/address-compare/internal/resilience"
)

const locationsPath = "legalentities/firmographics/locations"

// Client defines the CDS lookups.
type Client interface {
	// Lookup classifies identifier and fetches its locations.
	Lookup(ctx context.Context, identifier string) (*model.LocationsResponse, error)
	// LookupByEntityID fetches locations by numeric entity id.
	LookupByEntityID(ctx context.Context, entityID int64) (*model.LocationsResponse, error)
	// LookupByBvdID fetches locations by BVD id.
	LookupByBvdID(ctx context.Context, bvdID string) (*model.LocationsResponse, error)
}

// Option configures the CDS client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithCookie sets the Cookie header sent with every lookup.
func WithCookie(cookie string) Option {
	return func(c *httpClient) {
		c.cookie = cookie
	}
}

// WithRateLimit caps lookups at rps requests per second. Zero disables it.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithCircuitBreaker routes every request through cb.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *httpClient) {
		c.breaker = cb
	}
}

type httpClient struct {
	baseURL string
	cookie  string
	tokens  TokenSource
	http    *http.Client
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

// NewClient creates a CDS client for baseURL that authenticates with tokens.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		tokens:  tokens,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("cds.lookup")
	}
	return c
}

func (c *httpClient) Lookup(ctx context.Context, id string) (*model.LocationsResponse, error) {
	kind, err := identifier.Classify(id)
	if err != nil {
		return nil, err
	}
	if kind == identifier.EntityID {
		entityID, err := identifier.ParseEntityID(id)
		if err != nil {
			return nil, err
		}
		return c.LookupByEntityID(ctx, entityID)
	}
	return c.LookupByBvdID(ctx, strings.TrimSpace(id))
}

func (c *httpClient) LookupByEntityID(ctx context.Context, entityID int64) (*model.LocationsResponse, error) {
	if entityID <= 0 {
		return nil, eris.Wrapf(model.ErrInvalidIdentifier, "cds: entity id %d must be positive", entityID)
	}
	return c.locations(ctx, url.Values{"entityid": {strconv.FormatInt(entityID, 10)}})
}

func (c *httpClient) LookupByBvdID(ctx context.Context, bvdID string) (*model.LocationsResponse, error) {
	if strings.TrimSpace(bvdID) == "" {
		return nil, eris.Wrap(model.ErrInvalidIdentifier, "cds: empty bvd id")
	}
	return c.locations(ctx, url.Values{"bvdid": {bvdID}})
}

func (c *httpClient) locations(ctx context.Context, query url.Values) (*model.LocationsResponse, error) {
	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) ([]byte, error) {
			return c.get(ctx, query)
		})
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, eris.Wrap(model.ErrUpstreamRequest, "cds: circuit open")
		}
		return nil, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return &model.LocationsResponse{}, nil
	}
	resp, err := model.ParseLocations(body)
	if err != nil {
		return nil, eris.Wrap(err, "cds: decode locations")
	}
	return resp, nil
}

// get performs one authenticated request and maps the status to the model
// error kinds. Retryable failures are returned as TransientError.
func (c *httpClient) get(ctx context.Context, query url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrapf(model.ErrUpstreamRequest, "cds: rate limit wait: %v", err)
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	reqURL := c.baseURL + locationsPath + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrapf(model.ErrUpstreamRequest, "cds: create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		wrapped := eris.Wrapf(model.ErrUpstreamRequest, "cds: request %s: %v", query.Encode(), err)
		if ctx.Err() != nil {
			return nil, wrapped
		}
		return nil, resilience.NewTransientError(wrapped, 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(
			eris.Wrapf(model.ErrUpstreamRequest, "cds: read response: %v", err), resp.StatusCode)
	}

	zap.L().Debug("cds: lookup",
		zap.String("query", query.Encode()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		if inv, ok := c.tokens.(interface{ Invalidate(context.Context) error }); ok {
			_ = inv.Invalidate(ctx)
		}
		return nil, eris.Wrapf(model.ErrAuthentication, "cds: %s rejected credential", query.Encode())
	case resp.StatusCode == http.StatusNotFound:
		return nil, eris.Wrapf(model.ErrLookupNotFound, "cds: no record for %s", query.Encode())
	case resilience.IsTransientStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(
			eris.Wrapf(model.ErrUpstreamRequest, "cds: status %d", resp.StatusCode), resp.StatusCode)
	default:
		return nil, eris.Wrapf(model.ErrUpstreamRequest, "cds: status %d: %s", resp.StatusCode, truncate(body, 200))
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
