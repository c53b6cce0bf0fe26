package cds

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/address-compare/internal/model"
)

// TokenSource yields a bearer token for the CDS API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Token is a cached bearer credential.
type Token struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenConfig configures a TokenService.
type TokenConfig struct {
	// URL is the token service endpoint.
	URL string
	// Audience is the API name sent as {"audience": ...}.
	Audience string
	// PEToken is sent as "Authorization: Basic <PEToken>".
	PEToken string
	// Cookie is sent verbatim as the Cookie header.
	Cookie string
	// TTL is how long an issued token is valid. Default: 1h.
	TTL time.Duration
	// RefreshBuffer refreshes a token this long before it expires. Default: 5m.
	RefreshBuffer time.Duration
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithTokenCache sets the cache used to share tokens. Default: in-memory.
func WithTokenCache(c TokenCache) TokenOption {
	return func(s *TokenService) {
		s.cache = c
	}
}

// WithTokenHTTPClient sets the HTTP client used against the token service.
func WithTokenHTTPClient(hc *http.Client) TokenOption {
	return func(s *TokenService) {
		s.http = hc
	}
}

// TokenService fetches tokens from the token service and caches them until
// they are within RefreshBuffer of expiry. Refreshes are serialized, so
// concurrent callers trigger at most one fetch.
type TokenService struct {
	cfg   TokenConfig
	cache TokenCache
	http  *http.Client
	now   func() time.Time

	mu sync.Mutex
}

// NewTokenService creates a TokenService.
func NewTokenService(cfg TokenConfig, opts ...TokenOption) *TokenService {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.RefreshBuffer <= 0 {
		cfg.RefreshBuffer = 5 * time.Minute
	}
	s := &TokenService{
		cfg:   cfg,
		cache: NewMemoryTokenCache(),
		http:  &http.Client{Timeout: 30 * time.Second},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns a valid token, fetching a new one when the cached token is
// missing or about to expire. Failures wrap model.ErrAuthentication.
func (s *TokenService) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, ok, err := s.cache.Get(ctx, s.cacheKey())
	if err != nil {
		zap.L().Warn("cds: token cache read failed", zap.Error(err))
	}
	if ok && s.fresh(cached) {
		return cached.Value, nil
	}

	tok, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, s.cacheKey(), tok, tok.ExpiresAt.Sub(s.now())-s.cfg.RefreshBuffer); err != nil {
		zap.L().Warn("cds: token cache write failed", zap.Error(err))
	}
	zap.L().Debug("cds: token refreshed", zap.Time("expires_at", tok.ExpiresAt))
	return tok.Value, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (s *TokenService) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Delete(ctx, s.cacheKey())
}

func (s *TokenService) fresh(t Token) bool {
	return t.Value != "" && s.now().Before(t.ExpiresAt.Add(-s.cfg.RefreshBuffer))
}

func (s *TokenService) cacheKey() string {
	return "cds:token:" + s.cfg.Audience
}

func (s *TokenService) fetch(ctx context.Context) (Token, error) {
	payload, err := json.Marshal(map[string]string{"audience": s.cfg.Audience})
	if err != nil {
		return Token{}, eris.Wrap(err, "cds: encode token request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return Token{}, eris.Wrapf(model.ErrAuthentication, "cds: create token request: %v", err)
	}
	req.Header.Set("Authorization", "Basic "+s.cfg.PEToken)
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Cookie != "" {
		req.Header.Set("Cookie", s.cfg.Cookie)
	}

	issuedAt := s.now()
	resp, err := s.http.Do(req)
	if err != nil {
		return Token{}, eris.Wrapf(model.ErrAuthentication, "cds: token request: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, eris.Wrapf(model.ErrAuthentication, "cds: read token response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Token{}, eris.Wrapf(model.ErrAuthentication, "cds: token service status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Token == "" {
		return Token{}, eris.Wrap(model.ErrAuthentication, "cds: token response has no token")
	}
	return Token{Value: out.Token, ExpiresAt: issuedAt.Add(s.cfg.TTL)}, nil
}
