package main

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/address-compare/internal/docstore"
	"github.com/sells-group/address-compare/internal/lookup"
	"github.com/sells-group/address-compare/internal/resilience"
	"github.com/sells-group/address-compare/pkg/cds"
)

// appEnv holds the initialized sources and the lookup service built on
// them. Store and CDS are nil when their source was not requested or, in
// optional mode, not configured.
type appEnv struct {
	Store   docstore.Store
	CDS     cds.Client
	Redis   *redis.Client
	Service *lookup.Service
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Redis != nil {
		_ = e.Redis.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// envOptions selects the sources initEnv sets up.
type envOptions struct {
	docs bool
	cds  bool
	// optional skips an unconfigured source with a warning instead of
	// failing.
	optional bool
	// onStateChange observes CDS circuit breaker transitions.
	onStateChange func(from, to resilience.CircuitState)
}

// initEnv sets up the requested sources and the lookup service. Callers
// should defer env.Close().
func initEnv(ctx context.Context, opts envOptions) (*appEnv, error) {
	env := &appEnv{}

	if opts.docs {
		if opts.optional && cfg.DocStore.DatabaseURL == "" {
			zap.L().Warn("document store not configured, documents source disabled")
		} else {
			st, err := initStore(ctx)
			if err != nil {
				return nil, err
			}
			if err := st.Migrate(ctx); err != nil {
				_ = st.Close()
				return nil, eris.Wrap(err, "migrate store")
			}
			env.Store = st
		}
	}

	if opts.cds {
		if opts.optional && cfg.CDS.BaseURL == "" {
			zap.L().Warn("cds api not configured, cds source disabled")
		} else {
			client, rdb, err := initCDS(ctx, opts.onStateChange)
			if err != nil {
				env.Close()
				return nil, err
			}
			env.CDS = client
			env.Redis = rdb
		}
	}

	var docs docstore.Source
	if env.Store != nil {
		docs = env.Store
	}
	env.Service = lookup.NewService(docs, env.CDS, lookup.Config{
		NormalizeDocuments: cfg.Normalize.Documents,
		NormalizeAPI:       cfg.Normalize.API,
		MaxResults:         cfg.DocStore.MaxResults,
	})
	return env, nil
}

// initStore opens the configured document store.
func initStore(ctx context.Context) (docstore.Store, error) {
	if err := cfg.Validate("docstore"); err != nil {
		return nil, err
	}

	st, err := docstore.Open(ctx, cfg.DocStore.Driver, cfg.DocStore.DatabaseURL, cfg.DocStore.Table, &docstore.PoolConfig{
		MaxConns: cfg.DocStore.MaxConns,
		MinConns: cfg.DocStore.MinConns,
	})
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}

// initCDS builds the CDS client with its token service, retry policy and
// circuit breaker. When redis.url is set the token is shared through Redis
// and the returned client must be closed by the caller.
func initCDS(ctx context.Context, onStateChange func(from, to resilience.CircuitState)) (cds.Client, *redis.Client, error) {
	if err := cfg.Validate("cds"); err != nil {
		return nil, nil, err
	}

	httpClient := &http.Client{Timeout: cfg.CDS.Timeout()}
	tokenOpts := []cds.TokenOption{cds.WithTokenHTTPClient(httpClient)}

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		var err error
		rdb, err = cds.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, eris.Wrap(err, "init token cache")
		}
		tokenOpts = append(tokenOpts, cds.WithTokenCache(cds.NewRedisTokenCache(rdb)))
	}

	tokens := cds.NewTokenService(cds.TokenConfig{
		URL:           cfg.CDS.TokenServiceURL,
		Audience:      cfg.CDS.APIName,
		PEToken:       cfg.CDS.PEToken,
		Cookie:        cfg.CDS.CookieGT,
		TTL:           cfg.CDS.TokenTTL(),
		RefreshBuffer: cfg.CDS.TokenRefreshBuffer(),
	}, tokenOpts...)

	breakerCfg := resilience.NewCircuitBreakerConfig(cfg.CDS.BreakerThreshold, cfg.CDS.BreakerResetSecs)
	breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("cds circuit breaker state change",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		if onStateChange != nil {
			onStateChange(from, to)
		}
	}

	client := cds.NewClient(cfg.CDS.BaseURL, tokens,
		cds.WithHTTPClient(httpClient),
		cds.WithCookie(cfg.CDS.CookieCDS),
		cds.WithRateLimit(cfg.CDS.RateLimitRPS),
		cds.WithRetry(resilience.NewRetryConfig(cfg.CDS.RetryAttempts, cfg.CDS.RetryBackoffMs)),
		cds.WithCircuitBreaker(resilience.NewCircuitBreaker(breakerCfg)),
	)
	return client, rdb, nil
}
