package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/address-compare/internal/config"
	"github.com/sells-group/address-compare/internal/lookup"
	"github.com/sells-group/address-compare/internal/model"
	"github.com/sells-group/address-compare/internal/resilience"
)

const locationsJSON = `{"data": [{"entityId": 105842360, "bvdId": "CA*S00222833", "locations": [
	{"categories": [{"code": "HQ", "label": "Headquarters"}], "addresses": [
		{"reported": {"addressLines": ["100 King St W"], "city": "Toronto", "country": {"code": "CA", "label": "Canada"}},
		 "standardized": {"addressLines": ["100 King St W"], "provider": "Loqate", "locality": "Toronto", "countryName": "Canada"}}
	]}
]}]}`

// useConfig installs c as the command config for the duration of the test.
func useConfig(t *testing.T, c *config.Config) {
	t.Helper()
	old := cfg
	cfg = c
	t.Cleanup(func() { cfg = old })
}

// testConfig returns a config with a SQLite document store in a temp dir
// and no CDS API.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DocStore: config.DocStoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "docs.db"),
			Table:       "documents",
			MaxResults:  100,
		},
		CDS: config.CDSConfig{
			TimeoutSecs:            5,
			TokenTTLMins:           60,
			TokenRefreshBufferMins: 5,
			RetryAttempts:          1,
		},
		Normalize: config.NormalizeConfig{Documents: true},
		Server:    config.ServerConfig{Port: 8080},
		Log:       config.LogConfig{Level: "info", Format: "json"},
	}
}

// newCDSServer serves a token endpoint and the locations endpoint. Entity
// 105842360 has one location, entity 500 fails with a server error and
// everything else is not found.
func newCDSServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"token": "test-token"}`)
	})
	mux.HandleFunc("GET /legalentities/firmographics/locations", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Query().Get("entityid") {
		case "105842360":
			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprint(w, locationsJSON)
		case "500":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// withCDS points c at srv.
func withCDS(c *config.Config, srv *httptest.Server) *config.Config {
	c.CDS.BaseURL = srv.URL
	c.CDS.TokenServiceURL = srv.URL + "/token"
	c.CDS.APIName = "cds-locations"
	return c
}

func TestInitEnv_OptionalSkipsUnconfigured(t *testing.T) {
	c := testConfig(t)
	c.DocStore.DatabaseURL = ""
	useConfig(t, c)

	env, err := initEnv(context.Background(), envOptions{docs: true, cds: true, optional: true})
	require.NoError(t, err)
	defer env.Close()

	assert.Nil(t, env.Store)
	assert.Nil(t, env.CDS)
	require.NotNil(t, env.Service)

	_, err = env.Service.Documents(context.Background(), nil, lookup.Options{})
	assert.True(t, errors.Is(err, lookup.ErrSourceUnavailable))
	_, err = env.Service.Locations(context.Background(), "105842360", lookup.Options{})
	assert.True(t, errors.Is(err, lookup.ErrSourceUnavailable))
}

func TestInitEnv_RequiredCDSMissing(t *testing.T) {
	useConfig(t, testConfig(t))

	_, err := initEnv(context.Background(), envOptions{cds: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cds.base_url is required")
}

func TestInitEnv_SQLiteStore(t *testing.T) {
	useConfig(t, testConfig(t))

	env, err := initEnv(context.Background(), envOptions{docs: true})
	require.NoError(t, err)
	defer env.Close()

	require.NotNil(t, env.Store)
	res, err := env.Service.Documents(context.Background(), nil, lookup.Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
}

func TestInitStore_BadDriver(t *testing.T) {
	c := testConfig(t)
	c.DocStore.Driver = "mongo"
	useConfig(t, c)

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docstore.driver must be postgres or sqlite")
}

func TestInitCDS_BadRedisURL(t *testing.T) {
	c := withCDS(testConfig(t), newCDSServer(t))
	c.Redis.URL = "not a url"
	useConfig(t, c)

	_, _, err := initCDS(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init token cache")
}

func TestInitCDS_Lookup(t *testing.T) {
	useConfig(t, withCDS(testConfig(t), newCDSServer(t)))

	client, rdb, err := initCDS(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, rdb)

	resp, err := client.Lookup(context.Background(), "105842360")
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)

	_, err = client.Lookup(context.Background(), "42")
	assert.True(t, errors.Is(err, model.ErrLookupNotFound))
}

func TestInitCDS_CircuitStateHook(t *testing.T) {
	c := withCDS(testConfig(t), newCDSServer(t))
	c.CDS.BreakerThreshold = 1
	useConfig(t, c)

	var (
		mu          sync.Mutex
		transitions []resilience.CircuitState
	)
	client, _, err := initCDS(context.Background(), func(_, to resilience.CircuitState) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, to)
	})
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), "500")
	require.Error(t, err)

	_, err = client.Lookup(context.Background(), "105842360")
	assert.True(t, errors.Is(err, model.ErrUpstreamRequest), "open circuit rejects the call")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []resilience.CircuitState{resilience.CircuitOpen}, transitions)
}
