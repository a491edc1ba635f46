package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"newsgraph/backend/internal/api"
	"newsgraph/backend/internal/auth"
	"newsgraph/backend/internal/index"
	"newsgraph/backend/internal/query"
	"newsgraph/backend/pkg/config"
)

const fixturePath = "../../fixtures/news.json"

func memoryConfig() *config.Config {
	return &config.Config{
		GraphBackend:      config.BackendMemory,
		FixturePath:       fixturePath,
		LoaderConcurrency: 2,
		DefaultLimit:      10,
		MaxLimit:          100,
	}
}

func TestOpenStore_Memory(t *testing.T) {
	store, closeStore, err := openStore(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer closeStore()

	snap, err := index.NewLoader(store, 2).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Articles.Len())
	assert.Equal(t, 3, snap.Geo.Len())
}

func TestOpenStore_Errors(t *testing.T) {
	cfg := memoryConfig()
	cfg.FixturePath = "does-not-exist.json"
	_, _, err := openStore(context.Background(), cfg)
	assert.Error(t, err)

	cfg.GraphBackend = "sqlite"
	_, _, err = openStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestStartRefresh(t *testing.T) {
	store, closeStore, err := openStore(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer closeStore()

	holder := index.NewHolder(index.NewLoader(store, 2))
	require.NoError(t, startRefresh(holder, 0, zap.NewNop()))
	// Nothing was started, so a real interval can still start the loop
	require.NoError(t, startRefresh(holder, time.Hour, zap.NewNop()))
	holder.Stop(time.Second)
}

func TestNewVerifier(t *testing.T) {
	v, err := newVerifier(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = newVerifier(&config.Config{JWTSecret: "s3cret"})
	require.NoError(t, err)
	assert.NotNil(t, v)
}

// TestFixtureEndToEnd serves the bundled fixture through the full router
func TestFixtureEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := memoryConfig()

	store, closeStore, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closeStore()

	holder := index.NewHolder(index.NewLoader(store, cfg.LoaderConcurrency))
	_, err = holder.Refresh(context.Background())
	require.NoError(t, err)

	verifier, err := auth.NewVerifier("s3cret", "", nil)
	require.NoError(t, err)
	service := query.NewService(store, holder, query.Options{DefaultLimit: cfg.DefaultLimit, MaxLimit: cfg.MaxLimit})
	router := api.NewRouter(api.NewHandler(service, holder, zap.NewNop()), verifier, zap.NewNop())

	get := func(target string) map[string]interface{} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", target, nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body
	}

	// Diacritics fold both ways: "Montréal" in the title, "montreal" in the query
	body := get("/api/articles/search?q=montreal")
	articles := body["articles"].([]interface{})
	require.Len(t, articles, 1)
	assert.Equal(t, "nyt-003", articles[0].(map[string]interface{})["id"])

	// HTML in abstracts is indexed as text
	body = get("/api/articles/search?q=subway")
	assert.Len(t, body["articles"], 2)

	// Brooklyn is nearest; its only article is nyt-002
	body = get("/api/articles/geo?lat=40.6782&lon=-73.9442&limit=1")
	articles = body["articles"].([]interface{})
	require.Len(t, articles, 1)
	first := articles[0].(map[string]interface{})
	assert.Equal(t, "nyt-002", first["id"])
	assert.Equal(t, []interface{}{"Brooklyn", "New York City"}, first["geos"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"caption": "A new station under construction", "url": "https://example.com/img/subway.jpg"},
	}, first["photos"])

	// nyt-002 and nyt-004 both score 3/5 and share a publication date, so id decides
	body = get("/api/articles/nyt-001/similar")
	articles = body["articles"].([]interface{})
	require.Len(t, articles, 2)
	assert.Equal(t, "nyt-002", articles[0].(map[string]interface{})["id"])
	assert.Equal(t, "nyt-004", articles[1].(map[string]interface{})["id"])

	body = get("/health")
	assert.Equal(t, "ok", body["status"])
}
