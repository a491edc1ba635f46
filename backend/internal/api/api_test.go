package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"newsgraph/backend/internal/auth"
	"newsgraph/backend/internal/content"
	"newsgraph/backend/internal/graph"
	"newsgraph/backend/internal/index"
	"newsgraph/backend/internal/query"
)

const secret = "api-test-secret"

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := graph.NewMemoryStore()
	nodes := []content.Node{
		{ID: "A1", Label: content.LabelArticle, Props: map[string]interface{}{"title": "Storm hits coast", "published": time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)}},
		{ID: "A2", Label: content.LabelArticle, Props: map[string]interface{}{"title": "Coast cleanup", "published": time.Date(2021, 5, 2, 0, 0, 0, 0, time.UTC)}},
		{ID: "Weather", Label: content.LabelTopic},
		{ID: "Coast", Label: content.LabelGeo, Props: map[string]interface{}{"location": content.Point{Latitude: 40, Longitude: -70}}},
		{ID: "U1", Label: content.LabelUser},
		{ID: "c1", Label: content.LabelComment, Props: map[string]interface{}{"text": "Stay safe", "created": time.Date(2021, 5, 3, 0, 0, 0, 0, time.UTC)}},
	}
	for _, n := range nodes {
		require.NoError(t, store.AddNode(n))
	}
	require.NoError(t, store.AddEdge(content.EdgeHasTopic, "A1", "Weather"))
	require.NoError(t, store.AddEdge(content.EdgeHasTopic, "A2", "Weather"))
	require.NoError(t, store.AddEdge(content.EdgeAboutGeo, "A1", "Coast"))
	require.NoError(t, store.AddEdge(content.EdgeWroteComment, "U1", "c1"))
	require.NoError(t, store.AddEdge(content.EdgeHasComment, "A1", "c1"))

	holder := index.NewHolder(index.NewLoader(store, 2))
	_, err := holder.Refresh(context.Background())
	require.NoError(t, err)

	verifier, err := auth.NewVerifier(secret, "", nil)
	require.NoError(t, err)

	svc := query.NewService(store, holder, query.Options{DefaultLimit: 10, MaxLimit: 50})
	return NewRouter(NewHandler(svc, holder, zap.NewNop()), verifier, zap.NewNop())
}

func bearer(t *testing.T, subject string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + token
}

func do(router *gin.Engine, method, target, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type articlesBody struct {
	Articles []struct {
		ID     string   `json:"id"`
		Topics []string `json:"topics"`
		Geos   []string `json:"geos"`
	} `json:"articles"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealthEndpoint(t *testing.T) {
	w := do(testRouter(t), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestGeoEndpoint(t *testing.T) {
	router := testRouter(t)

	w := do(router, http.MethodGet, "/api/articles/geo?lat=40&lon=-70.01&limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body articlesBody
	decode(t, w, &body)
	require.Len(t, body.Articles, 1)
	assert.Equal(t, "A1", body.Articles[0].ID)
	assert.Equal(t, []string{"Coast"}, body.Articles[0].Geos)

	w = do(router, http.MethodGet, "/api/articles/geo?lat=95&lon=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var e errorBody
	decode(t, w, &e)
	assert.Equal(t, "INVALID_ARGUMENT", e.Error.Code)

	w = do(router, http.MethodGet, "/api/articles/geo?lon=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimilarEndpoint(t *testing.T) {
	router := testRouter(t)

	w := do(router, http.MethodGet, "/api/articles/A1/similar", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body articlesBody
	decode(t, w, &body)
	require.Len(t, body.Articles, 1)
	assert.Equal(t, "A2", body.Articles[0].ID)

	w = do(router, http.MethodGet, "/api/articles/missing/similar", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	var e errorBody
	decode(t, w, &e)
	assert.Equal(t, "NOT_FOUND", e.Error.Code)
}

func TestSearchEndpoint(t *testing.T) {
	router := testRouter(t)

	w := do(router, http.MethodGet, "/api/articles/search?q=coast", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body articlesBody
	decode(t, w, &body)
	assert.Len(t, body.Articles, 2)

	w = do(router, http.MethodGet, "/api/articles/search?q=", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodGet, "/api/articles/search?q=zzzznomatch", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"articles":[]}`, w.Body.String())
}

func TestArticleAndTopicsEndpoints(t *testing.T) {
	router := testRouter(t)

	w := do(router, http.MethodGet, "/api/articles/A2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var view map[string]interface{}
	decode(t, w, &view)
	assert.Equal(t, "Coast cleanup", view["title"])
	assert.Equal(t, []interface{}{"Weather"}, view["topics"])

	w = do(router, http.MethodGet, "/api/topics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"topics":[{"name":"Weather","articleCount":2}]}`, w.Body.String())
}

func TestMyCommentsEndpoint(t *testing.T) {
	router := testRouter(t)

	w := do(router, http.MethodGet, "/api/me/comments", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var e errorBody
	decode(t, w, &e)
	assert.Equal(t, "UNAUTHORIZED", e.Error.Code)

	w = do(router, http.MethodGet, "/api/me/comments", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodGet, "/api/me/comments", bearer(t, "U1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"comments":[{"id":"c1","created":"2021-05-03T00:00:00Z","text":"Stay safe","articleId":"A1"}]}`,
		w.Body.String())
}

func TestRefreshEndpoint(t *testing.T) {
	router := testRouter(t)

	w := do(router, http.MethodPost, "/admin/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodPost, "/admin/refresh", bearer(t, "operator"))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, float64(2), body["articles"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor("STORE_UNAVAILABLE"))
	assert.Equal(t, http.StatusInternalServerError, statusFor("INTERNAL"))
}
