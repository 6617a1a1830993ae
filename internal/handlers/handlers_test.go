package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kata/internal/auth"
	"kata/internal/config"
	"kata/internal/container"
	"kata/internal/ratelimit"
	"kata/internal/services"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRouter builds a router over a container with no provider
// credentials and permissive limiters, which is exactly the state the
// error-path contracts are defined for.
func setupTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	log := logrus.New()

	store := ratelimit.NewMemoryStore()
	c := &container.Container{
		Logger:          log,
		Auth:            auth.NewClient(config.AuthConfig{}, log),
		Books:           services.NewBooksClient("", log),
		Recommender:     services.NewRecommender(nil, nil, nil, nil, log),
		SearchLimiter:   ratelimit.NewLimiter(store, "search", time.Minute, 1000),
		UpcomingLimiter: ratelimit.NewLimiter(store, "upcoming", time.Minute, 1000),
		RecsLimiter:     ratelimit.NewLimiter(store, "recommendations", time.Minute, 1000),
	}

	r := mux.NewRouter()
	New(c).Register(r)
	return r
}

func doRequest(r *mux.Router, method, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func TestHealth(t *testing.T) {
	rr := doRequest(setupTestRouter(t), "GET", "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	r := setupTestRouter(t)

	for _, target := range []string{"/api/search/movies", "/api/search/movies?q=", "/api/search/movies?q=%20%20"} {
		rr := doRequest(r, "GET", target)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func TestSearch_UnknownMediaType(t *testing.T) {
	rr := doRequest(setupTestRouter(t), "GET", "/api/search/music?q=abba")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSearch_MissingCredentials(t *testing.T) {
	r := setupTestRouter(t)

	rr := doRequest(r, "GET", "/api/search/movies?q=dune")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "TMDB")

	rr = doRequest(r, "GET", "/api/search/games?q=hades")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "IGDB")
}

func TestUpcoming_InvalidPeriod(t *testing.T) {
	r := setupTestRouter(t)

	rr := doRequest(r, "GET", "/api/upcoming/movies?period=year")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(r, "GET", "/api/upcoming/movies")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecommendations_UnknownType(t *testing.T) {
	rr := doRequest(setupTestRouter(t), "GET", "/api/recommendations?type=music")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecommendations_BadDaySeed(t *testing.T) {
	rr := doRequest(setupTestRouter(t), "GET", "/api/recommendations?type=movie&daySeed=abc")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestItems_RequireOnboardedUser(t *testing.T) {
	// Without a guard-resolved user the library routes refuse to serve.
	rr := doRequest(setupTestRouter(t), "GET", "/api/items")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSession_AnonymousState(t *testing.T) {
	rr := doRequest(setupTestRouter(t), "GET", "/api/session")
	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, string(auth.StateAnonymous), body["state"])
}

func TestAuthCallback_MissingCode(t *testing.T) {
	rr := doRequest(setupTestRouter(t), "GET", "/auth/callback")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, auth.PathLogin+"?error=missing_code", rr.Header().Get("Location"))
}

func TestAuthCallback_ExchangeFailure(t *testing.T) {
	rr := doRequest(setupTestRouter(t), "GET", "/auth/callback?code=abc")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, auth.PathLogin+"?error=exchange_failed", rr.Header().Get("Location"))
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/home", safeNext(""))
	assert.Equal(t, "/dashboard", safeNext("/dashboard"))
	assert.Equal(t, "/home", safeNext("https://evil.example.com/"))
	assert.Equal(t, "/home", safeNext("//evil.example.com"))
}

func TestRateLimit_DeniesWithRetryAfter(t *testing.T) {
	log := logrus.New()
	store := ratelimit.NewMemoryStore()
	c := &container.Container{
		Logger:          log,
		Auth:            auth.NewClient(config.AuthConfig{}, log),
		Books:           services.NewBooksClient("", log),
		Recommender:     services.NewRecommender(nil, nil, nil, nil, log),
		SearchLimiter:   ratelimit.NewLimiter(store, "search", time.Minute, 2),
		UpcomingLimiter: ratelimit.NewLimiter(store, "upcoming", time.Minute, 2),
		RecsLimiter:     ratelimit.NewLimiter(store, "recommendations", time.Minute, 2),
	}
	r := mux.NewRouter()
	New(c).Register(r)

	// The first two calls consume the window (they 400 on validation,
	// but the limiter runs first).
	for i := 0; i < 2; i++ {
		rr := doRequest(r, "GET", "/api/search/movies?q=")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	}

	rr := doRequest(r, "GET", "/api/search/movies?q=")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}
