package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seoulflix/internal/config"
	"seoulflix/internal/handlers"
	"seoulflix/internal/services"
)

func newTestServer() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Port:           "0",
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	catalog := services.NewMemoryCatalog()

	router := setupRouter(cfg)
	setupRoutes(router,
		func(c *gin.Context) { c.Next() },
		handlers.NewDramaHandler(catalog),
		handlers.NewEpisodeHandler(catalog),
		handlers.NewInteractionHandler(catalog),
		nil,
	)
	return router
}

func TestUnsupportedMethodCarriesAllowHeader(t *testing.T) {
	router := newTestServer()

	req := httptest.NewRequest(http.MethodPatch, "/api/dramas/abc12345", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "DELETE, GET, PUT", w.Header().Get("Allow"))
}

func TestUnknownRouteIs404(t *testing.T) {
	router := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPathMatches(t *testing.T) {
	assert.True(t, pathMatches("/api/dramas/:id", "/api/dramas/abc12345"))
	assert.True(t, pathMatches("/api/dramas/:id/episodes/:episodeId", "/api/dramas/a/episodes/b"))
	assert.False(t, pathMatches("/api/dramas/:id", "/api/dramas"))
	assert.False(t, pathMatches("/api/dramas/:id", "/api/search/abc"))
}

func TestRateLimiter(t *testing.T) {
	rl := &RateLimiter{visitors: make(map[string]*Visitor)}

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("10.0.0.1", 5, time.Minute))
	}
	assert.False(t, rl.Allow("10.0.0.1", 5, time.Minute))

	// other clients are unaffected
	assert.True(t, rl.Allow("10.0.0.2", 5, time.Minute))
}
