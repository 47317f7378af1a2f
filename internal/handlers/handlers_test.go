package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seoulflix/internal/models"
	"seoulflix/internal/services"
)

func newTestRouter(catalog services.Catalog) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	dramaHandler := NewDramaHandler(catalog)
	episodeHandler := NewEpisodeHandler(catalog)
	interactionHandler := NewInteractionHandler(catalog)

	api := router.Group("/api")
	api.GET("/dramas", dramaHandler.GetDramas)
	api.POST("/dramas", dramaHandler.CreateDrama)
	api.GET("/dramas/:id", dramaHandler.GetDrama)
	api.PUT("/dramas/:id", dramaHandler.UpdateDrama)
	api.DELETE("/dramas/:id", dramaHandler.DeleteDrama)
	api.GET("/search", dramaHandler.SearchDramas)

	api.GET("/dramas/:id/episodes", episodeHandler.GetEpisodes)
	api.POST("/dramas/:id/episodes", episodeHandler.CreateEpisode)
	api.PUT("/dramas/:id/episodes/:episodeId", episodeHandler.UpdateEpisode)
	api.DELETE("/dramas/:id/episodes/:episodeId", episodeHandler.DeleteEpisode)

	api.GET("/dramas/:id/likes", interactionHandler.GetLikes)
	api.POST("/dramas/:id/like", interactionHandler.LikeDrama)
	api.GET("/dramas/:id/comments", interactionHandler.GetComments)
	api.POST("/dramas/:id/comments", interactionHandler.AddComment)
	api.GET("/dramas/:id/comments/stream", interactionHandler.StreamComments)

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createDramaViaAPI(t *testing.T, router *gin.Engine) models.Drama {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/dramas", models.CreateDramaRequest{
		Title:       "Reply 1988",
		Description: "Five families share an alley in Ssangmun-dong",
		Thumbnail:   "https://cdn.example/reply.jpg",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return decodeBody[models.Drama](t, w)
}

func TestDramaLifecycle(t *testing.T) {
	router := newTestRouter(services.NewMemoryCatalog())

	// create
	drama := createDramaViaAPI(t, router)
	assert.Len(t, drama.ID, 8)
	assert.Equal(t, models.DefaultLang, drama.Lang)

	// read back
	w := doJSON(t, router, http.MethodGet, "/api/dramas/"+drama.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[models.Drama](t, w)
	assert.Equal(t, drama.Title, got.Title)

	// list
	w = doJSON(t, router, http.MethodGet, "/api/dramas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody[[]models.Drama](t, w)
	require.Len(t, list, 1)

	// partial update keeps untouched fields
	w = doJSON(t, router, http.MethodPut, "/api/dramas/"+drama.ID,
		gin.H{"title": "Reply 1988 (Remastered)"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeBody[models.Drama](t, w)
	assert.Equal(t, "Reply 1988 (Remastered)", updated.Title)
	assert.Equal(t, drama.Description, updated.Description)

	// delete acknowledges with the id, and is idempotent
	for i := 0; i < 2; i++ {
		w = doJSON(t, router, http.MethodDelete, "/api/dramas/"+drama.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		ack := decodeBody[map[string]any](t, w)
		assert.Equal(t, true, ack["ok"])
		assert.Equal(t, drama.ID, ack["id"])
	}

	w = doJSON(t, router, http.MethodGet, "/api/dramas/"+drama.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateDrama_InvalidBody(t *testing.T) {
	router := newTestRouter(services.NewMemoryCatalog())

	req := httptest.NewRequest(http.MethodPost, "/api/dramas", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody[map[string]string](t, w)
	assert.Equal(t, "Invalid request body", body["error"])
}

func TestCreateDrama_MissingFieldsListed(t *testing.T) {
	router := newTestRouter(services.NewMemoryCatalog())

	w := doJSON(t, router, http.MethodPost, "/api/dramas", gin.H{"title": "only a title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody[map[string]string](t, w)
	assert.Equal(t, "description, thumbnail required", body["error"])
}

func TestGetDrama_NotFound(t *testing.T) {
	router := newTestRouter(services.NewMemoryCatalog())

	w := doJSON(t, router, http.MethodGet, "/api/dramas/missing1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody[map[string]string](t, w)
	assert.Equal(t, "Drama not found", body["error"])
}

func TestSearch(t *testing.T) {
	router := newTestRouter(services.NewMemoryCatalog())
	createDramaViaAPI(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/search?q=alley", nil)
	require.Equal(t, http.StatusOK, w.Code)
	results := decodeBody[[]models.Drama](t, w)
	require.Len(t, results, 1)

	// no query is an empty result, not an error
	w = doJSON(t, router, http.MethodGet, "/api/search", nil)
	require.Equal(t, http.StatusOK, w.Code)
	results = decodeBody[[]models.Drama](t, w)
	assert.Empty(t, results)
}

func TestEpisodeRoutes(t *testing.T) {
	router := newTestRouter(services.NewMemoryCatalog())
	drama := createDramaViaAPI(t, router)

	// empty list before any upload
	w := doJSON(t, router, http.MethodGet, "/api/dramas/"+drama.ID+"/episodes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[[]models.Episode](t, w))

	w = doJSON(t, router, http.MethodPost, "/api/dramas/"+drama.ID+"/episodes",
		models.CreateEpisodeRequest{Episode: "1", VideoID: "vod-123"})
	require.Equal(t, http.StatusCreated, w.Code)
	episode := decodeBody[models.Episode](t, w)
	assert.Equal(t, models.DefaultSeason, episode.Season)

	// update video id
	w = doJSON(t, router, http.MethodPut,
		fmt.Sprintf("/api/dramas/%s/episodes/%s", drama.ID, episode.ID),
		gin.H{"videoId": "vod-456"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "vod-456", decodeBody[models.Episode](t, w).VideoID)

	// delete, then a second delete reports the episode missing
	path := fmt.Sprintf("/api/dramas/%s/episodes/%s", drama.ID, episode.ID)
	w = doJSON(t, router, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Episode not found", decodeBody[map[string]string](t, w)["error"])

	// parent must exist
	w = doJSON(t, router, http.MethodPost, "/api/dramas/missing1/episodes",
		models.CreateEpisodeRequest{Episode: "1", VideoID: "vod-123"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLikeRoutes(t *testing.T) {
	router := newTestRouter(services.NewMemoryCatalog())
	drama := createDramaViaAPI(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/dramas/"+drama.ID+"/likes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody[map[string]any](t, w)["likes"])

	// like twice from one user, once from another
	for _, userID := range []string{"u1", "u1", "u2"} {
		w = doJSON(t, router, http.MethodPost, "/api/dramas/"+drama.ID+"/like",
			gin.H{"userId": userID})
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, float64(2), decodeBody[map[string]any](t, w)["likes"])

	// missing userId
	w = doJSON(t, router, http.MethodPost, "/api/dramas/"+drama.ID+"/like", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// missing drama
	w = doJSON(t, router, http.MethodPost, "/api/dramas/missing1/like", gin.H{"userId": "u1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentRoutes(t *testing.T) {
	router := newTestRouter(services.NewMemoryCatalog())
	drama := createDramaViaAPI(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/dramas/"+drama.ID+"/comments",
		gin.H{"text": "first!"})
	require.Equal(t, http.StatusCreated, w.Code)
	comment := decodeBody[models.Comment](t, w)
	assert.Equal(t, models.AnonUser, comment.User)

	w = doJSON(t, router, http.MethodPost, "/api/dramas/"+drama.ID+"/comments",
		gin.H{"user": "mina", "text": "second"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/dramas/"+drama.ID+"/comments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments := decodeBody[[]models.Comment](t, w)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Text)
	assert.Equal(t, "first!", comments[1].Text)

	// text is required
	w = doJSON(t, router, http.MethodPost, "/api/dramas/"+drama.ID+"/comments",
		gin.H{"user": "mina"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "text required", decodeBody[map[string]string](t, w)["error"])
}

// plainCatalog hides MemoryCatalog's streaming support so the handler's
// capability check can be exercised.
type plainCatalog struct {
	services.Catalog
}

func TestStreamComments_UnsupportedBackend(t *testing.T) {
	router := newTestRouter(plainCatalog{services.NewMemoryCatalog()})
	w := doJSON(t, router, http.MethodGet, "/api/dramas/any/comments/stream", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// sseRecorder adds the close notification gin's Stream helper expects and
// signals once the first event byte is flushed.
type sseRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
	wrote  chan struct{}
	once   sync.Once
}

func (r *sseRecorder) CloseNotify() <-chan bool { return r.closed }

func (r *sseRecorder) Write(b []byte) (int, error) {
	r.once.Do(func() { close(r.wrote) })
	return r.ResponseRecorder.Write(b)
}

func TestStreamComments_DeliversSnapshots(t *testing.T) {
	catalog := services.NewMemoryCatalog()
	router := newTestRouter(catalog)
	drama := createDramaViaAPI(t, router)

	_, err := catalog.AddComment(context.Background(), drama.ID,
		models.CreateCommentRequest{User: "mina", Text: "hello"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/dramas/"+drama.ID+"/comments/stream", nil)
	req = req.WithContext(ctx)
	w := &sseRecorder{
		ResponseRecorder: httptest.NewRecorder(),
		closed:           make(chan bool, 1),
		wrote:            make(chan struct{}),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		router.ServeHTTP(w, req)
	}()

	// the initial snapshot flushes immediately; end the stream after it
	select {
	case <-w.wrote:
	case <-time.After(2 * time.Second):
		t.Fatal("no event was written to the stream")
	}
	cancel()
	<-done

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "event:comments")
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "hello")
}
