// ===============================
// internal/handlers/interaction.go - Likes and Comments
// ===============================

package handlers

import (
	"io"
	"net/http"

	"seoulflix/internal/models"
	"seoulflix/internal/services"

	"github.com/gin-gonic/gin"
)

type InteractionHandler struct {
	catalog services.Catalog
}

func NewInteractionHandler(catalog services.Catalog) *InteractionHandler {
	return &InteractionHandler{catalog: catalog}
}

func (h *InteractionHandler) GetLikes(c *gin.Context) {
	likes, err := h.catalog.LikeCount(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleCatalogError(c, err, "Drama not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

func (h *InteractionHandler) LikeDrama(c *gin.Context) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId required"})
		return
	}

	// duplicate likes are a no-op; the response always carries the
	// current total
	likes, err := h.catalog.LikeDrama(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		handleCatalogError(c, err, "Drama not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

func (h *InteractionHandler) GetComments(c *gin.Context) {
	comments, err := h.catalog.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleCatalogError(c, err, "Drama not found")
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *InteractionHandler) AddComment(c *gin.Context) {
	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	comment, err := h.catalog.AddComment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		handleCatalogError(c, err, "Drama not found")
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// StreamComments pushes the full ordered comment list as a server-sent
// event whenever it changes. Only backends with snapshot support expose
// this; the relational catalog serves the one-shot GET instead.
func (h *InteractionHandler) StreamComments(c *gin.Context) {
	streamer, ok := h.catalog.(services.CommentStreamer)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment streaming is not available on this backend"})
		return
	}

	ctx := c.Request.Context()
	snapshots, err := streamer.StreamComments(ctx, c.Param("id"))
	if err != nil {
		handleCatalogError(c, err, "Drama not found")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		select {
		case comments, open := <-snapshots:
			if !open {
				return false
			}
			c.SSEvent("comments", comments)
			return true
		case <-ctx.Done():
			return false
		}
	})
}
