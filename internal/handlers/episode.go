// ===============================
// internal/handlers/episode.go
// ===============================

package handlers

import (
	"net/http"

	"seoulflix/internal/models"
	"seoulflix/internal/services"

	"github.com/gin-gonic/gin"
)

type EpisodeHandler struct {
	catalog services.Catalog
}

func NewEpisodeHandler(catalog services.Catalog) *EpisodeHandler {
	return &EpisodeHandler{catalog: catalog}
}

func (h *EpisodeHandler) GetEpisodes(c *gin.Context) {
	episodes, err := h.catalog.ListEpisodes(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleCatalogError(c, err, "Drama not found")
		return
	}
	c.JSON(http.StatusOK, episodes)
}

func (h *EpisodeHandler) CreateEpisode(c *gin.Context) {
	var req models.CreateEpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	episode, err := h.catalog.CreateEpisode(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		handleCatalogError(c, err, "Drama not found")
		return
	}
	c.JSON(http.StatusCreated, episode)
}

func (h *EpisodeHandler) UpdateEpisode(c *gin.Context) {
	var patch models.EpisodePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	episode, err := h.catalog.UpdateEpisode(c.Request.Context(), c.Param("id"), c.Param("episodeId"), patch)
	if err != nil {
		handleCatalogError(c, err, "Episode not found")
		return
	}
	c.JSON(http.StatusOK, episode)
}

func (h *EpisodeHandler) DeleteEpisode(c *gin.Context) {
	episodeID := c.Param("episodeId")
	if err := h.catalog.DeleteEpisode(c.Request.Context(), c.Param("id"), episodeID); err != nil {
		handleCatalogError(c, err, "Episode not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": episodeID})
}
