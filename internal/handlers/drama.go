// ===============================
// internal/handlers/drama.go
// ===============================

package handlers

import (
	"net/http"

	"seoulflix/internal/models"
	"seoulflix/internal/services"

	"github.com/gin-gonic/gin"
)

type DramaHandler struct {
	catalog services.Catalog
}

func NewDramaHandler(catalog services.Catalog) *DramaHandler {
	return &DramaHandler{catalog: catalog}
}

func (h *DramaHandler) GetDramas(c *gin.Context) {
	dramas, err := h.catalog.ListDramas(c.Request.Context())
	if err != nil {
		handleCatalogError(c, err, "Drama not found")
		return
	}
	c.JSON(http.StatusOK, dramas)
}

func (h *DramaHandler) SearchDramas(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusOK, []models.Drama{})
		return
	}

	dramas, err := h.catalog.SearchDramas(c.Request.Context(), query)
	if err != nil {
		handleCatalogError(c, err, "Drama not found")
		return
	}
	c.JSON(http.StatusOK, dramas)
}

func (h *DramaHandler) GetDrama(c *gin.Context) {
	drama, err := h.catalog.GetDrama(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleCatalogError(c, err, "Drama not found")
		return
	}
	c.JSON(http.StatusOK, drama)
}

func (h *DramaHandler) CreateDrama(c *gin.Context) {
	var req models.CreateDramaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	drama, err := h.catalog.CreateDrama(c.Request.Context(), req)
	if err != nil {
		handleCatalogError(c, err, "Drama not found")
		return
	}
	c.JSON(http.StatusCreated, drama)
}

func (h *DramaHandler) UpdateDrama(c *gin.Context) {
	var patch models.DramaPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	drama, err := h.catalog.UpdateDrama(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		handleCatalogError(c, err, "Drama not found")
		return
	}
	c.JSON(http.StatusOK, drama)
}

func (h *DramaHandler) DeleteDrama(c *gin.Context) {
	dramaID := c.Param("id")

	// idempotent: the acknowledgement does not distinguish "deleted"
	// from "was already absent"
	if err := h.catalog.DeleteDrama(c.Request.Context(), dramaID); err != nil {
		handleCatalogError(c, err, "Drama not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": dramaID})
}
