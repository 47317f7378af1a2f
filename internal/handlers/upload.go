// ===============================
// internal/handlers/upload.go - Thumbnail Upload
// ===============================

package handlers

import (
	"net/http"

	"seoulflix/internal/services"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	service *services.UploadService
}

func NewUploadHandler(service *services.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

// UploadThumbnail accepts a multipart image and returns its public URL for
// use as a drama thumbnail.
func (h *UploadHandler) UploadThumbnail(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	url, err := h.service.UploadThumbnail(c.Request.Context(), file, header.Filename, header.Size)
	if err != nil {
		handleCatalogError(c, err, "Not found")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}
