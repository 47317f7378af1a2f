// ===============================
// internal/handlers/errors.go - Catalog Error Mapping
// ===============================

package handlers

import (
	"errors"
	"log"
	"net/http"

	"seoulflix/internal/services"

	"github.com/gin-gonic/gin"
)

// handleCatalogError maps a catalog failure onto the wire contract:
// validation problems are 400, a missing entity is 404, and everything
// else is a generic 500. Storage detail is logged, never echoed.
func handleCatalogError(c *gin.Context, err error, notFoundMessage string) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMessage})
	default:
		log.Printf("catalog error [%s %s]: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
