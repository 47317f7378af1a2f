// ===============================
// internal/middleware/auth.go - Firebase Auth Middleware
// ===============================

package middleware

import (
	"net/http"
	"strings"

	"seoulflix/internal/services"

	"github.com/gin-gonic/gin"
)

// FirebaseAuth verifies a Bearer Firebase ID token and puts the caller's
// UID in the context. Identity itself is delegated entirely to Firebase;
// this service never stores credentials.
func FirebaseAuth(firebaseService *services.FirebaseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		firebaseToken, err := firebaseService.VerifyIDToken(c.Request.Context(), tokenParts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("userID", firebaseToken.UID)
		c.Next()
	}
}
