package auth

import (
	"log"
	"net/http"

	"learnplanning/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the session and stores the authenticated
// identity in the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the session from the request
		session, err := GetSession(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		// Verify the session hasn't expired
		if session.IsExpired() {
			DeleteSession(c)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired, please log in again"})
			c.Abort()
			return
		}

		// Keep the upstream OAuth token fresh; failure here is not fatal
		// for the request since the session itself is still valid.
		if err := RefreshSessionToken(c, session); err != nil {
			log.Printf("Warning: Failed to refresh OAuth token for %s (%s): %v",
				session.Email, utils.ClientIP(c), err)
		}

		// Store user info in context for handlers to use
		c.Set("user_id", session.UserID)
		c.Set("email", session.Email)

		c.Next()
	}
}
