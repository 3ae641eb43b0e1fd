package handlers

import (
	"errors"
	"net/http"

	"learnplanning/internal/auth"
	"learnplanning/internal/database"
	"learnplanning/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LoginHandler redirects to Google OAuth login
func LoginHandler(c *gin.Context) {
	url, err := auth.GetLoginURL(c)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to generate login URL", err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallbackHandler processes the OAuth callback from Google
func GoogleCallbackHandler(c *gin.Context) {
	auth.HandleGoogleCallback(c)
}

// LogoutHandler handles user logout
func LogoutHandler(c *gin.Context) {
	auth.DeleteSession(c)
	c.JSON(http.StatusOK, gin.H{"message": "logout successful"})
}

// GetCurrentUser returns the currently authenticated user's account,
// creating it from the session identity if it does not exist yet. Unlike
// the sign-in flow this never refreshes name or avatar.
func GetCurrentUser(c *gin.Context) {
	userID := c.GetString("user_id")
	email := c.GetString("email")
	if userID == "" && email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	db := database.GetDB()
	var account models.Account
	err := db.Where("id = ?", userID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Account rows are created at sign-in; recover from a missing row
		// by resolving the session email again.
		resolved, rerr := auth.EnsureAccount(&auth.UserInfo{Email: email})
		if rerr != nil {
			handleError(c, http.StatusInternalServerError, "Failed to resolve account", rerr)
			return
		}
		account = *resolved
	} else if err != nil {
		handleError(c, http.StatusInternalServerError, "database error", err)
		return
	}

	c.JSON(http.StatusOK, account)
}
