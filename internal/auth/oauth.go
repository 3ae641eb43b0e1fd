package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

var (
	googleOAuthConfig *oauth2.Config
)

// InitOAuth initializes the Google OAuth configuration
func InitOAuth() error {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, and GOOGLE_REDIRECT_URL must be set")
	}

	googleOAuthConfig = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile", "openid"},
		Endpoint:     google.Endpoint,
	}

	return nil
}

// GetLoginURL returns the Google OAuth login URL with a secure state parameter
func GetLoginURL(c *gin.Context) (string, error) {
	// Generate and store a secure random state
	state, err := SetOAuthState(c)
	if err != nil {
		return "", err
	}

	// Generate the authorization URL with the state parameter
	return googleOAuthConfig.AuthCodeURL(state,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	), nil
}

// HandleGoogleCallback processes the OAuth callback from Google
func HandleGoogleCallback(c *gin.Context) {
	// Verify state parameter (CSRF protection)
	state := c.Query("state")
	if !VerifyOAuthState(c, state) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state, possible CSRF attack"})
		c.Abort()
		return
	}

	// Exchange auth code for token
	code := c.Query("code")
	token, err := googleOAuthConfig.Exchange(context.Background(), code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "code exchange failed"})
		c.Abort()
		return
	}

	// Extract ID token from the token response
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get id_token"})
		c.Abort()
		return
	}

	// Verify the ID token
	payload, err := verifyIDToken(rawIDToken, googleOAuthConfig.ClientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to verify id_token: %v", err)})
		c.Abort()
		return
	}

	// Extract user info from the verified payload
	userInfo, err := extractUserInfoFromPayload(payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to extract user info from token"})
		c.Abort()
		return
	}

	// Resolve the account: created on first sign-in, refreshed on every sign-in
	account, err := SignIn(userInfo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve account"})
		c.Abort()
		return
	}

	if err := CreateSession(c, token, userInfo, account.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		c.Abort()
		return
	}

	// Redirect back into the app
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "/"
	}
	c.Redirect(http.StatusTemporaryRedirect, frontendURL)
}

// verifyIDToken verifies the ID token using Google's official library
func verifyIDToken(idToken string, audience string) (*idtoken.Payload, error) {
	// Use Google's idtoken library to verify the token
	payload, err := idtoken.Validate(context.Background(), idToken, audience)
	if err != nil {
		return nil, fmt.Errorf("failed to validate ID token: %w", err)
	}
	return payload, nil
}

// extractUserInfoFromPayload extracts user info from the verified token payload
func extractUserInfoFromPayload(payload *idtoken.Payload) (*UserInfo, error) {
	email, ok := payload.Claims["email"].(string)
	if !ok || email == "" {
		return nil, fmt.Errorf("id token carries no email claim")
	}

	userInfo := &UserInfo{
		Sub:   payload.Subject,
		Email: email,
	}

	// Extract other fields if they exist
	if name, ok := payload.Claims["name"].(string); ok {
		userInfo.Name = name
	}
	if picture, ok := payload.Claims["picture"].(string); ok {
		userInfo.Picture = picture
	}
	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok {
		userInfo.EmailVerified = emailVerified
	}

	return userInfo, nil
}
