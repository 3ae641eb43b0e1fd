package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"learnplanning/internal/database"
	"learnplanning/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	// SessionCookieName carries the session id
	SessionCookieName = "learnplanning_session"
	// StateCookieName carries the OAuth state during the login round trip
	StateCookieName = "learnplanning_oauth_state"

	sessionIDLength = 32
	stateLength     = 32
	stateCookieAge  = 10 * time.Minute
)

// GenerateRandomString returns a URL-safe random string of the given length
func GenerateRandomString(length int) (string, error) {
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(raw)[:length], nil
}

func secureCookies() bool {
	return gin.Mode() != gin.DebugMode
}

// CreateSession persists a new session row and sets the session cookie.
// The session holds the upstream OAuth tokens so the middleware can keep
// them fresh without another login.
func CreateSession(c *gin.Context, token *oauth2.Token, userInfo *UserInfo, accountID string) error {
	sessionID, err := GenerateRandomString(sessionIDLength)
	if err != nil {
		return fmt.Errorf("failed to generate session id: %w", err)
	}

	now := time.Now()
	session := models.Session{
		ID:           sessionID,
		UserID:       accountID,
		Email:        userInfo.Email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenExpiry:  token.Expiry,
		CreatedAt:    now,
		ExpiresAt:    now.Add(models.SessionDuration),
	}
	if err := database.GetDB().Create(&session).Error; err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	c.SetCookie(SessionCookieName, sessionID,
		int(time.Until(session.ExpiresAt).Seconds()),
		"/", "", secureCookies(), true)
	return nil
}

// GetSession resolves the request's session cookie against the database.
// A missing row and an expired session both come back as errors; the
// expired case also clears the cookie.
func GetSession(c *gin.Context) (*models.Session, error) {
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil {
		return nil, fmt.Errorf("session cookie not found: %w", err)
	}

	var session models.Session
	if err := database.GetDB().Where("id = ?", sessionID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session not found")
		}
		return nil, fmt.Errorf("failed to retrieve session: %w", err)
	}

	if session.IsExpired() {
		DeleteSession(c)
		return nil, fmt.Errorf("session expired")
	}
	return &session, nil
}

// RefreshSessionToken renews the upstream OAuth token when it is close to
// expiry and writes the new token back onto the session row.
func RefreshSessionToken(c *gin.Context, session *models.Session) error {
	if !session.NeedsTokenRefresh() {
		return nil
	}

	seed := &oauth2.Token{RefreshToken: session.RefreshToken}
	fresh, err := googleOAuthConfig.TokenSource(c, seed).Token()
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	updates := map[string]interface{}{
		"access_token": fresh.AccessToken,
		"token_expiry": fresh.Expiry,
	}
	// Google only rotates the refresh token occasionally
	if fresh.RefreshToken != "" {
		updates["refresh_token"] = fresh.RefreshToken
	}
	if err := database.GetDB().Model(session).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// DeleteSession drops the session row and clears the cookie
func DeleteSession(c *gin.Context) {
	if sessionID, err := c.Cookie(SessionCookieName); err == nil {
		database.GetDB().Where("id = ?", sessionID).Delete(&models.Session{})
	}
	c.SetCookie(SessionCookieName, "", -1, "/", "", false, true)
}

// SetOAuthState writes a short-lived random state cookie for CSRF
// protection of the OAuth round trip.
func SetOAuthState(c *gin.Context) (string, error) {
	state, err := GenerateRandomString(stateLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	c.SetCookie(StateCookieName, state,
		int(stateCookieAge.Seconds()),
		"/", "", secureCookies(), true)
	return state, nil
}

// VerifyOAuthState compares the callback state against the cookie. The
// cookie is cleared either way so a state is usable exactly once.
func VerifyOAuthState(c *gin.Context, receivedState string) bool {
	saved, err := c.Cookie(StateCookieName)
	c.SetCookie(StateCookieName, "", -1, "/", "", false, true)
	if err != nil {
		return false
	}
	return saved == receivedState
}
