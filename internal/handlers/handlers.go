package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"learnplanning/internal/models"
	"learnplanning/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	pushService     *services.PushService
	reminderService *services.ReminderService
	emailService    *services.EmailService
	imageService    *services.ImageService
)

// Init wires the services the handlers depend on. Called once from main
// after the services are constructed.
func Init(push *services.PushService, reminder *services.ReminderService, email *services.EmailService, image *services.ImageService) {
	pushService = push
	reminderService = reminder
	emailService = email
	imageService = image
}

// handleError provides a consistent way to handle and log errors
func handleError(c *gin.Context, status int, message string, err error) {
	log.Printf("Error: %v", err)
	c.JSON(status, gin.H{"error": message})
}

// HomeHandler handles requests to the root path "/"
func HomeHandler(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to LearnPlanning!")
}

// HealthHandler is a simple health check endpoint
func HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// createNotification creates an in-app notification record
func createNotification(db *gorm.DB, userID, notifType, title, message, relatedID string) error {
	notif := models.Notification{
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
	}
	return db.Create(&notif).Error
}

// notifyUser records an in-app notification and pushes it to the user's
// devices. Both sides are best-effort: callers use this for side effects
// that must never fail the primary operation.
func notifyUser(db *gorm.DB, userID, notifType, title, message, relatedID string, data map[string]interface{}) {
	if err := createNotification(db, userID, notifType, title, message, relatedID); err != nil {
		log.Printf("Warning: Failed to create notification for %s: %v", userID, err)
	}

	if pushService == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := pushService.SendToUser(ctx, userID, title, message, data); err != nil {
		log.Printf("Warning: Failed to push notification to %s: %v", userID, err)
	}
}

// getMembership returns the caller's membership row for a group, or
// gorm.ErrRecordNotFound if they are not a member.
func getMembership(db *gorm.DB, groupID, userID string) (*models.GroupMember, error) {
	var member models.GroupMember
	if err := db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// requireMembership resolves the caller's membership and writes the
// appropriate error response when there is none.
func requireMembership(c *gin.Context, db *gorm.DB, groupID, userID string) (*models.GroupMember, bool) {
	member, err := getMembership(db, groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not a group member"})
		} else {
			handleError(c, http.StatusInternalServerError, "Failed to check group membership", err)
		}
		return nil, false
	}
	return member, true
}
