package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"learnplanning/internal/database"
	"learnplanning/internal/models"

	"github.com/gin-gonic/gin"
)

// ListNotifications returns the caller's notifications, newest first
func ListNotifications(c *gin.Context) {
	userID := c.GetString("user_id")
	db := database.GetDB()

	query := db.Where("user_id = ?", userID)
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	var notifications []models.Notification
	if err := query.Order("created_at desc").Limit(limit).Find(&notifications).Error; err != nil {
		log.Printf("Error: Failed to fetch notifications: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead toggles a single notification to read
func MarkNotificationRead(c *gin.Context) {
	notificationID := c.Param("notification_id")
	userID := c.GetString("user_id")
	db := database.GetDB()

	var notification models.Notification
	if err := db.Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error; err != nil {
		log.Printf("Error: Notification not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	if notification.IsRead {
		c.JSON(http.StatusOK, notification)
		return
	}

	now := time.Now()
	if err := db.Model(&notification).Updates(map[string]interface{}{
		"is_read": true,
		"read_at": now,
	}).Error; err != nil {
		log.Printf("Error: Failed to mark notification read: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}

	notification.IsRead = true
	notification.ReadAt = &now
	c.JSON(http.StatusOK, notification)
}

// MarkAllNotificationsRead toggles all of the caller's unread notifications
func MarkAllNotificationsRead(c *gin.Context) {
	userID := c.GetString("user_id")
	db := database.GetDB()

	result := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if result.Error != nil {
		log.Printf("Error: Failed to mark notifications read: %v", result.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": result.RowsAffected})
}
