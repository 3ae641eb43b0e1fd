package handlers

import (
	"errors"
	"log"
	"net/http"

	"learnplanning/internal/database"
	"learnplanning/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetVAPIDKey returns the public key browsers need to create a push
// subscription
func GetVAPIDKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"public_key": pushService.VAPIDPublicKey()})
}

// SubscribePush stores the caller's push subscription. Re-subscribing from
// the same endpoint replaces the stored keys instead of appending a
// duplicate row.
func SubscribePush(c *gin.Context) {
	userID := c.GetString("user_id")

	var request models.SubscribeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		log.Printf("Error: Invalid subscription input: %s", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	db := database.GetDB()

	var sub models.PushSubscription
	err := db.Where("user_id = ? AND endpoint = ?", userID, request.Endpoint).First(&sub).Error
	if err == nil {
		updates := map[string]interface{}{
			"p256dh_key": request.P256dh,
			"auth_key":   request.Auth,
		}
		if err := db.Model(&sub).Updates(updates).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to update subscription", err)
			return
		}
		c.JSON(http.StatusOK, sub)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		handleError(c, http.StatusInternalServerError, "Failed to check subscription", err)
		return
	}

	sub = models.PushSubscription{
		UserID:    userID,
		Endpoint:  request.Endpoint,
		P256dhKey: request.P256dh,
		AuthKey:   request.Auth,
	}
	if err := db.Create(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Subscription already exists"})
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to save subscription", err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}

// UnsubscribePush deletes all of the caller's push subscriptions
func UnsubscribePush(c *gin.Context) {
	userID := c.GetString("user_id")

	db := database.GetDB()
	if err := db.Where("user_id = ?", userID).Delete(&models.PushSubscription{}).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to delete subscriptions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed"})
}
