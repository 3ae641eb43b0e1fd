package handlers

import (
	"log"
	"net/http"
	"time"

	"learnplanning/internal/database"
	"learnplanning/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateEvent handles creating a personal or group event. Group events
// require membership in the group.
func CreateEvent(c *gin.Context) {
	userID := c.GetString("user_id")

	var request models.CreateEventRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		log.Printf("Error: Invalid event input: %s", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	db := database.GetDB()

	if request.GroupID != nil && *request.GroupID != "" {
		var group models.Group
		if err := db.Where("id = ?", *request.GroupID).First(&group).Error; err != nil {
			log.Printf("Error: Group not found: %v", err)
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
			return
		}
		if _, ok := requireMembership(c, db, *request.GroupID, userID); !ok {
			return
		}
	}

	// Events are keyed to a calendar day; normalize to midnight
	d := request.Date
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())

	event := models.Event{
		Title:       request.Title,
		Description: request.Description,
		Date:        day,
		StartTime:   request.StartTime,
		EndTime:     request.EndTime,
		Type:        request.Type,
		GroupID:     request.GroupID,
		UserID:      userID,
		HasReminder: request.HasReminder,
		IsOnline:    request.IsOnline,
		MeetingURL:  request.MeetingURL,
	}
	if err := db.Create(&event).Error; err != nil {
		log.Printf("Error: Failed to create event: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	c.JSON(http.StatusCreated, event)
}

// ListEvents returns the caller's events, optionally filtered by group or
// date range.
func ListEvents(c *gin.Context) {
	userID := c.GetString("user_id")
	db := database.GetDB()

	query := db.Where("user_id = ?", userID)

	if groupID := c.Query("group_id"); groupID != "" {
		query = db.Where("group_id = ?", groupID)
		if _, ok := requireMembership(c, db, groupID, userID); !ok {
			return
		}
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query = query.Where("date >= ?", t)
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			query = query.Where("date <= ?", t)
		}
	}

	var events []models.Event
	if err := query.Order("date asc").Find(&events).Error; err != nil {
		log.Printf("Error: Failed to fetch events: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	c.JSON(http.StatusOK, events)
}

// GetEvent returns a single event
func GetEvent(c *gin.Context) {
	eventID := c.Param("event_id")
	userID := c.GetString("user_id")
	db := database.GetDB()

	var event models.Event
	if err := db.Where("id = ?", eventID).First(&event).Error; err != nil {
		log.Printf("Error: Event not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	if event.UserID != userID {
		if event.GroupID == nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to view this event"})
			return
		}
		if _, ok := requireMembership(c, db, *event.GroupID, userID); !ok {
			return
		}
	}

	c.JSON(http.StatusOK, event)
}

// DeleteEvent removes an event (owner only)
func DeleteEvent(c *gin.Context) {
	eventID := c.Param("event_id")
	userID := c.GetString("user_id")
	db := database.GetDB()

	var event models.Event
	if err := db.Where("id = ?", eventID).First(&event).Error; err != nil {
		log.Printf("Error: Event not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	if event.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the event owner can delete it"})
		return
	}

	if err := db.Delete(&event).Error; err != nil {
		log.Printf("Error: Failed to delete event: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}
