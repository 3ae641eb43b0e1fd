package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"learnplanning/internal/database"
	"learnplanning/internal/models"

	"github.com/gin-gonic/gin"
)

// GetGroupMessages handles fetching chat messages for a group
func GetGroupMessages(c *gin.Context) {
	groupID := c.Param("group_id")
	userID := c.GetString("user_id")

	db := database.GetDB()

	var group models.Group
	if err := db.Where("id = ?", groupID).First(&group).Error; err != nil {
		log.Printf("Error: Group not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}
	if _, ok := requireMembership(c, db, groupID, userID); !ok {
		return
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	// before is a message ID; everything older than it is returned
	var beforeID uint = 0
	if beforeStr := c.Query("before"); beforeStr != "" {
		if parsedBefore, err := strconv.ParseUint(beforeStr, 10, 32); err == nil {
			beforeID = uint(parsedBefore)
		}
	}

	query := db.Where("group_id = ?", groupID)
	if beforeID > 0 {
		query = query.Where("id < ?", beforeID)
	}

	// Newest first for pagination; the frontend reverses for display
	var messages []models.ChatMessage
	if err := query.Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		log.Printf("Error: Failed to fetch messages for group %s: %v", groupID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	// Mark fetched messages as read by this user
	for i := range messages {
		var readBy []string
		if messages[i].ReadBy != nil {
			if err := json.Unmarshal(messages[i].ReadBy, &readBy); err != nil {
				log.Printf("Warning: Failed to parse read_by for message %d: %v", messages[i].ID, err)
				readBy = []string{}
			}
		}

		hasRead := false
		for _, reader := range readBy {
			if reader == userID {
				hasRead = true
				break
			}
		}
		if hasRead {
			continue
		}

		readBy = append(readBy, userID)
		updatedReadBy, err := json.Marshal(readBy)
		if err != nil {
			log.Printf("Warning: Failed to marshal read_by for message %d: %v", messages[i].ID, err)
			continue
		}
		if err := db.Model(&messages[i]).Update("read_by", updatedReadBy).Error; err != nil {
			log.Printf("Warning: Failed to update read_by for message %d: %v", messages[i].ID, err)
			continue
		}
		messages[i].ReadBy = updatedReadBy
	}

	senderIDs := make([]string, 0, len(messages))
	for _, m := range messages {
		senderIDs = append(senderIDs, m.UserID)
	}
	accounts := accountsByID(db, senderIDs)

	type messageView struct {
		models.ChatMessage
		SenderName   string `json:"sender_name"`
		SenderAvatar string `json:"sender_avatar"`
	}
	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		view := messageView{ChatMessage: m}
		if account, ok := accounts[m.UserID]; ok {
			view.SenderName = account.Name
			view.SenderAvatar = account.AvatarURL
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": views,
		"count":    len(views),
	})
}

// SendGroupMessage handles posting a chat message to a group
func SendGroupMessage(c *gin.Context) {
	groupID := c.Param("group_id")
	userID := c.GetString("user_id")

	var request models.SendMessageRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		log.Printf("Error: Invalid message input: %s", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message content"})
		return
	}
	if len(request.Content) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty"})
		return
	}

	db := database.GetDB()

	var group models.Group
	if err := db.Where("id = ?", groupID).First(&group).Error; err != nil {
		log.Printf("Error: Group not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}
	if _, ok := requireMembership(c, db, groupID, userID); !ok {
		return
	}

	message := models.ChatMessage{
		GroupID: groupID,
		UserID:  userID,
		Content: request.Content,
	}

	// The sender has read their own message
	readByJSON, err := json.Marshal([]string{userID})
	if err != nil {
		log.Printf("Warning: Failed to marshal initial read_by: %v", err)
		readByJSON = []byte("[]")
	}
	message.ReadBy = readByJSON

	if err := db.Create(&message).Error; err != nil {
		log.Printf("Error: Failed to create message for group %s: %v", groupID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	c.JSON(http.StatusCreated, message)
}
