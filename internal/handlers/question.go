package handlers

import (
	"log"
	"net/http"

	"learnplanning/internal/database"
	"learnplanning/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateQuestion posts a question to a group
func CreateQuestion(c *gin.Context) {
	groupID := c.Param("group_id")
	userID := c.GetString("user_id")

	var request models.CreateQuestionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		log.Printf("Error: Invalid question input: %s", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
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

	question := models.Question{
		GroupID: groupID,
		UserID:  userID,
		Title:   request.Title,
		Content: request.Content,
	}
	if err := db.Create(&question).Error; err != nil {
		log.Printf("Error: Failed to create question: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question"})
		return
	}

	c.JSON(http.StatusCreated, question)
}

// ListGroupQuestions returns a group's questions with reply counts and author info
func ListGroupQuestions(c *gin.Context) {
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

	var questions []models.Question
	if err := db.Where("group_id = ?", groupID).Order("created_at desc").Find(&questions).Error; err != nil {
		log.Printf("Error: Failed to fetch questions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	authorIDs := make([]string, 0, len(questions))
	for _, q := range questions {
		authorIDs = append(authorIDs, q.UserID)
	}
	accounts := accountsByID(db, authorIDs)

	type questionView struct {
		models.Question
		AuthorName   string `json:"author_name"`
		AuthorAvatar string `json:"author_avatar"`
		ReplyCount   int64  `json:"reply_count"`
	}

	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		view := questionView{Question: q}
		if account, ok := accounts[q.UserID]; ok {
			view.AuthorName = account.Name
			view.AuthorAvatar = account.AvatarURL
		}
		db.Model(&models.Reply{}).Where("question_id = ?", q.ID).Count(&view.ReplyCount)
		views = append(views, view)
	}

	c.JSON(http.StatusOK, views)
}

// GetQuestion returns a single question with its replies and author info
func GetQuestion(c *gin.Context) {
	questionID := c.Param("question_id")
	userID := c.GetString("user_id")

	db := database.GetDB()

	var question models.Question
	if err := db.Preload("Replies", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at asc")
	}).Where("id = ?", questionID).First(&question).Error; err != nil {
		log.Printf("Error: Question not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}
	if _, ok := requireMembership(c, db, question.GroupID, userID); !ok {
		return
	}

	authorIDs := []string{question.UserID}
	for _, r := range question.Replies {
		authorIDs = append(authorIDs, r.UserID)
	}
	accounts := accountsByID(db, authorIDs)

	type replyView struct {
		models.Reply
		AuthorName   string `json:"author_name"`
		AuthorAvatar string `json:"author_avatar"`
	}
	replies := make([]replyView, 0, len(question.Replies))
	for _, r := range question.Replies {
		view := replyView{Reply: r}
		if account, ok := accounts[r.UserID]; ok {
			view.AuthorName = account.Name
			view.AuthorAvatar = account.AvatarURL
		}
		replies = append(replies, view)
	}

	response := gin.H{
		"question": question,
		"replies":  replies,
	}
	if account, ok := accounts[question.UserID]; ok {
		response["author_name"] = account.Name
		response["author_avatar"] = account.AvatarURL
	}

	c.JSON(http.StatusOK, response)
}

// CreateReply posts a reply to a question and notifies the asker
func CreateReply(c *gin.Context) {
	questionID := c.Param("question_id")
	userID := c.GetString("user_id")

	var request models.CreateReplyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		log.Printf("Error: Invalid reply input: %s", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	db := database.GetDB()

	var question models.Question
	if err := db.Where("id = ?", questionID).First(&question).Error; err != nil {
		log.Printf("Error: Question not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}
	if _, ok := requireMembership(c, db, question.GroupID, userID); !ok {
		return
	}

	reply := models.Reply{
		QuestionID: question.ID,
		UserID:     userID,
		Content:    request.Content,
	}
	if err := db.Create(&reply).Error; err != nil {
		log.Printf("Error: Failed to create reply: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reply"})
		return
	}

	if question.UserID != userID {
		var replier models.Account
		if err := db.Where("id = ?", userID).First(&replier).Error; err == nil {
			notifyUser(db, question.UserID, models.NotifQuestionReply,
				"New reply to your question",
				replier.Name+" replied to \""+question.Title+"\"",
				question.ID,
				map[string]interface{}{"question_id": question.ID, "group_id": question.GroupID})
		}
	}

	c.JSON(http.StatusCreated, reply)
}

// ResolveQuestion marks a question as resolved; only the asker may do so
func ResolveQuestion(c *gin.Context) {
	questionID := c.Param("question_id")
	userID := c.GetString("user_id")

	db := database.GetDB()

	var question models.Question
	if err := db.Where("id = ?", questionID).First(&question).Error; err != nil {
		log.Printf("Error: Question not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	if question.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the asker can resolve a question"})
		return
	}

	if err := db.Model(&question).Update("resolved", true).Error; err != nil {
		log.Printf("Error: Failed to resolve question: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve question"})
		return
	}

	question.Resolved = true
	c.JSON(http.StatusOK, question)
}
