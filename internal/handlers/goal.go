package handlers

import (
	"log"
	"net/http"

	"learnplanning/internal/database"
	"learnplanning/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateGoal handles creating a goal (with optional subgoals) in a group
func CreateGoal(c *gin.Context) {
	groupID := c.Param("group_id")
	userID := c.GetString("user_id")

	var request models.CreateGoalRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		log.Printf("Error: Invalid goal input: %s", err.Error())
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

	goal := models.Goal{
		GroupID:     groupID,
		UserID:      userID,
		Title:       request.Title,
		Description: request.Description,
		Deadline:    request.Deadline,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&goal).Error; err != nil {
			return err
		}
		for i, title := range request.Subgoals {
			subgoal := models.Subgoal{
				GoalID:   goal.ID,
				Title:    title,
				Position: i,
			}
			if err := tx.Create(&subgoal).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Error: Failed to create goal: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create goal"})
		return
	}

	db.Preload("Subgoals").Where("id = ?", goal.ID).First(&goal)
	c.JSON(http.StatusCreated, goal)
}

// ListGroupGoals returns all goals of a group with their subgoals
func ListGroupGoals(c *gin.Context) {
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

	var goals []models.Goal
	if err := db.Preload("Subgoals", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Where("group_id = ?", groupID).Order("created_at desc").Find(&goals).Error; err != nil {
		log.Printf("Error: Failed to fetch goals: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch goals"})
		return
	}

	c.JSON(http.StatusOK, goals)
}

// UpdateGoal mutates a goal; the creator or a group owner/admin may do so
func UpdateGoal(c *gin.Context) {
	goalID := c.Param("goal_id")
	userID := c.GetString("user_id")

	var request models.UpdateGoalRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		log.Printf("Error: Invalid goal input: %s", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	db := database.GetDB()

	var goal models.Goal
	if err := db.Where("id = ?", goalID).First(&goal).Error; err != nil {
		log.Printf("Error: Goal not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Goal not found"})
		return
	}

	if !canEditGoal(db, &goal, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to edit this goal"})
		return
	}

	updates := map[string]interface{}{}
	if request.Title != nil {
		updates["title"] = *request.Title
	}
	if request.Description != nil {
		updates["description"] = *request.Description
	}
	if request.Deadline != nil {
		updates["deadline"] = *request.Deadline
	}
	if request.Progress != nil {
		updates["progress"] = *request.Progress
	}
	if request.Completed != nil {
		updates["completed"] = *request.Completed
	}

	if len(updates) > 0 {
		if err := db.Model(&goal).Updates(updates).Error; err != nil {
			log.Printf("Error: Failed to update goal: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update goal"})
			return
		}
	}

	c.JSON(http.StatusOK, goal)
}

// DeleteGoal removes a goal and its subgoals
func DeleteGoal(c *gin.Context) {
	goalID := c.Param("goal_id")
	userID := c.GetString("user_id")

	db := database.GetDB()

	var goal models.Goal
	if err := db.Where("id = ?", goalID).First(&goal).Error; err != nil {
		log.Printf("Error: Goal not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Goal not found"})
		return
	}

	if !canEditGoal(db, &goal, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this goal"})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("goal_id = ?", goalID).Delete(&models.Subgoal{}).Error; err != nil {
			return err
		}
		return tx.Delete(&goal).Error
	})
	if err != nil {
		log.Printf("Error: Failed to delete goal: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete goal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Goal deleted"})
}

// ToggleSubgoal flips a subgoal's completed flag
func ToggleSubgoal(c *gin.Context) {
	subgoalID := c.Param("subgoal_id")
	userID := c.GetString("user_id")

	db := database.GetDB()

	var subgoal models.Subgoal
	if err := db.Where("id = ?", subgoalID).First(&subgoal).Error; err != nil {
		log.Printf("Error: Subgoal not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Subgoal not found"})
		return
	}

	var goal models.Goal
	if err := db.Where("id = ?", subgoal.GoalID).First(&goal).Error; err != nil {
		log.Printf("Error: Goal not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Goal not found"})
		return
	}

	// Any group member may check off subgoals
	if _, ok := requireMembership(c, db, goal.GroupID, userID); !ok {
		return
	}

	if err := db.Model(&subgoal).Update("completed", !subgoal.Completed).Error; err != nil {
		log.Printf("Error: Failed to toggle subgoal: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update subgoal"})
		return
	}

	subgoal.Completed = !subgoal.Completed
	c.JSON(http.StatusOK, subgoal)
}

// canEditGoal reports whether the user created the goal or manages the group
func canEditGoal(db *gorm.DB, goal *models.Goal, userID string) bool {
	if goal.UserID == userID {
		return true
	}
	member, err := getMembership(db, goal.GroupID, userID)
	if err != nil {
		return false
	}
	return member.Role.CanManageMembers()
}
