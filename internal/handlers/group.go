package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"learnplanning/internal/database"
	"learnplanning/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateGroup handles the creation of a new group. The creator becomes the
// group's owner; the group row and the owner membership are written in one
// transaction so a half-created group cannot exist.
func CreateGroup(c *gin.Context) {
	var request models.CreateGroupRequest

	if err := c.ShouldBindJSON(&request); err != nil {
		log.Printf("Error: Invalid input: %s", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid input: %s", err.Error())})
		return
	}

	ownerID := c.GetString("user_id")
	if ownerID == "" {
		log.Printf("Error: Not authenticated")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	db := database.GetDB()

	group := models.Group{
		Name:              request.Name,
		Description:       request.Description,
		OwnerID:           ownerID,
		IsPublic:          request.IsPublic,
		AllowMemberInvite: request.AllowMemberInvite,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		member := models.GroupMember{
			GroupID: group.ID,
			UserID:  ownerID,
			Role:    models.RoleOwner,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		log.Printf("Error: Failed to create group: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
		return
	}

	c.JSON(http.StatusCreated, group)
}

// GetGroups handles listing groups with filtering, sorting, and pagination.
// Unauthenticated callers only see public groups.
func GetGroups(c *gin.Context) {
	db := database.GetDB()
	var groups []models.Group

	query := db.Preload("Members")

	userID := c.GetString("user_id")
	if userID == "" {
		query = query.Where("is_public = ?", true)
	} else if c.Query("mine") == "true" {
		query = query.Where("id IN (?)",
			db.Model(&models.GroupMember{}).Select("group_id").Where("user_id = ?", userID))
	} else {
		query = query.Where("is_public = ? OR id IN (?)", true,
			db.Model(&models.GroupMember{}).Select("group_id").Where("user_id = ?", userID))
	}

	// Filtering
	if name := c.Query("name"); name != "" {
		query = query.Where("name ILIKE ?", "%"+name+"%")
	}
	if ownerID := c.Query("owner_id"); ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}

	// Sorting
	sortBy := c.DefaultQuery("sort_by", "created_at")
	if sortBy != "created_at" && sortBy != "name" && sortBy != "updated_at" {
		sortBy = "created_at"
	}
	sortOrder := c.DefaultQuery("sort_order", "desc")
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	// Pagination with defaults
	limitStr := c.DefaultQuery("limit", "10")
	offsetStr := c.DefaultQuery("offset", "0")
	limit, err1 := strconv.Atoi(limitStr)
	if err1 != nil || limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100 // max limit
	}
	offset, err2 := strconv.Atoi(offsetStr)
	if err2 != nil || offset < 0 {
		offset = 0
	}
	query = query.Limit(limit).Offset(offset)

	if err := query.Find(&groups).Error; err != nil {
		log.Printf("Error: Failed to fetch groups: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch groups"})
		return
	}

	c.JSON(http.StatusOK, groups)
}

// GetGroupByID handles fetching a single group's details by ID
func GetGroupByID(c *gin.Context) {
	groupID := c.Param("group_id")
	db := database.GetDB()

	var group models.Group
	if err := db.Preload("Members").Where("id = ?", groupID).First(&group).Error; err != nil {
		log.Printf("Error: Group not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	// Non-members cannot look into private groups
	requester := c.GetString("user_id")
	if !group.IsPublic && requester != group.OwnerID {
		if _, err := getMembership(db, groupID, requester); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to view this group"})
			return
		}
	}

	// Fetch owner info
	var owner models.Account
	if err := db.Where("id = ?", group.OwnerID).First(&owner).Error; err != nil {
		log.Printf("Warning: Failed to fetch owner info for group %s: %v", groupID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"group": group,
		"owner": gin.H{
			"id":         owner.ID,
			"name":       owner.Name,
			"avatar_url": owner.AvatarURL,
		},
	})
}

// UpdateGroup handles mutating group settings (owner or admin only)
func UpdateGroup(c *gin.Context) {
	groupID := c.Param("group_id")
	requester := c.GetString("user_id")

	var request models.UpdateGroupRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		log.Printf("Error: Invalid input: %s", err.Error())
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

	member, ok := requireMembership(c, db, groupID, requester)
	if !ok {
		return
	}
	if !member.Role.CanManageMembers() {
		log.Printf("Error: User %s not authorized to update group %s", requester, groupID)
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner or an admin can update the group"})
		return
	}

	updates := map[string]interface{}{}
	if request.Name != nil {
		updates["name"] = *request.Name
	}
	if request.Description != nil {
		updates["description"] = *request.Description
	}
	if request.IsPublic != nil {
		updates["is_public"] = *request.IsPublic
	}
	if request.AllowMemberInvite != nil {
		updates["allow_member_invite"] = *request.AllowMemberInvite
	}

	if len(updates) > 0 {
		if err := db.Model(&group).Updates(updates).Error; err != nil {
			log.Printf("Error: Failed to update group: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update group"})
			return
		}
	}

	c.JSON(http.StatusOK, group)
}

// DeleteGroup handles deleting a group (owner only). The cascade removes
// memberships, invitations and group goals together with the group record
// in a single transaction, so a mid-cascade failure leaves nothing behind.
func DeleteGroup(c *gin.Context) {
	groupID := c.Param("group_id")
	requester := c.GetString("user_id")

	db := database.GetDB()

	var group models.Group
	if err := db.Where("id = ?", groupID).First(&group).Error; err != nil {
		log.Printf("Error: Group not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	if group.OwnerID != requester {
		log.Printf("Error: Only the owner can delete group %s", groupID)
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can delete the group"})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&models.Invitation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("goal_id IN (?)",
			tx.Model(&models.Goal{}).Select("id").Where("group_id = ?", groupID)).
			Delete(&models.Subgoal{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&models.Goal{}).Error; err != nil {
			return err
		}
		return tx.Delete(&group).Error
	})
	if err != nil {
		log.Printf("Error: Failed to delete group %s: %v", groupID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete group"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Group deleted"})
}

// errorsIsNotFound reports whether err is the gorm not-found sentinel
func errorsIsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
