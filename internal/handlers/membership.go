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

// JoinGroup handles a user directly joining a public group (no invitation)
func JoinGroup(c *gin.Context) {
	groupID := c.Param("group_id")
	userID := c.GetString("user_id") // Set by auth middleware

	db := database.GetDB()

	// Check if group exists
	var group models.Group
	if err := db.Where("id = ?", groupID).First(&group).Error; err != nil {
		log.Printf("Error: Group not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	if !group.IsPublic {
		log.Printf("Error: Group %s is not public", groupID)
		c.JSON(http.StatusForbidden, gin.H{"error": "This group requires an invitation"})
		return
	}

	// Check if user is already a member
	if _, err := getMembership(db, groupID, userID); err == nil {
		log.Printf("Error: Already a member")
		c.JSON(http.StatusConflict, gin.H{"error": "Already a member"})
		return
	} else if !errorsIsNotFound(err) {
		log.Printf("Error: Failed to check group membership: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check group membership"})
		return
	}

	member := models.GroupMember{
		GroupID: groupID,
		UserID:  userID,
		Role:    models.RoleMember,
	}
	if err := db.Create(&member).Error; err != nil {
		// The unique (group, user) index catches a concurrent double-join
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Already a member"})
			return
		}
		log.Printf("Error: Failed to join group: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join group"})
		return
	}

	c.JSON(http.StatusCreated, member)
}

// LeaveGroup handles a member removing their own membership. The owner
// cannot leave; ownership must be handed off before the owner can go.
func LeaveGroup(c *gin.Context) {
	groupID := c.Param("group_id")
	userID := c.GetString("user_id")

	db := database.GetDB()

	var group models.Group
	if err := db.Where("id = ?", groupID).First(&group).Error; err != nil {
		log.Printf("Error: Group not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	var member models.GroupMember
	if err := db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error; err != nil {
		log.Printf("Error: Not a group member: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Not a group member"})
		return
	}

	if member.Role == models.RoleOwner {
		log.Printf("Error: Owner cannot leave their own group")
		c.JSON(http.StatusForbidden, gin.H{"error": "The owner cannot leave the group; transfer ownership first"})
		return
	}

	if err := db.Delete(&member).Error; err != nil {
		log.Printf("Error: Failed to leave group: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave group"})
		return
	}

	// Notify owner (best-effort)
	var account models.Account
	name := "A member"
	if err := db.Where("id = ?", userID).First(&account).Error; err == nil && account.Name != "" {
		name = account.Name
	}
	notifyUser(db, group.OwnerID, models.NotifMemberLeft, "Member left",
		name+" has left your group '"+group.Name+"'", groupID,
		map[string]interface{}{"group_id": groupID, "url": "/groups/" + groupID})

	c.JSON(http.StatusOK, gin.H{"message": "Left group successfully"})
}

// ListMembers returns all memberships for a group, with member profiles
// attached by a single batch lookup.
func ListMembers(c *gin.Context) {
	groupID := c.Param("group_id")
	requester := c.GetString("user_id")

	db := database.GetDB()

	var group models.Group
	if err := db.Where("id = ?", groupID).First(&group).Error; err != nil {
		log.Printf("Error: Group not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	if !group.IsPublic {
		if _, ok := requireMembership(c, db, groupID, requester); !ok {
			return
		}
	}

	var members []models.GroupMember
	if err := db.Where("group_id = ?", groupID).Order("joined_at asc").Find(&members).Error; err != nil {
		log.Printf("Error: Failed to fetch members: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}

	accounts := accountsByID(db, memberUserIDs(members))

	type memberInfo struct {
		models.GroupMember
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	result := make([]memberInfo, 0, len(members))
	for _, m := range members {
		info := memberInfo{GroupMember: m}
		if acc, ok := accounts[m.UserID]; ok {
			info.Name = acc.Name
			info.AvatarURL = acc.AvatarURL
		}
		result = append(result, info)
	}

	c.JSON(http.StatusOK, gin.H{"members": result, "count": len(result)})
}

// ManageMember handles explicit membership mutations by an owner or admin:
// removing a member or changing their role.
func ManageMember(c *gin.Context) {
	groupID := c.Param("group_id")
	requester := c.GetString("user_id")

	var request models.ManageMemberRequest
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

	actor, ok := requireMembership(c, db, groupID, requester)
	if !ok {
		return
	}
	if !actor.Role.CanManageMembers() {
		log.Printf("Error: User %s not authorized to manage members of %s", requester, groupID)
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner or an admin can manage members"})
		return
	}

	var target models.GroupMember
	if err := db.Where("group_id = ? AND user_id = ?", groupID, request.MemberID).First(&target).Error; err != nil {
		log.Printf("Error: Member not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	// The owner role is never assigned or removed through this endpoint
	if target.Role == models.RoleOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "The owner cannot be removed or demoted"})
		return
	}

	switch request.Action {
	case "remove":
		if err := db.Delete(&target).Error; err != nil {
			log.Printf("Error: Failed to remove member: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Member removed"})

	case "changeRole":
		if request.Role != models.RoleAdmin && request.Role != models.RoleMember {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be admin or member"})
			return
		}
		if err := db.Model(&target).Update("role", request.Role).Error; err != nil {
			log.Printf("Error: Failed to change role: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change role"})
			return
		}
		notifyUser(db, target.UserID, models.NotifRoleChanged, "Role changed",
			"Your role in '"+group.Name+"' is now "+string(request.Role), groupID,
			map[string]interface{}{"group_id": groupID, "url": "/groups/" + groupID})
		c.JSON(http.StatusOK, gin.H{"message": "Role updated"})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action"})
	}
}

// memberUserIDs collects the user ids of a membership list
func memberUserIDs(members []models.GroupMember) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// accountsByID batch-fetches accounts for an id set. Lookup failures yield
// an empty map; callers degrade to records without profile info.
func accountsByID(db *gorm.DB, ids []string) map[string]models.Account {
	result := make(map[string]models.Account, len(ids))
	if len(ids) == 0 {
		return result
	}

	var accounts []models.Account
	if err := db.Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		log.Printf("Warning: Failed to batch-fetch accounts: %v", err)
		return result
	}
	for _, a := range accounts {
		result[a.ID] = a
	}
	return result
}
