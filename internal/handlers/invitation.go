package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"learnplanning/internal/database"
	"learnplanning/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// inviteURL builds the shareable link for an invitation
func inviteURL(invitationID string) string {
	base := os.Getenv("FRONTEND_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return base + "/invitations/" + invitationID
}

// InviteToGroup handles inviting someone to a group by email. Owners and
// admins may always invite; plain members only when the group allows it.
func InviteToGroup(c *gin.Context) {
	groupID := c.Param("group_id")
	inviterID := c.GetString("user_id")

	var request models.InviteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		log.Printf("Error: Invalid invite input: %s", err.Error())
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

	inviter, ok := requireMembership(c, db, groupID, inviterID)
	if !ok {
		return
	}
	if !inviter.Role.CanManageMembers() && !group.AllowMemberInvite {
		log.Printf("Error: User %s not allowed to invite to group %s", inviterID, groupID)
		c.JSON(http.StatusForbidden, gin.H{"error": "Members of this group cannot send invitations"})
		return
	}

	// Reject if the invitee already belongs to the group. The invitee may
	// not have an account yet; in that case there is nothing to check.
	var invitee models.Account
	err := db.Where("email = ?", request.Email).First(&invitee).Error
	if err == nil {
		if _, merr := getMembership(db, groupID, invitee.ID); merr == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "User is already a member"})
			return
		} else if !errorsIsNotFound(merr) {
			handleError(c, http.StatusInternalServerError, "Failed to check group membership", merr)
			return
		}
	} else if !errorsIsNotFound(err) {
		handleError(c, http.StatusInternalServerError, "Failed to look up invitee", err)
		return
	}

	invitation := models.Invitation{
		GroupID:      groupID,
		InviterID:    inviterID,
		InviteeEmail: request.Email,
		InviteeName:  request.Name,
		Message:      request.Message,
	}
	if err := db.Create(&invitation).Error; err != nil {
		// The partial unique index on pending invitations turns a
		// duplicate invite into a conflict, even under concurrency.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "A pending invitation already exists for this email"})
			return
		}
		log.Printf("Error: Failed to create invitation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	// Best-effort side effects: neither the email nor the push may fail
	// the invite itself.
	var inviterAccount models.Account
	inviterName := "Someone"
	if err := db.Where("id = ?", inviterID).First(&inviterAccount).Error; err == nil && inviterAccount.Name != "" {
		inviterName = inviterAccount.Name
	}

	if emailService != nil {
		if err := emailService.SendInvitationEmail(request.Email, request.Name, inviterName,
			group.Name, request.Message, inviteURL(invitation.ID)); err != nil {
			log.Printf("Warning: Failed to send invitation email to %s: %v", request.Email, err)
		}
	}

	if invitee.ID != "" {
		notifyUser(db, invitee.ID, models.NotifInvitationReceived, "Group invitation",
			inviterName+" invited you to join '"+group.Name+"'", invitation.ID,
			map[string]interface{}{"invitation_id": invitation.ID, "group_id": groupID, "url": "/invitations/" + invitation.ID})
	}

	c.JSON(http.StatusCreated, gin.H{
		"invitation": invitation,
		"invite_url": inviteURL(invitation.ID),
	})
}

// ListGroupInvitations returns a group's invitations (owner/admin only)
func ListGroupInvitations(c *gin.Context) {
	groupID := c.Param("group_id")
	requester := c.GetString("user_id")

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
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner or an admin can view invitations"})
		return
	}

	var invitations []models.Invitation
	if err := db.Where("group_id = ?", groupID).Order("created_at desc").Find(&invitations).Error; err != nil {
		log.Printf("Error: Failed to fetch invitations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invitations"})
		return
	}

	c.JSON(http.StatusOK, invitations)
}

// ListMyInvitations returns the caller's pending, unexpired invitations
func ListMyInvitations(c *gin.Context) {
	email := c.GetString("email")

	db := database.GetDB()
	var invitations []models.Invitation
	if err := db.Where("invitee_email = ? AND status = ? AND expires_at > ?",
		email, models.InvitationPending, time.Now()).
		Order("created_at desc").Find(&invitations).Error; err != nil {
		log.Printf("Error: Failed to fetch invitations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invitations"})
		return
	}

	c.JSON(http.StatusOK, invitations)
}

// RespondToInvitation handles accepting or rejecting an invitation. Only
// the invitee (matched by email) or the inviter may respond; the
// invitation must still be pending and not past its expiry.
func RespondToInvitation(c *gin.Context) {
	invitationID := c.Param("invitation_id")
	userID := c.GetString("user_id")
	email := c.GetString("email")

	var request models.RespondInvitationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		log.Printf("Error: Invalid response input: %s", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	db := database.GetDB()

	var invitation models.Invitation
	if err := db.Where("id = ?", invitationID).First(&invitation).Error; err != nil {
		log.Printf("Error: Invitation not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		return
	}

	if invitation.InviteeEmail != email && invitation.InviterID != userID {
		log.Printf("Error: User %s not authorized to respond to invitation %s", userID, invitationID)
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to respond to this invitation"})
		return
	}

	if invitation.Status != models.InvitationPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Invitation has already been " + string(invitation.Status)})
		return
	}

	// An expired invitation is dead even while its status is pending
	if invitation.IsExpired() {
		c.JSON(http.StatusGone, gin.H{"error": "Invitation has expired"})
		return
	}

	var group models.Group
	if err := db.Where("id = ?", invitation.GroupID).First(&group).Error; err != nil {
		log.Printf("Error: Group for invitation %s not found: %v", invitationID, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Group no longer exists"})
		return
	}

	switch request.Action {
	case "accept":
		// Only the invitee can accept; the inviter may only reject (withdraw)
		if invitation.InviteeEmail != email {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the invitee can accept an invitation"})
			return
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			var existing models.GroupMember
			merr := tx.Where("group_id = ? AND user_id = ?", invitation.GroupID, userID).First(&existing).Error
			if errorsIsNotFound(merr) {
				member := models.GroupMember{
					GroupID: invitation.GroupID,
					UserID:  userID,
					Role:    models.RoleMember,
				}
				if cerr := tx.Create(&member).Error; cerr != nil && !errors.Is(cerr, gorm.ErrDuplicatedKey) {
					return cerr
				}
			} else if merr != nil {
				return merr
			}

			return tx.Model(&invitation).Updates(map[string]interface{}{
				"status":     models.InvitationAccepted,
				"updated_at": time.Now(),
			}).Error
		})
		if err != nil {
			log.Printf("Error: Failed to accept invitation %s: %v", invitationID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept invitation"})
			return
		}

		// Notify the inviter (best-effort)
		var invitee models.Account
		name := invitation.InviteeName
		if err := db.Where("id = ?", userID).First(&invitee).Error; err == nil && invitee.Name != "" {
			name = invitee.Name
		}
		notifyUser(db, invitation.InviterID, models.NotifInvitationAccepted, "Invitation accepted",
			name+" joined '"+group.Name+"'", invitation.GroupID,
			map[string]interface{}{"group_id": invitation.GroupID, "url": "/groups/" + invitation.GroupID})
		if emailService != nil {
			var inviter models.Account
			if err := db.Where("id = ?", invitation.InviterID).First(&inviter).Error; err == nil {
				if err := emailService.SendInvitationAcceptedEmail(inviter.Email, inviter.Name, name, group.Name); err != nil {
					log.Printf("Warning: Failed to send acceptance email: %v", err)
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "Invitation accepted", "group_id": invitation.GroupID})

	case "reject":
		if err := db.Model(&invitation).Updates(map[string]interface{}{
			"status":     models.InvitationRejected,
			"updated_at": time.Now(),
		}).Error; err != nil {
			log.Printf("Error: Failed to reject invitation %s: %v", invitationID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject invitation"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Invitation rejected"})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Action must be accept or reject"})
	}
}

// DeleteInvitation handles withdrawing an invitation (inviter only)
func DeleteInvitation(c *gin.Context) {
	invitationID := c.Param("invitation_id")
	userID := c.GetString("user_id")

	db := database.GetDB()

	var invitation models.Invitation
	if err := db.Where("id = ?", invitationID).First(&invitation).Error; err != nil {
		log.Printf("Error: Invitation not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		return
	}

	if invitation.InviterID != userID {
		log.Printf("Error: User %s may not delete invitation %s", userID, invitationID)
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the inviter can delete the invitation"})
		return
	}

	if err := db.Delete(&invitation).Error; err != nil {
		log.Printf("Error: Failed to delete invitation %s: %v", invitationID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete invitation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation deleted"})
}
