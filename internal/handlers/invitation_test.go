package handlers

import (
	"net/http"
	"testing"
	"time"

	"learnplanning/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func invitationParams(invitationID string) gin.Params {
	return gin.Params{{Key: "invitation_id", Value: invitationID}}
}

func createPendingInvitation(t *testing.T, db *gorm.DB, groupID, inviterID, email string) *models.Invitation {
	t.Helper()
	invitation := models.Invitation{
		GroupID:      groupID,
		InviterID:    inviterID,
		InviteeEmail: email,
	}
	if err := db.Create(&invitation).Error; err != nil {
		t.Fatalf("create invitation: %v", err)
	}
	return &invitation
}

func TestInviteToGroup(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	group := createTestGroup(t, db, owner.ID, false, false)

	w := invoke(t, InviteToGroup, http.MethodPost, groupParams(group.ID), owner.ID, owner.Email,
		models.InviteRequest{Email: "friend@example.com", Name: "Friend"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var invitation models.Invitation
	if err := db.Where("group_id = ? AND invitee_email = ?", group.ID, "friend@example.com").
		First(&invitation).Error; err != nil {
		t.Fatalf("load invitation: %v", err)
	}
	if invitation.Status != models.InvitationPending {
		t.Errorf("status = %q, want pending", invitation.Status)
	}
	if !invitation.ExpiresAt.After(time.Now().Add(29 * 24 * time.Hour)) {
		t.Errorf("expires_at = %v, want about 30 days out", invitation.ExpiresAt)
	}
}

func TestInviteDuplicatePendingConflict(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	group := createTestGroup(t, db, owner.ID, false, false)

	request := models.InviteRequest{Email: "friend@example.com"}
	if w := invoke(t, InviteToGroup, http.MethodPost, groupParams(group.ID), owner.ID, owner.Email, request); w.Code != http.StatusCreated {
		t.Fatalf("first invite status = %d, want 201", w.Code)
	}
	if w := invoke(t, InviteToGroup, http.MethodPost, groupParams(group.ID), owner.ID, owner.Email, request); w.Code != http.StatusConflict {
		t.Fatalf("second invite status = %d, want 409", w.Code)
	}

	var count int64
	db.Model(&models.Invitation{}).Where("group_id = ? AND invitee_email = ?", group.ID, "friend@example.com").Count(&count)
	if count != 1 {
		t.Errorf("invitations = %d, want 1", count)
	}
}

func TestInviteAfterRejectionAllowed(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	group := createTestGroup(t, db, owner.ID, false, false)

	first := createPendingInvitation(t, db, group.ID, owner.ID, "friend@example.com")
	if err := db.Model(first).Update("status", models.InvitationRejected).Error; err != nil {
		t.Fatalf("reject invitation: %v", err)
	}

	// The pending-only uniqueness releases once the first invitation settles
	w := invoke(t, InviteToGroup, http.MethodPost, groupParams(group.ID), owner.ID, owner.Email,
		models.InviteRequest{Email: "friend@example.com"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
}

func TestInviteByPlainMemberForbidden(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	member := createTestAccount(t, db, "member@example.com", "Member")
	group := createTestGroup(t, db, owner.ID, false, false)
	addMember(t, db, group.ID, member.ID, models.RoleMember)

	w := invoke(t, InviteToGroup, http.MethodPost, groupParams(group.ID), member.ID, member.Email,
		models.InviteRequest{Email: "friend@example.com"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestInviteByMemberWhenGroupAllows(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	member := createTestAccount(t, db, "member@example.com", "Member")
	group := createTestGroup(t, db, owner.ID, false, true)
	addMember(t, db, group.ID, member.ID, models.RoleMember)

	w := invoke(t, InviteToGroup, http.MethodPost, groupParams(group.ID), member.ID, member.Email,
		models.InviteRequest{Email: "friend@example.com"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
}

func TestInviteExistingMemberConflict(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	member := createTestAccount(t, db, "member@example.com", "Member")
	group := createTestGroup(t, db, owner.ID, false, false)
	addMember(t, db, group.ID, member.ID, models.RoleMember)

	w := invoke(t, InviteToGroup, http.MethodPost, groupParams(group.ID), owner.ID, owner.Email,
		models.InviteRequest{Email: member.Email})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestAcceptInvitationCreatesMembership(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	invitee := createTestAccount(t, db, "invitee@example.com", "Invitee")
	group := createTestGroup(t, db, owner.ID, false, false)
	invitation := createPendingInvitation(t, db, group.ID, owner.ID, invitee.Email)

	w := invoke(t, RespondToInvitation, http.MethodPost, invitationParams(invitation.ID),
		invitee.ID, invitee.Email, models.RespondInvitationRequest{Action: "accept"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var member models.GroupMember
	if err := db.Where("group_id = ? AND user_id = ?", group.ID, invitee.ID).First(&member).Error; err != nil {
		t.Fatalf("load membership: %v", err)
	}
	if member.Role != models.RoleMember {
		t.Errorf("role = %q, want member", member.Role)
	}

	var updated models.Invitation
	if err := db.Where("id = ?", invitation.ID).First(&updated).Error; err != nil {
		t.Fatalf("load invitation: %v", err)
	}
	if updated.Status != models.InvitationAccepted {
		t.Errorf("status = %q, want accepted", updated.Status)
	}

	var notif models.Notification
	if err := db.Where("user_id = ? AND type = ?", owner.ID, models.NotifInvitationAccepted).First(&notif).Error; err != nil {
		t.Fatalf("load inviter notification: %v", err)
	}
}

func TestRespondToSettledInvitationConflict(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	invitee := createTestAccount(t, db, "invitee@example.com", "Invitee")
	group := createTestGroup(t, db, owner.ID, false, false)
	invitation := createPendingInvitation(t, db, group.ID, owner.ID, invitee.Email)

	accept := models.RespondInvitationRequest{Action: "accept"}
	if w := invoke(t, RespondToInvitation, http.MethodPost, invitationParams(invitation.ID), invitee.ID, invitee.Email, accept); w.Code != http.StatusOK {
		t.Fatalf("first response status = %d, want 200", w.Code)
	}
	if w := invoke(t, RespondToInvitation, http.MethodPost, invitationParams(invitation.ID), invitee.ID, invitee.Email, accept); w.Code != http.StatusConflict {
		t.Fatalf("second response status = %d, want 409", w.Code)
	}
}

func TestAcceptExpiredInvitationGone(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	invitee := createTestAccount(t, db, "invitee@example.com", "Invitee")
	group := createTestGroup(t, db, owner.ID, false, false)
	invitation := createPendingInvitation(t, db, group.ID, owner.ID, invitee.Email)
	if err := db.Model(invitation).Update("expires_at", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("expire invitation: %v", err)
	}

	w := invoke(t, RespondToInvitation, http.MethodPost, invitationParams(invitation.ID),
		invitee.ID, invitee.Email, models.RespondInvitationRequest{Action: "accept"})
	if w.Code != http.StatusGone {
		t.Fatalf("status = %d, want 410", w.Code)
	}

	var count int64
	db.Model(&models.GroupMember{}).Where("group_id = ? AND user_id = ?", group.ID, invitee.ID).Count(&count)
	if count != 0 {
		t.Error("expired invitation still created a membership")
	}
}

func TestInviterCannotAccept(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	group := createTestGroup(t, db, owner.ID, false, false)
	invitation := createPendingInvitation(t, db, group.ID, owner.ID, "friend@example.com")

	w := invoke(t, RespondToInvitation, http.MethodPost, invitationParams(invitation.ID),
		owner.ID, owner.Email, models.RespondInvitationRequest{Action: "accept"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestInviterCanWithdrawByRejecting(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	group := createTestGroup(t, db, owner.ID, false, false)
	invitation := createPendingInvitation(t, db, group.ID, owner.ID, "friend@example.com")

	w := invoke(t, RespondToInvitation, http.MethodPost, invitationParams(invitation.ID),
		owner.ID, owner.Email, models.RespondInvitationRequest{Action: "reject"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var updated models.Invitation
	if err := db.Where("id = ?", invitation.ID).First(&updated).Error; err != nil {
		t.Fatalf("load invitation: %v", err)
	}
	if updated.Status != models.InvitationRejected {
		t.Errorf("status = %q, want rejected", updated.Status)
	}
}

func TestStrangerCannotRespond(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	stranger := createTestAccount(t, db, "stranger@example.com", "Stranger")
	group := createTestGroup(t, db, owner.ID, false, false)
	invitation := createPendingInvitation(t, db, group.ID, owner.ID, "friend@example.com")

	w := invoke(t, RespondToInvitation, http.MethodPost, invitationParams(invitation.ID),
		stranger.ID, stranger.Email, models.RespondInvitationRequest{Action: "accept"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}
