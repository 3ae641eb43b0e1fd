package handlers

import (
	"net/http"
	"testing"

	"learnplanning/internal/models"
)

func TestJoinPublicGroup(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	joiner := createTestAccount(t, db, "joiner@example.com", "Joiner")
	group := createTestGroup(t, db, owner.ID, true, false)

	w := invoke(t, JoinGroup, http.MethodPost, groupParams(group.ID), joiner.ID, joiner.Email, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var member models.GroupMember
	if err := db.Where("group_id = ? AND user_id = ?", group.ID, joiner.ID).First(&member).Error; err != nil {
		t.Fatalf("load membership: %v", err)
	}
	if member.Role != models.RoleMember {
		t.Errorf("role = %q, want member", member.Role)
	}
}

func TestJoinPrivateGroupForbidden(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	joiner := createTestAccount(t, db, "joiner@example.com", "Joiner")
	group := createTestGroup(t, db, owner.ID, false, false)

	w := invoke(t, JoinGroup, http.MethodPost, groupParams(group.ID), joiner.ID, joiner.Email, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestJoinGroupTwiceConflict(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	joiner := createTestAccount(t, db, "joiner@example.com", "Joiner")
	group := createTestGroup(t, db, owner.ID, true, false)

	if w := invoke(t, JoinGroup, http.MethodPost, groupParams(group.ID), joiner.ID, joiner.Email, nil); w.Code != http.StatusCreated {
		t.Fatalf("first join status = %d, want 201", w.Code)
	}
	if w := invoke(t, JoinGroup, http.MethodPost, groupParams(group.ID), joiner.ID, joiner.Email, nil); w.Code != http.StatusConflict {
		t.Fatalf("second join status = %d, want 409", w.Code)
	}

	var count int64
	db.Model(&models.GroupMember{}).Where("group_id = ? AND user_id = ?", group.ID, joiner.ID).Count(&count)
	if count != 1 {
		t.Errorf("memberships = %d, want 1", count)
	}
}

func TestLeaveGroupOwnerForbidden(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	group := createTestGroup(t, db, owner.ID, true, false)

	w := invoke(t, LeaveGroup, http.MethodPost, groupParams(group.ID), owner.ID, owner.Email, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	var count int64
	db.Model(&models.GroupMember{}).Where("group_id = ?", group.ID).Count(&count)
	if count != 1 {
		t.Errorf("memberships = %d, want owner still present", count)
	}
}

func TestLeaveGroupNotifiesOwner(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	member := createTestAccount(t, db, "member@example.com", "Member")
	group := createTestGroup(t, db, owner.ID, true, false)
	addMember(t, db, group.ID, member.ID, models.RoleMember)

	w := invoke(t, LeaveGroup, http.MethodPost, groupParams(group.ID), member.ID, member.Email, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&models.GroupMember{}).Where("group_id = ? AND user_id = ?", group.ID, member.ID).Count(&count)
	if count != 0 {
		t.Errorf("memberships = %d, want 0 after leaving", count)
	}

	var notif models.Notification
	if err := db.Where("user_id = ? AND type = ?", owner.ID, models.NotifMemberLeft).First(&notif).Error; err != nil {
		t.Fatalf("load owner notification: %v", err)
	}
}

func TestManageMemberChangeRole(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	member := createTestAccount(t, db, "member@example.com", "Member")
	group := createTestGroup(t, db, owner.ID, false, false)
	addMember(t, db, group.ID, member.ID, models.RoleMember)

	w := invoke(t, ManageMember, http.MethodPost, groupParams(group.ID), owner.ID, owner.Email,
		models.ManageMemberRequest{MemberID: member.ID, Action: "changeRole", Role: models.RoleAdmin})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var updated models.GroupMember
	if err := db.Where("group_id = ? AND user_id = ?", group.ID, member.ID).First(&updated).Error; err != nil {
		t.Fatalf("load membership: %v", err)
	}
	if updated.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin", updated.Role)
	}

	var notif models.Notification
	if err := db.Where("user_id = ? AND type = ?", member.ID, models.NotifRoleChanged).First(&notif).Error; err != nil {
		t.Fatalf("load role notification: %v", err)
	}
}

func TestManageMemberCannotTouchOwner(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	admin := createTestAccount(t, db, "admin@example.com", "Admin")
	group := createTestGroup(t, db, owner.ID, false, false)
	addMember(t, db, group.ID, admin.ID, models.RoleAdmin)

	w := invoke(t, ManageMember, http.MethodPost, groupParams(group.ID), admin.ID, admin.Email,
		models.ManageMemberRequest{MemberID: owner.ID, Action: "remove"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestManageMemberRequiresManagerRole(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	first := createTestAccount(t, db, "first@example.com", "First")
	second := createTestAccount(t, db, "second@example.com", "Second")
	group := createTestGroup(t, db, owner.ID, false, false)
	addMember(t, db, group.ID, first.ID, models.RoleMember)
	addMember(t, db, group.ID, second.ID, models.RoleMember)

	w := invoke(t, ManageMember, http.MethodPost, groupParams(group.ID), first.ID, first.Email,
		models.ManageMemberRequest{MemberID: second.ID, Action: "remove"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}
