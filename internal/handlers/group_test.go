package handlers

import (
	"net/http"
	"testing"

	"learnplanning/internal/models"
)

func TestCreateGroupMakesOwnerMembership(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")

	w := invoke(t, CreateGroup, http.MethodPost, nil, owner.ID, owner.Email,
		models.CreateGroupRequest{Name: "Algebra Crew", IsPublic: true})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var group models.Group
	if err := db.Where("owner_id = ?", owner.ID).First(&group).Error; err != nil {
		t.Fatalf("load group: %v", err)
	}

	var member models.GroupMember
	if err := db.Where("group_id = ? AND user_id = ?", group.ID, owner.ID).First(&member).Error; err != nil {
		t.Fatalf("load owner membership: %v", err)
	}
	if member.Role != models.RoleOwner {
		t.Errorf("role = %q, want owner", member.Role)
	}
}

func TestDeleteGroupNonOwnerForbidden(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	admin := createTestAccount(t, db, "admin@example.com", "Admin")
	group := createTestGroup(t, db, owner.ID, false, false)
	addMember(t, db, group.ID, admin.ID, models.RoleAdmin)

	w := invoke(t, DeleteGroup, http.MethodDelete, groupParams(group.ID), admin.ID, admin.Email, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	var count int64
	db.Model(&models.Group{}).Where("id = ?", group.ID).Count(&count)
	if count != 1 {
		t.Error("group was deleted by a non-owner")
	}
}

func TestDeleteGroupCascades(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	member := createTestAccount(t, db, "member@example.com", "Member")
	group := createTestGroup(t, db, owner.ID, false, false)
	addMember(t, db, group.ID, member.ID, models.RoleMember)

	invitation := models.Invitation{
		GroupID:      group.ID,
		InviterID:    owner.ID,
		InviteeEmail: "new@example.com",
	}
	if err := db.Create(&invitation).Error; err != nil {
		t.Fatalf("create invitation: %v", err)
	}

	goal := models.Goal{GroupID: group.ID, UserID: owner.ID, Title: "Finish chapter 4"}
	if err := db.Create(&goal).Error; err != nil {
		t.Fatalf("create goal: %v", err)
	}
	subgoal := models.Subgoal{GoalID: goal.ID, Title: "Exercises 1-10"}
	if err := db.Create(&subgoal).Error; err != nil {
		t.Fatalf("create subgoal: %v", err)
	}

	w := invoke(t, DeleteGroup, http.MethodDelete, groupParams(group.ID), owner.ID, owner.Email, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&models.Group{}).Where("id = ?", group.ID).Count(&count)
	if count != 0 {
		t.Errorf("group rows remaining = %d, want 0", count)
	}
	db.Model(&models.GroupMember{}).Where("group_id = ?", group.ID).Count(&count)
	if count != 0 {
		t.Errorf("membership rows remaining = %d, want 0", count)
	}
	db.Model(&models.Invitation{}).Where("group_id = ?", group.ID).Count(&count)
	if count != 0 {
		t.Errorf("invitation rows remaining = %d, want 0", count)
	}
	db.Model(&models.Goal{}).Where("group_id = ?", group.ID).Count(&count)
	if count != 0 {
		t.Errorf("goal rows remaining = %d, want 0", count)
	}
	db.Model(&models.Subgoal{}).Where("goal_id = ?", goal.ID).Count(&count)
	if count != 0 {
		t.Errorf("subgoal rows remaining = %d, want 0", count)
	}
}

func TestGetGroupByIDPrivateGated(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	outsider := createTestAccount(t, db, "outsider@example.com", "Outsider")
	group := createTestGroup(t, db, owner.ID, false, false)

	w := invoke(t, GetGroupByID, http.MethodGet, groupParams(group.ID), outsider.ID, outsider.Email, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	w = invoke(t, GetGroupByID, http.MethodGet, groupParams(group.ID), owner.ID, owner.Email, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("owner status = %d, want 200: %s", w.Code, w.Body.String())
	}
}
