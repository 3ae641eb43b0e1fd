package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"learnplanning/internal/models"
)

func TestSendAndFetchGroupMessages(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	member := createTestAccount(t, db, "member@example.com", "Member")
	group := createTestGroup(t, db, owner.ID, false, false)
	addMember(t, db, group.ID, member.ID, models.RoleMember)

	w := invoke(t, SendGroupMessage, http.MethodPost, groupParams(group.ID), owner.ID, owner.Email,
		models.SendMessageRequest{Content: "Meeting moved to 6pm"})
	if w.Code != http.StatusCreated {
		t.Fatalf("send status = %d, want 201: %s", w.Code, w.Body.String())
	}

	// The reader gets appended to read_by when fetching
	w = invoke(t, GetGroupMessages, http.MethodGet, groupParams(group.ID), member.ID, member.Email, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("fetch status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var message models.ChatMessage
	if err := db.Where("group_id = ?", group.ID).First(&message).Error; err != nil {
		t.Fatalf("load message: %v", err)
	}
	var readBy []string
	if err := json.Unmarshal(message.ReadBy, &readBy); err != nil {
		t.Fatalf("parse read_by: %v", err)
	}
	if len(readBy) != 2 {
		t.Fatalf("read_by = %v, want sender and reader", readBy)
	}
	seen := map[string]bool{}
	for _, id := range readBy {
		seen[id] = true
	}
	if !seen[owner.ID] || !seen[member.ID] {
		t.Errorf("read_by = %v, want both %s and %s", readBy, owner.ID, member.ID)
	}
}

func TestSendMessageNonMemberForbidden(t *testing.T) {
	db := setupHandlerDB(t)
	owner := createTestAccount(t, db, "owner@example.com", "Owner")
	outsider := createTestAccount(t, db, "outsider@example.com", "Outsider")
	group := createTestGroup(t, db, owner.ID, false, false)

	w := invoke(t, SendGroupMessage, http.MethodPost, groupParams(group.ID), outsider.ID, outsider.Email,
		models.SendMessageRequest{Content: "hello"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}
