package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"learnplanning/internal/models"

	"gorm.io/gorm"
)

func newTestReminderService(db *gorm.DB, sender PushSender, now time.Time) *ReminderService {
	svc := NewReminderService(db, NewPushServiceWithSender(db, sender))
	svc.now = func() time.Time { return now }
	return svc
}

func createTestEvent(t *testing.T, db *gorm.DB, userID string, date time.Time, hasReminder bool) *models.Event {
	t.Helper()
	event := models.Event{
		Title:       "Study session",
		Date:        date,
		StartTime:   "18:00",
		UserID:      userID,
		HasReminder: hasReminder,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}
	return &event
}

func TestCheckRemindersSendsAndRecords(t *testing.T) {
	db := setupServiceDB(t)
	sender := &stubSender{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestReminderService(db, sender, now)

	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	event := createTestEvent(t, db, "user-1", today, true)
	addSubscription(t, db, "user-1", "https://push.example/a")

	result, err := svc.CheckReminders(context.Background())
	if err != nil {
		t.Fatalf("check reminders: %v", err)
	}
	if result.Summary.Total != 1 || result.Summary.Sent != 1 {
		t.Fatalf("summary = %+v, want 1 total / 1 sent", result.Summary)
	}
	if sender.sendCount() != 1 {
		t.Errorf("sender called %d times, want 1", sender.sendCount())
	}

	var reminder models.EventReminder
	if err := db.Where("event_id = ? AND reminder_type = ?", event.ID, models.ReminderDayOf).
		First(&reminder).Error; err != nil {
		t.Fatalf("load reminder record: %v", err)
	}
	if !reminder.IsSent {
		t.Error("reminder record not marked sent")
	}

	var notif models.Notification
	if err := db.Where("user_id = ? AND type = ?", "user-1", models.NotifEventReminder).
		First(&notif).Error; err != nil {
		t.Fatalf("load in-app notification: %v", err)
	}
	if notif.RelatedID != event.ID {
		t.Errorf("notification related_id = %q, want %q", notif.RelatedID, event.ID)
	}
}

func TestCheckRemindersIdempotent(t *testing.T) {
	db := setupServiceDB(t)
	sender := &stubSender{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestReminderService(db, sender, now)

	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	createTestEvent(t, db, "user-1", today, true)
	addSubscription(t, db, "user-1", "https://push.example/a")

	if _, err := svc.CheckReminders(context.Background()); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	result, err := svc.CheckReminders(context.Background())
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if result.Summary.Skipped != 1 || result.Summary.Sent != 0 {
		t.Errorf("second pass summary = %+v, want 1 skipped / 0 sent", result.Summary)
	}
	if sender.sendCount() != 1 {
		t.Errorf("sender called %d times across both passes, want 1", sender.sendCount())
	}
}

func TestCheckRemindersIgnoresOtherDaysAndUnflagged(t *testing.T) {
	db := setupServiceDB(t)
	sender := &stubSender{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestReminderService(db, sender, now)

	tomorrow := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	yesterday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	createTestEvent(t, db, "user-1", tomorrow, true)
	createTestEvent(t, db, "user-1", yesterday, true)
	createTestEvent(t, db, "user-1", today, false)

	result, err := svc.CheckReminders(context.Background())
	if err != nil {
		t.Fatalf("check reminders: %v", err)
	}
	if result.Summary.Total != 0 {
		t.Errorf("total = %d, want 0", result.Summary.Total)
	}
	if sender.sendCount() != 0 {
		t.Errorf("sender called %d times, want 0", sender.sendCount())
	}
}

func TestCheckRemindersAllDeliveriesFailedRetriedLater(t *testing.T) {
	db := setupServiceDB(t)
	sender := &stubSender{fail: map[string]error{
		"https://push.example/a": errors.New("unreachable"),
	}}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestReminderService(db, sender, now)

	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	event := createTestEvent(t, db, "user-1", today, true)
	addSubscription(t, db, "user-1", "https://push.example/a")

	result, err := svc.CheckReminders(context.Background())
	if err != nil {
		t.Fatalf("check reminders: %v", err)
	}
	if result.Summary.Failed != 1 {
		t.Fatalf("summary = %+v, want 1 failed", result.Summary)
	}

	// No delivery record means a later pass retries
	var count int64
	db.Model(&models.EventReminder{}).Where("event_id = ?", event.ID).Count(&count)
	if count != 0 {
		t.Fatalf("reminder records = %d, want 0 after total failure", count)
	}

	sender.mu.Lock()
	sender.fail = nil
	sender.mu.Unlock()

	result, err = svc.CheckReminders(context.Background())
	if err != nil {
		t.Fatalf("retry pass: %v", err)
	}
	if result.Summary.Sent != 1 {
		t.Errorf("retry pass summary = %+v, want 1 sent", result.Summary)
	}
}

func TestCheckRemindersNoSubscriptionsStillRecorded(t *testing.T) {
	db := setupServiceDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestReminderService(db, &stubSender{}, now)

	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	event := createTestEvent(t, db, "user-1", today, true)

	result, err := svc.CheckReminders(context.Background())
	if err != nil {
		t.Fatalf("check reminders: %v", err)
	}
	if result.Summary.Sent != 1 {
		t.Errorf("summary = %+v, want 1 sent for user without subscriptions", result.Summary)
	}

	var count int64
	db.Model(&models.EventReminder{}).Where("event_id = ?", event.ID).Count(&count)
	if count != 1 {
		t.Errorf("reminder records = %d, want 1", count)
	}
}

func TestComposeReminderIncludesGroupName(t *testing.T) {
	db := setupServiceDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestReminderService(db, &stubSender{}, now)

	group := models.Group{Name: "Algorithms Club", OwnerID: "user-1"}
	if err := db.Create(&group).Error; err != nil {
		t.Fatalf("create group: %v", err)
	}

	event := &models.Event{
		ID:        "evt-1",
		Title:     "Mock exam",
		StartTime: "18:00",
		UserID:    "user-1",
		GroupID:   &group.ID,
	}

	_, body, data := svc.composeReminder(event)
	if !strings.Contains(body, "Mock exam starts today at 18:00") {
		t.Errorf("body = %q, missing event segment", body)
	}
	if !strings.Contains(body, "Algorithms Club") {
		t.Errorf("body = %q, missing group name", body)
	}
	if data["group_id"] != group.ID {
		t.Errorf("data group_id = %v, want %q", data["group_id"], group.ID)
	}
}

func TestComposeReminderMissingGroupDegrades(t *testing.T) {
	db := setupServiceDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestReminderService(db, &stubSender{}, now)

	missing := "no-such-group"
	event := &models.Event{
		ID:      "evt-1",
		Title:   "Mock exam",
		UserID:  "user-1",
		GroupID: &missing,
	}

	_, body, data := svc.composeReminder(event)
	if body != "Mock exam is today" {
		t.Errorf("body = %q, want plain reminder without group segment", body)
	}
	if data["group_id"] != missing {
		t.Errorf("data group_id = %v, want %q", data["group_id"], missing)
	}
}
