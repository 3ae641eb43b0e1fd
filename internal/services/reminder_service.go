package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"learnplanning/internal/models"

	"gorm.io/gorm"
)

// Per-event outcome statuses for a reminder pass
const (
	ReminderStatusSent    = "sent"
	ReminderStatusSkipped = "skipped"
	ReminderStatusFailed  = "failed"
	ReminderStatusError   = "error"
)

// EventReminderResult is the outcome for a single event in one pass
type EventReminderResult struct {
	EventID string `json:"event_id"`
	Title   string `json:"title"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// ReminderSummary counts outcomes across one pass
type ReminderSummary struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Errors  int `json:"errors"`
}

// ReminderCheckResult is the return value of one reminder pass
type ReminderCheckResult struct {
	Date    string                `json:"date"`
	Results []EventReminderResult `json:"results"`
	Summary ReminderSummary       `json:"summary"`
}

// ReminderService runs the day-of reminder pass: it scans today's events
// with reminders enabled, pushes a notification to each owner, and records
// delivery so a later pass never sends twice.
type ReminderService struct {
	db       *gorm.DB
	push     *PushService
	interval time.Duration
	now      func() time.Time
}

// NewReminderService creates the reminder scheduler
func NewReminderService(db *gorm.DB, push *PushService) *ReminderService {
	return &ReminderService{
		db:       db,
		push:     push,
		interval: time.Minute * 15, // Check every 15 minutes
		now:      time.Now,
	}
}

// Start launches the periodic worker
func (s *ReminderService) Start() {
	go s.run()
}

func (s *ReminderService) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for range ticker.C {
		result, err := s.CheckReminders(context.Background())
		if err != nil {
			log.Printf("Error: Reminder pass failed: %v", err)
			continue
		}
		if result.Summary.Sent > 0 || result.Summary.Failed > 0 || result.Summary.Errors > 0 {
			log.Printf("Reminder pass for %s: %d sent, %d skipped, %d failed, %d errors",
				result.Date, result.Summary.Sent, result.Summary.Skipped,
				result.Summary.Failed, result.Summary.Errors)
		}
	}
}

// CheckReminders runs a single reminder pass over today's events. It only
// fails as a whole when the event list itself cannot be read; every other
// failure is isolated to its event so one bad event cannot block the rest.
// Re-running within the same day is idempotent at the "already sent"
// boundary: an event with a recorded delivery is skipped, an event whose
// dispatch failed is retried.
func (s *ReminderService) CheckReminders(ctx context.Context) (*ReminderCheckResult, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var events []models.Event
	if err := s.db.Where("date >= ? AND date < ? AND has_reminder = ?", dayStart, dayEnd, true).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to load today's events: %w", err)
	}

	result := &ReminderCheckResult{
		Date:    dayStart.Format("2006-01-02"),
		Results: make([]EventReminderResult, 0, len(events)),
	}

	for i := range events {
		outcome := s.processEvent(ctx, &events[i], now)
		result.Results = append(result.Results, outcome)

		result.Summary.Total++
		switch outcome.Status {
		case ReminderStatusSent:
			result.Summary.Sent++
		case ReminderStatusSkipped:
			result.Summary.Skipped++
		case ReminderStatusFailed:
			result.Summary.Failed++
		case ReminderStatusError:
			result.Summary.Errors++
		}
	}

	return result, nil
}

// processEvent handles one event and never lets a panic escape; anything
// unexpected is reported as an error outcome for that event only.
func (s *ReminderService) processEvent(ctx context.Context, event *models.Event, now time.Time) (outcome EventReminderResult) {
	outcome = EventReminderResult{EventID: event.ID, Title: event.Title}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error: Panic while processing reminder for event %s: %v", event.ID, r)
			outcome.Status = ReminderStatusError
			outcome.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	// Skip events already reminded today; the delivery record is the
	// de-duplication key.
	var existing models.EventReminder
	err := s.db.Where("event_id = ? AND reminder_type = ? AND is_sent = ?",
		event.ID, models.ReminderDayOf, true).First(&existing).Error
	if err == nil {
		outcome.Status = ReminderStatusSkipped
		return outcome
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		outcome.Status = ReminderStatusError
		outcome.Error = err.Error()
		return outcome
	}

	title, body, data := s.composeReminder(event)

	sendResult, err := s.push.SendToUser(ctx, event.UserID, title, body, data)
	if err != nil {
		outcome.Status = ReminderStatusFailed
		outcome.Error = err.Error()
		return outcome
	}

	// A user whose every device rejected the message has not been
	// reminded; leave no record so a later pass retries.
	if sendResult.Total > 0 && sendResult.Delivered == 0 {
		outcome.Status = ReminderStatusFailed
		outcome.Error = fmt.Sprintf("all %d deliveries failed", sendResult.Total)
		return outcome
	}

	reminder := models.EventReminder{
		EventID:      event.ID,
		UserID:       event.UserID,
		ReminderType: models.ReminderDayOf,
		IsSent:       true,
		SentAt:       now,
		ScheduledFor: now,
	}
	if err := s.db.Create(&reminder).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent pass beat us to the record; the reminder was sent.
			outcome.Status = ReminderStatusSkipped
			return outcome
		}
		outcome.Status = ReminderStatusError
		outcome.Error = fmt.Sprintf("reminder sent but record not written: %v", err)
		return outcome
	}

	// Keep an in-app notification alongside the push
	notif := models.Notification{
		UserID:    event.UserID,
		Type:      models.NotifEventReminder,
		Title:     title,
		Message:   body,
		RelatedID: event.ID,
	}
	if err := s.db.Create(&notif).Error; err != nil {
		log.Printf("Warning: Failed to create reminder notification for event %s: %v", event.ID, err)
	}

	outcome.Status = ReminderStatusSent
	return outcome
}

// composeReminder builds the push message for an event. A group event names
// its group; if the group cannot be resolved the reminder still goes out
// without the group segment.
func (s *ReminderService) composeReminder(event *models.Event) (title, body string, data map[string]interface{}) {
	title = "Event Reminder"

	body = fmt.Sprintf("%s is today", event.Title)
	if event.StartTime != "" {
		body = fmt.Sprintf("%s starts today at %s", event.Title, event.StartTime)
	}

	data = map[string]interface{}{
		"event_id": event.ID,
		"url":      "/events/" + event.ID,
	}

	if event.GroupID != nil && *event.GroupID != "" {
		data["group_id"] = *event.GroupID

		var group models.Group
		if err := s.db.Where("id = ?", *event.GroupID).First(&group).Error; err != nil {
			log.Printf("Warning: Failed to resolve group %s for event %s: %v", *event.GroupID, event.ID, err)
		} else {
			body = fmt.Sprintf("%s (%s)", body, group.Name)
		}
	}

	return title, body, data
}
