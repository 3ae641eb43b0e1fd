package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventType represents the kind of calendar event
type EventType string

const (
	EventMeeting  EventType = "meeting"
	EventDeadline EventType = "deadline"
	EventOther    EventType = "other"
)

// ReminderDayOf is the single supported reminder type, fired on the
// calendar day of the event.
const ReminderDayOf = "day_of"

// Event represents a calendar event, either personal (GroupID nil) or
// associated with a group.
type Event struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Date        time.Time `gorm:"not null;index" json:"date"` // calendar day, midnight local
	StartTime   string    `gorm:"size:5" json:"start_time"`   // "15:04", optional
	EndTime     string    `gorm:"size:5" json:"end_time"`
	Type        EventType `gorm:"size:10;not null;default:'other'" json:"type"`
	GroupID     *string   `gorm:"size:36;index" json:"group_id"`
	UserID      string    `gorm:"size:36;not null;index" json:"user_id"`
	HasReminder bool      `gorm:"not null;default:false" json:"has_reminder"`
	IsOnline    bool      `gorm:"not null;default:false" json:"is_online"`
	MeetingURL  string    `gorm:"size:512" json:"meeting_url"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook for events
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Type == "" {
		e.Type = EventOther
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}
	return nil
}

// TableName specifies the table name for the Event model
func (Event) TableName() string {
	return "event"
}

// EventReminder records that a reminder was delivered for an event.
// A row with is_sent=true is the de-duplication key for the reminder
// pass; the unique index guarantees a second row cannot be created for
// the same event and reminder type.
type EventReminder struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	EventID      string    `gorm:"size:36;not null;uniqueIndex:idx_reminder_event_type" json:"event_id"`
	UserID       string    `gorm:"size:36;not null;index" json:"user_id"`
	ReminderType string    `gorm:"size:10;not null;default:'day_of';uniqueIndex:idx_reminder_event_type" json:"reminder_type"`
	IsSent       bool      `gorm:"not null;default:false" json:"is_sent"`
	SentAt       time.Time `json:"sent_at"`
	ScheduledFor time.Time `json:"scheduled_for"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

// BeforeCreate hook for event reminders
func (r *EventReminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.ReminderType == "" {
		r.ReminderType = ReminderDayOf
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return nil
}

// TableName specifies the table name for the EventReminder model
func (EventReminder) TableName() string {
	return "event_reminder"
}

// CreateEventRequest represents the data needed to create an event
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required,max=200"`
	Description string    `json:"description" binding:"max=2000"`
	Date        time.Time `json:"date" binding:"required"`
	StartTime   string    `json:"start_time" binding:"omitempty,len=5"`
	EndTime     string    `json:"end_time" binding:"omitempty,len=5"`
	Type        EventType `json:"type" binding:"omitempty,oneof=meeting deadline other"`
	GroupID     *string   `json:"group_id"`
	HasReminder bool      `json:"has_reminder"`
	IsOnline    bool      `json:"is_online"`
	MeetingURL  string    `json:"meeting_url" binding:"omitempty,url"`
}
