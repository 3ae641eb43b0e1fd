package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification types created as side effects of domain events
const (
	NotifInvitationReceived = "invitation_received"
	NotifInvitationAccepted = "invitation_accepted"
	NotifEventReminder      = "event_reminder"
	NotifMemberLeft         = "member_left"
	NotifRoleChanged        = "role_changed"
	NotifQuestionReply      = "question_reply"
	NotifChatMessage        = "chat_message"
)

// Notification is an in-app notification record. Only is_read/read_at are
// ever mutated after creation.
type Notification struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	UserID    string         `gorm:"size:36;not null;index" json:"user_id"`
	Type      string         `gorm:"size:30;not null" json:"type"`
	Title     string         `gorm:"size:200;not null" json:"title"`
	Message   string         `gorm:"type:text" json:"message"`
	IsRead    bool           `gorm:"not null;default:false" json:"is_read"`
	RelatedID string         `gorm:"size:36" json:"related_id"` // back-reference, non-owning
	Data      datatypes.JSON `gorm:"type:jsonb" json:"data,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	ReadAt    *time.Time     `json:"read_at"`
}

// BeforeCreate hook for notifications
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return nil
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notification"
}
