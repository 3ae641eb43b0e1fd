package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChatMessage represents a chat message in a group
type ChatMessage struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	GroupID   string         `gorm:"size:36;not null;index:idx_chat_group_created" json:"group_id"`
	UserID    string         `gorm:"size:36;not null;index" json:"user_id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	ReadBy    datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"read_by"`
	CreatedAt time.Time      `gorm:"not null;index:idx_chat_group_created" json:"created_at"`
}

// BeforeCreate hook is called before creating a new message
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return nil
}

// TableName specifies the table name for the ChatMessage model
func (ChatMessage) TableName() string {
	return "chat_message"
}

// SendMessageRequest represents the data needed to send a message
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}
