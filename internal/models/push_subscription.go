package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PushSubscription is a browser-issued endpoint plus key pair used to
// address a web push message to a specific device or browser session.
// A user may hold several subscriptions (one per device); delivery always
// fans out to all of them.
type PushSubscription struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;index;uniqueIndex:idx_push_user_endpoint" json:"user_id"`
	Endpoint  string    `gorm:"size:512;not null;uniqueIndex:idx_push_user_endpoint" json:"endpoint"`
	P256dhKey string    `gorm:"size:255;not null" json:"-"`
	AuthKey   string    `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook for push subscriptions
func (s *PushSubscription) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	return nil
}

// TableName specifies the table name for the PushSubscription model
func (PushSubscription) TableName() string {
	return "push_subscription"
}

// SubscribeRequest represents the browser subscription handed to us by
// the service worker
type SubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	P256dh   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}
