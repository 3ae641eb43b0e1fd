package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account represents a user account in the system. Accounts are created on
// the first successful Google sign-in and keyed internally by a generated ID;
// the email address is the external identity key.
type Account struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	GoogleID   string         `gorm:"uniqueIndex;size:128;not null" json:"-"`
	Email      string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name       string         `gorm:"size:100" json:"name"`
	AvatarURL  string         `gorm:"size:512" json:"avatar_url"`
	LastLogin  time.Time      `gorm:"not null" json:"last_login"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	OwnedGroups []Group       `gorm:"foreignKey:OwnerID" json:"owned_groups,omitempty"`
	Memberships []GroupMember `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}

// BeforeCreate hook is called before creating a new account
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	if a.LastLogin.IsZero() {
		a.LastLogin = now
	}
	return nil
}

// BeforeSave hook is called before saving the account
func (a *Account) BeforeSave(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "account"
}

// UpdateProfileRequest represents the fields a user may change themselves
type UpdateProfileRequest struct {
	Name      string `json:"name" binding:"omitempty,max=100"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url"`
}
