package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvitationDuration is how long an invitation remains actionable
const InvitationDuration = time.Hour * 24 * 30 // 30 days

// InvitationStatus is the lifecycle state of an invitation.
// pending transitions exactly once to accepted or rejected.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// Invitation is a time-bounded, single-response offer to join a group,
// addressed by email. The partial unique index enforces at most one
// pending invitation per (group, email); a concurrent duplicate invite
// surfaces as gorm.ErrDuplicatedKey rather than a second row.
type Invitation struct {
	ID           string           `gorm:"primaryKey;size:36" json:"id"`
	GroupID      string           `gorm:"size:36;not null;index;uniqueIndex:idx_invitation_pending,where:status = 'pending'" json:"group_id"`
	InviterID    string           `gorm:"size:36;not null" json:"inviter_id"`
	InviteeEmail string           `gorm:"size:255;not null;index;uniqueIndex:idx_invitation_pending,where:status = 'pending'" json:"invitee_email"`
	InviteeName  string           `gorm:"size:100" json:"invitee_name"`
	Status       InvitationStatus `gorm:"size:10;not null;default:'pending'" json:"status"`
	Message      string           `gorm:"type:text" json:"message"`
	CreatedAt    time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"not null" json:"updated_at"`
	ExpiresAt    time.Time        `gorm:"not null;index" json:"expires_at"`
}

// BeforeCreate hook for invitations
func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Status == "" {
		i.Status = InvitationPending
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	if i.UpdatedAt.IsZero() {
		i.UpdatedAt = now
	}
	if i.ExpiresAt.IsZero() {
		i.ExpiresAt = now.Add(InvitationDuration)
	}
	return nil
}

// IsExpired reports whether the invitation is past its expiry. An expired
// invitation is non-actionable even while its status is still pending.
func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// TableName specifies the table name for the Invitation model
func (Invitation) TableName() string {
	return "invitation"
}

// InviteRequest represents the data needed to invite someone to a group
type InviteRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Name    string `json:"name" binding:"omitempty,max=100"`
	Message string `json:"message" binding:"omitempty,max=1000"`
}

// RespondInvitationRequest represents the invitee's (or inviter's) response
type RespondInvitationRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
}
