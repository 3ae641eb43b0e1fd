package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemberRole governs authorization for group-scoped mutations
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// Group represents a study group
type Group struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	Name              string    `gorm:"size:100;not null" json:"name"`
	Description       string    `gorm:"type:text" json:"description"`
	OwnerID           string    `gorm:"size:36;not null;index" json:"owner_id"`
	IsPublic          bool      `gorm:"not null;default:false" json:"is_public"`
	AllowMemberInvite bool      `gorm:"not null;default:false" json:"allow_member_invite"`
	CreatedAt         time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null" json:"updated_at"`

	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

// BeforeCreate hook is called before creating a new group
func (g *Group) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	if g.UpdatedAt.IsZero() {
		g.UpdatedAt = now
	}
	return nil
}

// TableName specifies the table name for the Group model
func (Group) TableName() string {
	return "group"
}

// GroupMember represents a user's membership in a group.
// Exactly one membership record may exist per (group, user) pair; the
// composite unique index makes a concurrent double-join a constraint
// violation instead of a silent duplicate.
type GroupMember struct {
	ID       string     `gorm:"primaryKey;size:36" json:"id"`
	GroupID  string     `gorm:"size:36;not null;uniqueIndex:idx_member_group_user" json:"group_id"`
	UserID   string     `gorm:"size:36;not null;uniqueIndex:idx_member_group_user" json:"user_id"`
	Role     MemberRole `gorm:"size:10;not null;default:'member'" json:"role"`
	JoinedAt time.Time  `gorm:"not null" json:"joined_at"`
}

// BeforeCreate hook for group members
func (m *GroupMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	if m.Role == "" {
		m.Role = RoleMember
	}
	return nil
}

// TableName specifies the table name for the GroupMember model
func (GroupMember) TableName() string {
	return "group_member"
}

// CanManageMembers reports whether the role may change or remove other members
func (r MemberRole) CanManageMembers() bool {
	return r == RoleOwner || r == RoleAdmin
}

// CreateGroupRequest represents the data needed to create a new group
type CreateGroupRequest struct {
	Name              string `json:"name" binding:"required,max=100"`
	Description       string `json:"description" binding:"max=2000"`
	IsPublic          bool   `json:"is_public"`
	AllowMemberInvite bool   `json:"allow_member_invite"`
}

// UpdateGroupRequest represents the mutable group fields
type UpdateGroupRequest struct {
	Name              *string `json:"name" binding:"omitempty,max=100"`
	Description       *string `json:"description" binding:"omitempty,max=2000"`
	IsPublic          *bool   `json:"is_public"`
	AllowMemberInvite *bool   `json:"allow_member_invite"`
}

// ManageMemberRequest represents an explicit membership mutation by an
// owner or admin. Action is either "remove" or "changeRole".
type ManageMemberRequest struct {
	MemberID string     `json:"member_id" binding:"required"`
	Action   string     `json:"action" binding:"required,oneof=remove changeRole"`
	Role     MemberRole `json:"role" binding:"omitempty,oneof=admin member"`
}
