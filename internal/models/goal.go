package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Goal is a group-scoped study goal
type Goal struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	GroupID     string     `gorm:"size:36;not null;index" json:"group_id"`
	UserID      string     `gorm:"size:36;not null" json:"user_id"` // creator
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Progress    int        `gorm:"not null;default:0" json:"progress"` // 0-100
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`

	Subgoals []Subgoal `gorm:"foreignKey:GoalID" json:"subgoals,omitempty"`
}

// BeforeCreate hook for goals
func (g *Goal) BeforeCreate(tx *gorm.DB) error {
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

// TableName specifies the table name for the Goal model
func (Goal) TableName() string {
	return "goal"
}

// Subgoal is a single checkable step belonging to a goal
type Subgoal struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	GoalID    string    `gorm:"size:36;not null;index" json:"goal_id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Completed bool      `gorm:"not null;default:false" json:"completed"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook for subgoals
func (s *Subgoal) BeforeCreate(tx *gorm.DB) error {
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

// TableName specifies the table name for the Subgoal model
func (Subgoal) TableName() string {
	return "subgoal"
}

// CreateGoalRequest represents the data needed to create a goal
type CreateGoalRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=2000"`
	Deadline    *time.Time `json:"deadline"`
	Subgoals    []string   `json:"subgoals" binding:"omitempty,dive,max=200"`
}

// UpdateGoalRequest represents the mutable goal fields
type UpdateGoalRequest struct {
	Title       *string    `json:"title" binding:"omitempty,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Deadline    *time.Time `json:"deadline"`
	Progress    *int       `json:"progress" binding:"omitempty,min=0,max=100"`
	Completed   *bool      `json:"completed"`
}
