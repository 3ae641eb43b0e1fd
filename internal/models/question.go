package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Question is a group Q&A post
type Question struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	GroupID   string    `gorm:"size:36;not null;index" json:"group_id"`
	UserID    string    `gorm:"size:36;not null;index" json:"user_id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Resolved  bool      `gorm:"not null;default:false" json:"resolved"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Replies []Reply `gorm:"foreignKey:QuestionID" json:"replies,omitempty"`
}

// BeforeCreate hook for questions
func (q *Question) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = now
	}
	return nil
}

// TableName specifies the table name for the Question model
func (Question) TableName() string {
	return "question"
}

// Reply is an answer to a question
type Reply struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	QuestionID string    `gorm:"size:36;not null;index" json:"question_id"`
	UserID     string    `gorm:"size:36;not null" json:"user_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

// BeforeCreate hook for replies
func (r *Reply) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return nil
}

// TableName specifies the table name for the Reply model
func (Reply) TableName() string {
	return "reply"
}

// CreateQuestionRequest represents the data needed to post a question
type CreateQuestionRequest struct {
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content" binding:"required,max=5000"`
}

// CreateReplyRequest represents the data needed to post a reply
type CreateReplyRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}
