package models

import "time"

type SessionMode string

const (
	ModeChat        SessionMode = "chat"
	ModeIssueSolver SessionMode = "issue_solver"
)

// ChatSession carries the ownership used for every authorization check on
// issue solutions.
type ChatSession struct {
	ID        string      `gorm:"primaryKey;size:36" json:"id"`
	UserID    string      `gorm:"size:128;not null;index" json:"user_id"`
	Title     string      `gorm:"size:255;not null;default:'New Chat'" json:"title"`
	Mode      SessionMode `gorm:"size:32;not null;default:chat" json:"mode"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (ChatSession) TableName() string { return "chat_sessions" }
