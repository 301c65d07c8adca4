// Package domain defines the persistence models for saved prompts and
// welcome-email bookkeeping. These types are mapped with GORM and form the
// core data layer of the prompt-enhancement application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Prompt represents one saved enhancement owned by a user: the raw input the
// user typed and the enhanced output the model produced, stored side by side
// so the library view can show both.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the prompt owner; indexed for efficient retrieval.
//   - Label: short human-readable label derived from the input (auto-generated
//     if not provided).
//   - Input: the raw prompt the user submitted.
//   - Output: the enhanced prompt returned by the model.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Prompt struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_prompts"`
	Label     string         `json:"label"      gorm:"type:varchar(255);not null;default:'Saved Prompt'"`
	Input     string         `json:"input"      gorm:"type:text;not null"`
	Output    string         `json:"output"     gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_user_prompts,priority:2"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Prompt.
func (Prompt) TableName() string { return "prompts" }

// WelcomeEmail records that a welcome email was dispatched to an address.
// The unique index makes the send idempotent: a user who signs in twice is
// greeted once.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: identifier of the greeted user.
//   - Email: destination address (unique; one greeting per address).
//   - SentAt: dispatch timestamp.
type WelcomeEmail struct {
	ID     string    `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID string    `json:"user_id" gorm:"type:varchar(64);not null;index"`
	Email  string    `json:"email"   gorm:"type:varchar(255);not null;uniqueIndex:ux_welcome_email"`
	SentAt time.Time `json:"sent_at"`
}

// TableName returns the database table name for WelcomeEmail.
func (WelcomeEmail) TableName() string { return "welcome_emails" }
