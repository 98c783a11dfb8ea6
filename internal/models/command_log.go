package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Command dispatch outcomes recorded in CommandLog.
const (
	CommandOutcomeOK      = "ok"
	CommandOutcomeUnknown = "unknown"
	CommandOutcomeError   = "error"
)

// CommandLog records a single terminal command dispatch for dashboard analytics.
type CommandLog struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	Command string `gorm:"index;not null" json:"command"`
	Input   string `json:"input"`
	Outcome string `gorm:"index" json:"outcome"` // ok | unknown | error

	ClientIP  string `json:"client_ip"`
	UserAgent string `json:"user_agent"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (l *CommandLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
