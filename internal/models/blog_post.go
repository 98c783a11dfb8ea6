package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BlogPost is a markdown content entity served through the blog commands and API.
type BlogPost struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	Slug    string `gorm:"uniqueIndex;not null" json:"slug"`
	Title   string `gorm:"not null" json:"title"`
	Summary string `json:"summary"`
	Body    string `gorm:"type:text" json:"body"`

	Tags datatypes.JSON `json:"tags"`

	Published   bool       `gorm:"default:false;index" json:"published"`
	PublishedAt *time.Time `json:"published_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *BlogPost) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
