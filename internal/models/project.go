package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project statuses shown in the terminal `projects` listing.
const (
	ProjectStatusActive   = "active"
	ProjectStatusArchived = "archived"
	ProjectStatusWIP      = "wip"
)

// Project is a portfolio entry managed through the admin dashboard.
type Project struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	Technologies datatypes.JSON `json:"technologies"`

	RepoURL string `json:"repo_url"`
	LiveURL string `json:"live_url"`

	Status    string `gorm:"default:active" json:"status"`
	Featured  bool   `gorm:"default:false" json:"featured"`
	SortOrder int    `gorm:"default:0;index" json:"sort_order"`
	Published bool   `gorm:"default:true" json:"published"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
