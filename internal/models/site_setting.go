package models

import "time"

// Well-known site setting keys referenced by terminal commands.
const (
	SettingLocation  = "location"
	SettingTechStack = "tech_stack"
	SettingAbout     = "about"
	SettingContact   = "contact"
)

// SiteSetting stores admin-editable content fragments (location, tech stack,
// about text) keyed by name.
type SiteSetting struct {
	Key       string    `gorm:"primaryKey;size:128" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
