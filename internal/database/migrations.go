package database

import (
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/termfolio/internal/models"
	"github.com/charlesng35/termfolio/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.MFASecret{},
		&models.Project{},
		&models.BlogPost{},
		&models.SiteSetting{},
		&models.CacheEntry{},
		&models.CommandLog{},
	)
}

// SeedData populates default site settings and a starter project so the public
// terminal commands have content before the admin customises anything.
func SeedData(db *gorm.DB) error {
	defaults := []models.SiteSetting{
		{Key: models.SettingLocation, Value: "Somewhere on planet Earth (UTC+0)"},
		{Key: models.SettingTechStack, Value: "Go, TypeScript, PostgreSQL, Redis"},
		{Key: models.SettingAbout, Value: "Software engineer who lives in the terminal."},
		{Key: models.SettingContact, Value: "hello@example.com"},
	}

	for _, setting := range defaults {
		if err := db.Where(models.SiteSetting{Key: setting.Key}).
			Attrs(setting).
			FirstOrCreate(&models.SiteSetting{}).Error; err != nil {
			return err
		}
	}

	starters := []models.Project{
		{
			Slug:         "termfolio",
			Name:         "Termfolio",
			Description:  "This site. A terminal-themed portfolio backend.",
			Technologies: datatypes.JSON([]byte(`["Go","Gin","GORM"]`)),
			RepoURL:      "https://github.com/charlesng35/termfolio",
			Featured:     true,
			Published:    true,
		},
	}

	for _, project := range starters {
		if err := db.Where(models.Project{Slug: project.Slug}).
			Attrs(project).
			FirstOrCreate(&models.Project{}).Error; err != nil {
			return err
		}
	}

	return nil
}

// EnsureRootUser creates the root admin account when no root user exists yet.
// An existing root user is never modified, so password rotation happens through
// the dashboard rather than configuration.
func EnsureRootUser(db *gorm.DB, email, password string) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return errors.New("root user requires email and password")
	}

	var count int64
	if err := db.Model(&models.User{}).Where("is_root = ?", true).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}

	root := models.User{
		Email:       email,
		Password:    hash,
		DisplayName: "Admin",
		Role:        models.RoleAdmin,
		IsRoot:      true,
		IsActive:    true,
	}

	return db.Create(&root).Error
}
