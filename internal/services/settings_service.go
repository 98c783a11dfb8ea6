package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/termfolio/internal/models"
	apperrors "github.com/charlesng35/termfolio/pkg/errors"
)

// SettingsService manages the admin-editable content fragments rendered by
// terminal commands (about, location, tech stack, contact).
type SettingsService struct {
	db *gorm.DB
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(db *gorm.DB) (*SettingsService, error) {
	if db == nil {
		return nil, errors.New("settings service: db is required")
	}
	return &SettingsService{db: db}, nil
}

// All returns every setting keyed by name.
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	var settings []models.SiteSetting
	if err := s.db.WithContext(ctx).Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("settings service: list: %w", err)
	}

	out := make(map[string]string, len(settings))
	for _, setting := range settings {
		out[setting.Key] = setting.Value
	}
	return out, nil
}

// Get loads a single setting.
func (s *SettingsService) Get(ctx context.Context, key string) (*models.SiteSetting, error) {
	key = normalizeSettingKey(key)
	if key == "" {
		return nil, apperrors.NewBadRequest("Setting key is required")
	}

	var setting models.SiteSetting
	err := s.db.WithContext(ctx).Take(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("Setting not found")
	}
	if err != nil {
		return nil, fmt.Errorf("settings service: get: %w", err)
	}
	return &setting, nil
}

// Value returns the raw value for a key, or empty string when unset. Terminal
// commands use this and render their own fallback text.
func (s *SettingsService) Value(ctx context.Context, key string) (string, error) {
	setting, err := s.Get(ctx, key)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrNotFound.Code {
			return "", nil
		}
		return "", err
	}
	return setting.Value, nil
}

// Set creates or updates a setting value.
func (s *SettingsService) Set(ctx context.Context, key, value string) (*models.SiteSetting, error) {
	key = normalizeSettingKey(key)
	if key == "" {
		return nil, apperrors.NewBadRequest("Setting key is required")
	}

	setting := &models.SiteSetting{Key: key, Value: value}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(setting).Error
	if err != nil {
		return nil, fmt.Errorf("settings service: set: %w", err)
	}
	return s.Get(ctx, key)
}

func normalizeSettingKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
