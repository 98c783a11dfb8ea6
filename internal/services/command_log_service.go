package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/termfolio/internal/models"
)

// CommandStat aggregates executions of one command.
type CommandStat struct {
	Command string `json:"command"`
	Count   int64  `json:"count"`
}

// CommandLogService persists and aggregates terminal command executions.
type CommandLogService struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewCommandLogService constructs a CommandLogService.
func NewCommandLogService(db *gorm.DB) (*CommandLogService, error) {
	if db == nil {
		return nil, errors.New("command log service: db is required")
	}
	return &CommandLogService{db: db, clock: time.Now}, nil
}

// Record stores one command execution. Implements the dispatcher's recorder.
func (s *CommandLogService) Record(ctx context.Context, entry models.CommandLog) error {
	if entry.Command == "" {
		return errors.New("command log service: command is required")
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("command log service: record: %w", err)
	}
	return nil
}

// RecentCommands returns the latest successful command lines for one client,
// oldest first, powering the terminal history command.
func (s *CommandLogService) RecentCommands(ctx context.Context, clientIP string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	var entries []models.CommandLog
	err := s.db.WithContext(ctx).
		Where("client_ip = ? AND outcome = ?", clientIP, models.CommandOutcomeOK).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("command log service: recent: %w", err)
	}

	lines := make([]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		lines = append(lines, entries[i].Input)
	}
	return lines, nil
}

// CountSince returns the number of executions after the cutoff.
func (s *CommandLogService) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.CommandLog{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("command log service: count: %w", err)
	}
	return count, nil
}

// TopCommands returns the most executed commands after the cutoff.
func (s *CommandLogService) TopCommands(ctx context.Context, since time.Time, limit int) ([]CommandStat, error) {
	if limit <= 0 {
		limit = 10
	}

	var stats []CommandStat
	err := s.db.WithContext(ctx).
		Model(&models.CommandLog{}).
		Select("command, COUNT(*) AS count").
		Where("created_at >= ? AND outcome = ?", since, models.CommandOutcomeOK).
		Group("command").
		Order("count DESC").
		Limit(limit).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("command log service: top commands: %w", err)
	}
	return stats, nil
}

// PurgeOlderThan removes log entries past the retention window.
func (s *CommandLogService) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}

	cutoff := s.clock().Add(-retention)
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.CommandLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("command log service: purge: %w", result.Error)
	}
	return result.RowsAffected, nil
}
