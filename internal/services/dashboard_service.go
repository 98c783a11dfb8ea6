package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/termfolio/internal/models"
)

// DashboardStats summarises site activity for the admin overview page.
type DashboardStats struct {
	Projects          int64         `json:"projects"`
	PublishedProjects int64         `json:"published_projects"`
	Posts             int64         `json:"posts"`
	PublishedPosts    int64         `json:"published_posts"`
	CommandsToday     int64         `json:"commands_today"`
	CommandsWeek      int64         `json:"commands_week"`
	TopCommands       []CommandStat `json:"top_commands"`
}

// DashboardService aggregates counters across content and command logs.
type DashboardService struct {
	db          *gorm.DB
	commandLogs *CommandLogService
	clock       func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(db *gorm.DB, commandLogs *CommandLogService) (*DashboardService, error) {
	if db == nil {
		return nil, errors.New("dashboard service: db is required")
	}
	if commandLogs == nil {
		return nil, errors.New("dashboard service: command log service is required")
	}
	return &DashboardService{db: db, commandLogs: commandLogs, clock: time.Now}, nil
}

// Stats computes the dashboard overview.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	counts := []struct {
		model any
		query string
		args  []any
		dest  *int64
	}{
		{&models.Project{}, "", nil, &stats.Projects},
		{&models.Project{}, "published = ?", []any{true}, &stats.PublishedProjects},
		{&models.BlogPost{}, "", nil, &stats.Posts},
		{&models.BlogPost{}, "published = ?", []any{true}, &stats.PublishedPosts},
	}

	for _, c := range counts {
		query := s.db.WithContext(ctx).Model(c.model)
		if c.query != "" {
			query = query.Where(c.query, c.args...)
		}
		if err := query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("dashboard service: count: %w", err)
		}
	}

	now := s.clock()
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	var err error
	if stats.CommandsToday, err = s.commandLogs.CountSince(ctx, dayAgo); err != nil {
		return nil, err
	}
	if stats.CommandsWeek, err = s.commandLogs.CountSince(ctx, weekAgo); err != nil {
		return nil, err
	}
	if stats.TopCommands, err = s.commandLogs.TopCommands(ctx, weekAgo, 5); err != nil {
		return nil, err
	}

	return stats, nil
}
